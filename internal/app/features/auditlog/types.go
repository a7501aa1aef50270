// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/missionhub/internal/app/store/audit"
)

// eventView is one audit event row in the API response.
type eventView struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	DepartmentID  string            `json:"department_id,omitempty"`
	UserID        string            `json:"user_id,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	SubjectID     string            `json:"subject_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

func toEventView(e audit.Event) eventView {
	v := eventView{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		IP:            e.IP,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
	if e.DepartmentID != nil {
		v.DepartmentID = e.DepartmentID.Hex()
	}
	if e.UserID != nil {
		v.UserID = e.UserID.Hex()
	}
	if e.ActorID != nil {
		v.ActorID = e.ActorID.Hex()
	}
	if e.SubjectID != nil {
		v.SubjectID = e.SubjectID.Hex()
	}
	return v
}

// listResponse is the paged result of an audit query.
type listResponse struct {
	Events     []eventView `json:"events"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int64       `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// typesResponse feeds the dashboard's filter dropdowns.
type typesResponse struct {
	Categories []string            `json:"categories"`
	EventTypes map[string][]string `json:"event_types"`
}

func eventTypes() typesResponse {
	return typesResponse{
		Categories: []string{audit.CategoryAuth, audit.CategoryAdmin},
		EventTypes: map[string][]string{
			audit.CategoryAuth: {
				audit.EventLoginSuccess,
				audit.EventLoginFailedUserNotFound,
				audit.EventLoginFailedWrongPassword,
				audit.EventLoginFailedUserDisabled,
				audit.EventLoginFailedRateLimit,
				audit.EventLogout,
				audit.EventPasswordChanged,
			},
			audit.CategoryAdmin: {
				audit.EventUserCreated,
				audit.EventUserUpdated,
				audit.EventUserDisabled,
				audit.EventDepartmentCreated,
				audit.EventDepartmentRenamed,
				audit.EventDepartmentDeleted,
				audit.EventMissionCreated,
				audit.EventMissionUpdated,
				audit.EventMissionDeleted,
				audit.EventRecCreated,
				audit.EventRecUpdated,
				audit.EventRecSubmitted,
				audit.EventRecConfirmed,
				audit.EventRecReopened,
				audit.EventRecDeleted,
			},
		},
	}
}
