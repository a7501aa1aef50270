// internal/app/features/recommendations/types.go
package recommendations

import (
	"time"

	"github.com/dalemusser/missionhub/internal/domain/models"
)

// recommendationView is the API shape for a recommendation. The stored
// newline-joined content is split back into title and description, and
// Status carries the view-time label (overdue, legacy mapping).
type recommendationView struct {
	models.Recommendation
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func newView(rec models.Recommendation, now time.Time) recommendationView {
	return recommendationView{
		Recommendation: rec,
		Title:          rec.Title(),
		Description:    rec.Description(),
		Status:         rec.DisplayStatus(now),
	}
}

type createRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	UserID       string     `json:"user_id"`
	DepartmentID string     `json:"department_id,omitempty"`
	MissionID    string     `json:"mission_id,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

type updateRequest struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	UserID        *string    `json:"user_id,omitempty"`
	DepartmentID  *string    `json:"department_id,omitempty"`
	MissionID     *string    `json:"mission_id,omitempty"`
	ClearMission  bool       `json:"clear_mission,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ClearDeadline bool       `json:"clear_deadline,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}
