// internal/app/features/missions/types.go
package missions

import (
	"time"

	"github.com/dalemusser/missionhub/internal/domain/models"
)

// missionView is the API shape for a mission. Status carries the
// view-time label, so an active mission past its deadline reads as
// overdue without that ever being written to the store.
type missionView struct {
	models.Mission
	Status string `json:"status"`
}

func newMissionView(m models.Mission, now time.Time) missionView {
	return missionView{Mission: m, Status: m.DisplayStatus(now)}
}

type createRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DepartmentID string     `json:"department_id,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

type updateRequest struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	DepartmentID  *string    `json:"department_id,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ClearDeadline bool       `json:"clear_deadline,omitempty"`
}

type statusRequest struct {
	Completed bool `json:"completed"`
}
