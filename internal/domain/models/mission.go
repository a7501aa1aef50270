// internal/domain/models/mission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mission status values.
//
// Overdue is never stored: it is derived at view time from the deadline.
const (
	MissionActive    = "active"
	MissionCompleted = "completed"
	MissionOverdue   = "overdue"
)

// Mission groups recommendations under one departmental goal.
//
// Created and mutated by admins or chiefs. CreatedByName is denormalized
// from the creator's profile so lists render without a join; if the
// enrichment lookup fails at write time it holds the "Unknown" placeholder.
type Mission struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Title         string              `bson:"title" json:"title"`
	TitleCI       string              `bson:"title_ci" json:"title_ci"`
	Description   string              `bson:"description" json:"description"`
	CreatedBy     primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedByName string              `bson:"created_by_name" json:"created_by_name"`
	DepartmentID  *primitive.ObjectID `bson:"department_id,omitempty" json:"department_id,omitempty"`
	Deadline      *time.Time          `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Status        string              `bson:"status" json:"status"` // active | completed
	CompletedAt   *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DisplayStatus returns the status label shown to callers: a stored
// "active" mission whose deadline has passed reads as overdue, without
// that ever being written back to the document.
func (m Mission) DisplayStatus(now time.Time) string {
	if m.Status == MissionActive && m.Deadline != nil && m.Deadline.Before(now) {
		return MissionOverdue
	}
	return m.Status
}

// WithCompleted returns a copy of m toggled to completed or back to
// active, the same way the store writes the toggle.
func (m Mission) WithCompleted(completed bool, at time.Time) Mission {
	if completed {
		t := at.UTC()
		m.Status = MissionCompleted
		m.CompletedAt = &t
	} else {
		m.Status = MissionActive
		m.CompletedAt = nil
	}
	m.UpdatedAt = at.UTC()
	return m
}
