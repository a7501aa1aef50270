// internal/domain/models/recommendation.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommendation status values.
//
// RecOverdue is a derived display label, never stored. RecCompleted is the
// legacy terminal state from the pre-confirmation data model; reads map it
// to RecConfirmed (see Recommendation.CanonicalStatus).
const (
	RecInProgress = "in_progress"
	RecPending    = "pending"
	RecConfirmed  = "confirmed"
	RecCompleted  = "completed"
	RecOverdue    = "overdue"
)

// Recommendation is an assignable action item attached to a mission.
//
// Title and description are stored as a single newline-joined content
// field (first line = title, remainder = description); JoinContent and
// SplitTitle/SplitDescription convert losslessly between the two forms.
type Recommendation struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Content       string              `bson:"content" json:"-"`
	UserID        primitive.ObjectID  `bson:"user_id" json:"user_id"` // assignee
	CreatedByName string              `bson:"created_by_name" json:"created_by_name"`
	DepartmentID  *primitive.ObjectID `bson:"department_id,omitempty" json:"department_id,omitempty"`
	MissionID     *primitive.ObjectID `bson:"mission_id,omitempty" json:"mission_id,omitempty"`
	Deadline      *time.Time          `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Status        string              `bson:"status" json:"status"`
	CompletedAt   *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	ConfirmedAt   *time.Time          `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	ConfirmedBy   *primitive.ObjectID `bson:"confirmed_by,omitempty" json:"confirmed_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// JoinContent composes the stored content field from a title and
// description. The description may be empty or span multiple lines.
func JoinContent(title, description string) string {
	return strings.TrimSpace(title + "\n" + description)
}

// Title returns the first line of the stored content.
func (r Recommendation) Title() string {
	if i := strings.IndexByte(r.Content, '\n'); i >= 0 {
		return r.Content[:i]
	}
	return r.Content
}

// Description returns everything after the first content line.
func (r Recommendation) Description() string {
	if i := strings.IndexByte(r.Content, '\n'); i >= 0 {
		return r.Content[i+1:]
	}
	return ""
}

// CanonicalStatus maps the legacy "completed" terminal state onto
// "confirmed" so callers see a single lifecycle regardless of when the
// record was written.
func (r Recommendation) CanonicalStatus() string {
	if r.Status == RecCompleted {
		return RecConfirmed
	}
	return r.Status
}

// DisplayStatus is the label shown to callers. An in-progress
// recommendation past its deadline reads as overdue; the stored status is
// untouched, so the record remains eligible for the in_progress → pending
// transition.
func (r Recommendation) DisplayStatus(now time.Time) string {
	s := r.CanonicalStatus()
	if s == RecInProgress && r.Deadline != nil && r.Deadline.Before(now) {
		return RecOverdue
	}
	return s
}
