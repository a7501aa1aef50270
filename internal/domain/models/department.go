// internal/domain/models/department.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department is an organizational unit that scopes chiefs, users,
// missions, and recommendations.
//
// Departments are immutable once created except for renames
// (acronym/name). Missions and recommendations reference a department
// by ID; a nil reference means the record is organization-wide.
type Department struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Acronym string             `bson:"acronym" json:"acronym"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
