// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values for User.Role.
//
// Admins are global; chiefs and users are scoped to a department.
// Role is immutable after creation — there is no self-service role change.
const (
	RoleAdmin = "admin"
	RoleChief = "chief"
	RoleUser  = "user"
)

// User represents admins, department chiefs, and regular users.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	NameCI       string              `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	PasswordHash *string             `bson:"password_hash,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"` // admin | chief | user
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	DepartmentID *primitive.ObjectID `bson:"department_id,omitempty" json:"department_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
