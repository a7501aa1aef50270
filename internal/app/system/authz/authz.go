// Package authz converts the session user into the Actor value consumed
// by policies and the lifecycle engine.
//
// Keeping one Actor type for both "what is shown" (policy scope) and
// "what is allowed" (transition guards) prevents the two from drifting.
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller as seen by authorization code.
type Actor struct {
	ID           primitive.ObjectID
	Name         string
	Role         string // admin | chief | user (lowercased)
	DepartmentID *primitive.ObjectID
}

// UserCtx returns the caller as an Actor and a found flag. A missing user
// or malformed session id yields ok=false, so callers can trust ok=true
// to mean a valid authenticated actor.
func UserCtx(r *http.Request) (Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		// Malformed session id: fail closed.
		return Actor{}, false
	}
	a := Actor{
		ID:   id,
		Name: u.Name,
		Role: strings.ToLower(u.Role),
	}
	if u.DepartmentID != "" {
		if did, err := primitive.ObjectIDFromHex(u.DepartmentID); err == nil {
			a.DepartmentID = &did
		}
	}
	return a, true
}

// IsAdmin reports whether the actor has the global admin role.
func (a Actor) IsAdmin() bool { return a.Role == "admin" }

// IsChief reports whether the actor is a department chief.
func (a Actor) IsChief() bool { return a.Role == "chief" }

// IsUser reports whether the actor is a regular user.
func (a Actor) IsUser() bool { return a.Role == "user" }

// SameDepartment reports whether the actor's department matches the
// given one. False when either side is unset.
func (a Actor) SameDepartment(deptID *primitive.ObjectID) bool {
	return a.DepartmentID != nil && deptID != nil && *a.DepartmentID == *deptID
}
