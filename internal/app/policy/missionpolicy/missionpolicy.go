// Package missionpolicy decides who may see and manage missions.
//
// Authorization rules:
//   - Admins see and manage all missions.
//   - Chiefs see missions in their own department, plus missions they
//     personally created in any department (creator override), and may
//     manage the ones they can see.
//   - Users see their own department's missions, read-only.
package missionpolicy

import (
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListScope describes the subset of missions an actor may list.
type ListScope struct {
	CanList bool
	All     bool
	// DepartmentID restricts to one department (chiefs and users).
	DepartmentID *primitive.ObjectID
	// CreatorID additionally admits missions created by this actor
	// (chiefs only).
	CreatorID *primitive.ObjectID
}

// Filter returns the Mongo filter enforcing the scope.
func (s ListScope) Filter() bson.M {
	switch {
	case s.All:
		return bson.M{}
	case s.DepartmentID != nil && s.CreatorID != nil:
		return bson.M{"$or": bson.A{
			bson.M{"department_id": *s.DepartmentID},
			bson.M{"created_by": *s.CreatorID},
		}}
	case s.DepartmentID != nil:
		return bson.M{"department_id": *s.DepartmentID}
	default:
		return bson.M{"_id": primitive.NilObjectID} // matches nothing
	}
}

// Allows reports whether a single mission falls inside the scope.
func (s ListScope) Allows(m models.Mission) bool {
	switch {
	case !s.CanList:
		return false
	case s.All:
		return true
	default:
		if s.DepartmentID != nil && m.DepartmentID != nil && *m.DepartmentID == *s.DepartmentID {
			return true
		}
		return s.CreatorID != nil && m.CreatedBy == *s.CreatorID
	}
}

// Scope computes the actor's mission list scope.
func Scope(a authz.Actor) ListScope {
	switch {
	case a.IsAdmin():
		return ListScope{CanList: true, All: true}
	case a.IsChief():
		if a.DepartmentID == nil {
			return ListScope{}
		}
		id := a.ID
		return ListScope{CanList: true, DepartmentID: a.DepartmentID, CreatorID: &id}
	case a.IsUser():
		if a.DepartmentID == nil {
			return ListScope{}
		}
		return ListScope{CanList: true, DepartmentID: a.DepartmentID}
	default:
		return ListScope{}
	}
}

// CanView reports whether the actor may read the mission.
func CanView(a authz.Actor, m models.Mission) bool {
	return Scope(a).Allows(m)
}

// CanCreate reports whether the actor may create missions.
func CanCreate(a authz.Actor) bool {
	return a.IsAdmin() || a.IsChief()
}

// CanManage reports whether the actor may edit, complete, or delete the
// mission. Admins always; chiefs for their department's missions and for
// missions they created.
func CanManage(a authz.Actor, m models.Mission) bool {
	if a.IsAdmin() {
		return true
	}
	if !a.IsChief() {
		return false
	}
	return a.SameDepartment(m.DepartmentID) || m.CreatedBy == a.ID
}
