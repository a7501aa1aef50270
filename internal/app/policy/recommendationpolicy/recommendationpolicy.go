// Package recommendationpolicy decides who may see and act on
// recommendations.
//
// Authorization rules:
//   - Admins see and manage all recommendations.
//   - Chiefs see and manage recommendations in their own department.
//   - Users see only recommendations assigned to them, and may only
//     submit their own work for confirmation.
//
// The role scope is the hard security boundary: UI-level filters
// (status, department, search) are applied on top of it by stores and
// the feed cache, and can only narrow the result set.
package recommendationpolicy

import (
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListScope describes the subset of recommendations an actor may list.
type ListScope struct {
	// CanList is false only for callers with no recognized role.
	CanList bool
	// All means no scope filter (admins).
	All bool
	// DepartmentID restricts to one department (chiefs).
	DepartmentID *primitive.ObjectID
	// AssigneeID restricts to one assignee (regular users).
	AssigneeID *primitive.ObjectID
}

// Filter returns the Mongo filter enforcing the scope. UI filters are
// AND-ed onto this by the store, so they can never widen it.
func (s ListScope) Filter() bson.M {
	switch {
	case s.All:
		return bson.M{}
	case s.DepartmentID != nil:
		return bson.M{"department_id": *s.DepartmentID}
	case s.AssigneeID != nil:
		return bson.M{"user_id": *s.AssigneeID}
	default:
		return bson.M{"_id": primitive.NilObjectID} // matches nothing
	}
}

// Allows reports whether a single recommendation falls inside the scope.
// Used by the feed cache to filter change events the same way lists are
// filtered.
func (s ListScope) Allows(rec models.Recommendation) bool {
	switch {
	case !s.CanList:
		return false
	case s.All:
		return true
	case s.DepartmentID != nil:
		return rec.DepartmentID != nil && *rec.DepartmentID == *s.DepartmentID
	case s.AssigneeID != nil:
		return rec.UserID == *s.AssigneeID
	default:
		return false
	}
}

// Scope computes the actor's list scope.
//
//   - admin: everything
//   - chief: own department
//   - user: own assignments only — never other users' records, even in
//     the same department
func Scope(a authz.Actor) ListScope {
	switch {
	case a.IsAdmin():
		return ListScope{CanList: true, All: true}
	case a.IsChief():
		if a.DepartmentID == nil {
			return ListScope{}
		}
		return ListScope{CanList: true, DepartmentID: a.DepartmentID}
	case a.IsUser():
		id := a.ID
		return ListScope{CanList: true, AssigneeID: &id}
	default:
		return ListScope{}
	}
}

// CanView reports whether the actor may read the recommendation.
func CanView(a authz.Actor, rec models.Recommendation) bool {
	return Scope(a).Allows(rec)
}

// CanEdit reports whether the actor may change the recommendation's
// content (title, description, deadline, department) or delete it.
// Admins always; chiefs within their own department.
func CanEdit(a authz.Actor, rec models.Recommendation) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsChief() && a.SameDepartment(rec.DepartmentID)
}

// CanConfirm reports whether the actor holds confirmation rights for the
// recommendation: admin for any, chief only within their department.
// The pending-status gate is enforced separately by the lifecycle engine.
func CanConfirm(a authz.Actor, rec models.Recommendation) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsChief() && a.SameDepartment(rec.DepartmentID)
}

// CanSubmit reports whether the actor may submit the recommendation for
// confirmation (in_progress → pending): assignees only, on their own
// record.
func CanSubmit(a authz.Actor, rec models.Recommendation) bool {
	return a.IsUser() && rec.UserID == a.ID
}

// CanCreate reports whether the actor may create recommendations.
func CanCreate(a authz.Actor) bool {
	return a.IsAdmin() || a.IsChief()
}

// CanDelete mirrors edit rights; deletion is immediate and permitted
// regardless of the record's status.
func CanDelete(a authz.Actor, rec models.Recommendation) bool {
	return CanEdit(a, rec)
}
