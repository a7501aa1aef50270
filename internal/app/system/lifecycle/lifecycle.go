// Package lifecycle enforces the recommendation status state machine.
//
// States: in_progress (initial) → pending → confirmed (terminal).
// "overdue" is a view-time label derived from the deadline and is never
// written, so an overdue in-progress item may still be submitted.
//
// Every transition request is validated against the caller's rights
// (via recommendationpolicy — the same predicates that drive visibility)
// and the record's current status before any store mutation is
// attempted. Failed guards produce apperr categories so callers can
// distinguish forbidden, not-found, and invalid-state rejections.
package lifecycle

import (
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/recommendationpolicy"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Effects are the field mutations a validated transition must apply.
// Pointer fields distinguish "set to value" from "leave alone"; the
// Clear* flags unset fields.
type Effects struct {
	Status string

	ConfirmedAt *time.Time
	ConfirmedBy *primitive.ObjectID
	CompletedAt *time.Time

	ClearConfirmation bool // unset confirmed_at, confirmed_by, completed_at
}

// ApplyTo returns a copy of rec with the effects applied. The store uses
// the effects to build its update document; the feed cache uses ApplyTo
// for the optimistic local copy.
func (e Effects) ApplyTo(rec models.Recommendation) models.Recommendation {
	rec.Status = e.Status
	if e.ClearConfirmation {
		rec.ConfirmedAt = nil
		rec.ConfirmedBy = nil
		rec.CompletedAt = nil
	}
	if e.ConfirmedAt != nil {
		rec.ConfirmedAt = e.ConfirmedAt
	}
	if e.ConfirmedBy != nil {
		rec.ConfirmedBy = e.ConfirmedBy
	}
	if e.CompletedAt != nil {
		rec.CompletedAt = e.CompletedAt
	}
	return rec
}

// Transition validates a status change request and computes its effects.
// No mutation is attempted on error. The guard order is fixed: role and
// department rights first (Forbidden), then the from-state check
// (InvalidState), so an unauthorized caller learns nothing about the
// record's current status.
func Transition(rec models.Recommendation, to string, actor authz.Actor, now time.Time) (Effects, error) {
	from := rec.CanonicalStatus()

	switch to {
	case models.RecPending:
		// Submission for confirmation: assignees only, own record only.
		if !recommendationpolicy.CanSubmit(actor, rec) {
			return Effects{}, apperr.Forbiddenf("only the assignee may submit a recommendation for confirmation")
		}
		if from != models.RecInProgress {
			return Effects{}, apperr.InvalidStatef("recommendation is %q, only in-progress work can be submitted", from)
		}
		return Effects{Status: models.RecPending}, nil

	case models.RecConfirmed:
		if !recommendationpolicy.CanConfirm(actor, rec) {
			return Effects{}, apperr.Forbiddenf("confirmation requires admin rights or the department's chief")
		}
		if from != models.RecPending {
			return Effects{}, apperr.InvalidStatef("recommendation is %q, only pending work can be confirmed", from)
		}
		at := now.UTC()
		by := actor.ID
		return Effects{
			Status:      models.RecConfirmed,
			ConfirmedAt: &at,
			ConfirmedBy: &by,
			CompletedAt: &at,
		}, nil

	case models.RecInProgress:
		// Reopen: same rights as confirmation, clears the confirmation
		// fields so the confirmed ⇔ confirmed_at/confirmed_by invariant
		// holds.
		if !recommendationpolicy.CanConfirm(actor, rec) {
			return Effects{}, apperr.Forbiddenf("reopening requires admin rights or the department's chief")
		}
		if from != models.RecPending && from != models.RecConfirmed {
			return Effects{}, apperr.InvalidStatef("recommendation is already %q", from)
		}
		return Effects{Status: models.RecInProgress, ClearConfirmation: true}, nil

	default:
		return Effects{}, apperr.InvalidStatef("unknown target status %q", to)
	}
}
