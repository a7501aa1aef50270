package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func rec(status string, deptID *primitive.ObjectID, assignee primitive.ObjectID) models.Recommendation {
	return models.Recommendation{
		ID:           primitive.NewObjectID(),
		Content:      "Inspect pumps\nCheck the backup pumps in building C",
		Status:       status,
		DepartmentID: deptID,
		UserID:       assignee,
	}
}

func admin() authz.Actor {
	return authz.Actor{ID: primitive.NewObjectID(), Role: "admin"}
}

func chiefOf(dept primitive.ObjectID) authz.Actor {
	return authz.Actor{ID: primitive.NewObjectID(), Role: "chief", DepartmentID: &dept}
}

func userActor(id primitive.ObjectID, dept primitive.ObjectID) authz.Actor {
	return authz.Actor{ID: id, Role: "user", DepartmentID: &dept}
}

func TestSubmit_AssigneeOnly(t *testing.T) {
	dept := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	r := rec(models.RecInProgress, &dept, assignee)

	eff, err := Transition(r, models.RecPending, userActor(assignee, dept), now)
	if err != nil {
		t.Fatalf("assignee submit failed: %v", err)
	}
	if eff.Status != models.RecPending {
		t.Errorf("status: got %q, want %q", eff.Status, models.RecPending)
	}
	if eff.ConfirmedAt != nil || eff.ConfirmedBy != nil {
		t.Error("submit must not set confirmation fields")
	}
}

func TestSubmit_OtherUserForbidden(t *testing.T) {
	// Same department is not enough: user scope is assignee-only.
	dept := primitive.NewObjectID()
	r := rec(models.RecInProgress, &dept, primitive.NewObjectID())

	for _, from := range []string{models.RecInProgress, models.RecPending, models.RecConfirmed} {
		r.Status = from
		_, err := Transition(r, models.RecPending, userActor(primitive.NewObjectID(), dept), now)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("from %q: got %v, want Forbidden", from, err)
		}
	}
}

func TestSubmit_InvalidFromStates(t *testing.T) {
	dept := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	actor := userActor(assignee, dept)

	for _, from := range []string{models.RecPending, models.RecConfirmed} {
		r := rec(from, &dept, assignee)
		_, err := Transition(r, models.RecPending, actor, now)
		if !errors.Is(err, apperr.ErrInvalidState) {
			t.Errorf("from %q: got %v, want InvalidState", from, err)
		}
	}
}

func TestConfirm_AdminAnyDepartment(t *testing.T) {
	dept := primitive.NewObjectID()
	r := rec(models.RecPending, &dept, primitive.NewObjectID())
	a := admin()

	eff, err := Transition(r, models.RecConfirmed, a, now)
	if err != nil {
		t.Fatalf("admin confirm failed: %v", err)
	}
	if eff.ConfirmedAt == nil || !eff.ConfirmedAt.Equal(now) {
		t.Error("confirm must set confirmed_at to now")
	}
	if eff.ConfirmedBy == nil || *eff.ConfirmedBy != a.ID {
		t.Error("confirm must record the confirming actor")
	}
	if eff.CompletedAt == nil {
		t.Error("confirm must set completed_at")
	}

	// Invariant: after applying, confirmed ⇔ confirmed_at and confirmed_by set.
	got := eff.ApplyTo(r)
	if got.Status != models.RecConfirmed || got.ConfirmedAt == nil || got.ConfirmedBy == nil {
		t.Error("applied record violates the confirmation invariant")
	}
}

func TestConfirm_ChiefSameDepartmentOnly(t *testing.T) {
	dept := primitive.NewObjectID()
	other := primitive.NewObjectID()
	r := rec(models.RecPending, &dept, primitive.NewObjectID())

	if _, err := Transition(r, models.RecConfirmed, chiefOf(dept), now); err != nil {
		t.Errorf("same-department chief confirm failed: %v", err)
	}

	_, err := Transition(r, models.RecConfirmed, chiefOf(other), now)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("cross-department chief: got %v, want Forbidden", err)
	}
}

func TestConfirm_Idempotence(t *testing.T) {
	// Confirming twice yields success then InvalidState: the second
	// call's from-guard fails on the terminal state.
	dept := primitive.NewObjectID()
	r := rec(models.RecPending, &dept, primitive.NewObjectID())
	a := admin()

	eff, err := Transition(r, models.RecConfirmed, a, now)
	if err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	r = eff.ApplyTo(r)

	_, err = Transition(r, models.RecConfirmed, a, now.Add(time.Minute))
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("second confirm: got %v, want InvalidState", err)
	}
}

func TestReopen_ClearsConfirmationFields(t *testing.T) {
	dept := primitive.NewObjectID()
	r := rec(models.RecPending, &dept, primitive.NewObjectID())
	a := admin()

	eff, err := Transition(r, models.RecConfirmed, a, now)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	r = eff.ApplyTo(r)

	eff, err = Transition(r, models.RecInProgress, chiefOf(dept), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	r = eff.ApplyTo(r)

	if r.Status != models.RecInProgress {
		t.Errorf("status: got %q, want %q", r.Status, models.RecInProgress)
	}
	if r.ConfirmedAt != nil || r.ConfirmedBy != nil || r.CompletedAt != nil {
		t.Error("reopen must clear confirmation fields")
	}
}

func TestReopen_RequiresEditRights(t *testing.T) {
	dept := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	r := rec(models.RecPending, &dept, assignee)

	_, err := Transition(r, models.RecInProgress, userActor(assignee, dept), now)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("assignee reopen: got %v, want Forbidden", err)
	}
}

func TestOverdueIsDisplayOnly(t *testing.T) {
	// A recommendation past its deadline is labeled overdue but its
	// stored status stays in_progress, so submission still works.
	dept := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	past := now.Add(-48 * time.Hour)
	r := rec(models.RecInProgress, &dept, assignee)
	r.Deadline = &past

	if got := r.DisplayStatus(now); got != models.RecOverdue {
		t.Errorf("DisplayStatus: got %q, want %q", got, models.RecOverdue)
	}

	if _, err := Transition(r, models.RecPending, userActor(assignee, dept), now); err != nil {
		t.Errorf("overdue in-progress record must still be submittable: %v", err)
	}
}

func TestLegacyCompletedTreatedAsConfirmed(t *testing.T) {
	dept := primitive.NewObjectID()
	r := rec(models.RecCompleted, &dept, primitive.NewObjectID())

	_, err := Transition(r, models.RecConfirmed, admin(), now)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("confirming a legacy completed record: got %v, want InvalidState", err)
	}

	// Reopen works from the legacy terminal state too.
	if _, err := Transition(r, models.RecInProgress, admin(), now); err != nil {
		t.Errorf("reopening a legacy completed record failed: %v", err)
	}
}

func TestUnknownTargetStatus(t *testing.T) {
	dept := primitive.NewObjectID()
	r := rec(models.RecInProgress, &dept, primitive.NewObjectID())

	_, err := Transition(r, "overdue", admin(), now)
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Errorf("overdue must not be a manual transition target: got %v", err)
	}
}
