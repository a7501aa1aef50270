package missionstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/missionpolicy"
	missionstore "github.com/dalemusser/missionhub/internal/app/store/missions"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/missionhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	dept := fix.CreateDepartment(ctx, "OPS", "Operations")
	chief := fix.CreateUser(ctx, "Dana Chief", "dana@test.com", models.RoleChief, &dept.ID)

	store := missionstore.New(db)
	created, err := store.Create(ctx, models.Mission{
		Title:         "  Quarterly safety review ",
		Description:   "Review all open findings.",
		CreatedBy:     chief.ID,
		CreatedByName: chief.Name,
		DepartmentID:  &dept.ID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != "Quarterly safety review" {
		t.Errorf("title not trimmed: %q", created.Title)
	}
	if created.Status != models.MissionActive {
		t.Errorf("default status: got %q, want %q", created.Status, models.MissionActive)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TitleCI == "" {
		t.Error("title_ci not populated")
	}
}

func TestList_ScopeFiltering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ops := fix.CreateDepartment(ctx, "OPS", "Operations")
	fin := fix.CreateDepartment(ctx, "FIN", "Finance")
	opsChief := fix.CreateUser(ctx, "Dana Chief", "dana@test.com", models.RoleChief, &ops.ID)
	finChief := fix.CreateUser(ctx, "Sam Chief", "sam@test.com", models.RoleChief, &fin.ID)

	fix.CreateMission(ctx, "Ops mission", opsChief, &ops.ID)
	fix.CreateMission(ctx, "Fin mission", finChief, &fin.ID)

	store := missionstore.New(db)

	admin := authz.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	all, err := store.List(ctx, missionpolicy.Scope(admin))
	if err != nil {
		t.Fatalf("List (admin) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d missions, want 2", len(all))
	}

	chiefActor := authz.Actor{ID: opsChief.ID, Role: models.RoleChief, DepartmentID: &ops.ID}
	scoped, err := store.List(ctx, missionpolicy.Scope(chiefActor))
	if err != nil {
		t.Fatalf("List (chief) failed: %v", err)
	}
	if len(scoped) != 1 {
		t.Fatalf("chief sees %d missions, want 1", len(scoped))
	}
	if scoped[0].Title != "Ops mission" {
		t.Errorf("chief sees wrong mission: %q", scoped[0].Title)
	}
}

func TestList_ChiefSeesOwnCreationsOutsideDepartment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ops := fix.CreateDepartment(ctx, "OPS", "Operations")
	fin := fix.CreateDepartment(ctx, "FIN", "Finance")
	opsChief := fix.CreateUser(ctx, "Dana Chief", "dana@test.com", models.RoleChief, &ops.ID)

	// created by the ops chief but assigned to finance
	fix.CreateMission(ctx, "Cross-department mission", opsChief, &fin.ID)

	store := missionstore.New(db)
	chiefActor := authz.Actor{ID: opsChief.ID, Role: models.RoleChief, DepartmentID: &ops.ID}
	scoped, err := store.List(ctx, missionpolicy.Scope(chiefActor))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(scoped) != 1 {
		t.Fatalf("creator should still see their mission, got %d", len(scoped))
	}
}

func TestUpdateInfoAndComplete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	dept := fix.CreateDepartment(ctx, "OPS", "Operations")
	chief := fix.CreateUser(ctx, "Dana Chief", "dana@test.com", models.RoleChief, &dept.ID)
	m := fix.CreateMission(ctx, "Original title", chief, &dept.ID)

	store := missionstore.New(db)

	title := "Updated title"
	deadline := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Millisecond)
	if err := store.UpdateInfo(ctx, m.ID, missionstore.Update{Title: &title, Deadline: &deadline}); err != nil {
		t.Fatalf("UpdateInfo failed: %v", err)
	}
	got, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != title {
		t.Errorf("title: got %q, want %q", got.Title, title)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("deadline not set: %v", got.Deadline)
	}

	now := time.Now()
	if err := store.SetCompleted(ctx, m.ID, true, now); err != nil {
		t.Fatalf("SetCompleted failed: %v", err)
	}
	got, _ = store.GetByID(ctx, m.ID)
	if got.Status != models.MissionCompleted || got.CompletedAt == nil {
		t.Errorf("not completed: status=%q completed_at=%v", got.Status, got.CompletedAt)
	}

	if err := store.SetCompleted(ctx, m.ID, false, now); err != nil {
		t.Fatalf("SetCompleted(false) failed: %v", err)
	}
	got, _ = store.GetByID(ctx, m.ID)
	if got.Status != models.MissionActive || got.CompletedAt != nil {
		t.Errorf("not reopened: status=%q completed_at=%v", got.Status, got.CompletedAt)
	}
}

func TestUpdateInfo_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := missionstore.New(db)
	title := "anything"
	err := store.UpdateInfo(ctx, primitive.NewObjectID(), missionstore.Update{Title: &title})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestUpdateApplyTo(t *testing.T) {
	dept := primitive.NewObjectID()
	deadline := time.Now().Add(24 * time.Hour)
	m := models.Mission{
		ID:       primitive.NewObjectID(),
		Title:    "Harbor Survey",
		TitleCI:  "harbor survey",
		Deadline: &deadline,
		Status:   models.MissionActive,
	}

	title := "  Harbor Cleanup  "
	got := missionstore.Update{Title: &title, DepartmentID: &dept, ClearDeadline: true}.ApplyTo(m)

	if got.Title != "Harbor Cleanup" || got.TitleCI != "harbor cleanup" {
		t.Errorf("title overlay: %q / %q", got.Title, got.TitleCI)
	}
	if got.DepartmentID == nil || *got.DepartmentID != dept {
		t.Errorf("department overlay: %v", got.DepartmentID)
	}
	if got.Deadline != nil {
		t.Errorf("deadline should be cleared, got %v", got.Deadline)
	}
	if m.Deadline == nil {
		t.Error("overlay must not mutate the original")
	}
}
