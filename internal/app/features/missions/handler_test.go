package missions_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/missionhub/internal/app/features/missions"
	missionstore "github.com/dalemusser/missionhub/internal/app/store/missions"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/missionhub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*missions.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := missions.NewHandler(
		missionstore.New(db),
		userstore.New(db),
		feedcache.New[models.Mission](),
		nil,
		zap.NewNop(),
	)
	return h, db
}

func TestServeList_ScopedByRole(t *testing.T) {
	deptID := primitive.NewObjectID()
	otherDept := primitive.NewObjectID()

	cache := feedcache.New[models.Mission]()
	mine := models.Mission{ID: primitive.NewObjectID(), Title: "Ours", DepartmentID: &deptID, Status: models.MissionActive}
	theirs := models.Mission{ID: primitive.NewObjectID(), Title: "Theirs", DepartmentID: &otherDept, Status: models.MissionActive}
	cache.PutOptimistic(mine.ID, mine)
	cache.PutOptimistic(theirs.ID, theirs)

	h := missions.NewHandler(nil, nil, cache, nil, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/api/missions", testutil.ChiefUser(deptID))
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got []struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Ours" {
		t.Errorf("chief list: %+v", got)
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	h := missions.NewHandler(nil, nil, feedcache.New[models.Mission](), nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/api/missions", nil)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServeCreate_ForbiddenForRegularUser(t *testing.T) {
	h := missions.NewHandler(nil, nil, feedcache.New[models.Mission](), nil, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("POST", "/api/missions", testutil.RegularUser(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeCreate_ChiefDefaultsOwnDepartment(t *testing.T) {
	h, _ := newTestHandler(t)

	deptID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/api/missions",
		strings.NewReader(`{"title":"Quarterly review"}`))
	req = testutil.WithUser(req, testutil.ChiefUser(deptID))
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		DepartmentID string `json:"department_id"`
		Status       string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.DepartmentID != deptID.Hex() {
		t.Errorf("department not defaulted: %q", created.DepartmentID)
	}
	if created.Status != models.MissionActive {
		t.Errorf("status: got %q", created.Status)
	}
}

func TestServeStatus_CompleteAndConflict(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	dept := fix.CreateDepartment(ctx, "OPS", "Operations")
	chief := fix.CreateUser(ctx, "Dana Chief", "dana@test.com", models.RoleChief, &dept.ID)
	m := fix.CreateMission(ctx, "Quarterly review", chief, &dept.ID)

	actor := testutil.TestUser{
		ID: chief.ID.Hex(), Name: chief.Name, Email: chief.Email,
		Role: models.RoleChief, DepartmentID: dept.ID.Hex(),
	}

	req := httptest.NewRequest("PUT", "/api/missions/"+m.ID.Hex()+"/status",
		strings.NewReader(`{"completed":true}`))
	req = testutil.WithUser(req, actor)
	req = testutil.WithChiURLParam(req, "missionID", m.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("complete: got %d, body %s", rec.Code, rec.Body.String())
	}

	// completing a completed mission conflicts
	req = httptest.NewRequest("PUT", "/api/missions/"+m.ID.Hex()+"/status",
		strings.NewReader(`{"completed":true}`))
	req = testutil.WithUser(req, actor)
	req = testutil.WithChiURLParam(req, "missionID", m.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("double complete: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestServeUpdate_CrossDepartmentChiefForbidden(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	ops := fix.CreateDepartment(ctx, "OPS", "Operations")
	fin := fix.CreateDepartment(ctx, "FIN", "Finance")
	finChief := fix.CreateUser(ctx, "Sam Chief", "sam@test.com", models.RoleChief, &fin.ID)
	m := fix.CreateMission(ctx, "Finance mission", finChief, &fin.ID)

	req := httptest.NewRequest("PUT", "/api/missions/"+m.ID.Hex(),
		strings.NewReader(`{"title":"Hijacked"}`))
	req = testutil.WithUser(req, testutil.ChiefUser(ops.ID))
	req = testutil.WithChiURLParam(req, "missionID", m.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeUpdate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeList_FiltersNarrowScope(t *testing.T) {
	deptA, deptB := primitive.NewObjectID(), primitive.NewObjectID()
	past := time.Now().Add(-time.Hour)

	cache := feedcache.New[models.Mission]()
	seed := []models.Mission{
		{ID: primitive.NewObjectID(), Title: "Harbor Survey", TitleCI: text.Fold("Harbor Survey"), DepartmentID: &deptA, Status: models.MissionActive},
		{ID: primitive.NewObjectID(), Title: "Harbor Cleanup", TitleCI: text.Fold("Harbor Cleanup"), DepartmentID: &deptB, Status: models.MissionActive, Deadline: &past},
		{ID: primitive.NewObjectID(), Title: "Archive Audit", TitleCI: text.Fold("Archive Audit"), DepartmentID: &deptA, Status: models.MissionCompleted},
	}
	for _, m := range seed {
		cache.PutOptimistic(m.ID, m)
	}

	h := missions.NewHandler(nil, nil, cache, nil, zap.NewNop())
	admin := testutil.AdminUser()

	list := func(query string) []struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	} {
		t.Helper()
		req := testutil.NewAuthenticatedRequest("GET", "/api/missions"+query, admin)
		rec := httptest.NewRecorder()
		h.ServeList(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status for %q: got %d", query, rec.Code)
		}
		var got []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return got
	}

	if got := list(""); len(got) != 3 {
		t.Errorf("unfiltered: %d missions, want 3", len(got))
	}
	if got := list("?status=overdue"); len(got) != 1 || got[0].Title != "Harbor Cleanup" {
		t.Errorf("status filter: %+v", got)
	}
	if got := list("?department_id=" + deptA.Hex()); len(got) != 2 {
		t.Errorf("department filter: %d missions, want 2", len(got))
	}
	if got := list("?q=harbor"); len(got) != 2 {
		t.Errorf("search filter: %d missions, want 2", len(got))
	}
	if got := list("?q=harbor&status=active"); len(got) != 1 || got[0].Title != "Harbor Survey" {
		t.Errorf("combined filter: %+v", got)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/missions?department_id=nope", admin)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed department filter: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
