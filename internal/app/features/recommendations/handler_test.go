package recommendations_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/missionhub/internal/app/features/recommendations"
	recommendationstore "github.com/dalemusser/missionhub/internal/app/store/recommendations"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/missionhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*recommendations.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := recommendations.NewHandler(
		recommendationstore.New(db),
		userstore.New(db),
		feedcache.New[models.Recommendation](),
		nil, // audit logging not under test
		zap.NewNop(),
	)
	return h, db
}

func TestServeList_Unauthenticated(t *testing.T) {
	h := recommendations.NewHandler(nil, nil, feedcache.New[models.Recommendation](), nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/api/recommendations", nil)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServeCreate_ForbiddenForRegularUser(t *testing.T) {
	h := recommendations.NewHandler(nil, nil, feedcache.New[models.Recommendation](), nil, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("POST", "/api/recommendations", testutil.RegularUser(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeCreate_ChiefOutsideDepartmentForbidden(t *testing.T) {
	h := recommendations.NewHandler(nil, nil, feedcache.New[models.Recommendation](), nil, zap.NewNop())

	chiefDept := primitive.NewObjectID()
	otherDept := primitive.NewObjectID()
	body := `{"title":"Item","user_id":"` + primitive.NewObjectID().Hex() + `","department_id":"` + otherDept.Hex() + `"}`
	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader(body))
	req = testutil.WithUser(req, testutil.ChiefUser(chiefDept))
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeCreate_AndLifecycle(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	dept := fix.CreateDepartment(ctx, "OPS", "Operations")
	assignee := fix.CreateUser(ctx, "Pat User", "pat@test.com", models.RoleUser, &dept.ID)
	chief := testutil.ChiefUser(dept.ID)

	// chief creates an item for the assignee
	body := `{"title":"Tighten valve checks","description":"All pressure valves.","user_id":"` + assignee.ID.Hex() + `"}`
	req := httptest.NewRequest("POST", "/api/recommendations", strings.NewReader(body))
	req = testutil.WithUser(req, chief)
	rec := httptest.NewRecorder()
	h.ServeCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Title != "Tighten valve checks" || created.Status != models.RecInProgress {
		t.Errorf("created view: %+v", created)
	}

	// the assignee submits it for confirmation
	assigneeUser := testutil.TestUser{
		ID: assignee.ID.Hex(), Name: assignee.Name, Email: assignee.Email,
		Role: models.RoleUser, DepartmentID: dept.ID.Hex(),
	}
	req = httptest.NewRequest("PUT", "/api/recommendations/"+created.ID+"/status",
		strings.NewReader(`{"status":"pending"}`))
	req = testutil.WithUser(req, assigneeUser)
	req = testutil.WithChiURLParam(req, "recID", created.ID)
	rec = httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("submit status: got %d, body %s", rec.Code, rec.Body.String())
	}

	// a chief from another department cannot confirm
	req = httptest.NewRequest("PUT", "/api/recommendations/"+created.ID+"/status",
		strings.NewReader(`{"status":"confirmed"}`))
	req = testutil.WithUser(req, testutil.ChiefUser(primitive.NewObjectID()))
	req = testutil.WithChiURLParam(req, "recID", created.ID)
	rec = httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-department confirm: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	// the department's chief confirms
	req = httptest.NewRequest("PUT", "/api/recommendations/"+created.ID+"/status",
		strings.NewReader(`{"status":"confirmed"}`))
	req = testutil.WithUser(req, chief)
	req = testutil.WithChiURLParam(req, "recID", created.ID)
	rec = httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var confirmed struct {
		Status      string  `json:"status"`
		ConfirmedAt *string `json:"confirmed_at"`
		ConfirmedBy *string `json:"confirmed_by"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&confirmed); err != nil {
		t.Fatalf("decode confirm response: %v", err)
	}
	if confirmed.Status != models.RecConfirmed || confirmed.ConfirmedAt == nil || confirmed.ConfirmedBy == nil {
		t.Errorf("confirm view: %+v", confirmed)
	}

	// confirming again conflicts: the record is no longer pending
	req = httptest.NewRequest("PUT", "/api/recommendations/"+created.ID+"/status",
		strings.NewReader(`{"status":"confirmed"}`))
	req = testutil.WithUser(req, chief)
	req = testutil.WithChiURLParam(req, "recID", created.ID)
	rec = httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("double confirm: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestServeStatus_SubmitByNonAssigneeForbidden(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	dept := fix.CreateDepartment(ctx, "OPS", "Operations")
	assignee := fix.CreateUser(ctx, "Pat User", "pat@test.com", models.RoleUser, &dept.ID)
	item := fix.CreateRecommendation(ctx, "Valve checks", "", assignee, &dept.ID)

	other := testutil.RegularUser(dept.ID)
	req := httptest.NewRequest("PUT", "/api/recommendations/"+item.ID.Hex()+"/status",
		strings.NewReader(`{"status":"pending"}`))
	req = testutil.WithUser(req, other)
	req = testutil.WithChiURLParam(req, "recID", item.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeStatus(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeGet_OutOfScopeForbidden(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fix := testutil.NewFixtures(t, db)

	dept := fix.CreateDepartment(ctx, "OPS", "Operations")
	assignee := fix.CreateUser(ctx, "Pat User", "pat@test.com", models.RoleUser, &dept.ID)
	item := fix.CreateRecommendation(ctx, "Valve checks", "", assignee, &dept.ID)

	outsider := testutil.RegularUser(dept.ID)
	req := httptest.NewRequest("GET", "/api/recommendations/"+item.ID.Hex(), nil)
	req = testutil.WithUser(req, outsider)
	req = testutil.WithChiURLParam(req, "recID", item.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeGet_MalformedID(t *testing.T) {
	h := recommendations.NewHandler(nil, nil, feedcache.New[models.Recommendation](), nil, zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/api/recommendations/nope", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "recID", "nope")
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeList_FiltersNarrowScope(t *testing.T) {
	deptA, deptB := primitive.NewObjectID(), primitive.NewObjectID()
	assignee := primitive.NewObjectID()

	cache := feedcache.New[models.Recommendation]()
	seed := []models.Recommendation{
		{ID: primitive.NewObjectID(), Content: models.JoinContent("Dock repairs", "fix pilings"), UserID: assignee, DepartmentID: &deptA, Status: models.RecInProgress},
		{ID: primitive.NewObjectID(), Content: models.JoinContent("Dock lighting", "replace lamps"), UserID: assignee, DepartmentID: &deptB, Status: models.RecPending},
		{ID: primitive.NewObjectID(), Content: models.JoinContent("Archive purge", "old records"), UserID: assignee, DepartmentID: &deptA, Status: models.RecConfirmed},
	}
	for _, rec := range seed {
		cache.PutOptimistic(rec.ID, rec)
	}

	h := recommendations.NewHandler(nil, nil, cache, nil, zap.NewNop())
	admin := testutil.AdminUser()

	list := func(query string) []struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	} {
		t.Helper()
		req := testutil.NewAuthenticatedRequest("GET", "/api/recommendations"+query, admin)
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
		t.Errorf("unfiltered: %d recommendations, want 3", len(got))
	}
	if got := list("?status=pending"); len(got) != 1 || got[0].Title != "Dock lighting" {
		t.Errorf("status filter: %+v", got)
	}
	if got := list("?department_id=" + deptA.Hex()); len(got) != 2 {
		t.Errorf("department filter: %d recommendations, want 2", len(got))
	}
	if got := list("?q=dock"); len(got) != 2 {
		t.Errorf("search filter: %d recommendations, want 2", len(got))
	}
	if got := list("?q=dock&status=in_progress"); len(got) != 1 || got[0].Title != "Dock repairs" {
		t.Errorf("combined filter: %+v", got)
	}
}
