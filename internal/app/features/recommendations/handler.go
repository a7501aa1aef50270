// internal/app/features/recommendations/handler.go
package recommendations

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/recommendationpolicy"
	"github.com/dalemusser/missionhub/internal/app/store/audit"
	recommendationstore "github.com/dalemusser/missionhub/internal/app/store/recommendations"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/missionhub/internal/app/system/lifecycle"
	"github.com/dalemusser/missionhub/internal/app/system/normalize"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves recommendation CRUD and the status lifecycle. Reads
// come from the live cache filtered by the caller's scope; status
// changes run through the lifecycle engine before any store write.
type Handler struct {
	Store    *recommendationstore.Store
	Users    *userstore.Store
	Cache    *feedcache.Cache[models.Recommendation]
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(store *recommendationstore.Store, users *userstore.Store, cache *feedcache.Cache[models.Recommendation], auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Users: users, Cache: cache, AuditLog: auditLog, Log: logger}
}

// ServeList handles GET /api/recommendations. Admins see everything,
// chiefs their department, users only their own assignments. Optional
// status, department_id, and q filters narrow the scoped slice
// further; they never widen it.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}

	statusFilter := normalize.QueryParam(r.URL.Query().Get("status"))
	search := text.Fold(normalize.QueryParam(r.URL.Query().Get("q")))
	var deptFilter *primitive.ObjectID
	if s := normalize.QueryParam(r.URL.Query().Get("department_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		deptFilter = &id
	}

	scope := recommendationpolicy.Scope(actor)
	now := time.Now()

	views := make([]recommendationView, 0)
	for _, rec := range h.Cache.Snapshot() {
		if !scope.Allows(rec) {
			continue
		}
		if statusFilter != "" && rec.DisplayStatus(now) != statusFilter {
			continue
		}
		if deptFilter != nil && (rec.DepartmentID == nil || *rec.DepartmentID != *deptFilter) {
			continue
		}
		if search != "" && !strings.Contains(text.Fold(rec.Title()), search) {
			continue
		}
		views = append(views, newView(rec, now))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	apiutil.WriteJSON(w, http.StatusOK, views)
}

// ServeGet handles GET /api/recommendations/{recID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	actor, rec, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !recommendationpolicy.CanView(actor, rec) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("recommendation is outside your scope"))
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, newView(rec, time.Now()))
}

// ServeCreate handles POST /api/recommendations (admin or chief). The
// assignee's profile supplies the denormalized creator name; when the
// lookup fails the record carries the "Unknown" placeholder rather than
// failing the create.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !recommendationpolicy.CanCreate(actor) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins and chiefs create recommendations"))
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	title := htmlsanitize.Strict(strings.TrimSpace(req.Title))
	if title == "" {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("recommendation title is required"))
		return
	}
	if strings.ContainsRune(title, '\n') {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("recommendation title must be a single line"))
		return
	}
	assigneeID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed assignee id"))
		return
	}

	rec := models.Recommendation{
		UserID:   assigneeID,
		Deadline: req.Deadline,
	}

	if req.DepartmentID != "" {
		id, err := primitive.ObjectIDFromHex(req.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		rec.DepartmentID = &id
	}
	if req.MissionID != "" {
		id, err := primitive.ObjectIDFromHex(req.MissionID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed mission id"))
			return
		}
		rec.MissionID = &id
	}

	// Chiefs only assign within their own department.
	if actor.IsChief() && !actor.SameDepartment(rec.DepartmentID) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("chiefs assign work within their own department"))
		return
	}

	if assignee, err := h.Users.GetByID(r.Context(), assigneeID); err == nil {
		rec.CreatedByName = assignee.Name
		if rec.DepartmentID == nil {
			rec.DepartmentID = assignee.DepartmentID
		}
	} else {
		h.Log.Warn("assignee lookup failed, using placeholder name",
			zap.String("assignee_id", assigneeID.Hex()), zap.Error(err))
	}

	created, err := h.Store.Create(r.Context(), rec, title, htmlsanitize.Strict(req.Description))
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	h.Cache.PutOptimistic(created.ID, created)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventRecCreated, actor.ID, &created.ID, created.DepartmentID,
		map[string]string{"title": created.Title()})
	apiutil.WriteJSON(w, http.StatusCreated, newView(created, time.Now()))
}

// ServeUpdate handles PUT /api/recommendations/{recID}: content and
// assignment edits, not status (see ServeStatus).
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, rec, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !recommendationpolicy.CanEdit(actor, rec) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("you cannot edit this recommendation"))
		return
	}

	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}

	upd := recommendationstore.Update{
		ClearMission:  req.ClearMission,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	}

	// Title or description edits rewrite the joined content, so the
	// untouched half is carried over from the stored record.
	if req.Title != nil || req.Description != nil {
		title := rec.Title()
		desc := rec.Description()
		if req.Title != nil {
			title = htmlsanitize.Strict(strings.TrimSpace(*req.Title))
			if title == "" {
				apiutil.WriteError(w, h.Log, apperr.Invalidf("recommendation title cannot be empty"))
				return
			}
			if strings.ContainsRune(title, '\n') {
				apiutil.WriteError(w, h.Log, apperr.Invalidf("recommendation title must be a single line"))
				return
			}
		}
		if req.Description != nil {
			desc = htmlsanitize.Strict(*req.Description)
		}
		upd.Title = &title
		upd.Description = &desc
	}

	if req.UserID != nil {
		id, err := primitive.ObjectIDFromHex(*req.UserID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed assignee id"))
			return
		}
		upd.UserID = &id
	}
	if req.DepartmentID != nil {
		id, err := primitive.ObjectIDFromHex(*req.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		if actor.IsChief() && !actor.SameDepartment(&id) {
			apiutil.WriteError(w, h.Log, apperr.Forbiddenf("chiefs assign work within their own department"))
			return
		}
		upd.DepartmentID = &id
	}
	if req.MissionID != nil {
		id, err := primitive.ObjectIDFromHex(*req.MissionID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed mission id"))
			return
		}
		upd.MissionID = &id
	}

	if err := h.Store.UpdateInfo(r.Context(), rec.ID, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("recommendation not found"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	updated, err := h.Store.GetByID(r.Context(), rec.ID)
	if err != nil {
		// The write landed; serve the overlaid copy instead of failing
		// the request on the re-read.
		h.Log.Warn("recommendation re-read after update failed", zap.Error(err))
		updated = upd.ApplyTo(rec)
	}
	h.Cache.PutOptimistic(rec.ID, updated)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventRecUpdated, actor.ID, &rec.ID, rec.DepartmentID, nil)
	apiutil.WriteJSON(w, http.StatusOK, newView(updated, time.Now()))
}

// ServeStatus handles PUT /api/recommendations/{recID}/status. Every
// status change runs through the lifecycle engine: the rights guard
// fires before the from-state check, and nothing is written when either
// rejects.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	actor, rec, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}

	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}

	now := time.Now()
	effects, err := lifecycle.Transition(rec, req.Status, actor, now)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}

	if err := h.Store.ApplyEffects(r.Context(), rec.ID, rec.CanonicalStatus(), effects); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// A concurrent transition won; report the conflict rather
			// than silently double-applying.
			apiutil.WriteError(w, h.Log, apperr.InvalidStatef("recommendation status changed concurrently, reload and retry"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	updated := effects.ApplyTo(rec)
	updated.UpdatedAt = now.UTC()
	h.Cache.PutOptimistic(rec.ID, updated)

	h.AuditLog.AdminAction(r.Context(), r, statusEvent(req.Status), actor.ID, &rec.ID, rec.DepartmentID,
		map[string]string{"from": rec.CanonicalStatus(), "to": req.Status})
	apiutil.WriteJSON(w, http.StatusOK, newView(updated, now))
}

// ServeDelete handles DELETE /api/recommendations/{recID}. Deletion is
// allowed in any status for callers with edit rights.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, rec, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !recommendationpolicy.CanDelete(actor, rec) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("you cannot delete this recommendation"))
		return
	}

	n, err := h.Store.Delete(r.Context(), rec.ID)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}
	if n == 0 {
		apiutil.WriteError(w, h.Log, apperr.NotFoundf("recommendation not found"))
		return
	}

	h.Cache.RemoveOptimistic(rec.ID)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventRecDeleted, actor.ID, &rec.ID, rec.DepartmentID,
		map[string]string{"title": rec.Title()})
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) loadTarget(r *http.Request) (authz.Actor, models.Recommendation, error) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		return authz.Actor{}, models.Recommendation{}, apperr.Unauthenticatedf("sign in required")
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "recID"))
	if err != nil {
		return actor, models.Recommendation{}, apperr.Invalidf("malformed recommendation id")
	}
	rec, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return actor, models.Recommendation{}, apperr.NotFoundf("recommendation not found")
		}
		return actor, models.Recommendation{}, apperr.Remote(err)
	}
	return actor, rec, nil
}

func statusEvent(to string) string {
	switch to {
	case models.RecPending:
		return audit.EventRecSubmitted
	case models.RecConfirmed:
		return audit.EventRecConfirmed
	default:
		return audit.EventRecReopened
	}
}
