// internal/app/features/missions/handler.go
package missions

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/missionpolicy"
	"github.com/dalemusser/missionhub/internal/app/store/audit"
	missionstore "github.com/dalemusser/missionhub/internal/app/store/missions"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/missionhub/internal/app/system/normalize"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves mission CRUD within the caller's access scope. Reads
// come from the live cache; writes go to the store and are reflected
// optimistically until the change feed delivers the authoritative copy.
type Handler struct {
	Store    *missionstore.Store
	Users    *userstore.Store
	Cache    *feedcache.Cache[models.Mission]
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(store *missionstore.Store, users *userstore.Store, cache *feedcache.Cache[models.Mission], auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Users: users, Cache: cache, AuditLog: auditLog, Log: logger}
}

// ServeList handles GET /api/missions. The scope filter runs over the
// cache snapshot, so every caller sees only their slice of the shared
// data set. Optional status, department_id, and q filters narrow the
// scoped slice further; they never widen it.
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

	scope := missionpolicy.Scope(actor)
	now := time.Now()

	views := make([]missionView, 0)
	for _, m := range h.Cache.Snapshot() {
		if !scope.Allows(m) {
			continue
		}
		if statusFilter != "" && m.DisplayStatus(now) != statusFilter {
			continue
		}
		if deptFilter != nil && (m.DepartmentID == nil || *m.DepartmentID != *deptFilter) {
			continue
		}
		if search != "" && !strings.Contains(m.TitleCI, search) {
			continue
		}
		views = append(views, newMissionView(m, now))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	apiutil.WriteJSON(w, http.StatusOK, views)
}

// ServeGet handles GET /api/missions/{missionID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	actor, m, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !missionpolicy.CanView(actor, m) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("mission is outside your scope"))
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, newMissionView(m, time.Now()))
}

// ServeCreate handles POST /api/missions (admin or chief). A chief may
// create missions for any department; they keep visibility of their own
// creations through the creator scope.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !missionpolicy.CanCreate(actor) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins and chiefs create missions"))
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	title := htmlsanitize.Strict(strings.TrimSpace(req.Title))
	if title == "" {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("mission title is required"))
		return
	}

	var deptID *primitive.ObjectID
	if req.DepartmentID != "" {
		id, err := primitive.ObjectIDFromHex(req.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		deptID = &id
	} else if actor.IsChief() {
		// Chiefs default to their own department.
		deptID = actor.DepartmentID
	}

	createdByName := actor.Name
	if createdByName == "" {
		createdByName = "Unknown"
	}

	created, err := h.Store.Create(r.Context(), models.Mission{
		Title:         title,
		Description:   htmlsanitize.Strict(req.Description),
		CreatedBy:     actor.ID,
		CreatedByName: createdByName,
		DepartmentID:  deptID,
		Deadline:      req.Deadline,
	})
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	h.Cache.PutOptimistic(created.ID, created)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventMissionCreated, actor.ID, &created.ID, deptID,
		map[string]string{"title": created.Title})
	apiutil.WriteJSON(w, http.StatusCreated, newMissionView(created, time.Now()))
}

// ServeUpdate handles PUT /api/missions/{missionID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, m, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !missionpolicy.CanManage(actor, m) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("you cannot manage this mission"))
		return
	}

	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}

	upd := missionstore.Update{
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	}
	if req.Title != nil {
		title := htmlsanitize.Strict(strings.TrimSpace(*req.Title))
		if title == "" {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("mission title cannot be empty"))
			return
		}
		upd.Title = &title
	}
	if req.Description != nil {
		desc := htmlsanitize.Strict(*req.Description)
		upd.Description = &desc
	}
	if req.DepartmentID != nil {
		id, err := primitive.ObjectIDFromHex(*req.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		upd.DepartmentID = &id
	}

	if err := h.Store.UpdateInfo(r.Context(), m.ID, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("mission not found"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	updated, err := h.Store.GetByID(r.Context(), m.ID)
	if err != nil {
		// The write landed; serve the overlaid copy instead of failing
		// the request on the re-read.
		h.Log.Warn("mission re-read after update failed", zap.Error(err))
		updated = upd.ApplyTo(m)
	}
	h.Cache.PutOptimistic(m.ID, updated)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventMissionUpdated, actor.ID, &m.ID, m.DepartmentID, nil)
	apiutil.WriteJSON(w, http.StatusOK, newMissionView(updated, time.Now()))
}

// ServeStatus handles PUT /api/missions/{missionID}/status, toggling
// completion.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	actor, m, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !missionpolicy.CanManage(actor, m) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("you cannot manage this mission"))
		return
	}

	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if req.Completed && m.Status == models.MissionCompleted {
		apiutil.WriteError(w, h.Log, apperr.InvalidStatef("mission is already completed"))
		return
	}
	if !req.Completed && m.Status == models.MissionActive {
		apiutil.WriteError(w, h.Log, apperr.InvalidStatef("mission is already active"))
		return
	}

	now := time.Now()
	if err := h.Store.SetCompleted(r.Context(), m.ID, req.Completed, now); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("mission not found"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	updated, err := h.Store.GetByID(r.Context(), m.ID)
	if err != nil {
		// The toggle landed; serve the overlaid copy instead of failing
		// the request on the re-read.
		h.Log.Warn("mission re-read after status change failed", zap.Error(err))
		updated = m.WithCompleted(req.Completed, now)
	}
	h.Cache.PutOptimistic(m.ID, updated)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventMissionUpdated, actor.ID, &m.ID, m.DepartmentID,
		map[string]string{"completed": boolWord(req.Completed)})
	apiutil.WriteJSON(w, http.StatusOK, newMissionView(updated, now))
}

// ServeDelete handles DELETE /api/missions/{missionID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, m, err := h.loadTarget(r)
	if err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !missionpolicy.CanManage(actor, m) {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("you cannot manage this mission"))
		return
	}

	n, err := h.Store.Delete(r.Context(), m.ID)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}
	if n == 0 {
		apiutil.WriteError(w, h.Log, apperr.NotFoundf("mission not found"))
		return
	}

	h.Cache.RemoveOptimistic(m.ID)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventMissionDeleted, actor.ID, &m.ID, m.DepartmentID,
		map[string]string{"title": m.Title})
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// loadTarget resolves the {missionID} parameter and the calling actor.
// The guard order is fixed: authentication, then id syntax, then
// existence; per-operation rights are the caller's job.
func (h *Handler) loadTarget(r *http.Request) (authz.Actor, models.Mission, error) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		return authz.Actor{}, models.Mission{}, apperr.Unauthenticatedf("sign in required")
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "missionID"))
	if err != nil {
		return actor, models.Mission{}, apperr.Invalidf("malformed mission id")
	}
	m, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return actor, models.Mission{}, apperr.NotFoundf("mission not found")
		}
		return actor, models.Mission{}, apperr.Remote(err)
	}
	return actor, m, nil
}

func boolWord(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
