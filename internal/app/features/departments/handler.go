// internal/app/features/departments/handler.go
package departments

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/missionhub/internal/app/store/audit"
	departmentstore "github.com/dalemusser/missionhub/internal/app/store/departments"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the department directory. Reads come from the live
// cache; writes go to the store and are reflected optimistically until
// the change feed delivers the authoritative copy.
type Handler struct {
	Store    *departmentstore.Store
	Cache    *feedcache.Cache[models.Department]
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(store *departmentstore.Store, cache *feedcache.Cache[models.Department], auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Cache: cache, AuditLog: auditLog, Log: logger}
}

type departmentRequest struct {
	Acronym string `json:"acronym"`
	Name    string `json:"name"`
}

// ServeList handles GET /api/departments. Every signed-in role can see
// the directory; it backs assignment pickers.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if _, ok := authz.UserCtx(r); !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	depts := h.Cache.Snapshot()
	sort.Slice(depts, func(i, j int) bool { return depts[i].NameCI < depts[j].NameCI })
	apiutil.WriteJSON(w, http.StatusOK, depts)
}

// ServeCreate handles POST /api/departments (admin only).
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins manage departments"))
		return
	}

	var req departmentRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	name := htmlsanitize.Strict(strings.TrimSpace(req.Name))
	if name == "" {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("department name is required"))
		return
	}

	created, err := h.Store.Create(r.Context(), models.Department{
		Acronym: req.Acronym,
		Name:    name,
	})
	if err != nil {
		if errors.Is(err, departmentstore.ErrDuplicateName) {
			apiutil.WriteError(w, h.Log, apperr.InvalidStatef("a department named %q already exists", name))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	h.Cache.PutOptimistic(created.ID, created)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventDepartmentCreated, actor.ID, &created.ID, &created.ID,
		map[string]string{"name": created.Name})
	apiutil.WriteJSON(w, http.StatusCreated, created)
}

// ServeRename handles PUT /api/departments/{deptID} (admin only).
func (h *Handler) ServeRename(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins manage departments"))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "deptID"))
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
		return
	}

	var req departmentRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	name := htmlsanitize.Strict(strings.TrimSpace(req.Name))
	if name == "" {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("department name is required"))
		return
	}

	if err := h.Store.Rename(r.Context(), id, req.Acronym, name); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("department not found"))
		case errors.Is(err, departmentstore.ErrDuplicateName):
			apiutil.WriteError(w, h.Log, apperr.InvalidStatef("a department named %q already exists", name))
		default:
			apiutil.WriteError(w, h.Log, apperr.Remote(err))
		}
		return
	}

	updated, err := h.Store.GetByID(r.Context(), id)
	if err == nil {
		h.Cache.PutOptimistic(id, updated)
	}
	h.AuditLog.AdminAction(r.Context(), r, audit.EventDepartmentRenamed, actor.ID, &id, &id,
		map[string]string{"name": name})
	apiutil.WriteJSON(w, http.StatusOK, updated)
}

// ServeDelete handles DELETE /api/departments/{deptID} (admin only).
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins manage departments"))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "deptID"))
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
		return
	}

	n, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}
	if n == 0 {
		apiutil.WriteError(w, h.Log, apperr.NotFoundf("department not found"))
		return
	}

	h.Cache.RemoveOptimistic(id)
	h.AuditLog.AdminAction(r.Context(), r, audit.EventDepartmentDeleted, actor.ID, &id, &id, nil)
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
