// internal/app/features/users/handler.go
package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/missionhub/internal/app/store/audit"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/dalemusser/missionhub/internal/app/system/authutil"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/missionhub/internal/app/system/normalize"
	"github.com/dalemusser/missionhub/internal/app/system/status"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the user directory and admin account management.
type Handler struct {
	Store    *userstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(store *userstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Store: store, AuditLog: auditLog, Log: logger}
}

type createRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}

type updateRequest struct {
	Name            *string `json:"name,omitempty"`
	Role            *string `json:"role,omitempty"`
	Status          *string `json:"status,omitempty"`
	DepartmentID    *string `json:"department_id,omitempty"`
	ClearDepartment bool    `json:"clear_department,omitempty"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

// ServeList handles GET /api/users. Admins get the full directory;
// chiefs get their department's active members for assignee pickers.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}

	switch {
	case actor.IsAdmin():
		users, err := h.Store.List(r.Context())
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Remote(err))
			return
		}
		apiutil.WriteJSON(w, http.StatusOK, users)

	case actor.IsChief() && actor.DepartmentID != nil:
		users, err := h.Store.ListByDepartment(r.Context(), *actor.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Remote(err))
			return
		}
		apiutil.WriteJSON(w, http.StatusOK, users)

	default:
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("the user directory is limited to admins and chiefs"))
	}
}

// ServeMe handles GET /api/users/me, returning the session profile the
// middleware loaded for this request.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, u)
}

// ServeCreate handles POST /api/users (admin only).
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins manage accounts"))
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	name := htmlsanitize.Strict(strings.TrimSpace(req.Name))
	if name == "" || normalize.Email(req.Email) == "" {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("name and email are required"))
		return
	}
	if !authutil.PasswordOK(req.Password) {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("password must be at least %d characters", authutil.MinPasswordLength))
		return
	}
	role := normalize.Role(req.Role)
	if role != models.RoleAdmin && role != models.RoleChief && role != models.RoleUser {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("unknown role %q", req.Role))
		return
	}

	u := models.User{Name: name, Email: req.Email, Role: role}
	if req.DepartmentID != "" {
		id, err := primitive.ObjectIDFromHex(req.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		u.DepartmentID = &id
	}

	created, err := h.Store.Create(r.Context(), u, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apiutil.WriteError(w, h.Log, apperr.InvalidStatef("an account with that email already exists"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	h.AuditLog.AdminAction(r.Context(), r, audit.EventUserCreated, actor.ID, &created.ID, created.DepartmentID,
		map[string]string{"email": created.Email, "role": created.Role})
	apiutil.WriteJSON(w, http.StatusCreated, created)
}

// ServeUpdate handles PUT /api/users/{userID} (admin only).
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins manage accounts"))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed user id"))
		return
	}

	var req updateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}

	upd := userstore.Update{ClearDepartment: req.ClearDepartment}
	if req.Name != nil {
		name := htmlsanitize.Strict(strings.TrimSpace(*req.Name))
		if name == "" {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("name cannot be empty"))
			return
		}
		upd.Name = &name
	}
	if req.Role != nil {
		// Role is fixed at creation; a different account is the way to
		// change what someone can do.
		apiutil.WriteError(w, h.Log, apperr.Invalidf("role cannot be changed after an account is created"))
		return
	}
	if req.Status != nil {
		st := normalize.Status(*req.Status)
		if !status.IsValid(st) {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("unknown status %q", *req.Status))
			return
		}
		upd.Status = &st
	}
	if req.DepartmentID != nil {
		deptID, err := primitive.ObjectIDFromHex(*req.DepartmentID)
		if err != nil {
			apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed department id"))
			return
		}
		upd.DepartmentID = &deptID
	}

	if err := h.Store.UpdateInfo(r.Context(), id, upd); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("user not found"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	updated, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}
	h.AuditLog.AdminAction(r.Context(), r, audit.EventUserUpdated, actor.ID, &id, updated.DepartmentID, nil)
	apiutil.WriteJSON(w, http.StatusOK, updated)
}

// ServePassword handles PUT /api/users/{userID}/password. Admins reset
// anyone; everyone else may only change their own.
func (h *Handler) ServePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed user id"))
		return
	}
	if !actor.IsAdmin() && actor.ID != id {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("you may only change your own password"))
		return
	}

	var req passwordRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	if !authutil.PasswordOK(req.Password) {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("password must be at least %d characters", authutil.MinPasswordLength))
		return
	}

	if err := h.Store.SetPassword(r.Context(), id, req.Password); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("user not found"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	h.AuditLog.Log(r.Context(), audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordChanged,
		UserID:    &id,
		ActorID:   &actor.ID,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
		Success:   true,
	})
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// ServeDisable handles DELETE /api/users/{userID} (admin only).
// Accounts are disabled, never removed, so their audit trail and
// authored records stay attributable.
func (h *Handler) ServeDisable(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, h.Log, apperr.Forbiddenf("only admins manage accounts"))
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("malformed user id"))
		return
	}
	if actor.ID == id {
		apiutil.WriteError(w, h.Log, apperr.InvalidStatef("you cannot disable your own account"))
		return
	}

	if err := h.Store.Disable(r.Context(), id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apiutil.WriteError(w, h.Log, apperr.NotFoundf("user not found"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	h.AuditLog.AdminAction(r.Context(), r, audit.EventUserDisabled, actor.ID, &id, nil, nil)
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}
