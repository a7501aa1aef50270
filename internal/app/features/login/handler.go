// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/dalemusser/missionhub/internal/app/system/authutil"
	"github.com/dalemusser/missionhub/internal/app/system/normalize"
	"github.com/dalemusser/missionhub/internal/app/system/ratelimit"
	"github.com/dalemusser/missionhub/internal/app/system/status"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler signs users in with email and password.
type Handler struct {
	Users      *userstore.Store
	Fetcher    *userstore.Fetcher
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users *userstore.Store, fetcher *userstore.Fetcher, sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Fetcher:    fetcher,
		SessionMgr: sessionMgr,
		AuditLog:   auditLog,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *auth.SessionUser `json:"user"`
}

// ServeLogin handles POST /login. Wrong-email and wrong-password both
// answer 401 with the same message, so the endpoint does not confirm
// which addresses have accounts.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		apiutil.WriteError(w, h.Log, apperr.Invalidf("email and password are required"))
		return
	}

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		h.AuditLog.LoginFailedRateLimit(ctx, r, email, reason)
		apiutil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": reason})
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
			apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("invalid email or password"))
			return
		}
		apiutil.WriteError(w, h.Log, apperr.Remote(err))
		return
	}

	if u.Status != status.Active {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.DepartmentID, email)
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("this account is disabled"))
		return
	}
	if u.PasswordHash == nil || !authutil.CheckPassword(req.Password, *u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.DepartmentID, email)
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("invalid email or password"))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("sign-in: session write failed", zap.Error(err))
		apiutil.WriteError(w, h.Log, err)
		return
	}

	h.Limiter.ResetEmail(email)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.DepartmentID, email)

	// Return the same enriched profile the session middleware loads on
	// later requests.
	su := h.Fetcher.FetchUser(ctx, u.ID.Hex())
	apiutil.WriteJSON(w, http.StatusOK, loginResponse{User: su})
}
