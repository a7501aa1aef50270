// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler ends the caller's session.
type Handler struct {
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, AuditLog: auditLog, Log: logger}
}

// ServeLogout handles POST /logout. Signing out twice is fine; the
// second call is a no-op that still answers 200.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out: session clear failed", zap.Error(err))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}
