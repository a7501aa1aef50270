// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"net/http"
	"time"

	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler answers heartbeat probes. Clients poll it to keep their
// session warm and to detect a dropped sign-in before their next
// mutating call.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type heartbeatResponse struct {
	Status        string    `json:"status"`
	Authenticated bool      `json:"authenticated"`
	ServerTime    time.Time `json:"server_time"`
}

// Serve handles GET /heartbeat. It never fails; an unauthenticated
// caller just gets authenticated=false.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	_, signedIn := auth.CurrentUser(r)
	apiutil.WriteJSON(w, http.StatusOK, heartbeatResponse{
		Status:        "ok",
		Authenticated: signedIn,
		ServerTime:    time.Now().UTC(),
	})
}
