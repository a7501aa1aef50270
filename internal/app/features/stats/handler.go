// internal/app/features/stats/handler.go
package stats

import (
	"net/http"
	"time"

	"github.com/dalemusser/missionhub/internal/app/policy/missionpolicy"
	"github.com/dalemusser/missionhub/internal/app/policy/recommendationpolicy"
	"github.com/dalemusser/missionhub/internal/app/system/apiutil"
	"github.com/dalemusser/missionhub/internal/app/system/apperr"
	"github.com/dalemusser/missionhub/internal/app/system/authz"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler computes dashboard counts over the caller's visible slice of
// the caches. Two callers with different roles get different numbers
// from the same data set.
type Handler struct {
	Missions        *feedcache.Cache[models.Mission]
	Recommendations *feedcache.Cache[models.Recommendation]
	Departments     *feedcache.Cache[models.Department]
	Log             *zap.Logger
}

func NewHandler(missions *feedcache.Cache[models.Mission], recs *feedcache.Cache[models.Recommendation], depts *feedcache.Cache[models.Department], logger *zap.Logger) *Handler {
	return &Handler{Missions: missions, Recommendations: recs, Departments: depts, Log: logger}
}

type statsResponse struct {
	Missions        map[string]int `json:"missions"`
	Recommendations map[string]int `json:"recommendations"`
	Departments     int            `json:"departments,omitempty"`
}

// Serve handles GET /api/stats. Counts are keyed by display status, so
// overdue items show up as overdue here exactly as they do in lists.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.UserCtx(r)
	if !ok {
		apiutil.WriteError(w, h.Log, apperr.Unauthenticatedf("sign in required"))
		return
	}

	now := time.Now()
	resp := statsResponse{
		Missions:        map[string]int{},
		Recommendations: map[string]int{},
	}

	mScope := missionpolicy.Scope(actor)
	for _, m := range h.Missions.Snapshot() {
		if mScope.Allows(m) {
			resp.Missions[m.DisplayStatus(now)]++
		}
	}

	rScope := recommendationpolicy.Scope(actor)
	for _, rec := range h.Recommendations.Snapshot() {
		if rScope.Allows(rec) {
			resp.Recommendations[rec.DisplayStatus(now)]++
		}
	}

	if actor.IsAdmin() {
		resp.Departments = h.Departments.Len()
	}

	apiutil.WriteJSON(w, http.StatusOK, resp)
}
