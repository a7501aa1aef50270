// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/missionhub/internal/app/features/auditlog"
	departmentsfeature "github.com/dalemusser/missionhub/internal/app/features/departments"
	healthfeature "github.com/dalemusser/missionhub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/missionhub/internal/app/features/heartbeat"
	loginfeature "github.com/dalemusser/missionhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/missionhub/internal/app/features/logout"
	missionsfeature "github.com/dalemusser/missionhub/internal/app/features/missions"
	recommendationsfeature "github.com/dalemusser/missionhub/internal/app/features/recommendations"
	statsfeature "github.com/dalemusser/missionhub/internal/app/features/stats"
	usersfeature "github.com/dalemusser/missionhub/internal/app/features/users"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/auth"
	"github.com/dalemusser/missionhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed, so the feed caches are seeded
// and the change-stream watchers are already running.
//
// MissionHub serves a JSON API under /api plus auth endpoints and the
// static dashboard assets. Session state rides a signed cookie; the
// LoadSessionUser middleware resolves it to a fresh user profile on
// every request so role changes and disabled accounts take effect
// immediately.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	fetcher := userstore.NewFetcher(deps.Users, deps.Departments, logger)
	sessionMgr.SetUserFetcher(fetcher)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Session liveness probe used by the dashboard
	heartbeatHandler := heartbeatfeature.NewHandler(logger)
	r.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatHandler))

	// Static dashboard assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", appCfg.StaticDir))

	// Authentication
	loginHandler := loginfeature.NewHandler(deps.Users, fetcher, sessionMgr, deps.AuditLog,
		ratelimit.NewLoginLimiter(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, deps.AuditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Department management
	deptHandler := departmentsfeature.NewHandler(deps.Departments, deps.DepartmentCache, deps.AuditLog, logger)
	r.Mount("/api/departments", departmentsfeature.Routes(deptHandler, sessionMgr))

	// Mission tracking
	missionHandler := missionsfeature.NewHandler(deps.Missions, deps.Users, deps.MissionCache, deps.AuditLog, logger)
	r.Mount("/api/missions", missionsfeature.Routes(missionHandler, sessionMgr))

	// Recommendation lifecycle
	recHandler := recommendationsfeature.NewHandler(deps.Recommendations, deps.Users, deps.RecommendationCache, deps.AuditLog, logger)
	r.Mount("/api/recommendations", recommendationsfeature.Routes(recHandler, sessionMgr))

	// Dashboard counters
	statsHandler := statsfeature.NewHandler(deps.MissionCache, deps.RecommendationCache, deps.DepartmentCache, logger)
	r.Mount("/api/stats", statsfeature.Routes(statsHandler, sessionMgr))

	// Audit log queries for admins and chiefs
	auditHandler := auditlogfeature.NewHandler(deps.Audit, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Account management
	usersHandler := usersfeature.NewHandler(deps.Users, deps.AuditLog, logger)
	r.Mount("/api/users", usersfeature.Routes(usersHandler, sessionMgr))

	return r, nil
}
