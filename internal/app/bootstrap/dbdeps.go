// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	auditstore "github.com/dalemusser/missionhub/internal/app/store/audit"
	departmentstore "github.com/dalemusser/missionhub/internal/app/store/departments"
	missionstore "github.com/dalemusser/missionhub/internal/app/store/missions"
	recommendationstore "github.com/dalemusser/missionhub/internal/app/store/recommendations"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/workers"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app. It is
// built once in ConnectDB and threaded through the remaining lifecycle
// hooks.
type DBDeps struct {
	MongoClient *mongo.Client
	MongoDB     *mongo.Database

	Departments     *departmentstore.Store
	Missions        *missionstore.Store
	Recommendations *recommendationstore.Store
	Users           *userstore.Store
	Audit           *auditstore.Store

	AuditLog *auditlog.Logger

	// Server-side caches fed by Mongo change streams. Handlers read
	// list views from these and filter per actor.
	DepartmentCache     *feedcache.Cache[models.Department]
	MissionCache        *feedcache.Cache[models.Mission]
	RecommendationCache *feedcache.Cache[models.Recommendation]

	// Resync periodically re-seeds the caches from full scans as a
	// backstop for dropped change streams.
	Resync *workers.CacheResync

	// watchCtx governs the change-stream goroutines started in Startup;
	// stopWatchers cancels them during Shutdown.
	watchCtx     context.Context
	stopWatchers context.CancelFunc
}
