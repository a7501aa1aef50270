// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	auditstore "github.com/dalemusser/missionhub/internal/app/store/audit"
	departmentstore "github.com/dalemusser/missionhub/internal/app/store/departments"
	missionstore "github.com/dalemusser/missionhub/internal/app/store/missions"
	recommendationstore "github.com/dalemusser/missionhub/internal/app/store/recommendations"
	userstore "github.com/dalemusser/missionhub/internal/app/store/users"
	"github.com/dalemusser/missionhub/internal/app/system/auditlog"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/indexes"
	"github.com/dalemusser/missionhub/internal/app/system/timeouts"
	"github.com/dalemusser/missionhub/internal/app/system/workers"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB connection and assembles the stores,
// caches, and audit logger the rest of the app depends on.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	audit := auditstore.New(db)
	departments := departmentstore.New(db)
	missions := missionstore.New(db)
	recommendations := recommendationstore.New(db)

	departmentCache := feedcache.New[models.Department]()
	missionCache := feedcache.New[models.Mission]()
	recommendationCache := feedcache.New[models.Recommendation]()

	watchCtx, stopWatchers := context.WithCancel(context.Background())

	return DBDeps{
		MongoClient: client,
		MongoDB:     db,

		Departments:     departments,
		Missions:        missions,
		Recommendations: recommendations,
		Users:           userstore.New(db),
		Audit:           audit,

		AuditLog: auditlog.New(audit, logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),

		DepartmentCache:     departmentCache,
		MissionCache:        missionCache,
		RecommendationCache: recommendationCache,

		Resync: workers.NewCacheResync(departments, missions, recommendations,
			departmentCache, missionCache, recommendationCache, logger, cacheResyncInterval),

		watchCtx:     watchCtx,
		stopWatchers: stopWatchers,
	}, nil
}

// cacheResyncInterval is how often the resync worker re-seeds the feed
// caches from full collection scans.
const cacheResyncInterval = 10 * time.Minute

// EnsureSchema creates the indexes the stores query against. It runs
// after ConnectDB and before Startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.Ensure(ctx, deps.MongoDB, logger); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if err := deps.Audit.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure audit indexes: %w", err)
	}
	return nil
}
