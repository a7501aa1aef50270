// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/missionhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
//
// MissionHub seeds the feed caches from full collection scans and then
// starts one change-stream watcher per cached collection. The watchers
// run until Shutdown cancels them, restarting broken streams after a
// short delay, so the caches converge on whatever is in Mongo even
// when writes come from outside this process.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("database timeouts configured from environment", zap.Int("overrides", n))
	}

	depts, err := deps.Departments.All(ctx)
	if err != nil {
		return fmt.Errorf("seed department cache: %w", err)
	}
	deps.DepartmentCache.Seed(depts)

	missions, err := deps.Missions.All(ctx)
	if err != nil {
		return fmt.Errorf("seed mission cache: %w", err)
	}
	deps.MissionCache.Seed(missions)

	recs, err := deps.Recommendations.All(ctx)
	if err != nil {
		return fmt.Errorf("seed recommendation cache: %w", err)
	}
	deps.RecommendationCache.Seed(recs)

	logger.Info("feed caches seeded",
		zap.Int("departments", deps.DepartmentCache.Len()),
		zap.Int("missions", deps.MissionCache.Len()),
		zap.Int("recommendations", deps.RecommendationCache.Len()))

	go watch(deps.watchCtx, "departments", logger, func(ctx context.Context, log *zap.Logger) error {
		return deps.Departments.Watch(ctx, log, deps.DepartmentCache.Apply)
	})
	go watch(deps.watchCtx, "missions", logger, func(ctx context.Context, log *zap.Logger) error {
		return deps.Missions.Watch(ctx, log, deps.MissionCache.Apply)
	})
	go watch(deps.watchCtx, "recommendations", logger, func(ctx context.Context, log *zap.Logger) error {
		return deps.Recommendations.Watch(ctx, log, deps.RecommendationCache.Apply)
	})

	deps.Resync.Start()

	return nil
}

// watchRestartDelay is how long a watcher waits before reopening a
// broken change stream.
const watchRestartDelay = 5 * time.Second

func watch(ctx context.Context, name string, logger *zap.Logger, run func(context.Context, *zap.Logger) error) {
	log := logger.With(zap.String("collection", name))
	for {
		err := run(ctx, log)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Error("change-stream watcher failed, restarting", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRestartDelay):
		}
	}
}
