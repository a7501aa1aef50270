// internal/app/system/workers/cacheresync.go
package workers

import (
	"context"
	"sync"
	"time"

	departmentstore "github.com/dalemusser/missionhub/internal/app/store/departments"
	missionstore "github.com/dalemusser/missionhub/internal/app/store/missions"
	recommendationstore "github.com/dalemusser/missionhub/internal/app/store/recommendations"
	"github.com/dalemusser/missionhub/internal/app/system/feedcache"
	"github.com/dalemusser/missionhub/internal/app/system/timeouts"
	"github.com/dalemusser/missionhub/internal/domain/models"
	"go.uber.org/zap"
)

// CacheResync is a background worker that periodically re-seeds the
// feed caches from full collection scans. Change streams keep the
// caches current between resyncs; the full scan catches anything a
// dropped stream missed, including deletes that happened while no
// watcher was running.
type CacheResync struct {
	departments     *departmentstore.Store
	missions        *missionstore.Store
	recommendations *recommendationstore.Store

	departmentCache     *feedcache.Cache[models.Department]
	missionCache        *feedcache.Cache[models.Mission]
	recommendationCache *feedcache.Cache[models.Recommendation]

	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCacheResync creates a cache resync worker. interval is how often
// a full re-seed runs (e.g., 10 minutes).
func NewCacheResync(
	departments *departmentstore.Store,
	missions *missionstore.Store,
	recommendations *recommendationstore.Store,
	departmentCache *feedcache.Cache[models.Department],
	missionCache *feedcache.Cache[models.Mission],
	recommendationCache *feedcache.Cache[models.Recommendation],
	logger *zap.Logger,
	interval time.Duration,
) *CacheResync {
	return &CacheResync{
		departments:         departments,
		missions:            missions,
		recommendations:     recommendations,
		departmentCache:     departmentCache,
		missionCache:        missionCache,
		recommendationCache: recommendationCache,
		log:                 logger,
		interval:            interval,
		stopCh:              make(chan struct{}),
	}
}

// Start begins the background resync loop.
func (w *CacheResync) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cache resync worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CacheResync) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("cache resync worker stopped")
}

func (w *CacheResync) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.resync()
		}
	}
}

func (w *CacheResync) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Reseed())
	defer cancel()

	if depts, err := w.departments.All(ctx); err != nil {
		w.log.Error("department cache resync failed", zap.Error(err))
	} else {
		w.departmentCache.Seed(depts)
	}

	if missions, err := w.missions.All(ctx); err != nil {
		w.log.Error("mission cache resync failed", zap.Error(err))
	} else {
		w.missionCache.Seed(missions)
	}

	if recs, err := w.recommendations.All(ctx); err != nil {
		w.log.Error("recommendation cache resync failed", zap.Error(err))
	} else {
		w.recommendationCache.Seed(recs)
	}

	w.log.Debug("feed caches resynced",
		zap.Int("departments", w.departmentCache.Len()),
		zap.Int("missions", w.missionCache.Len()),
		zap.Int("recommendations", w.recommendationCache.Len()))
}
