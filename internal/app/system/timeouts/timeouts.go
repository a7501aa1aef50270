// Package timeouts centralizes the deadline tiers used for Mongo and
// other I/O in handlers and workers.
//
// Handlers pick a tier instead of inventing per-call durations, so a
// deployment can retune every operation of a class at once through
// Configure or ConfigureFromEnv.
//
// Guidelines for choosing a tier:
//   - Ping: connectivity checks (health endpoint, startup ping)
//   - Short: single-document reads and lookups
//   - Medium: list queries and simple writes
//   - Long: audit queries and multi-collection writes
//   - Reseed: full-collection cache reseeds
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure or ConfigureFromEnv overrides them.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultReseed = 60 * time.Second
)

// mu protects the tier values from concurrent access.
var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	reseed = DefaultReseed
)

// Ping returns the timeout for connectivity checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document operations.
// Examples: get by ID, lookup by email.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for list queries and simple writes.
// Examples: department lists, mission creates.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for operations touching multiple
// collections or large result sets. Examples: filtered audit queries,
// status transitions with their audit writes.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Reseed returns the timeout for reloading a whole collection into its
// cache, as the resync worker and startup seeding do.
func Reseed() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return reseed
}

// Config holds tier overrides. Zero values leave a tier unchanged.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Reseed time.Duration
}

// Configure applies the non-zero tiers in cfg. Call it during startup,
// before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
	if cfg.Reseed > 0 {
		reseed = cfg.Reseed
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
	reseed = DefaultReseed
}

// ConfigureFromEnv reads tier overrides from the environment. Each key
// is optional and takes a Go duration string ("500ms", "2s", "2m");
// unset or unparsable values keep the current tier:
//   - MISSIONHUB_TIMEOUT_PING
//   - MISSIONHUB_TIMEOUT_SHORT
//   - MISSIONHUB_TIMEOUT_MEDIUM
//   - MISSIONHUB_TIMEOUT_LONG
//   - MISSIONHUB_TIMEOUT_RESEED
//
// It returns the number of tiers overridden.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0
	for _, tier := range []struct {
		key string
		dst *time.Duration
	}{
		{"MISSIONHUB_TIMEOUT_PING", &ping},
		{"MISSIONHUB_TIMEOUT_SHORT", &short},
		{"MISSIONHUB_TIMEOUT_MEDIUM", &medium},
		{"MISSIONHUB_TIMEOUT_LONG", &long},
		{"MISSIONHUB_TIMEOUT_RESEED", &reseed},
	} {
		v := os.Getenv(tier.key)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*tier.dst = d
			configured++
		}
	}
	return configured
}

// Current returns the active tiers, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:   ping,
		Short:  short,
		Medium: medium,
		Long:   long,
		Reseed: reseed,
	}
}

// WithTimeout wraps context.WithTimeout and logs a warning when the
// deadline fires, naming the operation so slow tiers show up in logs.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
