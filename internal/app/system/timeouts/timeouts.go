// Package timeouts centralizes the context deadlines handlers put on
// store and engine calls.
//
// Tier guide:
//   - Ping: connectivity probes (health endpoint, startup check)
//   - Short: single-document reads (get by id, role resolution)
//   - Medium: list queries and single-collection writes
//   - Long: multi-collection writes and audit log queries
//   - Batch: roster moves and other bulk reassignment work
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// tier is one named timeout with its env override.
type tier struct {
	envVar string
	value  time.Duration
}

var (
	mu    sync.RWMutex
	tiers = map[string]*tier{
		"ping":   {envVar: "TIMEOUT_PING", value: DefaultPing},
		"short":  {envVar: "TIMEOUT_SHORT", value: DefaultShort},
		"medium": {envVar: "TIMEOUT_MEDIUM", value: DefaultMedium},
		"long":   {envVar: "TIMEOUT_LONG", value: DefaultLong},
		"batch":  {envVar: "TIMEOUT_BATCH", value: DefaultBatch},
	}
)

func get(name string) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return tiers[name].value
}

// Ping returns the timeout for connectivity probes.
func Ping() time.Duration { return get("ping") }

// Short returns the timeout for single-document reads.
func Short() time.Duration { return get("short") }

// Medium returns the timeout for list queries and simple writes.
func Medium() time.Duration { return get("medium") }

// Long returns the timeout for multi-collection writes.
func Long() time.Duration { return get("long") }

// Batch returns the timeout for bulk reassignment work.
func Batch() time.Duration { return get("batch") }

// ConfigureFromEnv overrides tiers from TIMEOUT_* environment variables
// (Go duration syntax, e.g. "500ms", "2m"). Unset or unparseable values
// keep their defaults. Returns how many tiers were overridden.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	overridden := 0
	for _, t := range tiers {
		v := os.Getenv(t.envVar)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			t.value = d
			overridden++
		}
	}
	return overridden
}

// Current reports every tier's active value, for startup logging.
func Current() map[string]time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]time.Duration, len(tiers))
	for name, t := range tiers {
		out[name] = t.value
	}
	return out
}

// WithTimeout is context.WithTimeout plus a deadline-exceeded warning
// on cancel, for operations where a timeout is worth investigating.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
