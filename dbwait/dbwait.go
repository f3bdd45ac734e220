// Package dbwait gates migration on database readiness. A freshly scheduled
// database container can take seconds to accept connections; without a
// bounded wait, that window would surface as a migration failure and abort
// startup for no reason.
package dbwait

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
	"github.com/timileyin42/ultimateco-entrypoint/metrics"
)

// Pinger is the slice of *sql.DB the waiter needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Config holds configuration for Wait.
type Config struct {
	// Pinger is the database handle to probe (required).
	Pinger Pinger

	// Interval is the delay between probes (default: 2s).
	Interval time.Duration

	// Budget is the total time allowed before giving up (default: 60s).
	Budget time.Duration

	// Logger is for observability (optional).
	Logger *slog.Logger

	// MetricsEnabled enables Prometheus metrics collection (default: true).
	MetricsEnabled *bool
}

// Wait probes the database until it answers a ping, the budget runs out, or
// ctx is cancelled. Budget exhaustion returns an error wrapping
// entrypoint.ErrDatabaseUnavailable together with the last ping error.
func Wait(ctx context.Context, cfg Config) error {
	if cfg.Pinger == nil {
		return fmt.Errorf("pinger is required")
	}
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Budget == 0 {
		cfg.Budget = 60 * time.Second
	}
	metricsEnabled := true
	if cfg.MetricsEnabled != nil {
		metricsEnabled = *cfg.MetricsEnabled
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, cfg.Budget)
	defer cancel()

	var lastErr error
	attempt := 0

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		attempt++
		lastErr = cfg.Pinger.PingContext(ctx)
		if lastErr == nil {
			if metricsEnabled {
				metrics.DatabaseWaitSeconds.Observe(time.Since(start).Seconds())
			}
			if cfg.Logger != nil {
				cfg.Logger.Info("database reachable", "attempts", attempt, "waited", time.Since(start).Truncate(time.Millisecond))
			}
			return nil
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("database not ready", "attempt", attempt, "error", lastErr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %s (%d attempts): %w", entrypoint.ErrDatabaseUnavailable, cfg.Budget, attempt, lastErr)
		case <-ticker.C:
		}
	}
}
