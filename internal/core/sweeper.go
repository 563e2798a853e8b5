package core

// sweeper.go closes grid sessions that nobody has used for a while.
//
// Browsers rarely say goodbye: a closed tab leaves its session open with
// its engine, selection and debounce timers. The sweeper runs on a ticker,
// closes sessions idle longer than the configured timeout and logs how many
// it reclaimed. It stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds configuration for the session sweeper.
type SweepConfig struct {
	IdleTimeout time.Duration // Sessions unused this long are closed (default: 30m)
	Interval    time.Duration // How often to check (default: 1m)
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	return c
}

// StartSessionSweeper closes idle sessions every Interval until ctx is
// cancelled. Run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, cfg SweepConfig) {
	cfg = cfg.withDefaults()
	slog.Info("session sweeper started",
		"idle_timeout", cfg.IdleTimeout,
		"interval", cfg.Interval,
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case now := <-ticker.C:
			s.SweepIdle(now, cfg.IdleTimeout)
		}
	}
}

// SweepIdle closes sessions unused for longer than idle as of now and
// returns how many were closed.
func (s *Service) SweepIdle(now time.Time, idle time.Duration) int {
	start := time.Now()
	closed := s.closeIdle(now.Add(-idle))
	if closed > 0 {
		slog.Info("idle grid sessions closed",
			"closed", closed,
			"open", s.SessionCount(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return closed
}
