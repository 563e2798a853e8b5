package core

import (
	"context"
	"testing"
	"time"
)

func TestSweepIdle(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceOptions{})

	for _, table := range []string{"stations", "pump_logs"} {
		if _, err := svc.OpenSession(context.Background(), table); err != nil {
			t.Fatalf("OpenSession(%s) error = %v", table, err)
		}
	}

	if n := svc.SweepIdle(time.Now(), time.Hour); n != 0 {
		t.Errorf("SweepIdle() closed %d fresh sessions, want 0", n)
	}
	if n := svc.SweepIdle(time.Now().Add(2*time.Hour), time.Hour); n != 2 {
		t.Errorf("SweepIdle() closed %d, want 2", n)
	}
	if svc.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d, want 0", svc.SessionCount())
	}
}

func TestSweepIdle_TouchKeepsSessionOpen(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceOptions{})

	stale, err := svc.OpenSession(context.Background(), "stations")
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	fresh, err := svc.OpenSession(context.Background(), "pump_logs")
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	stale.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())
	fresh.Touch()

	if n := svc.SweepIdle(time.Now(), 30*time.Minute); n != 1 {
		t.Fatalf("SweepIdle() closed %d, want 1", n)
	}
	if _, err := svc.Session(fresh.ID); err != nil {
		t.Errorf("fresh session closed: %v", err)
	}
	if _, err := svc.Session(stale.ID); err == nil {
		t.Error("stale session still open")
	}
}

func TestStartSessionSweeper_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, newMemStore(), ServiceOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartSessionSweeper(ctx, SweepConfig{Interval: 10 * time.Millisecond})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweepConfigDefaults(t *testing.T) {
	cfg := SweepConfig{}.withDefaults()
	if cfg.IdleTimeout != 30*time.Minute {
		t.Errorf("IdleTimeout = %v, want 30m", cfg.IdleTimeout)
	}
	if cfg.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", cfg.Interval)
	}
}
