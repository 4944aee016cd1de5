package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) CleanupExpired() int {
	s.calls.Add(1)
	return 0
}

func TestCleanupJob(t *testing.T) {
	ctx := context.Background()

	t.Run("NewCleanupJob_DefaultInterval", func(t *testing.T) {
		job := NewCleanupJob(&countingSweeper{}, 0)
		if job.Interval() != DefaultCleanupInterval {
			t.Errorf("expected default interval %v, got %v", DefaultCleanupInterval, job.Interval())
		}
	})

	t.Run("RunOnce_RemovesExpiredSessions", func(t *testing.T) {
		clock := newFakeClock()
		store := NewStore(DefaultConfig(), WithClock(clock.Now))
		store.AddMessage("old", Message{Role: RoleUser, Content: "hello"})
		clock.Advance(DefaultContextTTL + time.Minute)
		store.AddMessage("recent", Message{Role: RoleUser, Content: "hello"})

		job := NewCleanupJob(store, time.Hour)
		if removed := job.RunOnce(); removed != 1 {
			t.Errorf("expected 1 removed, got %d", removed)
		}
		if store.SessionCount() != 1 {
			t.Errorf("expected 1 session left, got %d", store.SessionCount())
		}
		if len(store.GetHistory("recent", 0)) != 1 {
			t.Error("recent session should survive the sweep")
		}
	})

	t.Run("StartStop_ManagesRunningState", func(t *testing.T) {
		job := NewCleanupJob(&countingSweeper{}, time.Hour)

		if job.IsRunning() {
			t.Error("job should not be running initially")
		}

		job.Start(ctx)
		if !job.IsRunning() {
			t.Error("job should be running after Start")
		}

		// Start again (should be idempotent)
		job.Start(ctx)

		job.Stop()
		if job.IsRunning() {
			t.Error("job should not be running after Stop")
		}

		// Stop again (should be idempotent)
		job.Stop()
	})

	t.Run("Ticker_SweepsPeriodically", func(t *testing.T) {
		sweeper := &countingSweeper{}
		job := NewCleanupJob(sweeper, 5*time.Millisecond)
		job.Start(ctx)
		defer job.Stop()

		deadline := time.Now().Add(2 * time.Second)
		for sweeper.calls.Load() < 2 {
			if time.Now().After(deadline) {
				t.Fatalf("expected at least 2 sweeps, got %d", sweeper.calls.Load())
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	t.Run("ContextCancel_StopsJob", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		job := NewCleanupJob(&countingSweeper{}, time.Hour)
		job.Start(cctx)
		cancel()

		deadline := time.Now().Add(2 * time.Second)
		for job.IsRunning() {
			if time.Now().After(deadline) {
				t.Fatal("job should stop when its context is cancelled")
			}
			time.Sleep(time.Millisecond)
		}
		// Stop after cancellation must not block or panic.
		job.Stop()
	})
}
