package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper removes expired sessions and reports how many it removed.
type Sweeper interface {
	CleanupExpired() int
}

// CleanupJob periodically sweeps expired sessions from a store.
// It is owned by whoever starts it and stops with Stop or the start context.
type CleanupJob struct {
	sweeper  Sweeper
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewCleanupJob creates a cleanup job. A non-positive interval uses DefaultCleanupInterval.
func NewCleanupJob(sweeper Sweeper, interval time.Duration) *CleanupJob {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupJob{
		sweeper:  sweeper,
		interval: interval,
	}
}

// Interval returns the sweep interval.
func (j *CleanupJob) Interval() time.Duration {
	return j.interval
}

// Start begins the periodic sweep in a goroutine. Starting a running job is a no-op.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(ctx, j.stopChan, j.done)

	slog.Info("session cleanup job started", "interval", j.interval)
}

// Stop stops the job and waits for an in-flight sweep to finish.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopChan)
	done := j.done
	j.running = false
	j.mu.Unlock()

	<-done
	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single sweep immediately.
func (j *CleanupJob) RunOnce() int {
	return j.sweeper.CleanupExpired()
}

// IsRunning returns whether the job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.mu.Lock()
			if j.stopChan == stop {
				j.running = false
			}
			j.mu.Unlock()
			return
		case <-stop:
			return
		case <-ticker.C:
			start := time.Now()
			if removed := j.sweeper.CleanupExpired(); removed > 0 {
				slog.Info("session cleanup completed",
					"removed", removed,
					"latency_ms", time.Since(start).Milliseconds())
			}
		}
	}
}
