// Package scheduler runs reconciliation jobs on a timer. It replaces
// framework-global cron registration with an explicit component that can be
// driven by a ticker in production and called directly from tests.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"motorlot-ads/internal/core/port"
)

// Job is one unit of background work. Jobs must tolerate being skipped and
// being run back to back.
type Job func(ctx context.Context)

// Scheduler fires a job on a schedule with a single-flight guard: a tick
// (or RunNow call) that arrives while a run is still in progress is dropped
// and logged, never queued or run in parallel.
type Scheduler struct {
	name   string
	job    Job
	next   func(now time.Time) time.Time
	clock  port.Clock
	logger *slog.Logger

	running sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewInterval schedules the job every d, starting with an immediate run.
func NewInterval(name string, d time.Duration, job Job, clock port.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		name:   name,
		job:    job,
		next:   func(now time.Time) time.Time { return now.Add(d) },
		clock:  clock,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// NewDaily schedules the job once per day at local midnight.
func NewDaily(name string, job Job, clock port.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		name: name,
		job:  job,
		next: func(now time.Time) time.Time {
			return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		},
		clock:  clock,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Start launches the timer loop. The job runs once immediately, then on
// the schedule.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("scheduler started", slog.String("job", s.name))
}

// Stop terminates the timer loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("scheduler stopped", slog.String("job", s.name))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.RunNow(ctx)

	for {
		now := s.clock.Now()
		timer := time.NewTimer(s.next(now).Sub(now))
		select {
		case <-timer.C:
			s.RunNow(ctx)
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// RunNow triggers the job immediately, subject to the single-flight guard.
// Returns false when a run was already in progress and the trigger was
// dropped.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	if !s.running.TryLock() {
		s.logger.Warn("scheduler run skipped, previous run still in progress",
			slog.String("job", s.name))
		return false
	}
	defer s.running.Unlock()
	s.job(ctx)
	return true
}
