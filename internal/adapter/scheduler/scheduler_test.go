package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorlot-ads/internal/core/port"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIntervalRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int32
	s := NewInterval("test", 10*time.Millisecond, func(context.Context) {
		runs.Add(1)
	}, port.SystemClock{}, discardLogger())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, time.Millisecond)
}

func TestRunNowSingleFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	s := NewInterval("test", time.Hour, func(context.Context) {
		select {
		case <-entered:
		default:
			close(entered)
		}
		<-release
	}, port.SystemClock{}, discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, s.RunNow(context.Background()))
	}()

	<-entered
	// A trigger while the job is in flight is dropped, not queued.
	assert.False(t, s.RunNow(context.Background()))

	close(release)
	wg.Wait()

	// After the run finishes the guard is free again.
	assert.True(t, s.RunNow(context.Background()))
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var finished atomic.Bool
	s := NewInterval("test", time.Hour, func(context.Context) {
		select {
		case <-entered:
		default:
			close(entered)
		}
		<-release
		finished.Store(true)
	}, port.SystemClock{}, discardLogger())

	s.Start(context.Background())
	<-entered

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while the job was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
	assert.True(t, finished.Load())
}

func TestStartIsIdempotent(t *testing.T) {
	var runs atomic.Int32
	s := NewInterval("test", time.Hour, func(context.Context) {
		runs.Add(1)
	}, port.SystemClock{}, discardLogger())

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx)

	require.Eventually(t, func() bool { return runs.Load() == 1 },
		time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load(), "second Start must not spawn a second loop")

	s.Stop()
	s.Stop()
}

func TestNextDailyIsMidnight(t *testing.T) {
	s := NewDaily("test", func(context.Context) {}, port.SystemClock{}, discardLogger())

	now := time.Date(2025, 3, 10, 15, 42, 7, 0, time.UTC)
	next := s.next(now)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), next)

	// A run exactly at midnight schedules the following midnight.
	next = s.next(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), next)
}
