package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestDailyTrigger(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*3600)
	trigger, err := Daily(9, 30, almaty)
	require.NoError(t, err)

	at := func(day, hour, minute int) time.Time {
		return time.Date(2024, 3, day, hour, minute, 0, 0, almaty)
	}

	tests := []struct {
		name      string
		now       time.Time
		lastStart time.Time
		want      bool
	}{
		{"before the time", at(10, 9, 29), time.Time{}, false},
		{"at the time", at(10, 9, 30), time.Time{}, true},
		{"later the same day, never run", at(10, 15, 0), time.Time{}, true},
		{"already ran today", at(10, 15, 0), at(10, 9, 31), false},
		{"ran yesterday", at(11, 9, 30), at(10, 9, 30), true},
		{"ran earlier today before the time", at(10, 9, 30), at(10, 2, 0), true},
		{"utc clock, local time reached", time.Date(2024, 3, 10, 4, 30, 0, 0, time.UTC), time.Time{}, true},
		{"utc clock, local time not reached", time.Date(2024, 3, 10, 4, 29, 0, 0, time.UTC), time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trigger.Due(tt.now, tt.lastStart))
		})
	}

	_, err = Daily(24, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestIntervalTrigger(t *testing.T) {
	trigger, err := Every(30 * time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, trigger.Due(now, time.Time{}))
	assert.False(t, trigger.Due(now, now.Add(-29*time.Minute)))
	assert.True(t, trigger.Due(now, now.Add(-30*time.Minute)))

	_, err = Every(0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScheduler_TickRunsDueJobs(t *testing.T) {
	s := New(DefaultConfig(), newTestLogger())
	clock := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	daily, err := Daily(9, 30, time.UTC)
	require.NoError(t, err)
	every, err := Every(time.Hour)
	require.NoError(t, err)

	var dailyRuns, syncRuns atomic.Int32
	var seen atomic.Value
	s.Register("recurring", daily, func(_ context.Context, now time.Time) error {
		seen.Store(now)
		dailyRuns.Add(1)
		return nil
	})
	s.Register("expense-sync", every, func(context.Context, time.Time) error {
		syncRuns.Add(1)
		return errors.New("pos down")
	})

	ctx := context.Background()
	s.tick(ctx)
	s.runWG.Wait()
	assert.Equal(t, int32(0), dailyRuns.Load())
	assert.Equal(t, int32(1), syncRuns.Load())

	clock = clock.Add(30 * time.Minute)
	s.tick(ctx)
	s.runWG.Wait()
	assert.Equal(t, int32(1), dailyRuns.Load())
	assert.Equal(t, int32(1), syncRuns.Load(), "interval not elapsed")
	assert.Equal(t, clock, seen.Load())

	clock = clock.Add(time.Hour)
	s.tick(ctx)
	s.runWG.Wait()
	assert.Equal(t, int32(1), dailyRuns.Load(), "daily job runs once a day")
	assert.Equal(t, int32(2), syncRuns.Load())

	states := s.Jobs()
	require.Len(t, states, 2)
	assert.Equal(t, "expense-sync", states[0].Name)
	assert.Equal(t, JobStatusFailed, states[0].Status)
	assert.Equal(t, "pos down", states[0].Error)
	assert.Equal(t, 2, states[0].Runs)
	assert.Equal(t, "recurring", states[1].Name)
	assert.Equal(t, JobStatusSuccess, states[1].Status)
	assert.Equal(t, "daily at 09:30 UTC", states[1].Schedule)
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := New(DefaultConfig(), newTestLogger())
	every, err := Every(time.Nanosecond)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var runs atomic.Int32
	s.Register("slow", every, func(ctx context.Context, _ time.Time) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	})

	ctx := context.Background()
	s.tick(ctx)
	<-started
	s.tick(ctx)
	s.tick(ctx)

	err = s.Trigger(ctx, "slow")
	assert.ErrorIs(t, err, ErrJobAlreadyRunning)

	close(release)
	s.runWG.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_Trigger(t *testing.T) {
	s := New(DefaultConfig(), newTestLogger())
	daily, err := Daily(3, 0, time.UTC)
	require.NoError(t, err)

	s.Register("boom", daily, func(context.Context, time.Time) error {
		panic("nil map")
	})

	err = s.Trigger(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, JobStatusFailed, s.Jobs()[0].Status)

	assert.ErrorIs(t, s.Trigger(context.Background(), "missing"), ErrJobNotFound)
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := New(Config{CheckInterval: time.Minute, JobTimeout: 20 * time.Millisecond}, newTestLogger())
	every, err := Every(time.Hour)
	require.NoError(t, err)

	s.Register("stuck", every, func(ctx context.Context, _ time.Time) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err = s.Trigger(context.Background(), "stuck")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(Config{CheckInterval: 10 * time.Millisecond, JobTimeout: time.Second}, newTestLogger())
	every, err := Every(time.Hour)
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	s.Register("sync", every, func(context.Context, time.Time) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))
}
