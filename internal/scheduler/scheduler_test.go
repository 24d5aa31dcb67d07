package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
)

// fakeRunner rejects overlapping calls the way job.Service does
type fakeRunner struct {
	guard   sync.Mutex
	calls   atomic.Int32
	block     chan struct{}
	entered   chan struct{}
	err       error
	cancelled atomic.Int32
}

func (r *fakeRunner) RunSync(ctx context.Context) (domain.SyncStats, error) {
	if !r.guard.TryLock() {
		return domain.SyncStats{}, job.ErrSyncInProgress
	}
	defer r.guard.Unlock()

	n := r.calls.Add(1)
	if r.entered != nil {
		select {
		case r.entered <- struct{}{}:
		default:
		}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			r.cancelled.Add(1)
			return domain.SyncStats{}, ctx.Err()
		}
	}
	return domain.SyncStats{Saved: int(n)}, r.err
}

func TestStartRunsImmediately(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, WithInterval(time.Hour))

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestStartWithoutStartupPass(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, WithInterval(time.Hour), WithRunOnStart(false))

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Zero(t, r.calls.Load())
}

func TestIntervalTicks(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, WithInterval(time.Second), WithRunOnStart(false))

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
}

func TestNextSyncTime(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s := New(&fakeRunner{}, WithInterval(time.Hour), WithRunOnStart(false), WithClock(func() time.Time { return now }))

	assert.Nil(t, s.NextSyncTime())
	assert.False(t, s.Running())

	require.NoError(t, s.Start(context.Background()))
	next := s.NextSyncTime()
	require.NotNil(t, next)
	assert.True(t, s.Running())

	s.Stop()
	assert.Nil(t, s.NextSyncTime())
	assert.False(t, s.Running())
}

func TestManualTriggerDuringPassIsRejected(t *testing.T) {
	r := &fakeRunner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(r, WithInterval(time.Hour))

	require.NoError(t, s.Start(context.Background()))
	<-r.entered

	_, err := s.TriggerManualSync(context.Background())
	assert.ErrorIs(t, err, job.ErrSyncInProgress)

	close(r.block)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestShutdownRejectsNewWork(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, WithInterval(time.Hour), WithRunOnStart(false))

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))

	_, err := s.TriggerManualSync(context.Background())
	assert.ErrorIs(t, err, ErrShuttingDown)
	assert.ErrorIs(t, s.Start(context.Background()), ErrShuttingDown)
	assert.Zero(t, r.calls.Load())
}

func TestManualTriggersRacingShutdown(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, WithInterval(time.Hour), WithRunOnStart(false))
	require.NoError(t, s.Start(context.Background()))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.TriggerManualSync(context.Background())
			errs <- err
		}()
	}

	require.NoError(t, s.Shutdown(context.Background()))
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, ErrShuttingDown) || errors.Is(err, job.ErrSyncInProgress), "unexpected error: %v", err)
		}
	}

	_, err := s.TriggerManualSync(context.Background())
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestRestartCancelsPassesFromPreviousRun(t *testing.T) {
	r := &fakeRunner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(r, WithInterval(time.Hour))

	require.NoError(t, s.Start(context.Background()))
	<-r.entered

	s.Stop()
	assert.Zero(t, r.cancelled.Load())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return r.cancelled.Load() == 1 }, time.Second, 10*time.Millisecond)

	close(r.block)
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestLastSyncTracksSuccessfulPasses(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &fakeRunner{}
	s := New(r, WithClock(func() time.Time { return now }))

	last, stats := s.LastSync()
	assert.True(t, last.IsZero())
	assert.Nil(t, stats)

	_, err := s.TriggerManualSync(context.Background())
	require.NoError(t, err)

	last, stats = s.LastSync()
	assert.Equal(t, now, last)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Saved)

	r.err = errors.New("sync pass failed")
	_, err = s.TriggerManualSync(context.Background())
	require.Error(t, err)

	_, stats = s.LastSync()
	assert.Equal(t, 1, stats.Saved)
}

func TestShutdownWaitsForInflightPass(t *testing.T) {
	r := &fakeRunner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(r, WithInterval(time.Hour))

	require.NoError(t, s.Start(context.Background()))
	<-r.entered

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(r.block)
	}()

	require.NoError(t, s.Shutdown(context.Background()))
	_, stats := s.LastSync()
	require.NotNil(t, stats)
}

func TestShutdownTimesOut(t *testing.T) {
	r := &fakeRunner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := New(r, WithInterval(time.Hour))

	require.NoError(t, s.Start(context.Background()))
	<-r.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
