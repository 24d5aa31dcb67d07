// Package scheduler runs sync passes at startup and on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

const DefaultInterval = 24 * time.Hour

var (
	ErrAlreadyStarted = errors.New("scheduler: already started")
	ErrShuttingDown   = errors.New("scheduler: shutting down")
)

// Runner executes one sync pass
type Runner interface {
	RunSync(ctx context.Context) (domain.SyncStats, error)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithInterval sets the time between scheduled passes; cron rounds it to whole seconds
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock sets the clock used for pass bookkeeping
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithRunOnStart controls whether Start runs a pass immediately
func WithRunOnStart(run bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = run
	}
}

// Scheduler drives Runner: once on Start, then every interval until Stop.
// Overlapping passes are rejected by the Runner's own guard.
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	clock      func() time.Time
	logger     *logging.Logger
	runOnStart bool

	mu       sync.Mutex
	cron     *cron.Cron
	entry    cron.EntryID
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	closing  bool
	lastRun  time.Time
	lastStat *domain.SyncStats
}

// New creates a stopped Scheduler
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:     runner,
		interval:   DefaultInterval,
		clock:      time.Now,
		logger:     logging.NewNop(),
		runOnStart: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s
}

// Start arms the interval timer and kicks off the startup pass without waiting for it.
// Passes left running by an earlier Stop are cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return ErrShuttingDown
	}
	if s.cron != nil {
		return ErrAlreadyStarted
	}
	if s.cancel != nil {
		s.cancel()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c := cron.New(cron.WithLogger(cronLogger{s.logger}))
	id := c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.run(runCtx, "scheduled")
	}))
	c.Start()

	s.cron = c
	s.entry = id
	s.cancel = cancel

	s.logger.Info("scheduler started", "interval", s.interval.String(), "run_on_start", s.runOnStart)

	if s.runOnStart {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.run(runCtx, "startup")
		}()
	}

	return nil
}

// Stop disarms the timer. Passes already running are left to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.entry = 0
	s.mu.Unlock()

	if c == nil {
		return
	}
	c.Stop()
	s.logger.Info("scheduler stopped")
}

// Shutdown stops the timer and waits for in-flight passes until ctx expires.
// On expiry the passes' context is cancelled. Later Start and manual triggers fail with ErrShuttingDown.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	c := s.cron
	cancel := s.cancel
	s.mu.Unlock()

	s.Stop()

	done := make(chan struct{})
	go func() {
		if c != nil {
			<-c.Stop().Done()
		}
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		if cancel != nil {
			cancel()
		}
		return nil
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		return fmt.Errorf("scheduler: waiting for in-flight pass: %w", ctx.Err())
	}
}

// TriggerManualSync runs a pass now, independent of the timer
func (s *Scheduler) TriggerManualSync(ctx context.Context) (domain.SyncStats, error) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return domain.SyncStats{}, ErrShuttingDown
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()
	return s.run(ctx, "manual")
}

// NextSyncTime reports when the timer fires next, nil while stopped
func (s *Scheduler) NextSyncTime() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		next = s.clock().Add(s.interval)
	}
	return &next
}

// LastSync returns the finish time and stats of the last pass that completed
func (s *Scheduler) LastSync() (time.Time, *domain.SyncStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastStat
}

// Running reports whether the timer is armed
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

func (s *Scheduler) run(ctx context.Context, trigger string) (domain.SyncStats, error) {
	log := s.logger.With("trigger", trigger)

	stats, err := s.runner.RunSync(ctx)
	switch {
	case errors.Is(err, job.ErrSyncInProgress):
		log.Info("sync pass skipped; another pass is in progress")
		return stats, err
	case err != nil:
		log.Error("sync pass failed; next tick proceeds as scheduled", "err", err)
		return stats, err
	}

	s.mu.Lock()
	s.lastRun = s.clock()
	s.lastStat = &stats
	s.mu.Unlock()

	if stats.Errors > 0 {
		log.Warn("sync pass finished with errors", "errors", stats.Errors, "failures", stats.Failures)
	}
	return stats, nil
}

// cronLogger routes robfig/cron messages into the service logger
type cronLogger struct {
	l *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}

var _ cron.Logger = cronLogger{}
