package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/lock"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

const (
	DefaultMaxRecords   = 200
	DefaultPageSize     = 50
	DefaultFetchTimeout = 20 * time.Second
	DefaultHookTimeout  = 2 * time.Minute

	tracerName = "github.com/honeycarbs/job-sync/internal/domain/job"
)

// Service runs sync passes
type Service interface {
	// RunSync fetches every provider, upserts what arrived and enforces capacity.
	// It returns ErrSyncInProgress when another pass holds the guard.
	RunSync(ctx context.Context) (domain.SyncStats, error)
}

// Recorder receives pass metrics
type Recorder interface {
	RecordPass(result string, stats domain.SyncStats)
	RecordSkipped()
	RecordSourceError(source domain.Source)
	RecordChunkFailure(op string)
	SetStoredJobs(n int)
}

// AfterPassHook runs once a pass that stored records has finished
type AfterPassHook interface {
	AfterPass(ctx context.Context, stats domain.SyncStats) error
}

// Settings holds the tunables of a pass
type Settings struct {
	MaxRecords   int
	PageSize     int
	FetchTimeout time.Duration
	HookTimeout  time.Duration
}

// Option configures Service
type Option func(*config)

type config struct {
	providers []Provider
	store     Store
	clock     func() time.Time
	locker    lock.Locker
	logger    *logging.Logger
	recorder  Recorder
	hooks     []AfterPassHook
	tracer    trace.Tracer
	settings  Settings
}

// WithProviders sets job providers
func WithProviders(providers ...Provider) Option {
	return func(c *config) {
		c.providers = providers
	}
}

// WithStore sets the bounded store
func WithStore(store Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLocker replaces the in-process pass guard
func WithLocker(l lock.Locker) Option {
	return func(c *config) {
		c.locker = l
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

// WithAfterPass registers hooks run after each pass that stored records
func WithAfterPass(hooks ...AfterPassHook) Option {
	return func(c *config) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithTracer sets the tracer used for pass spans
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// WithSettings overrides pass tunables; zero fields keep defaults
func WithSettings(s Settings) Option {
	return func(c *config) {
		if s.MaxRecords > 0 {
			c.settings.MaxRecords = s.MaxRecords
		}
		if s.PageSize > 0 {
			c.settings.PageSize = s.PageSize
		}
		if s.FetchTimeout > 0 {
			c.settings.FetchTimeout = s.FetchTimeout
		}
		if s.HookTimeout > 0 {
			c.settings.HookTimeout = s.HookTimeout
		}
	}
}

// NewService builds Service from options
func NewService(opts ...Option) (Service, error) {
	cfg := &config{
		clock: time.Now,
		settings: Settings{
			MaxRecords:   DefaultMaxRecords,
			PageSize:     DefaultPageSize,
			FetchTimeout: DefaultFetchTimeout,
			HookTimeout:  DefaultHookTimeout,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.store == nil {
		return nil, fmt.Errorf("job.Service: store is required")
	}
	if len(cfg.providers) == 0 {
		return nil, fmt.Errorf("job.Service: at least one provider is required")
	}
	if cfg.locker == nil {
		cfg.locker = lock.NewLocal()
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.recorder == nil {
		cfg.recorder = nopRecorder{}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}

	return &service{
		providers: cfg.providers,
		store:     cfg.store,
		clock:     cfg.clock,
		locker:    cfg.locker,
		logger:    cfg.logger.Named("sync"),
		recorder:  cfg.recorder,
		hooks:     cfg.hooks,
		tracer:    cfg.tracer,
		settings:  cfg.settings,
	}, nil
}

// NewServiceWithDeps creates a Service with direct dependencies (Wire-compatible)
func NewServiceWithDeps(
	store Store,
	providers []Provider,
	locker lock.Locker,
	recorder Recorder,
	hooks []AfterPassHook,
	settings Settings,
	logger *logging.Logger,
) (Service, error) {
	return NewService(
		WithStore(store),
		WithProviders(providers...),
		WithLocker(locker),
		WithRecorder(recorder),
		WithAfterPass(hooks...),
		WithSettings(settings),
		WithLogger(logger),
	)
}

type service struct {
	providers []Provider
	store     Store
	clock     func() time.Time
	locker    lock.Locker
	logger    *logging.Logger
	recorder  Recorder
	hooks     []AfterPassHook
	tracer    trace.Tracer
	settings  Settings
}

// sourceResult is the outcome of one provider fetch: records or an error, never both
type sourceResult struct {
	source  domain.Source
	records []domain.RawJob
	err     error
}

// RunSync executes one pass. After-pass hooks run once the guard is released.
func (s *service) RunSync(ctx context.Context) (domain.SyncStats, error) {
	release, acquired, err := s.locker.TryLock(ctx)
	if err != nil {
		return domain.SyncStats{}, fmt.Errorf("job: acquire sync guard: %w", err)
	}
	if !acquired {
		s.recorder.RecordSkipped()
		return domain.SyncStats{}, ErrSyncInProgress
	}

	stats, err := s.guardedPass(ctx, release)
	if err != nil || stats.Fetched == 0 {
		return stats, err
	}

	s.afterPass(ctx, stats)
	return stats, nil
}

// afterPass runs hooks on a context detached from the caller and bounded by HookTimeout
func (s *service) afterPass(ctx context.Context, stats domain.SyncStats) {
	if len(s.hooks) == 0 {
		return
	}

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.HookTimeout)
	defer cancel()

	log := s.logger.With("run_id", stats.RunID)
	for _, h := range s.hooks {
		if herr := h.AfterPass(hctx, stats); herr != nil {
			log.Warn("after-pass hook failed", "err", herr)
		}
	}
}

func (s *service) guardedPass(ctx context.Context, release lock.Release) (stats domain.SyncStats, err error) {
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.logger.Warn("failed to release sync guard", "err", rerr)
		}
	}()

	runID := uuid.NewString()
	log := s.logger.With("run_id", runID)
	stats = domain.SyncStats{
		RunID:     runID,
		StartedAt: s.clock(),
		Sources:   make(map[domain.Source]int, len(s.providers)),
	}

	ctx, span := s.tracer.Start(ctx, "job.RunSync", trace.WithAttributes(attribute.String("sync.run_id", runID)))
	defer span.End()
	log = log.WithContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = &SyncPassError{RunID: runID, Cause: fmt.Errorf("panic: %v", r)}
			stats.FinishedAt = s.clock()
			span.RecordError(err)
			span.SetStatus(codes.Error, "sync pass aborted")
			s.recorder.RecordPass("failed", stats)
			log.Error("sync pass aborted", "err", err)
		}
	}()

	log.Info("sync pass started", "providers", len(s.providers))

	var raws []domain.RawJob
	stats, raws = foldResults(stats, s.fetchAll(ctx, log))

	if stats.Fetched == 0 {
		stats.FinishedAt = s.clock()
		s.recorder.RecordPass("empty", stats)
		log.Info("sync pass fetched nothing; store left unchanged", "errors", stats.Errors)
		return stats, nil
	}

	syncedAt := s.clock().UTC()
	jobs := prepare(raws, syncedAt, log)

	stats = s.upsert(ctx, stats, jobs, log)
	stats = s.evict(ctx, stats, log)

	if n, cerr := s.store.Count(ctx); cerr == nil {
		s.recorder.SetStoredJobs(n)
	}

	stats.FinishedAt = s.clock()
	result := "ok"
	if stats.Errors > 0 {
		result = "partial"
	}
	s.recorder.RecordPass(result, stats)
	span.SetAttributes(
		attribute.Int("sync.fetched", stats.Fetched),
		attribute.Int("sync.saved", stats.Saved),
		attribute.Int("sync.deleted", stats.Deleted),
		attribute.Int("sync.errors", stats.Errors),
	)

	log.Info("sync pass complete",
		"fetched", stats.Fetched,
		"saved", stats.Saved,
		"deleted", stats.Deleted,
		"errors", stats.Errors,
		"duration", stats.FinishedAt.Sub(stats.StartedAt).String(),
	)

	return stats, nil
}

func (s *service) fetchAll(ctx context.Context, log *logging.Logger) []sourceResult {
	results := make([]sourceResult, 0, len(s.providers))
	for _, p := range s.providers {
		res := s.fetchOne(ctx, p)
		if res.err != nil {
			s.recorder.RecordSourceError(res.source)
			log.Warn("source fetch failed; continuing with remaining sources", "source", res.source, "err", res.err)
		} else {
			log.Debug("source fetched", "source", res.source, "records", len(res.records))
		}
		results = append(results, res)
	}
	return results
}

func (s *service) fetchOne(ctx context.Context, p Provider) sourceResult {
	source := p.Name()

	ctx, span := s.tracer.Start(ctx, "job.Fetch", trace.WithAttributes(attribute.String("sync.source", string(source))))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.settings.FetchTimeout)
	defer cancel()

	records, err := p.Fetch(ctx, domain.Query{Page: 1, PageSize: s.settings.PageSize})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return sourceResult{source: source, err: Unavailable(source, err)}
	}
	span.SetAttributes(attribute.Int("sync.records", len(records)))
	return sourceResult{source: source, records: records}
}

// foldResults aggregates per-source outcomes into stats and concatenates the records
func foldResults(stats domain.SyncStats, results []sourceResult) (domain.SyncStats, []domain.RawJob) {
	var all []domain.RawJob
	for _, r := range results {
		if r.err != nil {
			stats.Sources[r.source] = 0
			stats.Errors++
			stats.Failures = append(stats.Failures, r.err.Error())
			continue
		}
		stats.Sources[r.source] += len(r.records)
		stats.Fetched += len(r.records)
		all = append(all, r.records...)
	}
	return stats, all
}

// prepare cleans records, stamps syncedAt and keeps the last record per ID
func prepare(raws []domain.RawJob, syncedAt time.Time, log *logging.Logger) []domain.NormalizedJob {
	index := make(map[string]int, len(raws))
	jobs := make([]domain.NormalizedJob, 0, len(raws))

	for _, raw := range raws {
		if strings.TrimSpace(raw.NativeID) == "" {
			log.Warn("dropping record without provider id", "source", raw.Source, "title", raw.Title)
			continue
		}
		j := Clean(raw)
		j.SyncedAt = syncedAt

		if i, seen := index[j.ID]; seen {
			jobs[i] = j
			continue
		}
		index[j.ID] = len(jobs)
		jobs = append(jobs, j)
	}
	return jobs
}

func (s *service) upsert(ctx context.Context, stats domain.SyncStats, jobs []domain.NormalizedJob, log *logging.Logger) domain.SyncStats {
	offset := 0
	for _, chunk := range chunks(jobs, batchSize(s.store)) {
		if err := s.store.UpsertMany(ctx, chunk); err != nil {
			cerr := &ChunkError{Op: "upsert", Offset: offset, Size: len(chunk), Cause: err}
			stats.Errors++
			stats.Failures = append(stats.Failures, cerr.Error())
			s.recorder.RecordChunkFailure(cerr.Op)
			log.Warn("upsert chunk failed", "offset", offset, "size", len(chunk), "err", err)
		} else {
			stats.Saved += len(chunk)
		}
		offset += len(chunk)
	}
	return stats
}

func (s *service) evict(ctx context.Context, stats domain.SyncStats, log *logging.Logger) domain.SyncStats {
	res, err := EnforceCapacity(ctx, s.store, s.settings.MaxRecords)
	stats.Deleted = res.Deleted

	if err != nil {
		stats.Errors++
		stats.Failures = append(stats.Failures, err.Error())
		log.Error("capacity enforcement failed", "err", err)
		return stats
	}

	for _, ferr := range res.FailedChunks {
		stats.Errors++
		stats.Failures = append(stats.Failures, ferr.Error())
		s.recorder.RecordChunkFailure("delete")
		log.Warn("delete chunk failed", "err", ferr)
	}

	if res.Excess > 0 {
		log.Info("evicted oldest jobs", "excess", res.Excess, "deleted", res.Deleted, "max_records", s.settings.MaxRecords)
	}
	return stats
}

type nopRecorder struct{}

func (nopRecorder) RecordPass(string, domain.SyncStats) {}
func (nopRecorder) RecordSkipped()                      {}
func (nopRecorder) RecordSourceError(domain.Source)     {}
func (nopRecorder) RecordChunkFailure(string)           {}
func (nopRecorder) SetStoredJobs(int)                   {}
