package job_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/storage/memory"
)

var base = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

// stepClock advances one second per call
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *stepClock {
	return &stepClock{now: base}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeProvider struct {
	name  domain.Source
	fetch func(ctx context.Context, q domain.Query) ([]domain.RawJob, error)
}

func (p fakeProvider) Name() domain.Source { return p.name }

func (p fakeProvider) Fetch(ctx context.Context, q domain.Query) ([]domain.RawJob, error) {
	return p.fetch(ctx, q)
}

func staticProvider(name domain.Source, jobs []domain.RawJob) fakeProvider {
	return fakeProvider{name: name, fetch: func(context.Context, domain.Query) ([]domain.RawJob, error) {
		return jobs, nil
	}}
}

func failingProvider(name domain.Source, err error) fakeProvider {
	return fakeProvider{name: name, fetch: func(context.Context, domain.Query) ([]domain.RawJob, error) {
		return nil, err
	}}
}

func rawJobs(source domain.Source, prefix string, n int) []domain.RawJob {
	out := make([]domain.RawJob, 0, n)
	for i := range n {
		out = append(out, domain.RawJob{
			Source:   source,
			NativeID: fmt.Sprintf("%s%03d", prefix, i),
			Title:    fmt.Sprintf("Job %s%03d", prefix, i),
			Company:  "ACME",
			Location: "Berlin",
		})
	}
	return out
}

// seed stores n jobs synced one minute apart, the first being the oldest
func seed(store *memory.JobStore, n int) []string {
	ids := make([]string, 0, n)
	batch := make([]domain.NormalizedJob, 0, store.MaxBatchSize())
	flush := func() {
		if err := store.UpsertMany(context.Background(), batch); err != nil {
			panic(err)
		}
		batch = batch[:0]
	}
	for i := range n {
		id := fmt.Sprintf("adzuna_seed%03d", i)
		ids = append(ids, id)
		batch = append(batch, domain.NormalizedJob{
			ID:       id,
			Source:   domain.SourceAdzuna,
			SyncedAt: base.Add(-time.Duration(n-i) * time.Minute),
		})
		if len(batch) == store.MaxBatchSize() {
			flush()
		}
	}
	if len(batch) > 0 {
		flush()
	}
	return ids
}

var errStore = errors.New("store unavailable")

// flakyStore fails selected UpsertMany/DeleteMany calls by 1-based call number
type flakyStore struct {
	*memory.JobStore

	mu          sync.Mutex
	upserts     int
	deletes     int
	failUpserts map[int]bool
	failDeletes map[int]bool
}

func (s *flakyStore) UpsertMany(ctx context.Context, jobs []domain.NormalizedJob) error {
	s.mu.Lock()
	s.upserts++
	fail := s.failUpserts[s.upserts]
	s.mu.Unlock()
	if fail {
		return errStore
	}
	return s.JobStore.UpsertMany(ctx, jobs)
}

func (s *flakyStore) DeleteMany(ctx context.Context, ids []string) error {
	s.mu.Lock()
	s.deletes++
	fail := s.failDeletes[s.deletes]
	s.mu.Unlock()
	if fail {
		return errStore
	}
	return s.JobStore.DeleteMany(ctx, ids)
}
