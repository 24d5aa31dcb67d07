// Package memory is a process-local bounded store for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
)

var _ job.Store = (*JobStore)(nil)

// JobStore keeps jobs in a map guarded by a mutex
type JobStore struct {
	mu        sync.RWMutex
	jobs      map[string]domain.NormalizedJob
	batchSize int
}

// NewJobStore creates an empty store; batchSize <= 0 uses job.DefaultBatchSize
func NewJobStore(batchSize int) *JobStore {
	if batchSize <= 0 {
		batchSize = job.DefaultBatchSize
	}
	return &JobStore{
		jobs:      make(map[string]domain.NormalizedJob),
		batchSize: batchSize,
	}
}

func (s *JobStore) MaxBatchSize() int {
	return s.batchSize
}

// UpsertMany replaces jobs by ID. The whole batch is applied or rejected.
func (s *JobStore) UpsertMany(_ context.Context, jobs []domain.NormalizedJob) error {
	if len(jobs) > s.batchSize {
		return fmt.Errorf("memory: batch of %d exceeds limit %d", len(jobs), s.batchSize)
	}
	for _, j := range jobs {
		if j.ID == "" {
			return fmt.Errorf("memory: job without id")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		j.OriginalData = maps.Clone(j.OriginalData)
		s.jobs[j.ID] = j
	}
	return nil
}

func (s *JobStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

func (s *JobStore) ListOldestBySyncedAt(_ context.Context, n int) ([]domain.NormalizedJob, error) {
	if n <= 0 {
		return nil, nil
	}
	all := s.sorted(compareOldest)
	return all[:min(n, len(all))], nil
}

func (s *JobStore) DeleteMany(_ context.Context, ids []string) error {
	if len(ids) > s.batchSize {
		return fmt.Errorf("memory: batch of %d exceeds limit %d", len(ids), s.batchSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.jobs, id)
	}
	return nil
}

func (s *JobStore) ListAll(_ context.Context) ([]domain.NormalizedJob, error) {
	return s.sorted(func(a, b domain.NormalizedJob) int { return compareOldest(b, a) }), nil
}

func (s *JobStore) Aggregate(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StoreStats{
		TotalJobs: len(s.jobs),
		Sources:   make(map[domain.Source]int),
	}
	var oldest, newest time.Time
	for _, j := range s.jobs {
		stats.Sources[j.Source]++
		if oldest.IsZero() || j.SyncedAt.Before(oldest) {
			oldest = j.SyncedAt
		}
		if newest.IsZero() || j.SyncedAt.After(newest) {
			newest = j.SyncedAt
		}
	}
	if len(s.jobs) > 0 {
		stats.OldestSyncedAt = &oldest
		stats.NewestSyncedAt = &newest
	}
	return stats, nil
}

// Get returns a stored job by ID
func (s *JobStore) Get(id string) (domain.NormalizedJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *JobStore) sorted(cmp func(a, b domain.NormalizedJob) int) []domain.NormalizedJob {
	s.mu.RLock()
	all := slices.Collect(maps.Values(s.jobs))
	s.mu.RUnlock()

	slices.SortFunc(all, cmp)
	return all
}

func compareOldest(a, b domain.NormalizedJob) int {
	if c := a.SyncedAt.Compare(b.SyncedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
