package job

import (
	"context"

	"github.com/honeycarbs/job-sync/internal/domain"
)

// DefaultBatchSize is the per-operation write/delete limit used when a store does not set one
const DefaultBatchSize = 500

// Store persists normalized jobs. Each UpsertMany and DeleteMany call is
// committed on its own; callers keep batches within MaxBatchSize.
type Store interface {
	// UpsertMany creates or merges jobs keyed by ID
	UpsertMany(ctx context.Context, jobs []domain.NormalizedJob) error

	// Count returns the number of stored jobs
	Count(ctx context.Context) (int, error)

	// ListOldestBySyncedAt returns up to n jobs ordered by SyncedAt then ID, oldest first
	ListOldestBySyncedAt(ctx context.Context, n int) ([]domain.NormalizedJob, error)

	// DeleteMany removes jobs by ID; unknown IDs are ignored
	DeleteMany(ctx context.Context, ids []string) error

	// ListAll returns every stored job, newest sync first
	ListAll(ctx context.Context) ([]domain.NormalizedJob, error)

	// Aggregate returns totals derived from stored jobs
	Aggregate(ctx context.Context) (domain.StoreStats, error)

	// MaxBatchSize is the largest slice accepted by UpsertMany and DeleteMany
	MaxBatchSize() int
}

func batchSize(s Store) int {
	if n := s.MaxBatchSize(); n > 0 {
		return n
	}
	return DefaultBatchSize
}

func chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
