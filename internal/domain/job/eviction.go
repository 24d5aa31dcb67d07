package job

import (
	"context"
	"errors"
	"fmt"
)

// EvictionResult reports what EnforceCapacity removed
type EvictionResult struct {
	Excess       int
	Deleted      int
	FailedChunks []error
}

// EnforceCapacity keeps the newest maxRecords jobs by SyncedAt and deletes the rest
// in chunks of the store's batch size. A failed chunk leaves its records in place
// and does not stop later chunks. The returned error is non-nil only when the
// store could not be counted or listed.
func EnforceCapacity(ctx context.Context, store Store, maxRecords int) (EvictionResult, error) {
	var res EvictionResult

	if maxRecords < 0 {
		return res, fmt.Errorf("job: max records must not be negative, got %d", maxRecords)
	}

	count, err := store.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("job: count stored jobs: %w", err)
	}
	if count <= maxRecords {
		return res, nil
	}

	res.Excess = count - maxRecords

	oldest, err := store.ListOldestBySyncedAt(ctx, res.Excess)
	if err != nil {
		return res, fmt.Errorf("job: list oldest jobs: %w", err)
	}

	ids := make([]string, 0, len(oldest))
	for _, j := range oldest {
		ids = append(ids, j.ID)
	}

	offset := 0
	for _, chunk := range chunks(ids, batchSize(store)) {
		if err := ctx.Err(); err != nil {
			res.FailedChunks = append(res.FailedChunks, &ChunkError{Op: "delete", Offset: offset, Size: len(chunk), Cause: err})
			offset += len(chunk)
			continue
		}
		if err := store.DeleteMany(ctx, chunk); err != nil {
			res.FailedChunks = append(res.FailedChunks, &ChunkError{Op: "delete", Offset: offset, Size: len(chunk), Cause: err})
		} else {
			res.Deleted += len(chunk)
		}
		offset += len(chunk)
	}

	return res, nil
}

// Err joins chunk failures, nil when every chunk succeeded
func (r EvictionResult) Err() error {
	return errors.Join(r.FailedChunks...)
}
