package job

import (
	"errors"
	"fmt"

	"github.com/honeycarbs/job-sync/internal/domain"
)

// ErrSyncInProgress is returned when another pass holds the sync guard
var ErrSyncInProgress = errors.New("job: sync pass already in progress")

// SourceUnavailableError reports that one provider could not be fetched
type SourceUnavailableError struct {
	Source domain.Source
	Cause  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Cause)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Cause
}

// Unavailable wraps err as a SourceUnavailableError unless it already is one
func Unavailable(source domain.Source, err error) error {
	if err == nil {
		return nil
	}
	var sue *SourceUnavailableError
	if errors.As(err, &sue) {
		return err
	}
	return &SourceUnavailableError{Source: source, Cause: err}
}

// ChunkError reports a failed batch write or delete
type ChunkError struct {
	Op     string // "upsert" or "delete"
	Offset int
	Size   int
	Cause  error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s chunk [%d:%d] failed: %v", e.Op, e.Offset, e.Offset+e.Size, e.Cause)
}

func (e *ChunkError) Unwrap() error {
	return e.Cause
}

// SyncPassError is returned when a pass aborts on an unexpected failure
type SyncPassError struct {
	RunID string
	Cause error
}

func (e *SyncPassError) Error() string {
	return fmt.Sprintf("sync pass %s failed: %v", e.RunID, e.Cause)
}

func (e *SyncPassError) Unwrap() error {
	return e.Cause
}
