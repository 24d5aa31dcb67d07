package job

import (
	"context"

	"github.com/honeycarbs/job-sync/internal/domain"
)

// Provider represents an external job data source (Adzuna, Arbeitsagentur, ...)
type Provider interface {
	// e.g. "adzuna"
	Name() domain.Source

	// Fetch returns one page of mapped provider records. Failures are reported
	// as *SourceUnavailableError and never retried here.
	Fetch(ctx context.Context, query domain.Query) ([]domain.RawJob, error)
}
