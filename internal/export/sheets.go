// Package export mirrors the bounded store to external sinks after each pass.
package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

var header = []any{"id", "source", "title", "company", "location", "created", "salaryMin", "salaryMax", "contractType", "url", "syncedAt"}

type rangeWriter interface {
	ReplaceRange(ctx context.Context, a1Range string, rows [][]any) error
}

type jobLister interface {
	ListAll(ctx context.Context) ([]domain.NormalizedJob, error)
}

// SheetsExporter rewrites one sheet tab with the current store contents
type SheetsExporter struct {
	writer rangeWriter
	store  jobLister
	tab    string
	logger *logging.Logger
}

// NewSheetsExporter builds an exporter writing to tab
func NewSheetsExporter(writer rangeWriter, store jobLister, tab string, logger *logging.Logger) *SheetsExporter {
	if tab == "" {
		tab = "jobs"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SheetsExporter{writer: writer, store: store, tab: tab, logger: logger.Named("export")}
}

// AfterPass snapshots the store, newest sync first
func (e *SheetsExporter) AfterPass(ctx context.Context, stats domain.SyncStats) error {
	jobs, err := e.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("export: list jobs: %w", err)
	}

	if err := e.writer.ReplaceRange(ctx, e.tab+"!A1:K", Rows(jobs)); err != nil {
		return fmt.Errorf("export: write sheet: %w", err)
	}

	e.logger.Info("store snapshot exported", "run_id", stats.RunID, "rows", len(jobs), "tab", e.tab)
	return nil
}

// Rows renders jobs as sheet rows preceded by a header row
func Rows(jobs []domain.NormalizedJob) [][]any {
	rows := make([][]any, 0, len(jobs)+1)
	rows = append(rows, header)
	for _, j := range jobs {
		contract := ""
		if j.ContractType != nil {
			contract = *j.ContractType
		}
		rows = append(rows, []any{
			j.ID,
			string(j.Source),
			j.Title,
			j.Company,
			j.Location,
			j.Created,
			strconv.FormatFloat(j.SalaryMin, 'f', -1, 64),
			strconv.FormatFloat(j.SalaryMax, 'f', -1, 64),
			contract,
			j.URL,
			j.SyncedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

var _ job.AfterPassHook = (*SheetsExporter)(nil)
