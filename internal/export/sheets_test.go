package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/job-sync/internal/domain"
)

type fakeWriter struct {
	rng  string
	rows [][]any
	err  error
}

func (f *fakeWriter) ReplaceRange(_ context.Context, rng string, rows [][]any) error {
	f.rng = rng
	f.rows = rows
	return f.err
}

type fakeLister struct {
	jobs []domain.NormalizedJob
	err  error
}

func (f fakeLister) ListAll(context.Context) ([]domain.NormalizedJob, error) {
	return f.jobs, f.err
}

func TestSheetsExporterWritesSnapshot(t *testing.T) {
	contract := "permanent"
	synced := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	jobs := []domain.NormalizedJob{
		{ID: "adzuna_1", Source: domain.SourceAdzuna, Title: "Go Dev", SalaryMin: 50000, ContractType: &contract, SyncedAt: synced},
		{ID: "ba_2", Source: domain.SourceArbeitsagentur, Title: "Lagerist", SyncedAt: synced},
	}
	w := &fakeWriter{}

	exp := NewSheetsExporter(w, fakeLister{jobs: jobs}, "", nil)
	require.NoError(t, exp.AfterPass(context.Background(), domain.SyncStats{RunID: "r1"}))

	assert.Equal(t, "jobs!A1:K", w.rng)
	require.Len(t, w.rows, 3)
	assert.Equal(t, header, w.rows[0])
	assert.Equal(t, "adzuna_1", w.rows[1][0])
	assert.Equal(t, "50000", w.rows[1][6])
	assert.Equal(t, "permanent", w.rows[1][8])
	assert.Equal(t, "", w.rows[2][8])
	assert.Equal(t, "2026-03-01T12:00:00Z", w.rows[2][10])
}

func TestSheetsExporterPropagatesErrors(t *testing.T) {
	exp := NewSheetsExporter(&fakeWriter{}, fakeLister{err: errors.New("down")}, "jobs", nil)
	assert.ErrorContains(t, exp.AfterPass(context.Background(), domain.SyncStats{}), "list jobs")

	exp = NewSheetsExporter(&fakeWriter{err: errors.New("quota")}, fakeLister{}, "jobs", nil)
	assert.ErrorContains(t, exp.AfterPass(context.Background(), domain.SyncStats{}), "write sheet")
}
