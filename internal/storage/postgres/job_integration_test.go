package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/job-sync/internal/domain"
)

func TestJobRepositoryIntegration(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL must be set to run this test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewJobRepository(pool, 2)
	require.NoError(t, repo.EnsureSchema(ctx))

	prefix := uuid.NewString()[:8]
	contract := "full_time"
	old := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []domain.NormalizedJob{
		{ID: "ba_" + prefix + "_a", Source: domain.SourceArbeitsagentur, Title: "A", ContractType: &contract, SyncedAt: old, OriginalData: map[string]any{"refnr": "a"}},
		{ID: "ba_" + prefix + "_b", Source: domain.SourceArbeitsagentur, Title: "B", SyncedAt: old.Add(time.Second)},
	}
	ids := []string{jobs[0].ID, jobs[1].ID}
	t.Cleanup(func() { _ = repo.DeleteMany(context.Background(), ids) })

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertMany(ctx, jobs))
	jobs[1].Title = "B2"
	require.NoError(t, repo.UpsertMany(ctx, jobs[1:]))
	assert.Error(t, repo.UpsertMany(ctx, append(jobs, jobs...)), "batch above the limit is rejected")

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)

	oldest, err := repo.ListOldestBySyncedAt(ctx, 2)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, jobs[0].ID, oldest[0].ID)
	assert.Equal(t, "B2", oldest[1].Title)
	assert.Equal(t, old, oldest[0].SyncedAt)
	require.NotNil(t, oldest[0].ContractType)
	assert.Equal(t, "full_time", *oldest[0].ContractType)
	assert.Equal(t, "a", oldest[0].OriginalData["refnr"])

	agg, err := repo.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, agg.TotalJobs)
	assert.GreaterOrEqual(t, agg.Sources[domain.SourceArbeitsagentur], 2)

	require.NoError(t, repo.DeleteMany(ctx, ids))
	final, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, final)
}
