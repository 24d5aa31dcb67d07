package neo4j

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/job-sync/internal/domain"
	pkgneo4j "github.com/honeycarbs/job-sync/pkg/neo4j"
)

func TestJobRepositoryIntegration(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI, NEO4J_USERNAME and NEO4J_PASSWORD must be set to run this test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pkgneo4j.NewClient(ctx, pkgneo4j.Config{
		URI:      uri,
		Username: os.Getenv("NEO4J_USERNAME"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	})
	require.NoError(t, err)
	defer func() { _ = client.Close(context.Background()) }()

	repo := NewJobRepository(client, 2)
	require.NoError(t, repo.EnsureSchema(ctx))

	prefix := uuid.NewString()[:8]
	contract := "permanent"
	old := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []domain.NormalizedJob{
		{ID: "adzuna_" + prefix + "_a", Source: domain.SourceAdzuna, Title: "A", SalaryMin: 1, ContractType: &contract, SyncedAt: old, OriginalData: map[string]any{"k": "v"}},
		{ID: "adzuna_" + prefix + "_b", Source: domain.SourceAdzuna, Title: "B", SyncedAt: old.Add(time.Second)},
	}
	ids := []string{jobs[0].ID, jobs[1].ID}
	t.Cleanup(func() { _ = repo.DeleteMany(context.Background(), ids) })

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertMany(ctx, jobs))
	jobs[1].Title = "B2"
	require.NoError(t, repo.UpsertMany(ctx, jobs[1:]))

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)

	oldest, err := repo.ListOldestBySyncedAt(ctx, 2)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, jobs[0].ID, oldest[0].ID)
	assert.Equal(t, "B2", oldest[1].Title)
	assert.True(t, old.Equal(oldest[0].SyncedAt))
	require.NotNil(t, oldest[0].ContractType)
	assert.Equal(t, "permanent", *oldest[0].ContractType)
	assert.Nil(t, oldest[1].ContractType)
	assert.Equal(t, "v", oldest[0].OriginalData["k"])

	agg, err := repo.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, agg.TotalJobs)
	require.NotNil(t, agg.OldestSyncedAt)
	assert.True(t, old.Equal(*agg.OldestSyncedAt))

	require.NoError(t, repo.DeleteMany(ctx, ids))
	final, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, final)
}
