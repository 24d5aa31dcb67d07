// Package postgres implements the bounded job store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
)

var _ job.Store = (*JobRepository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS synced_jobs (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	created       TEXT NOT NULL DEFAULT '',
	salary_min    DOUBLE PRECISION NOT NULL DEFAULT 0,
	salary_max    DOUBLE PRECISION NOT NULL DEFAULT 0,
	contract_type TEXT,
	url           TEXT NOT NULL DEFAULT '',
	original_data JSONB,
	synced_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS synced_jobs_synced_at_idx ON synced_jobs (synced_at, id);
`

const upsertSQL = `
INSERT INTO synced_jobs (
	id, source, title, company, location, description, created,
	salary_min, salary_max, contract_type, url, original_data, synced_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	source        = EXCLUDED.source,
	title         = EXCLUDED.title,
	company       = EXCLUDED.company,
	location      = EXCLUDED.location,
	description   = EXCLUDED.description,
	created       = EXCLUDED.created,
	salary_min    = EXCLUDED.salary_min,
	salary_max    = EXCLUDED.salary_max,
	contract_type = EXCLUDED.contract_type,
	url           = EXCLUDED.url,
	original_data = EXCLUDED.original_data,
	synced_at     = EXCLUDED.synced_at
`

const selectColumns = `id, source, title, company, location, description, created,
	salary_min, salary_max, contract_type, url, original_data, synced_at`

// JobRepository implements job.Store over a pgx pool
type JobRepository struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewPool creates and verifies a pgxpool connection pool
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// NewJobRepository creates a JobRepository
func NewJobRepository(pool *pgxpool.Pool, batchSize int) *JobRepository {
	if batchSize <= 0 {
		batchSize = job.DefaultBatchSize
	}
	return &JobRepository{pool: pool, batchSize: batchSize}
}

// EnsureSchema creates the jobs table and its ordering index
func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *JobRepository) MaxBatchSize() int {
	return r.batchSize
}

// UpsertMany writes the batch in one transaction
func (r *JobRepository) UpsertMany(ctx context.Context, jobs []domain.NormalizedJob) error {
	if len(jobs) == 0 {
		return nil
	}
	if len(jobs) > r.batchSize {
		return fmt.Errorf("postgres: batch of %d exceeds limit %d", len(jobs), r.batchSize)
	}

	batch := &pgx.Batch{}
	for _, j := range jobs {
		var original []byte
		if len(j.OriginalData) > 0 {
			raw, err := json.Marshal(j.OriginalData)
			if err != nil {
				return fmt.Errorf("postgres: encode original data for %s: %w", j.ID, err)
			}
			original = raw
		}
		batch.Queue(upsertSQL,
			j.ID, string(j.Source), j.Title, j.Company, j.Location, j.Description, j.Created,
			j.SalaryMin, j.SalaryMax, j.ContractType, j.URL, original, j.SyncedAt,
		)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for range jobs {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("postgres: upsert jobs: %w", err)
			}
		}
		return br.Close()
	})
}

func (r *JobRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM synced_jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count jobs: %w", err)
	}
	return n, nil
}

func (r *JobRepository) ListOldestBySyncedAt(ctx context.Context, n int) ([]domain.NormalizedJob, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM synced_jobs ORDER BY synced_at ASC, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("postgres: list oldest jobs: %w", err)
	}
	return collectJobs(rows)
}

func (r *JobRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > r.batchSize {
		return fmt.Errorf("postgres: batch of %d exceeds limit %d", len(ids), r.batchSize)
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM synced_jobs WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("postgres: delete jobs: %w", err)
	}
	return nil
}

func (r *JobRepository) ListAll(ctx context.Context) ([]domain.NormalizedJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM synced_jobs ORDER BY synced_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list jobs: %w", err)
	}
	return collectJobs(rows)
}

func (r *JobRepository) Aggregate(ctx context.Context) (domain.StoreStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT source, count(*), min(synced_at), max(synced_at)
		FROM synced_jobs
		GROUP BY source
	`)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("postgres: aggregate jobs: %w", err)
	}
	defer rows.Close()

	stats := domain.StoreStats{Sources: make(map[domain.Source]int)}
	for rows.Next() {
		var (
			source         string
			total          int
			oldest, newest time.Time
		)
		if err := rows.Scan(&source, &total, &oldest, &newest); err != nil {
			return domain.StoreStats{}, fmt.Errorf("postgres: scan aggregate: %w", err)
		}
		stats.Sources[domain.Source(source)] = total
		stats.TotalJobs += total
		if stats.OldestSyncedAt == nil || oldest.Before(*stats.OldestSyncedAt) {
			stats.OldestSyncedAt = &oldest
		}
		if stats.NewestSyncedAt == nil || newest.After(*stats.NewestSyncedAt) {
			stats.NewestSyncedAt = &newest
		}
	}
	if err := rows.Err(); err != nil {
		return domain.StoreStats{}, fmt.Errorf("postgres: aggregate jobs: %w", err)
	}
	return stats, nil
}

func collectJobs(rows pgx.Rows) ([]domain.NormalizedJob, error) {
	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.NormalizedJob, error) {
		var (
			j        domain.NormalizedJob
			source   string
			original []byte
		)
		if err := row.Scan(
			&j.ID, &source, &j.Title, &j.Company, &j.Location, &j.Description, &j.Created,
			&j.SalaryMin, &j.SalaryMax, &j.ContractType, &j.URL, &original, &j.SyncedAt,
		); err != nil {
			return domain.NormalizedJob{}, err
		}
		j.Source = domain.Source(source)
		j.SyncedAt = j.SyncedAt.UTC()
		if len(original) > 0 {
			if err := json.Unmarshal(original, &j.OriginalData); err != nil {
				return domain.NormalizedJob{}, fmt.Errorf("decode original data for %s: %w", j.ID, err)
			}
		}
		return j, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan jobs: %w", err)
	}
	return jobs, nil
}
