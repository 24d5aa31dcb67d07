package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"

	pkgneo4j "github.com/honeycarbs/job-sync/pkg/neo4j"
)

// Ensure JobRepository implements job.Store
var _ job.Store = (*JobRepository)(nil)

var schemaStatements = []string{
	`CREATE CONSTRAINT job_id_unique IF NOT EXISTS FOR (j:Job) REQUIRE j.id IS UNIQUE`,
	`CREATE INDEX job_synced_at IF NOT EXISTS FOR (j:Job) ON (j.syncedAt)`,
}

// JobRepository implements job.Store with Neo4j
type JobRepository struct {
	client    *pkgneo4j.Client
	batchSize int
}

// NewJobRepository creates a JobRepository with a Neo4j client
func NewJobRepository(client *pkgneo4j.Client, batchSize int) *JobRepository {
	if batchSize <= 0 {
		batchSize = job.DefaultBatchSize
	}
	return &JobRepository{
		client:    client,
		batchSize: batchSize,
	}
}

// EnsureSchema creates the id constraint and the syncedAt index
func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		_, err := r.client.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("neo4j: ensure schema: %w", err)
		}
	}
	return nil
}

func (r *JobRepository) MaxBatchSize() int {
	return r.batchSize
}

// UpsertMany merges jobs by id in a single transaction
func (r *JobRepository) UpsertMany(ctx context.Context, jobs []domain.NormalizedJob) error {
	if len(jobs) == 0 {
		return nil
	}
	if len(jobs) > r.batchSize {
		return fmt.Errorf("neo4j: batch of %d exceeds limit %d", len(jobs), r.batchSize)
	}

	query := `
		UNWIND $jobs AS job
		MERGE (j:Job {id: job.id})
		SET j.source = job.source,
		    j.title = job.title,
		    j.company = job.company,
		    j.location = job.location,
		    j.description = job.description,
		    j.created = job.created,
		    j.salaryMin = job.salaryMin,
		    j.salaryMax = job.salaryMax,
		    j.contractType = job.contractType,
		    j.url = job.url,
		    j.originalData = job.originalData,
		    j.syncedAt = datetime({epochMillis: job.syncedAt})
	`

	jobsData := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		var original any
		if len(j.OriginalData) > 0 {
			raw, err := json.Marshal(j.OriginalData)
			if err != nil {
				return fmt.Errorf("neo4j: encode original data for %s: %w", j.ID, err)
			}
			original = string(raw)
		}

		var contractType any
		if j.ContractType != nil {
			contractType = *j.ContractType
		}

		jobsData = append(jobsData, map[string]any{
			"id":           j.ID,
			"source":       string(j.Source),
			"title":        j.Title,
			"company":      j.Company,
			"location":     j.Location,
			"description":  j.Description,
			"created":      j.Created,
			"salaryMin":    j.SalaryMin,
			"salaryMax":    j.SalaryMax,
			"contractType": contractType,
			"url":          j.URL,
			"originalData": original,
			"syncedAt":     j.SyncedAt.UnixMilli(),
		})
	}

	_, err := r.client.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"jobs": jobsData})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("neo4j: upsert jobs: %w", err)
	}
	return nil
}

func (r *JobRepository) Count(ctx context.Context) (int, error) {
	records, err := r.client.Collect(ctx, `MATCH (j:Job) RETURN count(j) AS total`, nil)
	if err != nil {
		return 0, fmt.Errorf("neo4j: count jobs: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	total, _, err := neo4j.GetRecordValue[int64](records[0], "total")
	if err != nil {
		return 0, fmt.Errorf("neo4j: count jobs: %w", err)
	}
	return int(total), nil
}

func (r *JobRepository) ListOldestBySyncedAt(ctx context.Context, n int) ([]domain.NormalizedJob, error) {
	if n <= 0 {
		return nil, nil
	}
	records, err := r.client.Collect(ctx, `
		MATCH (j:Job)
		RETURN j
		ORDER BY j.syncedAt ASC, j.id ASC
		LIMIT $limit
	`, map[string]any{"limit": n})
	if err != nil {
		return nil, fmt.Errorf("neo4j: list oldest jobs: %w", err)
	}
	return decodeJobs(records)
}

// DeleteMany removes jobs by id in a single transaction
func (r *JobRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > r.batchSize {
		return fmt.Errorf("neo4j: batch of %d exceeds limit %d", len(ids), r.batchSize)
	}

	_, err := r.client.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (j:Job)
			WHERE j.id IN $ids
			DETACH DELETE j
		`, map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("neo4j: delete jobs: %w", err)
	}
	return nil
}

func (r *JobRepository) ListAll(ctx context.Context) ([]domain.NormalizedJob, error) {
	records, err := r.client.Collect(ctx, `
		MATCH (j:Job)
		RETURN j
		ORDER BY j.syncedAt DESC, j.id DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("neo4j: list jobs: %w", err)
	}
	return decodeJobs(records)
}

func (r *JobRepository) Aggregate(ctx context.Context) (domain.StoreStats, error) {
	records, err := r.client.Collect(ctx, `
		MATCH (j:Job)
		RETURN j.source AS source,
		       count(j) AS total,
		       min(j.syncedAt) AS oldest,
		       max(j.syncedAt) AS newest
	`, nil)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("neo4j: aggregate jobs: %w", err)
	}

	stats := domain.StoreStats{Sources: make(map[domain.Source]int)}
	for _, rec := range records {
		source, _, _ := neo4j.GetRecordValue[string](rec, "source")
		total, _, err := neo4j.GetRecordValue[int64](rec, "total")
		if err != nil {
			return domain.StoreStats{}, fmt.Errorf("neo4j: aggregate jobs: %w", err)
		}
		stats.Sources[domain.Source(source)] = int(total)
		stats.TotalJobs += int(total)

		if oldest, isNil, err := neo4j.GetRecordValue[time.Time](rec, "oldest"); err == nil && !isNil {
			if stats.OldestSyncedAt == nil || oldest.Before(*stats.OldestSyncedAt) {
				stats.OldestSyncedAt = &oldest
			}
		}
		if newest, isNil, err := neo4j.GetRecordValue[time.Time](rec, "newest"); err == nil && !isNil {
			if stats.NewestSyncedAt == nil || newest.After(*stats.NewestSyncedAt) {
				stats.NewestSyncedAt = &newest
			}
		}
	}
	return stats, nil
}

func decodeJobs(records []*neo4j.Record) ([]domain.NormalizedJob, error) {
	jobs := make([]domain.NormalizedJob, 0, len(records))
	for _, rec := range records {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "j")
		if err != nil {
			return nil, fmt.Errorf("neo4j: decode job: %w", err)
		}
		j, err := nodeToJob(node)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func nodeToJob(node neo4j.Node) (domain.NormalizedJob, error) {
	props := node.Props

	j := domain.NormalizedJob{
		ID:          stringProp(props, "id"),
		Source:      domain.Source(stringProp(props, "source")),
		Title:       stringProp(props, "title"),
		Company:     stringProp(props, "company"),
		Location:    stringProp(props, "location"),
		Description: stringProp(props, "description"),
		Created:     stringProp(props, "created"),
		SalaryMin:   floatProp(props, "salaryMin"),
		SalaryMax:   floatProp(props, "salaryMax"),
		URL:         stringProp(props, "url"),
	}

	if v, ok := props["contractType"].(string); ok {
		j.ContractType = &v
	}

	switch v := props["syncedAt"].(type) {
	case time.Time:
		j.SyncedAt = v.UTC()
	case neo4j.LocalDateTime:
		j.SyncedAt = v.Time().UTC()
	}

	if raw, ok := props["originalData"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &j.OriginalData); err != nil {
			return domain.NormalizedJob{}, fmt.Errorf("neo4j: decode original data for %s: %w", j.ID, err)
		}
	}

	return j, nil
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}
