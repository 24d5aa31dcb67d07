// Package ops backs the operator surfaces (HTTP and MCP) over the store and scheduler.
package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
)

// Aggregator is the read side of the bounded store used for status
type Aggregator interface {
	Aggregate(ctx context.Context) (domain.StoreStats, error)
}

// Trigger runs passes on demand and reports the schedule
type Trigger interface {
	TriggerManualSync(ctx context.Context) (domain.SyncStats, error)
	NextSyncTime() *time.Time
	LastSync() (time.Time, *domain.SyncStats)
}

// Service combines store aggregates with scheduler state
type Service struct {
	store     Aggregator
	scheduler Trigger
}

// NewService creates an ops Service
func NewService(store job.Store, scheduler Trigger) *Service {
	return &Service{store: store, scheduler: scheduler}
}

// Status reports store size, sync-time bounds and schedule
func (s *Service) Status(ctx context.Context) (domain.SyncStatus, error) {
	agg, err := s.store.Aggregate(ctx)
	if err != nil {
		return domain.SyncStatus{}, fmt.Errorf("ops: aggregate store: %w", err)
	}

	status := domain.SyncStatus{
		TotalJobs: agg.TotalJobs,
		OldestJob: agg.OldestSyncedAt,
		NewestJob: agg.NewestSyncedAt,
		NextSync:  s.scheduler.NextSyncTime(),
		Sources:   agg.Sources,
		LastSync:  agg.NewestSyncedAt,
	}
	if status.Sources == nil {
		status.Sources = map[domain.Source]int{}
	}

	if last, _ := s.scheduler.LastSync(); !last.IsZero() {
		status.LastSync = &last
	}

	return status, nil
}

// Trigger runs a manual pass
func (s *Service) Trigger(ctx context.Context) (domain.SyncStats, error) {
	return s.scheduler.TriggerManualSync(ctx)
}
