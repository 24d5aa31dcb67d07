package tools

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/internal/scheduler"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

// SyncStatsParams takes no arguments
type SyncStatsParams struct{}

// SyncTriggerParams takes no arguments
type SyncTriggerParams struct{}

// SyncTriggerResult mirrors the HTTP trigger envelope
type SyncTriggerResult struct {
	Success bool   `json:"success" jsonschema:"Whether the pass ran to completion"`
	Data    any    `json:"data,omitempty" jsonschema:"Pass statistics; inspect errors for degraded runs"`
	Error   string `json:"error,omitempty" jsonschema:"Failure reason when success is false"`
}

type syncTools struct {
	ops    Operations
	logger *logging.Logger
}

// WithSyncStats registers the sync_stats tool
func WithSyncStats(ops Operations) Option {
	return func(reg *registry) {
		t := syncTools{ops: ops, logger: reg.logger}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "sync_stats",
			Description: "Report bounded job store size, per-source counts, sync-time bounds and the next scheduled pass",
		}, t.stats)
	}
}

// WithSyncTrigger registers the sync_trigger tool
func WithSyncTrigger(ops Operations) Option {
	return func(reg *registry) {
		t := syncTools{ops: ops, logger: reg.logger}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "sync_trigger",
			Description: "Run a job sync pass now and return its statistics",
		}, t.trigger)
	}
}

func (t syncTools) stats(ctx context.Context, _ *sdkmcp.CallToolRequest, _ *SyncStatsParams) (*sdkmcp.CallToolResult, any, error) {
	status, err := t.ops.Status(ctx)
	if err != nil {
		t.logger.Error("sync_stats: failed to load status", "err", err)
		return errorResult(err.Error()), nil, nil
	}
	return jsonResult(status), status, nil
}

func (t syncTools) trigger(ctx context.Context, _ *sdkmcp.CallToolRequest, _ *SyncTriggerParams) (*sdkmcp.CallToolResult, any, error) {
	t.logger.Info("sync_trigger called")

	stats, err := t.ops.Trigger(context.WithoutCancel(ctx))
	if err != nil {
		result := SyncTriggerResult{Success: false, Error: err.Error()}
		if !errors.Is(err, job.ErrSyncInProgress) && !errors.Is(err, scheduler.ErrShuttingDown) {
			t.logger.Error("sync_trigger: pass failed", "err", err)
		}
		res := jsonResult(result)
		res.IsError = true
		return res, result, nil
	}

	result := SyncTriggerResult{Success: true, Data: stats}
	return jsonResult(result), result, nil
}
