//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/job-sync/internal/config"
	"github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/internal/metrics"
	"github.com/honeycarbs/job-sync/internal/ops"
	"github.com/honeycarbs/job-sync/internal/scheduler"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

// Initialize creates the App with all components wired up
func Initialize(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, func(), error) {
	wire.Build(
		// Infrastructure
		provideStore,
		provideLocker,
		provideRegistry,
		metrics.NewCollector,
		wire.Bind(new(job.Recorder), new(*metrics.Collector)),
		provideHTTPClient,

		// Sources and hooks
		provideJobProviders,
		provideHooks,
		provideSettings,

		// Services
		job.NewServiceWithDeps,
		provideScheduler,
		wire.Bind(new(ops.Trigger), new(*scheduler.Scheduler)),
		ops.NewService,

		// Transport
		provideServer,
		newApp,
	)
	return nil, nil, nil
}
