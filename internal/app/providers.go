// Package app assembles the sync service from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/honeycarbs/job-sync/internal/api"
	"github.com/honeycarbs/job-sync/internal/config"
	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
	adzunaProvider "github.com/honeycarbs/job-sync/internal/domain/job/providers/adzuna"
	baProvider "github.com/honeycarbs/job-sync/internal/domain/job/providers/arbeitsagentur"
	"github.com/honeycarbs/job-sync/internal/export"
	"github.com/honeycarbs/job-sync/internal/lock"
	"github.com/honeycarbs/job-sync/internal/mcp"
	"github.com/honeycarbs/job-sync/internal/metrics"
	"github.com/honeycarbs/job-sync/internal/ops"
	"github.com/honeycarbs/job-sync/internal/scheduler"
	"github.com/honeycarbs/job-sync/internal/storage/memory"
	storageneo4j "github.com/honeycarbs/job-sync/internal/storage/neo4j"
	"github.com/honeycarbs/job-sync/internal/storage/postgres"
	"github.com/honeycarbs/job-sync/pkg/adzuna"
	"github.com/honeycarbs/job-sync/pkg/arbeitsagentur"
	"github.com/honeycarbs/job-sync/pkg/logging"
	n4j "github.com/honeycarbs/job-sync/pkg/neo4j"
	"github.com/honeycarbs/job-sync/pkg/sheets"
)

// App holds the assembled components
type App struct {
	Config    config.Config
	Logger    *logging.Logger
	Sync      job.Service
	Scheduler *scheduler.Scheduler
	Ops       *ops.Service
	Server    *api.Server
}

func newApp(
	cfg config.Config,
	logger *logging.Logger,
	svc job.Service,
	sched *scheduler.Scheduler,
	opsSvc *ops.Service,
	server *api.Server,
) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Sync:      svc,
		Scheduler: sched,
		Ops:       opsSvc,
		Server:    server,
	}
}

// provideStore opens the configured driver and prepares its schema
func provideStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (job.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; records are lost on restart")
		return memory.NewJobStore(cfg.Store.BatchSize), func() {}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewJobRepository(pool, cfg.Store.BatchSize)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case config.DriverNeo4j, "":
		client, err := n4j.NewClient(ctx, n4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("neo4j close failed", "err", err)
			}
		}
		repo := storageneo4j.NewJobRepository(client, cfg.Store.BatchSize)
		if err := repo.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		return repo, cleanup, nil
	}
	return nil, nil, fmt.Errorf("app: unknown store driver %q", cfg.Store.Driver)
}

// provideLocker picks the Redis lock when a URL is configured
func provideLocker(ctx context.Context, cfg config.Config, logger *logging.Logger) (lock.Locker, func(), error) {
	if cfg.Lock.RedisURL == "" {
		return lock.NewLocal(), func() {}, nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.Lock.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis pass lock", "ttl", cfg.Lock.TTL.String())
	return lock.NewRedis(client, lock.DefaultRedisKey, cfg.Lock.TTL), func() { _ = client.Close() }, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// provideHTTPClient bounds each provider request and traces it as a child of the fetch span
func provideHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{
		Timeout:   cfg.Sync.FetchTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// perMinute turns a request budget into a limiter; zero disables throttling
func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

// provideJobProviders builds every source that has the settings it needs
func provideJobProviders(cfg config.Config, httpClient *http.Client, logger *logging.Logger) ([]job.Provider, error) {
	var providers []job.Provider

	if cfg.AdzunaEnabled() {
		client, err := adzuna.NewClient(adzuna.Config{
			AppID:      cfg.Adzuna.AppID,
			AppKey:     cfg.Adzuna.AppKey,
			Country:    cfg.Adzuna.Country,
			BaseURL:    cfg.Adzuna.BaseURL,
			HTTPClient: httpClient,
			PageSize:   cfg.Sync.PageSize,
			Limiter:    perMinute(cfg.Adzuna.RatePerMinute),
		})
		if err != nil {
			return nil, err
		}
		p, err := adzunaProvider.NewProvider(client, domain.Query{
			Keyword:  cfg.Adzuna.Keyword,
			Location: cfg.Adzuna.Location,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
		logger.Info("Adzuna provider initialized", "country", cfg.Adzuna.Country)
	} else {
		logger.Warn("Adzuna credentials missing; source disabled")
	}

	client := arbeitsagentur.NewClient(arbeitsagentur.Config{
		APIKey:     cfg.Arbeitsagentur.APIKey,
		BaseURL:    cfg.Arbeitsagentur.BaseURL,
		HTTPClient: httpClient,
		PageSize:   cfg.Sync.PageSize,
		Limiter:    perMinute(cfg.Arbeitsagentur.RatePerMinute),
	})
	p, err := baProvider.NewProvider(client, domain.Query{
		Keyword:  cfg.Arbeitsagentur.Keyword,
		Location: cfg.Arbeitsagentur.Location,
	})
	if err != nil {
		return nil, err
	}
	providers = append(providers, p)

	return providers, nil
}

// provideHooks enables the spreadsheet snapshot when configured
func provideHooks(ctx context.Context, cfg config.Config, store job.Store, logger *logging.Logger) ([]job.AfterPassHook, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}

	client, err := sheets.NewClient(ctx, sheets.Config{
		CredentialsPath: cfg.Sheets.CredentialsPath,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
	})
	if err != nil {
		return nil, err
	}
	return []job.AfterPassHook{export.NewSheetsExporter(client, store, cfg.Sheets.Tab, logger)}, nil
}

func provideSettings(cfg config.Config) job.Settings {
	return job.Settings{
		MaxRecords:   cfg.Sync.MaxRecords,
		PageSize:     cfg.Sync.PageSize,
		FetchTimeout: cfg.Sync.FetchTimeout,
		HookTimeout:  cfg.Sync.HookTimeout,
	}
}

func provideScheduler(svc job.Service, cfg config.Config, logger *logging.Logger) *scheduler.Scheduler {
	return scheduler.New(svc,
		scheduler.WithInterval(cfg.Sync.Interval),
		scheduler.WithRunOnStart(cfg.Sync.RunOnStart),
		scheduler.WithLogger(logger),
	)
}

func provideServer(cfg config.Config, logger *logging.Logger, opsSvc *ops.Service, collector *metrics.Collector) *api.Server {
	mcpHandler := mcp.NewHandler(mcp.NewServer(opsSvc, logger.Named("mcp")))
	return api.NewServer(logger, api.Config{
		Host:          cfg.HTTP.Host,
		Port:          cfg.HTTP.Port,
		OperatorToken: cfg.HTTP.OperatorToken,
	}, opsSvc, collector.Handler(), mcpHandler)
}
