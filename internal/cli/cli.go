// Package cli exposes the job-sync commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/job-sync/internal/app"
	"github.com/honeycarbs/job-sync/internal/config"
	"github.com/honeycarbs/job-sync/pkg/logging"
	"github.com/honeycarbs/job-sync/pkg/shutdown"
	"github.com/honeycarbs/job-sync/pkg/telemetry"
)

const (
	serviceName     = "job-sync"
	shutdownTimeout = 30 * time.Second
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := BuildCLI().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// BuildCLI returns the root command with serve, sync and stats attached
func BuildCLI() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "job-sync",
		Short:         "Aggregate job postings into a bounded store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (environment overrides it)")

	rootCmd.AddCommand(
		buildServeCommand(&configFile),
		buildSyncCommand(&configFile),
		buildStatsCommand(&configFile),
	)
	return rootCmd
}

func buildServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the operator HTTP/MCP surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configFile, serve)
		},
	}
}

func buildSyncCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print its statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configFile, func(ctx context.Context, a *app.App) error {
				stats, err := a.Sync.RunSync(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func buildStatsCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store size, per-source counts and sync-time bounds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configFile, func(ctx context.Context, a *app.App) error {
				status, err := a.Ops.Status(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
}

func withApp(ctx context.Context, configFile string, run func(context.Context, *app.App) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	stopTracing, err := telemetry.Setup(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = stopTracing(sctx)
	}()

	a, cleanup, err := app.Initialize(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "err", err)
		return err
	}
	defer cleanup()

	return run(ctx, a)
}

func serve(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- shutdown.Graceful(ctx, shutdownSignals, shutdownTimeout, a.Logger, a.Server, a.Scheduler)
	}()

	if err := a.Scheduler.Start(ctx); err != nil {
		cancel()
		<-done
		return err
	}

	runErr := a.Server.Run()
	if runErr != nil {
		a.Logger.Error("HTTP server exited with error", "err", runErr)
	}

	cancel()
	if err := <-done; err != nil && runErr == nil {
		return err
	}
	return runErr
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("cli: encode output: %w", err)
	}
	return nil
}
