// Package api serves the operational HTTP surface: sync stats, manual trigger, health and metrics.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/honeycarbs/job-sync/pkg/logging"
)

// Config holds listener and access settings
type Config struct {
	Host          string
	Port          string
	OperatorToken string // empty disables the trigger endpoint
}

// Server wraps an echo instance with an HTTP listener
type Server struct {
	logger *logging.Logger
	echo   *echo.Echo
	srv    *http.Server

	started atomic.Bool
}

// NewServer constructs the HTTP server; metrics and mcp may be nil
func NewServer(log *logging.Logger, cfg Config, ops Operations, metrics http.Handler, mcp http.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	registerRoutes(e, routeDeps{
		logger:        log,
		ops:           ops,
		metrics:       metrics,
		mcp:           mcp,
		operatorToken: cfg.OperatorToken,
	})

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           otelhttp.NewHandler(e, "job-sync.http"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		logger: log,
		echo:   e,
		srv:    httpSrv,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run starts the HTTP server and blocks until shutdown
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("HTTP server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutdown requested for HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP server shutdown with error", "err", err)
		return err
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
