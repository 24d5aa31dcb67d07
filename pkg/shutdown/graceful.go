// Package shutdown stops long-running components when the process is signalled.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/honeycarbs/job-sync/pkg/logging"
)

// Stoppable is anything that can drain within a deadline
type Stoppable interface {
	Shutdown(ctx context.Context) error
}

// Func adapts a plain function to Stoppable
type Func func(ctx context.Context) error

func (f Func) Shutdown(ctx context.Context) error {
	return f(ctx)
}

// Graceful blocks until one of signals arrives or parent is done, then stops each
// component in order, sharing one timeout
func Graceful(parent context.Context, signals []os.Signal, timeout time.Duration, log *logging.Logger, components ...Stoppable) error {
	sigCtx, stop := signal.NotifyContext(parent, signals...)
	defer stop()

	<-sigCtx.Done()
	log.Info("shutdown signal received")

	return Now(timeout, log, components...)
}

// Now stops components in order without waiting for a signal
func Now(timeout time.Duration, log *logging.Logger, components ...Stoppable) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, c := range components {
		if c == nil {
			continue
		}
		if err := c.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Warn("graceful shutdown completed with error", "err", err)
	} else {
		log.Info("graceful shutdown completed successfully")
	}
	return err
}
