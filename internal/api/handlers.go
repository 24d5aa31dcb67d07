package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/internal/domain/job"
	"github.com/honeycarbs/job-sync/internal/scheduler"
)

// Operations is what the handlers need from the ops layer
type Operations interface {
	Status(ctx context.Context) (domain.SyncStatus, error)
	Trigger(ctx context.Context) (domain.SyncStats, error)
}

// Envelope is the response body of the trigger endpoint
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failure(msg string) Envelope {
	return Envelope{Success: false, Error: msg}
}

func statsHandler(ops Operations) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := ops.Status(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, failure(err.Error()))
		}
		return c.JSON(http.StatusOK, status)
	}
}

// triggerHandler runs a pass detached from the request so a dropped client does not abort it
func triggerHandler(ops Operations) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := ops.Trigger(context.WithoutCancel(c.Request().Context()))
		switch {
		case errors.Is(err, job.ErrSyncInProgress):
			return c.JSON(http.StatusConflict, failure(err.Error()))
		case errors.Is(err, scheduler.ErrShuttingDown):
			return c.JSON(http.StatusServiceUnavailable, failure(err.Error()))
		case err != nil:
			return c.JSON(http.StatusInternalServerError, failure(err.Error()))
		}
		return c.JSON(http.StatusOK, Envelope{Success: true, Data: stats})
	}
}
