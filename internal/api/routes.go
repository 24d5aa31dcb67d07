package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/honeycarbs/job-sync/pkg/logging"
)

type routeDeps struct {
	logger        *logging.Logger
	ops           Operations
	metrics       http.Handler
	mcp           http.Handler
	operatorToken string
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	e.Use(echomiddleware.Recover())
	e.Use(requestLogger(d.logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if d.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.metrics))
	}

	// MCP exposes sync_trigger, so the whole stream is operator-only
	if d.mcp != nil {
		e.Any("/mcp/stream", echo.WrapHandler(d.mcp), operatorOnly(d.operatorToken))
	}

	sync := e.Group("/sync")
	{
		sync.GET("/stats", statsHandler(d.ops))
		sync.POST("/trigger", triggerHandler(d.ops), operatorOnly(d.operatorToken))
	}
}

// operatorOnly admits requests bearing the operator token; with no token configured it rejects everything
func operatorOnly(token string) echo.MiddlewareFunc {
	if token == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return c.JSON(http.StatusForbidden, failure("operator access is not configured"))
			}
		}
	}

	return echomiddleware.KeyAuthWithConfig(echomiddleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, failure("operator token required"))
		},
	})
}

func requestLogger(log *logging.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			keyvals := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			}
			if v.Error != nil {
				log.Warn("http request failed", append(keyvals, "err", v.Error)...)
				return nil
			}
			log.Debug("http request", keyvals...)
			return nil
		},
	})
}
