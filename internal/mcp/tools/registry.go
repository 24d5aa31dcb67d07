package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/job-sync/internal/domain"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

// Operations is the ops surface the sync tools call into
type Operations interface {
	Status(ctx context.Context) (domain.SyncStatus, error)
	Trigger(ctx context.Context) (domain.SyncStats, error)
}

// Option configures which tools are registered
type Option func(*registry)

type registry struct {
	server *sdkmcp.Server
	logger *logging.Logger
}

// Register applies the provided tool options
func Register(server *sdkmcp.Server, logger *logging.Logger, opts ...Option) {
	if logger == nil {
		logger = logging.NewNop()
	}
	reg := &registry{server: server, logger: logger}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(reg)
	}
}
