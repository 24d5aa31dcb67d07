package mcp

import (
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/job-sync/internal/mcp/tools"
	"github.com/honeycarbs/job-sync/pkg/logging"
)

const (
	serverName    = "job-sync"
	serverVersion = "0.2.0"
)

// NewServer builds the MCP server with the operator sync tools registered
func NewServer(ops tools.Operations, logger *logging.Logger) *sdkmcp.Server {
	impl := &sdkmcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}

	server := sdkmcp.NewServer(impl, nil)
	tools.Register(server, logger,
		tools.WithSyncStats(ops),
		tools.WithSyncTrigger(ops),
	)
	return server
}

// NewHandler serves the MCP server over streamable HTTP
func NewHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
}
