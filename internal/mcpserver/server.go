// Package mcpserver exposes the memory operations as MCP tools over stdio.
//
// Every tool is a thin call into [service.Service]. Failures are returned as
// tool error results of the form "<CODE>: <message>", never as protocol
// errors, so the calling model sees them.
package mcpserver

import (
	"context"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Yeseh/cortex-sub001/internal/service"
)

// Name is the server name announced during initialization.
const Name = "cortex"

// Server wraps an MCP server bound to one memory store.
type Server struct {
	svc    *service.Service
	logger *slog.Logger
	mcp    *server.MCPServer
}

// New registers the memory tools for svc. A nil logger discards output.
func New(svc *service.Service, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		svc:    svc,
		logger: logger,
		mcp:    server.NewMCPServer(Name, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTools(s.tools()...)

	return s
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Listen serves JSON-RPC on in/out until ctx is cancelled or in is closed.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.InfoContext(ctx, "mcp server listening", "tools", len(s.tools()))

	return stdio.Listen(ctx, in, out)
}
