// Package server exposes the tool surface as an MCP server speaking
// newline-delimited JSON-RPC 2.0, normally over stdin and stdout.
package server

import (
	"context"
	"io"
	"log"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/CodexForgeBR/ccg/internal/logging"
	"github.com/CodexForgeBR/ccg/internal/tools"
)

// Info identifies the server in the initialize reply.
type Info struct {
	Name    string
	Version string
}

// New builds an MCP server with every tool of h registered. A panicking tool
// is reported to its caller instead of stopping the server.
func New(h *tools.Handler, info Info) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(info.Name, info.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	h.Register(s)
	return s
}

// Serve answers requests read from in until EOF or ctx is cancelled. Tool
// calls may run concurrently, so replies can arrive out of order.
func Serve(ctx context.Context, s *mcpserver.MCPServer, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(logWriter{}, "", 0))
	return stdio.Listen(ctx, in, out)
}

// logWriter routes the transport's log lines to the colored logger, which
// writes to stderr.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	logging.Warn("mcp: " + strings.TrimSpace(string(p)))
	return len(p), nil
}
