package mcp

import (
	"context"
	"io"

	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// StdioTransport serves newline-delimited JSON-RPC over a reader and writer.
// Tool calls run on a worker pool so pings and cancellations are answered
// while an agent run is in progress.
type StdioTransport struct {
	stdio *mcpserver.StdioServer
	in    io.Reader
	out   io.Writer
}

func NewStdioTransport(server *Server, r io.Reader, w io.Writer, logger output.LoggerPort) *StdioTransport {
	stdio := mcpserver.NewStdioServer(server.MCP())
	stdio.SetErrorLogger(protocolLogger{log: logger.WithField("transport", "stdio")}.stdLogger())
	return &StdioTransport{stdio: stdio, in: r, out: w}
}

// Serve runs until the input reaches EOF or ctx is cancelled. On EOF queued
// tool calls still reply before Serve returns.
func (t *StdioTransport) Serve(ctx context.Context) error {
	return t.stdio.Listen(ctx, t.in, t.out)
}
