// Package mcpserver exposes the tool catalogue as a Model Context Protocol server.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"energy_profile/internal/tools"
)

const serverName = "energy-profile-csv"

// New registers every tool of set on a fresh MCP server. Tool failures are
// reported as error results carrying the "Error: ..." text, never as
// protocol errors.
func New(set *tools.Set, version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	for _, t := range set.Tools() {
		name := t.Definition.Name
		server.AddTool(&mcp.Tool{
			Name:        name,
			Description: t.Definition.Description,
			InputSchema: t.Definition.Parameters,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, failed := set.Call(ctx, name, string(req.Params.Arguments))
			logger.Info("mcp tool call", "tool", name, "failed", failed)
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: out}},
				IsError: failed,
			}, nil
		})
	}
	return server
}

// ServeStdio runs the server on stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
