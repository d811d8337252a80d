// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Mergespot MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Mergespot Conflict Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		git:     contract.NewLocalGitClient(),
		run:     defaultRunner,
	}

	s.AddTool(mcp.NewTool("get_conflict_hotspots",
		mcp.WithDescription("Find the files that most often conflict during merges and the line clusters those conflicts touched."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to the configured repository).")),
		mcp.WithString("since", mcp.Description("Start of the merge window (e.g., '2 years', '6 months ago', RFC3339).")),
		mcp.WithNumber("ratio", mcp.Description("Share of all conflicts the selected files must cover, in (0, 1].")),
		mcp.WithNumber("slack", mcp.Description("Max gap between flagged lines within one cluster. 0 keeps the configured value.")),
	), h.handleGetConflictHotspots)

	return s
}

// StartMCPServer starts the Mergespot MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
