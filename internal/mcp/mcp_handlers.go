package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/mergespot/core"
	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// conflictRunner produces a conflict report for a request-scoped config.
type conflictRunner func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.ConflictReport, time.Duration, error)

var defaultRunner conflictRunner = core.GetConflictResults

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	git     contract.GitClient
	run     conflictRunner
}

func (h *toolHandler) handleGetConflictHotspots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		if err := contract.ResolveRepoPath(ctx, cfg, h.git, p); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid repo_path: %v", err)), nil
		}
	}
	since := request.GetString("since", "")
	ratio := request.GetFloat("ratio", 0)
	slack := request.GetInt("slack", 0)

	if err := contract.RevalidateConflicts(cfg, since, ratio, slack); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid conflict parameters: %v", err)), nil
	}

	report, _, err := h.run(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
