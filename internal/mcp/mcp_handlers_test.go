package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func callConflicts(t *testing.T, h *toolHandler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "get_conflict_hotspots", Arguments: args},
	}
	res, err := h.handleGetConflictHotspots(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func TestHandleGetConflictHotspots(t *testing.T) {
	base := &contract.Config{RepoPath: "/repo", Ratio: 0.25, Slack: 5}

	t.Run("applies overrides to a clone", func(t *testing.T) {
		git := &contract.MockGitClient{}
		git.On("GetRepoRoot", mock.Anything, "/other").Return("/other", nil)

		var seen *contract.Config
		h := &toolHandler{
			baseCfg: base,
			git:     git,
			run: func(_ context.Context, cfg *contract.Config, _ contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
				seen = cfg
				return schema.ConflictReport{
					RepoPath:       cfg.RepoPath,
					TotalConflicts: 4,
					Files:          []schema.FileReport{{Path: "store.go", Conflicts: 4, ClusterText: "1-3"}},
				}, time.Millisecond, nil
			},
		}

		res := callConflicts(t, h, map[string]any{"repo_path": "/other", "ratio": 0.5, "slack": 2.0, "since": "6 months"})
		assert.False(t, res.IsError)

		require.NotNil(t, seen)
		assert.Equal(t, "/other", seen.RepoPath)
		assert.Empty(t, seen.PathFilter)
		assert.Equal(t, 0.5, seen.Ratio)
		assert.Equal(t, 2, seen.Slack)
		assert.False(t, seen.Since.IsZero())

		assert.Equal(t, "/repo", base.RepoPath)
		assert.Equal(t, 0.25, base.Ratio)

		var report schema.ConflictReport
		require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &report))
		assert.Equal(t, "/other", report.RepoPath)
		require.Len(t, report.Files, 1)
		assert.Equal(t, "1-3", report.Files[0].ClusterText)
	})

	t.Run("defaults keep configured values", func(t *testing.T) {
		var seen *contract.Config
		h := &toolHandler{
			baseCfg: base,
			run: func(_ context.Context, cfg *contract.Config, _ contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
				seen = cfg
				return schema.ConflictReport{}, 0, nil
			},
		}

		callConflicts(t, h, map[string]any{})
		require.NotNil(t, seen)
		assert.Equal(t, "/repo", seen.RepoPath)
		assert.Equal(t, 0.25, seen.Ratio)
		assert.Equal(t, 5, seen.Slack)
	})

	t.Run("subdirectory narrows to its files", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "sub")
		require.NoError(t, os.Mkdir(sub, 0o755))

		git := &contract.MockGitClient{}
		git.On("GetRepoRoot", mock.Anything, sub).Return(root, nil)

		var seen *contract.Config
		h := &toolHandler{
			baseCfg: &contract.Config{RepoPath: "/repo", PathFilter: "stale/", Ratio: 0.25, Slack: 5},
			git:     git,
			run: func(_ context.Context, cfg *contract.Config, _ contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
				seen = cfg
				return schema.ConflictReport{}, 0, nil
			},
		}

		res := callConflicts(t, h, map[string]any{"repo_path": sub})
		assert.False(t, res.IsError)
		require.NotNil(t, seen)
		assert.Equal(t, root, seen.RepoPath, "merge log paths are relative to the repository root")
		assert.Equal(t, "sub/", seen.PathFilter)
		git.AssertExpectations(t)
	})

	t.Run("unresolvable repo path is a tool error", func(t *testing.T) {
		git := &contract.MockGitClient{}
		git.On("GetRepoRoot", mock.Anything, "/not-a-repo").Return("", errors.New("not a git repository"))

		h := &toolHandler{
			baseCfg: base,
			git:     git,
			run: func(context.Context, *contract.Config, contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
				t.Fatal("analysis must not run")
				return schema.ConflictReport{}, 0, nil
			},
		}

		res := callConflicts(t, h, map[string]any{"repo_path": "/not-a-repo"})
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid repo_path: not a git repository")
	})

	t.Run("analysis failure is a tool error", func(t *testing.T) {
		h := &toolHandler{
			baseCfg: base,
			run: func(context.Context, *contract.Config, contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
				return schema.ConflictReport{}, 0, errors.New("failed to blame store.go: exit status 128")
			},
		}

		res := callConflicts(t, h, nil)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "analysis failed: failed to blame store.go")
	})
}
