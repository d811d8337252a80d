package core

import (
	"fmt"
	"time"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/schema"
)

// runTracker writes one pipeline run to the analysis store.
// A zero tracker is inert, so callers never need to check whether tracking is enabled.
type runTracker struct {
	store contract.AnalysisStore
	id    int64
}

// beginTracking opens a history run when an analysis store is configured.
// Tracking failures are logged and never abort the analysis.
func beginTracking(cfg *contract.Config, mgr contract.CacheManager) runTracker {
	if mgr == nil {
		return runTracker{}
	}
	store := mgr.GetAnalysisStore()
	if store == nil {
		return runTracker{}
	}

	configParams := map[string]any{
		"repo_path": cfg.RepoPath,
		"since":     formatBound(cfg.Since),
		"until":     formatBound(cfg.Until),
		"ratio":     cfg.Ratio,
		"slack":     cfg.Slack,
		"filter":    cfg.PathFilter,
		"excludes":  cfg.Excludes,
	}
	id, err := store.BeginAnalysis(time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Analysis tracking initialization failed", err)
		return runTracker{}
	}
	if id <= 0 {
		return runTracker{}
	}
	return runTracker{store: store, id: id}
}

// record stores every reported file and closes the run.
func (t runTracker) record(report schema.ConflictReport) {
	if t.store == nil {
		return
	}

	now := time.Now()
	for i, f := range report.Files {
		row := schema.FileConflictRecord{
			AnalysisID:     t.id,
			FilePath:       f.Path,
			AnalysisTime:   now,
			ConflictCount:  int32(f.Conflicts),
			CommitCount:    int32(f.Commits),
			FlaggedLines:   int32(f.FlaggedLines),
			Clusters:       f.ClusterText,
			SelectedRank:   int32(i + 1),
			TotalConflicts: int32(report.TotalConflicts),
		}
		if err := t.store.RecordFileConflicts(t.id, row); err != nil {
			contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s", f.Path), err)
		}
	}

	if err := t.store.EndAnalysis(t.id, time.Now(), len(report.Files)); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// abort closes a run that failed before producing a report, so history never
// holds a run without an end time.
func (t runTracker) abort() {
	if t.store == nil {
		return
	}
	if err := t.store.EndAnalysis(t.id, time.Now(), 0); err != nil {
		contract.LogWarn("Failed to finalize analysis tracking", err)
	}
}

// formatBound renders a window bound for the run parameters. Zero means unbounded.
func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(contract.DateTimeFormat)
}
