// Package core runs the merge-conflict pipeline: collect, rank, select and cluster.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/mergespot/core/algo"
	"github.com/huangsam/mergespot/core/collect"
	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/internal/outwriter"
	"github.com/huangsam/mergespot/schema"
)

// ExecutorFunc defines the function signature for executing an analysis command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

var _ ExecutorFunc = ExecuteConflicts // Compile-time check

// ExecuteConflicts runs the conflict analysis and prints results.
// It serves as the main entry point for the 'conflicts' command.
func ExecuteConflicts(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	report, duration, err := GetConflictResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteConflictResults(report, cfg, duration)
}

// GetConflictResults runs the full pipeline against the local git binary
// and returns the report without printing it.
func GetConflictResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
	return runConflictAnalysis(ctx, cfg, contract.NewLocalGitClient(), mgr)
}

// runConflictAnalysis is the pipeline body. Blame calls run one file at a time.
func runConflictAnalysis(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (schema.ConflictReport, time.Duration, error) {
	start := time.Now()
	quiet := shouldSuppressHeader(ctx)
	if !quiet {
		logConflictHeader(cfg)
	}

	tracker := beginTracking(cfg, mgr)
	report, err := buildReport(ctx, cfg, client, mgr, quiet)
	if err != nil {
		tracker.abort()
		return schema.ConflictReport{}, 0, err
	}
	tracker.record(report)

	return report, time.Since(start), nil
}

// buildReport collects, ranks and selects conflicts, then clusters each selected file.
func buildReport(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager, quiet bool) (schema.ConflictReport, error) {
	// --- 1. Collect conflicts from merge history ---
	set, err := collect.CachedCollectConflicts(ctx, cfg, client, mgr)
	if err != nil {
		return schema.ConflictReport{}, err
	}
	if !quiet {
		logCollectProgress(cfg, set.Len(), set.TotalConflicts())
	}

	// --- 2. Rank and select ---
	ranked := algo.RankConflicts(set.Records())
	selection := algo.SelectTopConflicts(ranked, cfg.Ratio)

	report := schema.ConflictReport{
		RepoPath:          cfg.RepoPath,
		Since:             cfg.Since,
		Until:             cfg.Until,
		Ratio:             cfg.Ratio,
		Slack:             cfg.Slack,
		FileCount:         len(ranked),
		TotalConflicts:    selection.Total,
		SelectedConflicts: selection.Selected,
		SelectedPercent:   selection.Percent(),
		Files:             make([]schema.FileReport, 0, len(selection.Files)),
	}

	// --- 3. Blame and cluster each selected file ---
	if !quiet && len(selection.Files) > 0 {
		logBlameProgress(cfg, len(selection.Files))
	}
	for _, rec := range selection.Files {
		file, err := clusterFile(ctx, cfg, client, rec)
		if err != nil {
			return schema.ConflictReport{}, err
		}
		report.Files = append(report.Files, file)
	}
	return report, nil
}

// clusterFile blames one selected file and clusters the lines its conflicting commits authored.
func clusterFile(ctx context.Context, cfg *contract.Config, client contract.GitClient, rec schema.ConflictRecord) (schema.FileReport, error) {
	out, err := client.GetBlame(ctx, cfg.RepoPath, rec.Path)
	if err != nil {
		return schema.FileReport{}, fmt.Errorf("failed to blame %s: %w", rec.Path, err)
	}

	lines := algo.FlagBlameLines(out, rec.HasCommit)
	clusters := algo.ClusterLines(lines, cfg.Slack)
	if clusters == nil {
		clusters = []schema.ClusterRange{}
	}

	return schema.FileReport{
		Path:         rec.Path,
		Conflicts:    rec.Count,
		Commits:      len(rec.Commits),
		FlaggedLines: len(lines),
		Clusters:     clusters,
		ClusterText:  algo.FormatClusters(clusters),
	}, nil
}
