package cmd

import (
	"github.com/huangsam/mergespot/core"
	"github.com/huangsam/mergespot/internal/contract"
	"github.com/spf13/cobra"
)

// conflictsCmd finds the files that conflict most often during merges.
var conflictsCmd = &cobra.Command{
	Use:   "conflicts [repo-path]",
	Short: "Show the files and line clusters where merges conflict the most.",
	Long: `Scan merge commits for conflicting files, rank them by conflict count,
and cluster the lines that conflicting commits still own.

Works in three steps:
- Read combined diffs of every merge commit in the window (git log --cc)
- Keep the smallest set of top files covering --ratio of all conflicts
- Blame each selected file and group lines from conflicting merges,
  joining lines that are at most --slack lines apart

Examples:
  # Files covering a quarter of all conflicts over the last two years
  mergespot conflicts

  # Half of all conflicts in the last six months, tighter clusters
  mergespot conflicts --since "6 months" --ratio 0.5 --slack 2

  # Colored table output for a sub-folder
  mergespot conflicts ./internal --output table

  # Export findings to CSV for tracking
  mergespot conflicts --output csv --output-file conflicts.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteConflicts(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run conflict analysis", err)
		}
	},
}
