package core

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/huangsam/mergespot/internal/contract"
)

// logConflictHeader prints a concise header for the analysis and warns that the merge log can be slow.
func logConflictHeader(cfg *contract.Config) {
	repoName := filepath.Base(cfg.RepoPath)
	if repoName == "" || repoName == "." {
		repoName = "current"
	}

	fmt.Printf("%sRepo: %s (ratio: %g, slack: %d)\n", icon(cfg, "🔎"), repoName, cfg.Ratio, cfg.Slack)
	fmt.Printf("%sRange: %s → %s\n", icon(cfg, "📅"), describeBound(cfg.Since, "beginning"), describeBound(cfg.Until, "now"))
	fmt.Printf("%sRunning git log for merge conflicts. This may take a while...\n", icon(cfg, "⏳"))
}

// logCollectProgress reports how many files survived collection and filtering.
func logCollectProgress(cfg *contract.Config, files, conflicts int) {
	fmt.Printf("%sFound %d conflicted files across %d conflicting diffs\n", icon(cfg, "📂"), files, conflicts)
}

// logBlameProgress announces the per-file blame phase.
func logBlameProgress(cfg *contract.Config, files int) {
	fmt.Printf("%sBlaming %d selected files...\n", icon(cfg, "🧩"), files)
}

// icon returns the emoji followed by a space, or nothing when emojis are off.
func icon(cfg *contract.Config, emoji string) string {
	if !cfg.UseEmojis {
		return ""
	}
	return emoji + " "
}

func describeBound(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}
	return t.Format(contract.DateTimeFormat)
}
