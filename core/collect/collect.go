// Package collect gathers per-file merge conflict data from Git history.
package collect

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/schema"
)

const (
	commitPrefix = "commit "
	targetPrefix = "+++ "
	devNull      = "/dev/null"
)

// Sanitize replaces every non-ASCII rune, and every byte that is not valid
// UTF-8, with a single space. Offsets into the result are byte offsets into
// plain ASCII, which keeps prefix slicing safe.
func Sanitize(line string) string {
	ascii := true
	for i := 0; i < len(line); i++ {
		if line[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return line
	}

	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if r >= utf8.RuneSelf {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseMergeLog reads `git log --cc` output for merge commits and attributes
// every combined-diff file header to the merge commit it belongs to.
// Empty output produces an empty set.
func ParseMergeLog(out []byte) *schema.ConflictSet {
	set := schema.NewConflictSet()
	var commit string

	for _, raw := range strings.Split(string(out), "\n") {
		line := Sanitize(strings.TrimSuffix(raw, "\r"))

		switch {
		case strings.HasPrefix(line, commitPrefix):
			commit = parseCommitID(line)
		case strings.HasPrefix(line, targetPrefix):
			if path, ok := parseTargetPath(line); ok {
				set.Record(path, commit)
			}
		}
	}
	return set
}

// parseCommitID extracts the hash from a "commit <hash> [decoration]" header.
func parseCommitID(line string) string {
	id := strings.TrimSpace(line[len(commitPrefix):])
	id, _, _ = strings.Cut(id, " ")
	return id
}

// parseTargetPath extracts the repository path from a "+++ b/<path>" header.
// Deleted targets (/dev/null) are not attributed to any file.
func parseTargetPath(line string) (string, bool) {
	target := strings.TrimRight(line[len(targetPrefix):], " \t")
	if target == "" || target == devNull {
		return "", false
	}
	path := strings.TrimPrefix(target, "b/")
	return path, path != ""
}

// FilterExisting keeps the records whose files still exist, preserving order.
func FilterExisting(set *schema.ConflictSet, exists func(path string) bool) *schema.ConflictSet {
	return set.Filter(func(r *schema.ConflictRecord) bool {
		return exists(r.Path)
	})
}

// FilterPaths applies the configured path filter and exclude patterns.
func FilterPaths(cfg *contract.Config, set *schema.ConflictSet) *schema.ConflictSet {
	if cfg.PathFilter == "" && len(cfg.Excludes) == 0 {
		return set
	}
	return set.Filter(func(r *schema.ConflictRecord) bool {
		if cfg.PathFilter != "" && !strings.HasPrefix(r.Path, cfg.PathFilter) {
			return false
		}
		return !contract.ShouldIgnore(r.Path, cfg.Excludes)
	})
}

// FileExistsIn returns an existence check for regular files under repoPath.
func FileExistsIn(repoPath string) func(path string) bool {
	return func(path string) bool {
		info, err := os.Stat(filepath.Join(repoPath, filepath.FromSlash(path)))
		return err == nil && info.Mode().IsRegular()
	}
}

// CollectConflicts runs the merge log for the configured window and returns
// the conflict records of files that still exist in the working tree.
func CollectConflicts(ctx context.Context, cfg *contract.Config, client contract.GitClient) (*schema.ConflictSet, error) {
	set, err := collectRaw(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	return FilterExisting(FilterPaths(cfg, set), FileExistsIn(cfg.RepoPath)), nil
}

// collectRaw runs and parses the merge log without any filtering.
func collectRaw(ctx context.Context, cfg *contract.Config, client contract.GitClient) (*schema.ConflictSet, error) {
	out, err := client.GetMergeLog(ctx, cfg.RepoPath, cfg.Since, cfg.Until)
	if err != nil {
		return nil, err
	}
	return ParseMergeLog(out), nil
}
