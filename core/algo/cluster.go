package algo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/mergespot/core/collect"
	"github.com/huangsam/mergespot/schema"
)

// FlagBlameLines returns the 1-based line numbers of blame output whose
// authoring commit is reported as conflicting by conflicted.
// Each output line of `git blame -l` maps to exactly one source line, and the
// commit is the token before the first space.
func FlagBlameLines(out []byte, conflicted func(commit string) bool) []int {
	var flagged []int
	for i, line := range splitLines(out) {
		line = collect.Sanitize(line)
		token, _, _ := strings.Cut(line, " ")
		if conflicted(token) {
			flagged = append(flagged, i+1)
		}
	}
	return flagged
}

// ClusterLines groups ascending line numbers into ranges. A line joins the
// current range when it is at most slack lines past the range end.
func ClusterLines(lines []int, slack int) []schema.ClusterRange {
	if len(lines) == 0 {
		return nil
	}
	var clusters []schema.ClusterRange
	current := schema.ClusterRange{Start: lines[0], End: lines[0]}
	for _, l := range lines[1:] {
		if l-current.End > slack {
			clusters = append(clusters, current)
			current.Start = l
		}
		current.End = l
	}
	return append(clusters, current)
}

// FormatClusters renders ranges as a comma-separated list, e.g. "10-12,20".
func FormatClusters(clusters []schema.ClusterRange) string {
	parts := make([]string, len(clusters))
	for i, c := range clusters {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// Cluster is shorthand for FormatClusters(ClusterLines(lines, slack)).
func Cluster(lines []int, slack int) string {
	return FormatClusters(ClusterLines(lines, slack))
}

// ExpandClusters parses rendered ranges back into every line they cover.
// An empty string yields no lines.
func ExpandClusters(text string) ([]int, error) {
	if text == "" {
		return nil, nil
	}
	var lines []int
	prev := 0
	for part := range strings.SplitSeq(text, ",") {
		startText, endText, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(startText)
		if err != nil {
			return nil, fmt.Errorf("invalid cluster %q: %w", part, err)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(endText); err != nil {
				return nil, fmt.Errorf("invalid cluster %q: %w", part, err)
			}
		}
		if start < 1 || end < start || start <= prev {
			return nil, fmt.Errorf("invalid cluster %q: ranges must be positive and ascending", part)
		}
		for l := start; l <= end; l++ {
			lines = append(lines, l)
		}
		prev = end
	}
	return lines, nil
}

// splitLines splits command output into lines without a trailing empty entry.
func splitLines(out []byte) []string {
	text := strings.TrimSuffix(string(out), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
