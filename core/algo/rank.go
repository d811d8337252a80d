// Package algo ranks conflicting files and clusters their flagged lines.
package algo

import (
	"sort"

	"github.com/huangsam/mergespot/schema"
)

// RankConflicts sorts records by conflict count in descending order.
// The sort is stable, so files with equal counts keep their first-seen order.
// The input slice is left untouched.
func RankConflicts(records []schema.ConflictRecord) []schema.ConflictRecord {
	ranked := make([]schema.ConflictRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// SelectTopConflicts walks ranked records and keeps the shortest prefix whose
// conflicts reach round(ratio * total). The check happens before a file is
// added, so the file that crosses the threshold is included and a threshold
// of zero selects nothing.
func SelectTopConflicts(ranked []schema.ConflictRecord, ratio float64) schema.Selection {
	total := 0
	for _, r := range ranked {
		total += r.Count
	}

	sel := schema.Selection{
		Files:     []schema.ConflictRecord{},
		Total:     total,
		Threshold: schema.RoundHalfEven(float64(total) * ratio),
	}
	for _, r := range ranked {
		if sel.Selected >= sel.Threshold {
			break
		}
		sel.Selected += r.Count
		sel.Files = append(sel.Files, r)
	}
	return sel
}
