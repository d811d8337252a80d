// Package schema has configs, models and global variables for all parts of mergespot.
package schema

import (
	"encoding/json"
	"strconv"
	"time"
)

// ConflictRecord tracks every conflicting merge that touched a single file.
// Count is the number of combined-diff file headers attributed to the file. It
// normally equals len(Commits) but counts repeats, so it can be larger.
type ConflictRecord struct {
	Path    string              // Repository-relative path of the file
	Count   int                 // Number of conflicting diffs seen for the file
	Commits map[string]struct{} // Distinct merge commits that conflicted on the file
	order   []string            // Commits in first-seen order
}

// NewConflictRecord creates an empty record for the given path.
func NewConflictRecord(path string) *ConflictRecord {
	return &ConflictRecord{
		Path:    path,
		Commits: make(map[string]struct{}),
	}
}

// Add increments the conflict count and remembers the commit.
// Adding a commit that is already known still increments the count.
func (r *ConflictRecord) Add(commit string) {
	r.Count++
	if _, ok := r.Commits[commit]; ok {
		return
	}
	r.Commits[commit] = struct{}{}
	r.order = append(r.order, commit)
}

// HasCommit reports whether the commit conflicted on this file.
func (r *ConflictRecord) HasCommit(commit string) bool {
	_, ok := r.Commits[commit]
	return ok
}

// CommitList returns the distinct commits in first-seen order.
func (r *ConflictRecord) CommitList() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// conflictRecordJSON is the wire shape used for caching and JSON output.
type conflictRecordJSON struct {
	Path    string   `json:"path"`
	Count   int      `json:"count"`
	Commits []string `json:"commits"`
}

// MarshalJSON encodes the record with commits in first-seen order.
func (r ConflictRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(conflictRecordJSON{Path: r.Path, Count: r.Count, Commits: r.CommitList()})
}

// UnmarshalJSON restores a record, including its commit order.
func (r *ConflictRecord) UnmarshalJSON(data []byte) error {
	var raw conflictRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Path = raw.Path
	r.Count = raw.Count
	r.Commits = make(map[string]struct{}, len(raw.Commits))
	r.order = r.order[:0]
	for _, c := range raw.Commits {
		if _, ok := r.Commits[c]; ok {
			continue
		}
		r.Commits[c] = struct{}{}
		r.order = append(r.order, c)
	}
	return nil
}

// ClusterRange is a run of flagged lines. Start == End means a single line.
type ClusterRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// String renders the range as "N" or "N-M".
func (c ClusterRange) String() string {
	if c.Start == c.End {
		return strconv.Itoa(c.Start)
	}
	return strconv.Itoa(c.Start) + "-" + strconv.Itoa(c.End)
}

// Selection is the prefix of ranked files that covers the configured ratio of conflicts.
type Selection struct {
	Files     []ConflictRecord // Selected files in ranked order
	Selected  int              // Sum of conflict counts over Files
	Total     int              // Sum of conflict counts over all ranked files
	Threshold int              // Rounded ratio * Total that stopped the walk
}

// Percent returns the share of all conflicts covered by the selection, rounded half to even.
// It is 0 when there are no conflicts at all.
func (s Selection) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return RoundHalfEven(100.0 * float64(s.Selected) / float64(s.Total))
}

// FileReport is the final per-file row of a conflict report.
type FileReport struct {
	Path         string         `json:"path"`
	Conflicts    int            `json:"conflicts"`
	Commits      int            `json:"commits"`
	FlaggedLines int            `json:"flagged_lines"`
	Clusters     []ClusterRange `json:"clusters"`
	ClusterText  string         `json:"cluster_text"`
}

// ConflictReport is the full result of one conflict analysis run.
type ConflictReport struct {
	RepoPath          string       `json:"repo_path"`
	Since             time.Time    `json:"since"`
	Until             time.Time    `json:"until,omitzero"`
	Ratio             float64      `json:"ratio"`
	Slack             int          `json:"slack"`
	FileCount         int          `json:"file_count"`
	TotalConflicts    int          `json:"total_conflicts"`
	SelectedConflicts int          `json:"selected_conflicts"`
	SelectedPercent   int          `json:"selected_percent"`
	Files             []FileReport `json:"files"`
}
