package schema

import "encoding/json"

// ConflictSet is an ordered association of file path to ConflictRecord.
// Records keep the order in which their paths were first seen, which is the
// tie-break used when ranking files with equal conflict counts.
type ConflictSet struct {
	records []*ConflictRecord
	index   map[string]int
}

// NewConflictSet returns an empty set.
func NewConflictSet() *ConflictSet {
	return &ConflictSet{index: make(map[string]int)}
}

// Record attributes one conflicting hunk in path to commit, creating the record on first sighting.
func (s *ConflictSet) Record(path, commit string) {
	rec, ok := s.Get(path)
	if !ok {
		rec = NewConflictRecord(path)
		s.index[path] = len(s.records)
		s.records = append(s.records, rec)
	}
	rec.Add(commit)
}

// Get returns the record for path, if any.
func (s *ConflictSet) Get(path string) (*ConflictRecord, bool) {
	i, ok := s.index[path]
	if !ok {
		return nil, false
	}
	return s.records[i], true
}

// Len returns the number of distinct files.
func (s *ConflictSet) Len() int {
	return len(s.records)
}

// Records returns value copies of every record in insertion order.
func (s *ConflictSet) Records() []ConflictRecord {
	out := make([]ConflictRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}

// TotalConflicts sums the conflict counts of all records.
func (s *ConflictSet) TotalConflicts() int {
	total := 0
	for _, r := range s.records {
		total += r.Count
	}
	return total
}

// Filter returns a new set with only the records for which keep returns true.
// Insertion order is preserved.
func (s *ConflictSet) Filter(keep func(r *ConflictRecord) bool) *ConflictSet {
	out := NewConflictSet()
	for _, r := range s.records {
		if !keep(r) {
			continue
		}
		out.index[r.Path] = len(out.records)
		out.records = append(out.records, r)
	}
	return out
}

// MarshalJSON encodes the set as an ordered list of records.
func (s *ConflictSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Records())
}

// UnmarshalJSON rebuilds the set and its index from an ordered list of records.
func (s *ConflictSet) UnmarshalJSON(data []byte) error {
	var records []ConflictRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	s.records = make([]*ConflictRecord, 0, len(records))
	s.index = make(map[string]int, len(records))
	for i := range records {
		r := records[i]
		if _, dup := s.index[r.Path]; dup {
			continue
		}
		s.index[r.Path] = len(s.records)
		s.records = append(s.records, &r)
	}
	return nil
}
