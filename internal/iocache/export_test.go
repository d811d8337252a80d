package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/mergespot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAnalysis(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		err := ExportAnalysis(&MockAnalysisStore{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("requires analysis store", func(t *testing.T) {
		err := ExportAnalysis(nil, "out")
		assert.ErrorContains(t, err, "not enabled")
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{Backend: "sqlite", Connected: true}, nil)

		err := ExportAnalysis(store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no analysis data")
		store.AssertExpectations(t)
	})

	t.Run("status error", func(t *testing.T) {
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{}, errors.New("boom"))

		err := ExportAnalysis(store, "out")
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("file conflicts error", func(t *testing.T) {
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{TotalRuns: 1}, nil)
		store.On("GetAllAnalysisRuns").Return([]schema.AnalysisRunRecord{}, nil)
		store.On("GetAllFileConflicts").Return(nil, errors.New("broken table"))

		err := ExportAnalysis(store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "broken table")
	})

	t.Run("writes both files", func(t *testing.T) {
		now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{
			Backend:    "sqlite",
			TotalRuns:  1,
			TableSizes: map[string]int64{fileConflictsTable: 1},
		}, nil)
		store.On("GetAllAnalysisRuns").Return([]schema.AnalysisRunRecord{
			{AnalysisID: 1, StartTime: now, TotalFilesAnalyzed: 1},
		}, nil)
		store.On("GetAllFileConflicts").Return([]schema.FileConflictRecord{
			{AnalysisID: 1, FilePath: "store.go", AnalysisTime: now, ConflictCount: 3, Clusters: "1-4"},
		}, nil)

		prefix := filepath.Join(t.TempDir(), "history")
		require.NoError(t, ExportAnalysis(store, prefix))

		for _, suffix := range []string{analysisRunsSuffix, fileConflictsSuffix} {
			info, err := os.Stat(prefix + suffix)
			require.NoError(t, err, suffix)
			assert.Greater(t, info.Size(), int64(0))
		}
		store.AssertExpectations(t)
	})
}
