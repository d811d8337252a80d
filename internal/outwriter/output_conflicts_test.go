package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/internal/parquet"
	"github.com/huangsam/mergespot/schema"
	pq "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() schema.ConflictReport {
	return schema.ConflictReport{
		RepoPath:          "/work/repo",
		Ratio:             0.5,
		Slack:             5,
		FileCount:         4,
		TotalConflicts:    20,
		SelectedConflicts: 14,
		SelectedPercent:   70,
		Files: []schema.FileReport{
			{
				Path: "internal/store.go", Conflicts: 9, Commits: 8, FlaggedLines: 6,
				Clusters:    []schema.ClusterRange{{Start: 10, End: 14}, {Start: 40, End: 40}},
				ClusterText: "10-14,40",
			},
			{
				Path: "cmd/root.go", Conflicts: 5, Commits: 5,
				Clusters: []schema.ClusterRange{}, ClusterText: "",
			},
		},
	}
}

func TestWriteConflictText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConflictText(&buf, sampleReport()))

	expected := "4 files, 20 total conflicts\n" +
		"Selected 2 files, having 14 total conflicts (70%)\n" +
		"internal/store.go\t9\t10-14,40\n" +
		"cmd/root.go\t5\t\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteConflictTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConflictText(&buf, schema.ConflictReport{}))
	assert.Equal(t, "0 files, 0 total conflicts\nSelected 0 files, having 0 total conflicts (0%)\n", buf.String())
}

func TestWriteConflictTable(t *testing.T) {
	cfg := &contract.Config{Width: 120, CacheBackend: schema.SQLiteBackend}

	var buf bytes.Buffer
	require.NoError(t, writeConflictTable(&buf, sampleReport(), cfg, 1500*time.Millisecond))
	out := buf.String()

	upper := strings.ToUpper(out)
	for _, header := range []string{"RANK", "PATH", "CONFLICTS", "CLUSTERS", "LABEL"} {
		assert.Contains(t, upper, header)
	}
	for _, want := range []string{"internal/store.go", "10-14,40", "Critical"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "Showing 2 of 4 files (14 of 20 conflicts, 70%)")
	assert.Contains(t, out, "Analysis completed in 1.5s. Cache backend: sqlite")
}

func TestWriteCSVResultsForConflicts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForConflicts(&buf, sampleReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"rank", "path", "conflicts", "commits", "flagged_lines", "clusters", "share_percent", "label"}, records[0])
	assert.Equal(t, []string{"1", "internal/store.go", "9", "8", "6", "10-14,40", "45", "Critical"}, records[1])
	assert.Equal(t, []string{"2", "cmd/root.go", "5", "5", "0", "", "25", "Critical"}, records[2])
}

func TestWriteJSONResultsForConflicts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONResultsForConflicts(&buf, sampleReport()))

	var decoded struct {
		RepoPath        string `json:"repo_path"`
		TotalConflicts  int    `json:"total_conflicts"`
		SelectedPercent int    `json:"selected_percent"`
		Files           []struct {
			Rank         int                   `json:"rank"`
			Label        string                `json:"label"`
			SharePercent int                   `json:"share_percent"`
			Path         string                `json:"path"`
			Clusters     []schema.ClusterRange `json:"clusters"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "/work/repo", decoded.RepoPath)
	assert.Equal(t, 20, decoded.TotalConflicts)
	assert.Equal(t, 70, decoded.SelectedPercent)
	require.Len(t, decoded.Files, 2)
	assert.Equal(t, 1, decoded.Files[0].Rank)
	assert.Equal(t, "internal/store.go", decoded.Files[0].Path)
	assert.Equal(t, 45, decoded.Files[0].SharePercent)
	assert.Len(t, decoded.Files[0].Clusters, 2)
	assert.NotNil(t, decoded.Files[1].Clusters)
}

func TestWriteConflictResultsToFile(t *testing.T) {
	tests := []struct {
		name   string
		output schema.OutputMode
		check  func(t *testing.T, content string)
	}{
		{
			name:   "text",
			output: schema.TextOut,
			check: func(t *testing.T, content string) {
				assert.True(t, strings.HasPrefix(content, "4 files, 20 total conflicts\n"))
			},
		},
		{
			name:   "csv",
			output: schema.CSVOut,
			check: func(t *testing.T, content string) {
				assert.True(t, strings.HasPrefix(content, "rank,path,"))
			},
		},
		{
			name:   "json",
			output: schema.JSONOut,
			check: func(t *testing.T, content string) {
				assert.True(t, json.Valid([]byte(content)))
			},
		},
		{
			name:   "table",
			output: schema.TableOut,
			check: func(t *testing.T, content string) {
				assert.Contains(t, content, "cmd/root.go")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report."+string(tt.output))
			cfg := &contract.Config{Output: tt.output, OutputFile: path, Width: 120}

			require.NoError(t, WriteConflictResults(sampleReport(), cfg, time.Second))

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.check(t, string(content))
		})
	}
}

func TestWriteConflictResultsParquet(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		cfg := &contract.Config{Output: schema.ParquetOut}
		err := WriteConflictResults(sampleReport(), cfg, 0)
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("writes ranked rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.parquet")
		cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: path}
		require.NoError(t, WriteConflictResults(sampleReport(), cfg, 0))

		rows, err := pq.ReadFile[parquet.ConflictRow](path)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int32(1), rows[0].Rank)
		assert.Equal(t, "internal/store.go", rows[0].Path)
		assert.Equal(t, "10-14,40", rows[0].Clusters)
		assert.Equal(t, int32(25), rows[1].SharePercent)
	})
}

func TestGetMaxTablePathWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{"narrow terminal clamps to minimum", 60, 15},
		{"medium terminal", 110, 35},
		{"wide terminal clamps to maximum", 300, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetMaxTablePathWidth(&contract.Config{Width: tt.width}))
		})
	}
}

func TestSharePercent(t *testing.T) {
	assert.Zero(t, sharePercent(schema.FileReport{Conflicts: 3}, 0))
	assert.InDelta(t, 25.0, sharePercent(schema.FileReport{Conflicts: 5}, 20), 1e-9)
}
