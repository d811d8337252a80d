// Package parquet provides data structures and functions for exporting mergespot
// conflict data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/mergespot/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single conflict analysis run with metadata.
// This struct maps to the mergespot_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalFilesAnalyzed is the number of files reported in this run
	TotalFilesAnalyzed int32 `parquet:"total_files_analyzed,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileConflict is one reported file of a tracked analysis run.
// This struct maps to the mergespot_file_conflicts database table.
type FileConflict struct {
	AnalysisID     int64     `parquet:"analysis_id,snappy"`
	FilePath       string    `parquet:"file_path,snappy"`
	AnalysisTime   time.Time `parquet:"analysis_time,snappy"`
	ConflictCount  int32     `parquet:"conflict_count,snappy"`
	CommitCount    int32     `parquet:"commit_count,snappy"`
	FlaggedLines   int32     `parquet:"flagged_lines,snappy"`
	Clusters       string    `parquet:"clusters,snappy"`
	SelectedRank   int32     `parquet:"selected_rank,snappy"`
	TotalConflicts int32     `parquet:"total_conflicts,snappy"`
}

// ConflictRow is one selected file of a conflict report, used by `--output parquet`.
type ConflictRow struct {
	Rank         int32  `parquet:"rank,snappy"`
	Path         string `parquet:"path,snappy"`
	Conflicts    int32  `parquet:"conflicts,snappy"`
	Commits      int32  `parquet:"commits,snappy"`
	FlaggedLines int32  `parquet:"flagged_lines,snappy"`
	Clusters     string `parquet:"clusters,snappy"`
	SharePercent int32  `parquet:"share_percent,snappy"`
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteFileConflictsParquet writes a slice of FileConflict structs to a Parquet file.
func WriteFileConflictsParquet(data []FileConflict, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteConflictRows writes report rows to w.
func WriteConflictRows(w io.Writer, rows []ConflictRow) error {
	return writeRows(w, rows)
}

// writeFile creates outputPath and writes rows into it.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return writeRows(file, data)
}

// writeRows encodes rows with a schema inferred from the struct tags of T.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:         record.AnalysisID,
			StartTime:          record.StartTime,
			EndTime:            record.EndTime,
			RunDurationMs:      record.RunDurationMs,
			TotalFilesAnalyzed: record.TotalFilesAnalyzed,
			ConfigParams:       record.ConfigParams,
		}
	}
	return result
}

// ConvertFileConflictRecords converts schema.FileConflictRecord to FileConflict for Parquet export.
func ConvertFileConflictRecords(records []schema.FileConflictRecord) []FileConflict {
	result := make([]FileConflict, len(records))
	for i, record := range records {
		result[i] = FileConflict(record)
	}
	return result
}

// ConvertConflictReport flattens a report into ranked rows.
func ConvertConflictReport(report schema.ConflictReport) []ConflictRow {
	rows := make([]ConflictRow, len(report.Files))
	for i, f := range report.Files {
		share := 0
		if report.TotalConflicts > 0 {
			share = schema.RoundHalfEven(100 * float64(f.Conflicts) / float64(report.TotalConflicts))
		}
		rows[i] = ConflictRow{
			Rank:         int32(i + 1),
			Path:         f.Path,
			Conflicts:    int32(f.Conflicts),
			Commits:      int32(f.Commits),
			FlaggedLines: int32(f.FlaggedLines),
			Clusters:     f.ClusterText,
			SharePercent: int32(share),
		}
	}
	return rows
}
