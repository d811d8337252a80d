package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/internal/parquet"
)

// Suffixes appended to the export prefix for each table.
const (
	analysisRunsSuffix  = ".analysis_runs.parquet"
	fileConflictsSuffix = ".file_conflicts.parquet"
)

// ExecuteAnalysisExport exports the global analysis store to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
}

// ExportAnalysis writes every tracked run and file row of store to two Parquet files
// named after the outputFile prefix.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not enabled. Set --analysis-backend to export history")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total file records: %d\n", status.TableSizes[fileConflictsTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	fileConflicts, err := store.GetAllFileConflicts()
	if err != nil {
		return fmt.Errorf("failed to retrieve file conflicts: %w", err)
	}

	parquetRuns := parquet.ConvertAnalysisRunRecords(analysisRuns)
	runsFile := outputFile + analysisRunsSuffix
	if err := parquet.WriteAnalysisRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(parquetRuns), runsFile)

	parquetConflicts := parquet.ConvertFileConflictRecords(fileConflicts)
	conflictsFile := outputFile + fileConflictsSuffix
	if err := parquet.WriteFileConflictsParquet(parquetConflicts, conflictsFile); err != nil {
		return fmt.Errorf("failed to write file conflicts: %w", err)
	}
	fmt.Printf("Exported %d file conflict records to: %s\n", len(parquetConflicts), conflictsFile)

	fmt.Println("\nExport complete! The Parquet files can be read by DuckDB, Spark, Arrow or pandas.")
	return nil
}
