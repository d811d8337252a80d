package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/internal/parquet"
	"github.com/huangsam/mergespot/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteConflictResults outputs a conflict report, dispatching based on the output format configured.
func WriteConflictResults(report schema.ConflictReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForConflicts(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForConflicts(w, report)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteConflictRows(w, parquet.ConvertConflictReport(report))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.TableOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConflictTable(w, report, cfg, duration)
		}, "Wrote table")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConflictText(w, report)
		}, "Wrote report")
	}
	return nil
}

// sharePercent is the share of all conflicts that a single file accounts for.
func sharePercent(f schema.FileReport, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(f.Conflicts) / float64(total)
}

// writeConflictText writes the summary lines followed by one tab-separated row per file.
func writeConflictText(w io.Writer, report schema.ConflictReport) error {
	if _, err := fmt.Fprintf(w, "%d files, %d total conflicts\n", report.FileCount, report.TotalConflicts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Selected %d files, having %d total conflicts (%d%%)\n",
		len(report.Files), report.SelectedConflicts, report.SelectedPercent); err != nil {
		return err
	}
	for _, f := range report.Files {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", f.Path, f.Conflicts, f.ClusterText); err != nil {
			return err
		}
	}
	return nil
}

// writeConflictTable generates and writes the human-readable table.
func writeConflictTable(w io.Writer, report schema.ConflictReport, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Path", "Conflicts", "Commits", "Lines", "Clusters", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	data := make([][]string, 0, len(report.Files))
	for i, f := range report.Files {
		share := sharePercent(f, report.TotalConflicts)
		label := contract.GetPlainLabel(share)
		if cfg.UseColors {
			label = contract.GetColorLabel(share)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(f.Path, pathWidth),
			strconv.Itoa(f.Conflicts),
			strconv.Itoa(f.Commits),
			strconv.Itoa(f.FlaggedLines),
			f.ClusterText,
			label,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d files (%d of %d conflicts, %d%%)\n",
		len(report.Files), report.FileCount, report.SelectedConflicts, report.TotalConflicts, report.SelectedPercent); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeCSVResultsForConflicts writes one CSV record per selected file.
func writeCSVResultsForConflicts(w io.Writer, report schema.ConflictReport) error {
	header := []string{"rank", "path", "conflicts", "commits", "flagged_lines", "clusters", "share_percent", "label"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, f := range report.Files {
			share := sharePercent(f, report.TotalConflicts)
			rec := []string{
				strconv.Itoa(i + 1),
				f.Path,
				strconv.Itoa(f.Conflicts),
				strconv.Itoa(f.Commits),
				strconv.Itoa(f.FlaggedLines),
				f.ClusterText,
				strconv.Itoa(schema.RoundHalfEven(share)),
				contract.GetPlainLabel(share),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeJSONResultsForConflicts writes the full report with rank and label added to each file.
func writeJSONResultsForConflicts(w io.Writer, report schema.ConflictReport) error {
	type jsonFile struct {
		Rank         int    `json:"rank"`
		Label        string `json:"label"`
		SharePercent int    `json:"share_percent"`
		schema.FileReport
	}
	type jsonReport struct {
		schema.ConflictReport
		Files []jsonFile `json:"files"`
	}

	out := jsonReport{ConflictReport: report, Files: make([]jsonFile, len(report.Files))}
	for i, f := range report.Files {
		share := sharePercent(f, report.TotalConflicts)
		out.Files[i] = jsonFile{
			Rank:         i + 1,
			Label:        contract.GetPlainLabel(share),
			SharePercent: schema.RoundHalfEven(share),
			FileReport:   f,
		}
	}
	return writeJSON(w, out)
}
