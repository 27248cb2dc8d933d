package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteJSON writes the full report, indented, to path.
func WriteJSON(report *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"record_id", "renderer", "scene", "run", "ok",
	"render_time_seconds", "peak_memory_mb", "output_path", "error",
}

// WriteCSV writes a flat per-record summary to path. Failed records carry
// the error text and empty measurements.
func WriteCSV(report *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range report.Records {
		row := []string{
			rec.ID, rec.Renderer, rec.Scene,
			strconv.Itoa(rec.Run), strconv.FormatBool(rec.OK),
			"", "", "", rec.Error,
		}
		if rec.Result != nil {
			row[5] = strconv.FormatFloat(rec.Result.RenderTimeSeconds, 'f', 3, 64)
			row[6] = strconv.FormatFloat(rec.Result.PeakMemoryMB, 'f', 1, 64)
			row[7] = rec.Result.OutputPath
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// WriteReport writes the report in every requested format, deriving file
// names from the suite name inside dir.
func WriteReport(report *Report, dir string, formats []string) ([]string, error) {
	var written []string
	for _, format := range formats {
		path := filepath.Join(dir, report.Suite+"_report."+format)
		var err error
		switch format {
		case "json":
			err = WriteJSON(report, path)
		case "csv":
			err = WriteCSV(report, path)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
