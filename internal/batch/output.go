package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ResultFileBase is the stem of the two result files written per batch run.
const ResultFileBase = "golf_ocr_results"

// WriteJSON writes the per-file results as a single JSON document keyed by
// filename. Failed files carry an "error" field instead of metric values.
func WriteJSON(outputDir string, results map[string]map[string]string) (string, error) {
	path := filepath.Join(outputDir, ResultFileBase+".json")

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// WriteCSV writes a flat table of the results: one row per file, one column
// per metric field. The header is "filename" followed by the sorted union
// of all field names; "error" is omitted since it is not a metric.
func WriteCSV(outputDir string, results map[string]map[string]string) (string, error) {
	path := filepath.Join(outputDir, ResultFileBase+".csv")

	fieldSet := make(map[string]bool)
	for _, fields := range results {
		for key := range fields {
			if key != "error" {
				fieldSet[key] = true
			}
		}
	}
	fieldNames := make([]string, 0, len(fieldSet))
	for key := range fieldSet {
		fieldNames = append(fieldNames, key)
	}
	sort.Strings(fieldNames)

	filenames := make([]string, 0, len(results))
	for name := range results {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := append([]string{"filename"}, fieldNames...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}

	for _, name := range filenames {
		row := make([]string, 0, len(header))
		row = append(row, name)
		for _, field := range fieldNames {
			row = append(row, results[name][field])
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing CSV row for %s: %w", name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return path, nil
}
