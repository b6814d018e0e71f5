package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var reportHeader = []string{"Keys", "Averages", "ncomms_upper", "ncomms_lower"}

// HierarchyRow is one line of the hierarchy report.
type HierarchyRow struct {
	// Pair is the resolution pair key, "lower_upper".
	Pair string

	// Average is the mean nesting score or the all-singletons label.
	Average string

	// NCommsUpper counts communities at the upper resolution.
	NCommsUpper int

	// NCommsLower counts communities at the lower resolution.
	NCommsLower int
}

// SaveHierarchyReport writes rows as CSV, creating parent directories.
func SaveHierarchyReport(path string, rows []HierarchyRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteHierarchyReport(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteHierarchyReport encodes rows as CSV with a header line.
func WriteHierarchyReport(w io.Writer, rows []HierarchyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Pair, r.Average, strconv.Itoa(r.NCommsUpper), strconv.Itoa(r.NCommsLower)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadHierarchyReport reads a report written by SaveHierarchyReport.
func LoadHierarchyReport(path string) ([]HierarchyRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadHierarchyReport(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// ReadHierarchyReport decodes a CSV hierarchy report.
func ReadHierarchyReport(r io.Reader) ([]HierarchyRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(reportHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	rows := make([]HierarchyRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		upper, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("line %d ncomms_upper: %w", i+2, err)
		}
		lower, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("line %d ncomms_lower: %w", i+2, err)
		}
		rows = append(rows, HierarchyRow{Pair: rec[0], Average: rec[1], NCommsUpper: upper, NCommsLower: lower})
	}
	return rows, nil
}
