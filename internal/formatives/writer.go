package formatives

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Save writes a table to a CSV file, creating parent directories.
func Save(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Write encodes a table as CSV in the format Read accepts.
func Write(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{"lexeme"}, t.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range t.rows {
		record := make([]string, 0, len(t.columns)+1)
		record = append(record, row.Lexeme)
		for _, col := range t.columns {
			record = append(record, FormatCell(row.Cells[col]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCell renders an exponent list as a list literal.
// Not-applicable cells render as the empty string.
func FormatCell(exps []string) string {
	if exps == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range exps {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('\'')
		sb.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(e))
		sb.WriteByte('\'')
	}
	sb.WriteByte(']')
	return sb.String()
}
