// Package formatives provides the inflectional data table consumed by the
// graph builder, together with its CSV loader and writer, the null-model
// simulators and language discovery.
//
// A table has one row per lexeme and one column per paradigm cell. Each cell
// holds the exponents realizing that cell for the lexeme. A nil cell means
// "not applicable"; a non-nil empty cell is an explicit empty list.
package formatives

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateLexeme is returned when a lexeme id appears twice.
	ErrDuplicateLexeme = errors.New("duplicate lexeme")

	// ErrUnknownColumn is returned when a row references a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrMalformedCell is returned when a cell cannot be parsed as an exponent list.
	ErrMalformedCell = errors.New("malformed cell")

	// ErrUnknownLanguage is returned when no formatives file exists for a language.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrInvalidLanguage is returned for language names that are not plain
	// file name stems.
	ErrInvalidLanguage = errors.New("invalid language name")
)

// Reserved column names excluded from graph construction.
var reservedColumns = []string{"stem"}

// IsReserved reports whether a column is a reserved, non-cell column.
func IsReserved(column string) bool {
	for _, r := range reservedColumns {
		if strings.EqualFold(column, r) {
			return true
		}
	}
	return false
}

// Row holds the cells of one lexeme.
type Row struct {
	Lexeme string
	Cells  map[string][]string
}

// Exponents returns the exponents of a cell, or nil when not applicable.
func (r *Row) Exponents(column string) []string {
	return r.Cells[column]
}

// Table is an ordered formatives table.
type Table struct {
	columns []string
	rows    []*Row
	index   map[string]int
}

// NewTable creates an empty table with the given columns in order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		columns: cols,
		index:   make(map[string]int),
	}
}

// AddRow appends a lexeme row. Columns missing from cells are stored as not
// applicable.
func (t *Table) AddRow(lexeme string, cells map[string][]string) error {
	if _, ok := t.index[lexeme]; ok {
		return fmt.Errorf("adding lexeme %q: %w", lexeme, ErrDuplicateLexeme)
	}

	row := &Row{Lexeme: lexeme, Cells: make(map[string][]string, len(t.columns))}
	for col, exps := range cells {
		if !t.hasColumn(col) {
			return fmt.Errorf("adding lexeme %q column %q: %w", lexeme, col, ErrUnknownColumn)
		}
		if exps != nil {
			row.Cells[col] = append([]string{}, exps...)
		}
	}
	for _, col := range t.columns {
		if _, ok := row.Cells[col]; !ok {
			row.Cells[col] = nil
		}
	}

	t.index[lexeme] = len(t.rows)
	t.rows = append(t.rows, row)
	return nil
}

func (t *Table) hasColumn(column string) bool {
	for _, c := range t.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Columns returns every column in file order, reserved ones included.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// CellColumns returns the paradigm cell columns in file order.
func (t *Table) CellColumns() []string {
	cols := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !IsReserved(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Rows returns the rows in insertion order.
func (t *Table) Rows() []*Row {
	rows := make([]*Row, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// Row returns the row for a lexeme.
func (t *Table) Row(lexeme string) (*Row, bool) {
	i, ok := t.index[lexeme]
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Lexemes returns lexeme ids in insertion order.
func (t *Table) Lexemes() []string {
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.Lexeme
	}
	return ids
}

// Len returns the number of lexemes.
func (t *Table) Len() int {
	return len(t.rows)
}

// Summary describes the shape of a table.
type Summary struct {
	Lexemes int
	Columns []string

	// Missing counts not-applicable cells per column.
	Missing map[string]int
}

// Summarize reports the table shape and missing values per column.
func (t *Table) Summarize() Summary {
	s := Summary{
		Lexemes: len(t.rows),
		Columns: t.Columns(),
		Missing: make(map[string]int, len(t.columns)),
	}
	for _, col := range t.columns {
		s.Missing[col] = 0
		for _, r := range t.rows {
			if r.Cells[col] == nil {
				s.Missing[col]++
			}
		}
	}
	return s
}
