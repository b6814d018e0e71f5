package formatives

import (
	"fmt"
	"math/rand"
	"strings"
)

// DataType selects which variant of a language's table is processed.
type DataType string

const (
	// Original is the observed data.
	Original DataType = "original"

	// TypeFreqShuffled keeps each column's type frequencies but breaks
	// implicative relations between cells.
	TypeFreqShuffled DataType = "typefreq_shuffled"

	// AllShuffled breaks both type frequencies and implicative relations.
	AllShuffled DataType = "allshuffled"
)

// AllDataTypes lists the data types in processing order.
var AllDataTypes = []DataType{Original, TypeFreqShuffled, AllShuffled}

// ParseDataTypes resolves a data type selector; "all" expands to every type.
func ParseDataTypes(selector string) ([]DataType, error) {
	if selector == "" || selector == "all" {
		return append([]DataType{}, AllDataTypes...), nil
	}
	for _, dt := range AllDataTypes {
		if string(dt) == selector {
			return []DataType{dt}, nil
		}
	}
	return nil, fmt.Errorf("unknown data type %q (want original, typefreq_shuffled, allshuffled or all)", selector)
}

// IsSimulated reports whether the data type is a null-model table.
func (d DataType) IsSimulated() bool {
	return d != Original
}

// ShuffleTypeFrequency permutes every column independently across rows.
// Lexeme ids keep their positions, so each cell keeps its distribution of
// exponent lists while the pairing between cells of one lexeme is broken.
func ShuffleTypeFrequency(t *Table, rng *rand.Rand) *Table {
	out := NewTable(t.columns)
	n := len(t.rows)
	cells := make([]map[string][]string, n)
	for i := range cells {
		cells[i] = make(map[string][]string, len(t.columns))
	}

	for _, col := range t.columns {
		perm := rng.Perm(n)
		for i, j := range perm {
			cells[i][col] = cloneCell(t.rows[j].Cells[col])
		}
	}

	for i, row := range t.rows {
		// Columns come from t, so AddRow cannot fail on unknown columns or duplicates.
		_ = out.AddRow(row.Lexeme, cells[i])
	}
	return out
}

// ShuffleAll fills every cell with a uniform draw from the distinct values of
// its column.
func ShuffleAll(t *Table, rng *rand.Rand) *Table {
	out := NewTable(t.columns)
	n := len(t.rows)
	cells := make([]map[string][]string, n)
	for i := range cells {
		cells[i] = make(map[string][]string, len(t.columns))
	}

	for _, col := range t.columns {
		unique := distinctValues(t, col)
		for i := 0; i < n; i++ {
			cells[i][col] = cloneCell(unique[rng.Intn(len(unique))])
		}
	}

	for i, row := range t.rows {
		_ = out.AddRow(row.Lexeme, cells[i])
	}
	return out
}

// Simulate produces both null-model tables from one seed.
func Simulate(t *Table, seed int64) (typeFreq, all *Table) {
	typeFreq = ShuffleTypeFrequency(t, rand.New(rand.NewSource(seed)))
	all = ShuffleAll(t, rand.New(rand.NewSource(seed+1)))
	return typeFreq, all
}

// distinctValues returns the distinct cell values of a column in order of
// first appearance.
func distinctValues(t *Table, col string) [][]string {
	seen := make(map[string]bool)
	var unique [][]string
	for _, row := range t.rows {
		v := row.Cells[col]
		key := cellKey(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, v)
	}
	return unique
}

func cellKey(v []string) string {
	if v == nil {
		return "\x00nil"
	}
	return "[" + strings.Join(v, "\x1f")
}

func cloneCell(v []string) []string {
	if v == nil {
		return nil
	}
	return append([]string{}, v...)
}
