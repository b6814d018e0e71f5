package analysis

import (
	"errors"
	"fmt"

	"github.com/Benny93/morphnet/internal/formatives"
	"github.com/Benny93/morphnet/internal/graph"
)

// ErrDataConsistency is returned when the formatives table cannot supply an
// edge weight for a tagged exponent.
var ErrDataConsistency = errors.New("data consistency")

// WeightError reports a lexeme and cell whose exponent count is missing or zero.
type WeightError struct {
	Lexeme string
	Cell   string
	Count  int
}

func (e *WeightError) Error() string {
	return fmt.Sprintf("lexeme %q cell %q: exponent count %d cannot weight an edge: %v",
		e.Lexeme, e.Cell, e.Count, ErrDataConsistency)
}

func (e *WeightError) Unwrap() error {
	return ErrDataConsistency
}

// Loader reads a formatives table from a file.
type Loader interface {
	Load(path string) (*formatives.Table, error)
}

// LexemeExponents holds the disambiguated tagged exponents of one lexeme.
type LexemeExponents struct {
	Lexeme    string
	Exponents []TaggedExponent
}

// TagLexemes encodes every applicable cell of every lexeme into tagged
// triphones, disambiguating repeats within each lexeme. Reserved columns are
// skipped.
func TagLexemes(t *formatives.Table) []LexemeExponents {
	cells := t.CellColumns()
	out := make([]LexemeExponents, 0, t.Len())
	for _, row := range t.Rows() {
		var candidates []TaggedExponent
		for _, cell := range cells {
			exps := row.Exponents(cell)
			if exps == nil {
				continue
			}
			candidates = append(candidates, TagCell(cell, exps)...)
		}
		out = append(out, LexemeExponents{
			Lexeme:    row.Lexeme,
			Exponents: Disambiguate(candidates),
		})
	}
	return out
}

// exponentCounts records, per lexeme and applicable cell, the length of the
// original exponent list.
func exponentCounts(t *formatives.Table) map[string]map[string]int {
	cells := t.CellColumns()
	counts := make(map[string]map[string]int, t.Len())
	for _, row := range t.Rows() {
		byCell := make(map[string]int, len(cells))
		for _, cell := range cells {
			exps := row.Exponents(cell)
			if exps == nil {
				continue
			}
			byCell[cell] = len(exps)
		}
		counts[row.Lexeme] = byCell
	}
	return counts
}

// edgeWeight returns 1/count for the lexeme and cell.
func edgeWeight(counts map[string]map[string]int, lexeme, cell string) (float64, error) {
	n, ok := counts[lexeme][cell]
	if !ok || n == 0 {
		return 0, &WeightError{Lexeme: lexeme, Cell: cell, Count: n}
	}
	return 1 / float64(n), nil
}

// Build turns a formatives table into a weighted bipartite graph.
//
// Every lexeme becomes a node in partition 0, in table order. Every distinct
// tagged exponent becomes a node in partition 1, in order of first
// appearance. Each lexeme links to its tagged exponents with weight
// 1/(number of exponents listed in the originating cell).
func Build(t *formatives.Table) (*graph.BipartiteGraph, error) {
	tagged := TagLexemes(t)
	counts := exponentCounts(t)
	g := graph.NewBipartiteGraph()

	for _, le := range tagged {
		if err := g.AddNode(&graph.Node{ID: le.Lexeme, Partition: graph.PartitionLexeme}); err != nil {
			return nil, fmt.Errorf("adding lexeme %q: %w", le.Lexeme, err)
		}
	}

	for _, le := range tagged {
		for _, te := range le.Exponents {
			id := te.String()
			if existing := g.GetNode(id); existing != nil && !existing.IsLexeme() {
				continue
			}
			node := &graph.Node{
				ID:        id,
				Partition: graph.PartitionExponent,
				Triphone:  te.Triphone,
				Cell:      te.Cell,
			}
			if err := g.AddNode(node); err != nil {
				return nil, fmt.Errorf("adding exponent %q: %w", id, err)
			}
		}
	}

	for _, le := range tagged {
		for _, te := range le.Exponents {
			w, err := edgeWeight(counts, le.Lexeme, te.Cell)
			if err != nil {
				return nil, err
			}
			if err := g.AddEdge(le.Lexeme, te.String(), w); err != nil {
				return nil, fmt.Errorf("linking %q to %q: %w", le.Lexeme, te.String(), err)
			}
		}
	}

	return g, nil
}

// BuildFromFile loads a formatives table and builds its graph.
func BuildFromFile(path string, loader Loader) (*graph.BipartiteGraph, error) {
	t, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return Build(t)
}
