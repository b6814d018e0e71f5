// Package storage provides persistence for morphnet artifacts.
//
// Built graphs live in a GraphStore keyed by dataset ("<language>_<datatype>").
// Community partitions are stored as JSON documents and hierarchy results as
// CSV reports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Benny93/morphnet/internal/graph"
)

var (
	// ErrGraphNotFound is returned when a dataset has no stored graph.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrInvalidDataset is returned for empty dataset names or names containing ':'.
	ErrInvalidDataset = errors.New("invalid dataset name")

	// ErrNotInitialized is returned when a store is used before Initialize.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrReadOnly is returned for writes to a store opened read-only.
	ErrReadOnly = errors.New("store opened read-only")
)

// DatasetKey names the dataset of one language and data type.
func DatasetKey(language, dataType string) string {
	return language + "_" + dataType
}

// ValidateDataset checks that a dataset name can be used as a key segment.
func ValidateDataset(dataset string) error {
	if dataset == "" || strings.Contains(dataset, ":") {
		return fmt.Errorf("%q: %w", dataset, ErrInvalidDataset)
	}
	return nil
}

// GraphInfo describes a stored graph.
type GraphInfo struct {
	// Dataset is the storage key, e.g. "latin_original".
	Dataset string `json:"dataset"`

	Nodes     int `json:"nodes"`
	Lexemes   int `json:"lexemes"`
	Exponents int `json:"exponents"`
	Edges     int `json:"edges"`

	// RunID identifies the pipeline run that built the graph.
	RunID string `json:"run_id,omitempty"`

	SavedAt time.Time `json:"saved_at"`
}

// GraphStore persists bipartite graphs by dataset.
//
// Implementations must be safe for concurrent use and must reload a graph
// with the same nodes, partitions, edge weights and insertion order.
type GraphStore interface {
	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// SaveGraph replaces the stored graph of a dataset.
	SaveGraph(ctx context.Context, dataset string, g *graph.BipartiteGraph, runID string) (GraphInfo, error)

	// LoadGraph reconstructs the graph of a dataset.
	LoadGraph(ctx context.Context, dataset string) (*graph.BipartiteGraph, error)

	// GraphInfo returns the metadata of a stored graph.
	GraphInfo(ctx context.Context, dataset string) (GraphInfo, error)

	// ListGraphs returns metadata for every stored graph, sorted by dataset.
	ListGraphs(ctx context.Context) ([]GraphInfo, error)

	// DeleteGraph removes a dataset's graph. Deleting a missing graph is not an error.
	DeleteGraph(ctx context.Context, dataset string) error
}

// newGraphInfo fills counts from g.
func newGraphInfo(dataset string, g *graph.BipartiteGraph, runID string) GraphInfo {
	return GraphInfo{
		Dataset:   dataset,
		Nodes:     g.NodeCount(),
		Lexemes:   g.CountByPartition(graph.PartitionLexeme),
		Exponents: g.CountByPartition(graph.PartitionExponent),
		Edges:     g.EdgeCount(),
		RunID:     runID,
		SavedAt:   time.Now().UTC(),
	}
}

// rebuild assembles a graph from stored nodes and edges in order.
func rebuild(nodes []*graph.Node, edges []*graph.Edge) (*graph.BipartiteGraph, error) {
	g := graph.NewBipartiteGraph()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("restoring node %q: %w", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e.Lexeme, e.Exponent, e.Weight); err != nil {
			return nil, fmt.Errorf("restoring edge %q-%q: %w", e.Lexeme, e.Exponent, err)
		}
	}
	return g, nil
}
