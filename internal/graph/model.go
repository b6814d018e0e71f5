// Package graph provides the bipartite lexeme–exponent graph model for morphnet.
//
// It defines the node and edge types that link lexemes (partition 0) to the
// cell-tagged exponent triphones that realize their paradigm cells
// (partition 1).
package graph

import "errors"

// Partition identifies which side of the bipartite graph a node belongs to.
type Partition int

const (
	// PartitionLexeme holds lexeme nodes.
	PartitionLexeme Partition = 0

	// PartitionExponent holds cell-tagged exponent triphone nodes.
	PartitionExponent Partition = 1
)

// String returns the partition name.
func (p Partition) String() string {
	switch p {
	case PartitionLexeme:
		return "lexeme"
	case PartitionExponent:
		return "exponent"
	default:
		return "unknown"
	}
}

var (
	// ErrNodeCollision is returned when a node ID is reused across partitions.
	ErrNodeCollision = errors.New("node id already used in the other partition")

	// ErrUnknownNode is returned when an edge references a node that was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSamePartition is returned when an edge would join two nodes of one partition.
	ErrSamePartition = errors.New("edge endpoints share a partition")

	// ErrInvalidWeight is returned for non-positive or non-finite edge weights.
	ErrInvalidWeight = errors.New("edge weight must be a positive finite number")
)

// Node represents a node in the bipartite graph.
type Node struct {
	// ID is the unique identifier for the node.
	// Lexeme nodes use the lexeme id; exponent nodes use the disambiguated
	// tagged exponent (e.g. "#ab-NOM.SG_1").
	ID string `json:"id"`

	// Partition is the side of the graph the node belongs to.
	Partition Partition `json:"partition"`

	// Triphone is the boundary-padded window (exponent nodes only).
	Triphone string `json:"triphone,omitempty"`

	// Cell is the grammatical cell label (exponent nodes only).
	Cell string `json:"cell,omitempty"`
}

// IsLexeme reports whether the node sits in the lexeme partition.
func (n *Node) IsLexeme() bool {
	return n.Partition == PartitionLexeme
}

// Edge is an undirected weighted link between a lexeme and an exponent node.
type Edge struct {
	// Lexeme is the ID of the lexeme endpoint.
	Lexeme string `json:"lexeme"`

	// Exponent is the ID of the exponent endpoint.
	Exponent string `json:"exponent"`

	// Weight is the share of the cell's unit contribution carried by this edge.
	Weight float64 `json:"weight"`
}
