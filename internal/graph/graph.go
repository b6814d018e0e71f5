package graph

import (
	"fmt"
	"math"
	"sync"
)

type edgeKey struct {
	lexeme   string
	exponent string
}

// BipartiteGraph is an in-memory undirected weighted graph with two disjoint
// node partitions.
//
// Nodes and edges keep their insertion order so that every traversal, and
// therefore every seeded clustering run, is reproducible. Adding an edge
// between an already linked pair replaces its weight in place.
type BipartiteGraph struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[edgeKey]*Edge
	edgeOrder []edgeKey

	// Secondary indexes kept in sync by AddNode / AddEdge.
	byPartition map[Partition][]string
	adjacency   map[string][]*Edge
}

// NewBipartiteGraph creates a new empty bipartite graph.
func NewBipartiteGraph() *BipartiteGraph {
	return &BipartiteGraph{
		nodes:       make(map[string]*Node),
		edges:       make(map[edgeKey]*Edge),
		byPartition: make(map[Partition][]string),
		adjacency:   make(map[string][]*Edge),
	}
}

// AddNode adds a node. Re-adding an ID in the same partition updates its
// attributes; reusing an ID across partitions fails with ErrNodeCollision.
func (g *BipartiteGraph) AddNode(node *Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.nodes[node.ID]; ok {
		if old.Partition != node.Partition {
			return fmt.Errorf("adding %s node %q: %w", node.Partition, node.ID, ErrNodeCollision)
		}
		g.nodes[node.ID] = node
		return nil
	}

	g.nodes[node.ID] = node
	g.nodeOrder = append(g.nodeOrder, node.ID)
	g.byPartition[node.Partition] = append(g.byPartition[node.Partition], node.ID)
	return nil
}

// AddEdge links two nodes from opposite partitions. The endpoints may be given
// in either order.
func (g *BipartiteGraph) AddEdge(a, b string, weight float64) error {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("edge %q-%q weight %v: %w", a, b, weight, ErrInvalidWeight)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	na, ok := g.nodes[a]
	if !ok {
		return fmt.Errorf("edge endpoint %q: %w", a, ErrUnknownNode)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return fmt.Errorf("edge endpoint %q: %w", b, ErrUnknownNode)
	}
	if na.Partition == nb.Partition {
		return fmt.Errorf("edge %q-%q: %w", a, b, ErrSamePartition)
	}

	key := edgeKey{lexeme: a, exponent: b}
	if nb.IsLexeme() {
		key = edgeKey{lexeme: b, exponent: a}
	}

	// Last write wins on duplicate endpoint pairs
	if existing, ok := g.edges[key]; ok {
		existing.Weight = weight
		return nil
	}

	edge := &Edge{Lexeme: key.lexeme, Exponent: key.exponent, Weight: weight}
	g.edges[key] = edge
	g.edgeOrder = append(g.edgeOrder, key)
	g.adjacency[key.lexeme] = append(g.adjacency[key.lexeme], edge)
	g.adjacency[key.exponent] = append(g.adjacency[key.exponent], edge)
	return nil
}

// GetNode returns the node with the given ID, or nil if it does not exist.
func (g *BipartiteGraph) GetNode(nodeID string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[nodeID]
}

// GetEdge returns the edge between two nodes in either order.
func (g *BipartiteGraph) GetEdge(a, b string) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if e, ok := g.edges[edgeKey{lexeme: a, exponent: b}]; ok {
		return e, true
	}
	e, ok := g.edges[edgeKey{lexeme: b, exponent: a}]
	return e, ok
}

// Nodes returns all nodes in insertion order.
func (g *BipartiteGraph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		result = append(result, g.nodes[id])
	}
	return result
}

// NodesByPartition returns the nodes of one partition in insertion order.
func (g *BipartiteGraph) NodesByPartition(p Partition) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.byPartition[p]
	result := make([]*Node, 0, len(ids))
	for _, id := range ids {
		result = append(result, g.nodes[id])
	}
	return result
}

// LexemeSet returns the set of lexeme node IDs.
func (g *BipartiteGraph) LexemeSet() map[string]struct{} {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := make(map[string]struct{}, len(g.byPartition[PartitionLexeme]))
	for _, id := range g.byPartition[PartitionLexeme] {
		set[id] = struct{}{}
	}
	return set
}

// Edges returns all edges in insertion order.
func (g *BipartiteGraph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		result = append(result, g.edges[key])
	}
	return result
}

// Incident returns the edges touching a node in insertion order.
func (g *BipartiteGraph) Incident(nodeID string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.adjacency[nodeID]
	result := make([]*Edge, len(edges))
	copy(result, edges)
	return result
}

// Degree returns the weighted degree of a node.
func (g *BipartiteGraph) Degree(nodeID string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var total float64
	for _, e := range g.adjacency[nodeID] {
		total += e.Weight
	}
	return total
}

// NodeCount returns the number of nodes.
func (g *BipartiteGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *BipartiteGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// CountByPartition returns the number of nodes in a partition.
func (g *BipartiteGraph) CountByPartition(p Partition) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byPartition[p])
}

// Stats returns a summary of graph size.
func (g *BipartiteGraph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return map[string]int{
		"nodes":     len(g.nodes),
		"lexemes":   len(g.byPartition[PartitionLexeme]),
		"exponents": len(g.byPartition[PartitionExponent]),
		"edges":     len(g.edges),
	}
}
