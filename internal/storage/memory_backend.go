package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Benny93/morphnet/internal/graph"
)

type memoryGraph struct {
	info  GraphInfo
	nodes []graph.Node
	edges []graph.Edge
}

// MemoryStore is an in-memory GraphStore for tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	graphs   map[string]*memoryGraph
	readOnly bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*memoryGraph)}
}

// Initialize implements GraphStore. The path is ignored.
func (m *MemoryStore) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.graphs == nil {
		m.graphs = make(map[string]*memoryGraph)
	}
	m.readOnly = readOnly
	return nil
}

// Close implements GraphStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graphs = nil
	return nil
}

// SaveGraph implements GraphStore. Nodes and edges are copied.
func (m *MemoryStore) SaveGraph(ctx context.Context, dataset string, g *graph.BipartiteGraph, runID string) (GraphInfo, error) {
	if err := ValidateDataset(dataset); err != nil {
		return GraphInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.graphs == nil {
		return GraphInfo{}, ErrNotInitialized
	}
	if m.readOnly {
		return GraphInfo{}, ErrReadOnly
	}

	stored := &memoryGraph{info: newGraphInfo(dataset, g, runID)}
	for _, n := range g.Nodes() {
		stored.nodes = append(stored.nodes, *n)
	}
	for _, e := range g.Edges() {
		stored.edges = append(stored.edges, *e)
	}
	m.graphs[dataset] = stored
	return stored.info, nil
}

// LoadGraph implements GraphStore.
func (m *MemoryStore) LoadGraph(ctx context.Context, dataset string) (*graph.BipartiteGraph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.graphs[dataset]
	if !ok {
		return nil, fmt.Errorf("dataset %s: %w", dataset, ErrGraphNotFound)
	}

	nodes := make([]*graph.Node, len(stored.nodes))
	for i := range stored.nodes {
		n := stored.nodes[i]
		nodes[i] = &n
	}
	edges := make([]*graph.Edge, len(stored.edges))
	for i := range stored.edges {
		e := stored.edges[i]
		edges[i] = &e
	}
	return rebuild(nodes, edges)
}

// GraphInfo implements GraphStore.
func (m *MemoryStore) GraphInfo(ctx context.Context, dataset string) (GraphInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.graphs[dataset]
	if !ok {
		return GraphInfo{}, fmt.Errorf("dataset %s: %w", dataset, ErrGraphNotFound)
	}
	return stored.info, nil
}

// ListGraphs implements GraphStore.
func (m *MemoryStore) ListGraphs(ctx context.Context) ([]GraphInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]GraphInfo, 0, len(m.graphs))
	for _, stored := range m.graphs {
		infos = append(infos, stored.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Dataset < infos[j].Dataset })
	return infos, nil
}

// DeleteGraph implements GraphStore.
func (m *MemoryStore) DeleteGraph(ctx context.Context, dataset string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readOnly {
		return ErrReadOnly
	}
	delete(m.graphs, dataset)
	return nil
}
