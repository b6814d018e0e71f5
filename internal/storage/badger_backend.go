package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/morphnet/internal/graph"
)

// Key prefixes. Node and edge keys carry a zero-padded sequence number so
// that prefix iteration returns them in insertion order.
const (
	prefixMeta = "m:" // m:<dataset> -> GraphInfo
	prefixNode = "n:" // n:<dataset>:<seq> -> Node
	prefixEdge = "e:" // e:<dataset>:<seq> -> Edge
)

// BadgerStore is a BadgerDB-backed GraphStore.
type BadgerStore struct {
	db          *badger.DB
	initialized bool
	readOnly    bool
	mu          sync.RWMutex
}

// NewBadgerStore creates a new BadgerDB store.
func NewBadgerStore() *BadgerStore {
	return &BadgerStore{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerStore) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR)

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.readOnly = readOnly
	return nil
}

// Close releases all resources held by the store.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

func metaKey(dataset string) []byte {
	return []byte(prefixMeta + dataset)
}

func nodePrefix(dataset string) []byte {
	return []byte(prefixNode + dataset + ":")
}

func edgePrefix(dataset string) []byte {
	return []byte(prefixEdge + dataset + ":")
}

func seqKey(prefix []byte, seq int) []byte {
	return []byte(fmt.Sprintf("%s%010d", prefix, seq))
}

// SaveGraph replaces the stored graph of a dataset.
func (b *BadgerStore) SaveGraph(ctx context.Context, dataset string, g *graph.BipartiteGraph, runID string) (GraphInfo, error) {
	if err := ValidateDataset(dataset); err != nil {
		return GraphInfo{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return GraphInfo{}, ErrNotInitialized
	}
	if b.readOnly {
		return GraphInfo{}, ErrReadOnly
	}

	if err := b.dropDataset(dataset); err != nil {
		return GraphInfo{}, fmt.Errorf("clearing dataset %s: %w", dataset, err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for i, node := range g.Nodes() {
		if err := ctx.Err(); err != nil {
			return GraphInfo{}, err
		}
		data, err := json.Marshal(node)
		if err != nil {
			return GraphInfo{}, fmt.Errorf("marshaling node: %w", err)
		}
		if err := wb.Set(seqKey(nodePrefix(dataset), i), data); err != nil {
			return GraphInfo{}, fmt.Errorf("setting node: %w", err)
		}
	}

	for i, edge := range g.Edges() {
		data, err := json.Marshal(edge)
		if err != nil {
			return GraphInfo{}, fmt.Errorf("marshaling edge: %w", err)
		}
		if err := wb.Set(seqKey(edgePrefix(dataset), i), data); err != nil {
			return GraphInfo{}, fmt.Errorf("setting edge: %w", err)
		}
	}

	info := newGraphInfo(dataset, g, runID)
	data, err := json.Marshal(info)
	if err != nil {
		return GraphInfo{}, fmt.Errorf("marshaling graph info: %w", err)
	}
	if err := wb.Set(metaKey(dataset), data); err != nil {
		return GraphInfo{}, fmt.Errorf("setting graph info: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return GraphInfo{}, fmt.Errorf("flushing dataset %s: %w", dataset, err)
	}
	return info, nil
}

// LoadGraph reconstructs the graph of a dataset.
func (b *BadgerStore) LoadGraph(ctx context.Context, dataset string) (*graph.BipartiteGraph, error) {
	if err := ValidateDataset(dataset); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var nodes []*graph.Node
	var edges []*graph.Edge

	err := b.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(metaKey(dataset)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("dataset %s: %w", dataset, ErrGraphNotFound)
			}
			return fmt.Errorf("getting graph info: %w", err)
		}

		if err := scanPrefix(ctx, txn, nodePrefix(dataset), func(val []byte) error {
			var node graph.Node
			if err := json.Unmarshal(val, &node); err != nil {
				return fmt.Errorf("unmarshaling node: %w", err)
			}
			nodes = append(nodes, &node)
			return nil
		}); err != nil {
			return err
		}

		return scanPrefix(ctx, txn, edgePrefix(dataset), func(val []byte) error {
			var edge graph.Edge
			if err := json.Unmarshal(val, &edge); err != nil {
				return fmt.Errorf("unmarshaling edge: %w", err)
			}
			edges = append(edges, &edge)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return rebuild(nodes, edges)
}

// scanPrefix calls fn with every value under prefix, in key order.
func scanPrefix(ctx context.Context, txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// GraphInfo returns the metadata of a stored graph.
func (b *BadgerStore) GraphInfo(ctx context.Context, dataset string) (GraphInfo, error) {
	if err := ValidateDataset(dataset); err != nil {
		return GraphInfo{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return GraphInfo{}, ErrNotInitialized
	}

	var info GraphInfo
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(dataset))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("dataset %s: %w", dataset, ErrGraphNotFound)
		}
		if err != nil {
			return fmt.Errorf("getting graph info: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &info)
		})
	})
	return info, err
}

// ListGraphs returns metadata for every stored graph, sorted by dataset.
func (b *BadgerStore) ListGraphs(ctx context.Context) ([]GraphInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var infos []GraphInfo
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(ctx, txn, []byte(prefixMeta), func(val []byte) error {
			var info GraphInfo
			if err := json.Unmarshal(val, &info); err != nil {
				return fmt.Errorf("unmarshaling graph info: %w", err)
			}
			infos = append(infos, info)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Dataset < infos[j].Dataset })
	return infos, nil
}

// DeleteGraph removes a dataset's graph.
func (b *BadgerStore) DeleteGraph(ctx context.Context, dataset string) error {
	if err := ValidateDataset(dataset); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}
	if b.readOnly {
		return ErrReadOnly
	}

	if err := b.dropDataset(dataset); err != nil {
		return fmt.Errorf("deleting dataset %s: %w", dataset, err)
	}
	return nil
}

// dropDataset removes the metadata, nodes and edges of a dataset.
// The metadata key is deleted exactly since it prefixes longer dataset names.
func (b *BadgerStore) dropDataset(dataset string) error {
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(metaKey(dataset))
	}); err != nil {
		return err
	}
	return b.db.DropPrefix(nodePrefix(dataset), edgePrefix(dataset))
}
