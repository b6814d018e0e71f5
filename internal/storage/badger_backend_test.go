package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/morphnet/internal/graph"
)

func setupTestBadgerStore(t *testing.T) (*BadgerStore, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "badger")

	store := NewBadgerStore()
	err := store.Initialize(dbPath, false)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
	}

	return store, cleanup
}

// sampleGraph links two lexemes to three exponents.
func sampleGraph(t *testing.T) *graph.BipartiteGraph {
	t.Helper()

	g := graph.NewBipartiteGraph()
	require.NoError(t, g.AddNode(&graph.Node{ID: "lupus", Partition: graph.PartitionLexeme}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "rosa", Partition: graph.PartitionLexeme}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "#us-NOM.SG", Partition: graph.PartitionExponent, Triphone: "#us", Cell: "NOM.SG"}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "us#-NOM.SG", Partition: graph.PartitionExponent, Triphone: "us#", Cell: "NOM.SG"}))
	require.NoError(t, g.AddNode(&graph.Node{ID: "#a#-NOM.SG", Partition: graph.PartitionExponent, Triphone: "#a#", Cell: "NOM.SG"}))
	require.NoError(t, g.AddEdge("lupus", "#us-NOM.SG", 1))
	require.NoError(t, g.AddEdge("lupus", "us#-NOM.SG", 1))
	require.NoError(t, g.AddEdge("rosa", "#a#-NOM.SG", 0.5))
	return g
}

func nodeIDs(g *graph.BipartiteGraph) []string {
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestBadgerStore_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "badger")

		store := NewBadgerStore()
		err := store.Initialize(dbPath, false)

		assert.NoError(t, err)
		assert.NotNil(t, store.db)
		assert.True(t, store.initialized)

		store.Close()
	})

	t.Run("ReadOnly", func(t *testing.T) {
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "badger")

		store1 := NewBadgerStore()
		require.NoError(t, store1.Initialize(dbPath, false))
		store1.Close()

		store2 := NewBadgerStore()
		err := store2.Initialize(dbPath, true)
		assert.NoError(t, err)
		assert.True(t, store2.initialized)

		_, err = store2.SaveGraph(context.Background(), "latin_original", graph.NewBipartiteGraph(), "")
		assert.ErrorIs(t, err, ErrReadOnly)

		store2.Close()
	})

	t.Run("InvalidPath", func(t *testing.T) {
		store := NewBadgerStore()
		err := store.Initialize("/nonexistent/path/that/does/not/exist", false)

		assert.Error(t, err)
	})
}

func TestBadgerStore_SaveLoadGraph(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()

	g := sampleGraph(t)

	info, err := store.SaveGraph(ctx, "latin_original", g, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "latin_original", info.Dataset)
	assert.Equal(t, 5, info.Nodes)
	assert.Equal(t, 2, info.Lexemes)
	assert.Equal(t, 3, info.Exponents)
	assert.Equal(t, 3, info.Edges)
	assert.Equal(t, "run-1", info.RunID)

	loaded, err := store.LoadGraph(ctx, "latin_original")
	require.NoError(t, err)

	assert.Equal(t, nodeIDs(g), nodeIDs(loaded))
	assert.Equal(t, g.Stats(), loaded.Stats())

	for _, e := range g.Edges() {
		got, ok := loaded.GetEdge(e.Lexeme, e.Exponent)
		require.True(t, ok, "edge %s-%s", e.Lexeme, e.Exponent)
		assert.Equal(t, e.Weight, got.Weight)
	}

	exp := loaded.GetNode("#us-NOM.SG")
	require.NotNil(t, exp)
	assert.Equal(t, graph.PartitionExponent, exp.Partition)
	assert.Equal(t, "#us", exp.Triphone)
	assert.Equal(t, "NOM.SG", exp.Cell)
}

func TestBadgerStore_InsertionOrderBeyondTen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()

	g := graph.NewBipartiteGraph()
	var want []string
	for _, id := range []string{"z", "y", "x", "w", "v", "u", "t", "s", "r", "q", "p", "o"} {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, Partition: graph.PartitionLexeme}))
		want = append(want, id)
	}

	_, err := store.SaveGraph(ctx, "order_original", g, "")
	require.NoError(t, err)

	loaded, err := store.LoadGraph(ctx, "order_original")
	require.NoError(t, err)
	assert.Equal(t, want, nodeIDs(loaded))
}

func TestBadgerStore_SaveReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()

	_, err := store.SaveGraph(ctx, "latin_original", sampleGraph(t), "")
	require.NoError(t, err)

	small := graph.NewBipartiteGraph()
	require.NoError(t, small.AddNode(&graph.Node{ID: "only", Partition: graph.PartitionLexeme}))
	_, err = store.SaveGraph(ctx, "latin_original", small, "")
	require.NoError(t, err)

	loaded, err := store.LoadGraph(ctx, "latin_original")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, nodeIDs(loaded))
	assert.Equal(t, 0, loaded.EdgeCount())
}

func TestBadgerStore_DatasetIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()

	_, err := store.SaveGraph(ctx, "latin", graph.NewBipartiteGraph(), "")
	require.NoError(t, err)
	_, err = store.SaveGraph(ctx, "latin_original", sampleGraph(t), "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteGraph(ctx, "latin"))

	_, err = store.LoadGraph(ctx, "latin")
	assert.ErrorIs(t, err, ErrGraphNotFound)

	loaded, err := store.LoadGraph(ctx, "latin_original")
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.NodeCount())
}

func TestBadgerStore_ListGraphs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()

	infos, err := store.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	_, err = store.SaveGraph(ctx, "latin_original", sampleGraph(t), "")
	require.NoError(t, err)
	_, err = store.SaveGraph(ctx, "greek_allshuffled", sampleGraph(t), "")
	require.NoError(t, err)

	infos, err = store.ListGraphs(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "greek_allshuffled", infos[0].Dataset)
	assert.Equal(t, "latin_original", infos[1].Dataset)

	info, err := store.GraphInfo(ctx, "latin_original")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Edges)
}

func TestBadgerStore_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, cleanup := setupTestBadgerStore(t)
	defer cleanup()

	t.Run("MissingGraph", func(t *testing.T) {
		_, err := store.LoadGraph(ctx, "missing_original")
		assert.ErrorIs(t, err, ErrGraphNotFound)

		_, err = store.GraphInfo(ctx, "missing_original")
		assert.ErrorIs(t, err, ErrGraphNotFound)
	})

	t.Run("InvalidDataset", func(t *testing.T) {
		_, err := store.SaveGraph(ctx, "bad:name", graph.NewBipartiteGraph(), "")
		assert.ErrorIs(t, err, ErrInvalidDataset)

		_, err = store.LoadGraph(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidDataset)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NoError(t, store.DeleteGraph(ctx, "missing_original"))
	})
}

func TestBadgerStore_NotInitialized(t *testing.T) {
	t.Parallel()

	store := NewBadgerStore()
	_, err := store.LoadGraph(context.Background(), "latin_original")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, store.Close())
}
