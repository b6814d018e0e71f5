package analysis

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/morphnet/internal/graph"
)

// twoClusterGraph has two disconnected complete bipartite blocks:
// {A,B}x{x1,x2} and {C,D}x{y1,y2}.
func twoClusterGraph(t *testing.T) *graph.BipartiteGraph {
	t.Helper()

	g := graph.NewBipartiteGraph()
	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, Partition: graph.PartitionLexeme}))
	}
	for _, id := range []string{"x1", "x2", "y1", "y2"} {
		require.NoError(t, g.AddNode(&graph.Node{ID: id, Partition: graph.PartitionExponent}))
	}
	for _, lex := range []string{"A", "B"} {
		require.NoError(t, g.AddEdge(lex, "x1", 1))
		require.NoError(t, g.AddEdge(lex, "x2", 1))
	}
	for _, lex := range []string{"C", "D"} {
		require.NoError(t, g.AddEdge(lex, "y1", 1))
		require.NoError(t, g.AddEdge(lex, "y2", 1))
	}
	return g
}

func normalize(communities [][]string) [][]string {
	out := make([][]string, len(communities))
	for i, c := range communities {
		sorted := append([]string{}, c...)
		sort.Strings(sorted)
		out[i] = sorted
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestLouvain_Cluster(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	g := twoClusterGraph(t)

	t.Run("SeparatesComponents", func(t *testing.T) {
		got, err := Louvain{}.Cluster(ctx, g, 1.0, 42)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"A", "B", "x1", "x2"},
			{"C", "D", "y1", "y2"},
		}, normalize(got))
	})

	t.Run("ZeroResolutionMergesComponents", func(t *testing.T) {
		got, err := Louvain{}.Cluster(ctx, g, 0.0, 42)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("HighResolutionIsolatesNodes", func(t *testing.T) {
		got, err := Louvain{}.Cluster(ctx, g, 50.0, 42)
		require.NoError(t, err)
		assert.Len(t, got, 8)
	})

	t.Run("CoversEveryNodeOnce", func(t *testing.T) {
		for _, r := range []float64{0, 0.5, 1, 1.5, 2} {
			got, err := Louvain{}.Cluster(ctx, g, r, 7)
			require.NoError(t, err)

			seen := make(map[string]int)
			for _, c := range got {
				assert.NotEmpty(t, c)
				for _, id := range c {
					seen[id]++
				}
			}
			assert.Len(t, seen, g.NodeCount())
			for id, n := range seen {
				assert.Equal(t, 1, n, id)
			}
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		first, err := Louvain{}.Cluster(ctx, g, 1.0, 3)
		require.NoError(t, err)
		second, err := Louvain{}.Cluster(ctx, g, 1.0, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestLouvain_EdgeCases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("EmptyGraph", func(t *testing.T) {
		got, err := Louvain{}.Cluster(ctx, graph.NewBipartiteGraph(), 1.0, 42)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("NoEdges", func(t *testing.T) {
		g := graph.NewBipartiteGraph()
		require.NoError(t, g.AddNode(&graph.Node{ID: "A", Partition: graph.PartitionLexeme}))
		require.NoError(t, g.AddNode(&graph.Node{ID: "B", Partition: graph.PartitionLexeme}))

		got, err := Louvain{}.Cluster(ctx, g, 1.0, 42)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"A"}, {"B"}}, got)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Louvain{}.Cluster(cctx, twoClusterGraph(t), 1.0, 42)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLevelGraph_Modularity(t *testing.T) {
	t.Parallel()

	g := twoClusterGraph(t)
	lg := newLevelGraph(g, nodeIDs(g))

	// Nodes are A,B,C,D,x1,x2,y1,y2; blocks are {A,B,x1,x2} and {C,D,y1,y2}.
	blocks := []int{0, 0, 1, 1, 0, 0, 1, 1}
	assert.InDelta(t, 0.5, lg.modularity(blocks, 1.0), 1e-12)
	assert.InDelta(t, 1.0, lg.modularity(blocks, 0.0), 1e-12)

	aggregated := lg.aggregate(blocks, 2)
	assert.Equal(t, 2, aggregated.n)
	assert.Equal(t, []float64{4, 4}, aggregated.selfLoop)
	assert.Equal(t, []float64{8, 8}, aggregated.degree)
	assert.InDelta(t, 0.5, aggregated.modularity([]int{0, 1}, 1.0), 1e-12)
}

func nodeIDs(g *graph.BipartiteGraph) []string {
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestCompactCommunities(t *testing.T) {
	t.Parallel()

	compact, count := compactCommunities([]int{3, 3, 0, 4, 0})
	assert.Equal(t, 3, count)
	assert.Equal(t, []int{1, 1, 0, 2, 0}, compact)
}
