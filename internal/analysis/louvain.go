package analysis

import (
	"context"
	"math/rand"
	"sort"

	"github.com/Benny93/morphnet/internal/graph"
)

// DefaultThreshold is the minimum modularity improvement for another level.
const DefaultThreshold = 1e-7

// Clusterer partitions the nodes of a graph at one resolution.
// Implementations must be deterministic for a given seed.
type Clusterer interface {
	Cluster(ctx context.Context, g *graph.BipartiteGraph, resolution float64, seed int64) ([][]string, error)
}

// Louvain is a multi-level modularity clusterer with a resolution parameter.
// Higher resolutions yield more, smaller communities; resolution 0 merges
// whole connected components.
type Louvain struct {
	// Threshold stops aggregation once a level improves modularity by no more
	// than this. Zero means DefaultThreshold.
	Threshold float64

	// MaxLevels caps the number of aggregation levels. Zero means no cap.
	MaxLevels int
}

// Cluster returns communities of node ids covering every node exactly once.
func (l Louvain) Cluster(ctx context.Context, g *graph.BipartiteGraph, resolution float64, seed int64) ([][]string, error) {
	nodes := g.Nodes()
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	lg := newLevelGraph(g, ids)
	groups, err := l.run(ctx, lg, resolution, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	communities := make([][]string, len(groups))
	for i, members := range groups {
		community := make([]string, len(members))
		for j, idx := range members {
			community[j] = ids[idx]
		}
		communities[i] = community
	}
	return communities, nil
}

func (l Louvain) threshold() float64 {
	if l.Threshold > 0 {
		return l.Threshold
	}
	return DefaultThreshold
}

// run optimizes modularity level by level and returns the last partition as
// groups of original node indices.
func (l Louvain) run(ctx context.Context, lg *levelGraph, resolution float64, rng *rand.Rand) ([][]int, error) {
	partition := lg.members
	m := lg.totalWeight()
	if m == 0 {
		return partition, nil
	}

	mod := lg.modularity(identity(lg.n), resolution)
	node2com, _ := lg.oneLevel(m, resolution, rng)

	for level := 1; ; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		compact, count := compactCommunities(node2com)
		partition = lg.mergeMembers(compact, count)

		newMod := lg.modularity(compact, resolution)
		if newMod-mod <= l.threshold() {
			return partition, nil
		}
		if l.MaxLevels > 0 && level >= l.MaxLevels {
			return partition, nil
		}
		mod = newMod

		lg = lg.aggregate(compact, count)
		var improved bool
		node2com, improved = lg.oneLevel(m, resolution, rng)
		if !improved {
			return partition, nil
		}
	}
}

type neighbor struct {
	to     int
	weight float64
}

// levelGraph is the weighted undirected graph optimized at one level.
// Node i of an aggregated level stands for the original nodes in members[i].
type levelGraph struct {
	n        int
	adj      [][]neighbor
	selfLoop []float64
	degree   []float64
	members  [][]int
}

func newLevelGraph(g *graph.BipartiteGraph, ids []string) *levelGraph {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	lg := &levelGraph{
		n:        len(ids),
		adj:      make([][]neighbor, len(ids)),
		selfLoop: make([]float64, len(ids)),
		members:  make([][]int, len(ids)),
	}
	for i := range ids {
		lg.members[i] = []int{i}
	}
	for _, e := range g.Edges() {
		u, v := index[e.Lexeme], index[e.Exponent]
		lg.adj[u] = append(lg.adj[u], neighbor{to: v, weight: e.Weight})
		lg.adj[v] = append(lg.adj[v], neighbor{to: u, weight: e.Weight})
	}
	lg.computeDegrees()
	return lg
}

// computeDegrees sets weighted degrees; a self loop counts twice.
func (lg *levelGraph) computeDegrees() {
	lg.degree = make([]float64, lg.n)
	for u := 0; u < lg.n; u++ {
		d := 2 * lg.selfLoop[u]
		for _, nb := range lg.adj[u] {
			d += nb.weight
		}
		lg.degree[u] = d
	}
}

func (lg *levelGraph) totalWeight() float64 {
	var sum float64
	for _, d := range lg.degree {
		sum += d
	}
	return sum / 2
}

// oneLevel moves single nodes between neighboring communities until no move
// improves modularity. Returns each node's community slot and whether any
// node moved.
func (lg *levelGraph) oneLevel(m, resolution float64, rng *rand.Rand) ([]int, bool) {
	node2com := identity(lg.n)
	stot := make([]float64, lg.n)
	copy(stot, lg.degree)

	order := identity(lg.n)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	twoM2 := 2 * m * m
	improved := false
	weights := newCommunityWeights()

	for moves := 1; moves > 0; {
		moves = 0
		for _, u := range order {
			current := node2com[u]
			weights.reset()
			for _, nb := range lg.adj[u] {
				if nb.to == u {
					continue
				}
				weights.add(node2com[nb.to], nb.weight)
			}

			deg := lg.degree[u]
			stot[current] -= deg
			removeCost := -weights.get(current)/m + resolution*stot[current]*deg/twoM2

			best, bestGain := current, 0.0
			for _, c := range weights.order {
				gain := removeCost + weights.w[c]/m - resolution*stot[c]*deg/twoM2
				if gain > bestGain {
					best, bestGain = c, gain
				}
			}
			stot[best] += deg

			if best != current {
				node2com[u] = best
				improved = true
				moves++
			}
		}
	}
	return node2com, improved
}

// modularity scores a community assignment of this level's nodes.
func (lg *levelGraph) modularity(node2com []int, resolution float64) float64 {
	var degSum float64
	for _, d := range lg.degree {
		degSum += d
	}
	if degSum == 0 {
		return 0
	}
	m := degSum / 2

	inner := make([]float64, lg.n)
	degs := make([]float64, lg.n)
	for u := 0; u < lg.n; u++ {
		c := node2com[u]
		degs[c] += lg.degree[u]
		inner[c] += lg.selfLoop[u]
		for _, nb := range lg.adj[u] {
			if nb.to > u && node2com[nb.to] == c {
				inner[c] += nb.weight
			}
		}
	}

	var q float64
	for c, d := range degs {
		if d == 0 && inner[c] == 0 {
			continue
		}
		q += inner[c]/m - resolution*d*d/(degSum*degSum)
	}
	return q
}

// mergeMembers returns the original node indices of each community.
func (lg *levelGraph) mergeMembers(compact []int, count int) [][]int {
	groups := make([][]int, count)
	for u := 0; u < lg.n; u++ {
		c := compact[u]
		groups[c] = append(groups[c], lg.members[u]...)
	}
	for _, g := range groups {
		sort.Ints(g)
	}
	return groups
}

// aggregate collapses each community into a single node. Edges inside a
// community become self loops; parallel edges are summed.
func (lg *levelGraph) aggregate(compact []int, count int) *levelGraph {
	next := &levelGraph{
		n:        count,
		adj:      make([][]neighbor, count),
		selfLoop: make([]float64, count),
		members:  lg.mergeMembers(compact, count),
	}

	type pair struct{ a, b int }
	weights := make(map[pair]float64)
	var order []pair

	for u := 0; u < lg.n; u++ {
		cu := compact[u]
		next.selfLoop[cu] += lg.selfLoop[u]
		for _, nb := range lg.adj[u] {
			if nb.to < u {
				continue
			}
			cv := compact[nb.to]
			if cu == cv {
				next.selfLoop[cu] += nb.weight
				continue
			}
			p := pair{cu, cv}
			if cv < cu {
				p = pair{cv, cu}
			}
			if _, ok := weights[p]; !ok {
				order = append(order, p)
			}
			weights[p] += nb.weight
		}
	}

	for _, p := range order {
		w := weights[p]
		next.adj[p.a] = append(next.adj[p.a], neighbor{to: p.b, weight: w})
		next.adj[p.b] = append(next.adj[p.b], neighbor{to: p.a, weight: w})
	}
	next.computeDegrees()
	return next
}

// communityWeights accumulates link weight per neighboring community in
// first-seen order.
type communityWeights struct {
	w     map[int]float64
	order []int
}

func newCommunityWeights() *communityWeights {
	return &communityWeights{w: make(map[int]float64)}
}

func (cw *communityWeights) reset() {
	for _, c := range cw.order {
		delete(cw.w, c)
	}
	cw.order = cw.order[:0]
}

func (cw *communityWeights) add(c int, w float64) {
	if _, ok := cw.w[c]; !ok {
		cw.order = append(cw.order, c)
	}
	cw.w[c] += w
}

func (cw *communityWeights) get(c int) float64 {
	return cw.w[c]
}

// compactCommunities renumbers community slots consecutively in slot order.
func compactCommunities(node2com []int) ([]int, int) {
	used := make([]bool, len(node2com))
	for _, c := range node2com {
		used[c] = true
	}
	renumber := make([]int, len(node2com))
	next := 0
	for slot, ok := range used {
		if ok {
			renumber[slot] = next
			next++
		}
	}
	compact := make([]int, len(node2com))
	for u, c := range node2com {
		compact[u] = renumber[c]
	}
	return compact, next
}

func identity(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
