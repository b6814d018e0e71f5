package graph

import "sort"

// ProjectedEdge links two lexemes that share exponent neighbors.
type ProjectedEdge struct {
	Source string
	Target string

	// Weight is the number of exponent nodes both lexemes attach to.
	Weight float64
}

// Projection is the one-mode lexeme graph derived from a bipartite graph.
type Projection struct {
	Lexemes []string
	Edges   []ProjectedEdge
}

// ProjectLexemes projects the bipartite graph onto its lexeme partition.
// Two lexemes are linked when they share at least one exponent node; the link
// weight counts the shared exponents. Edges are ordered by the insertion order
// of their endpoints.
func ProjectLexemes(g *BipartiteGraph) *Projection {
	lexemes := g.NodesByPartition(PartitionLexeme)
	index := make(map[string]int, len(lexemes))
	proj := &Projection{Lexemes: make([]string, len(lexemes))}
	for i, n := range lexemes {
		index[n.ID] = i
		proj.Lexemes[i] = n.ID
	}

	type pair struct{ a, b int }
	shared := make(map[pair]float64)

	for _, exp := range g.NodesByPartition(PartitionExponent) {
		incident := g.Incident(exp.ID)
		for i := 0; i < len(incident); i++ {
			for j := i + 1; j < len(incident); j++ {
				a, b := index[incident[i].Lexeme], index[incident[j].Lexeme]
				if a > b {
					a, b = b, a
				}
				shared[pair{a, b}]++
			}
		}
	}

	pairs := make([]pair, 0, len(shared))
	for p := range shared {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	proj.Edges = make([]ProjectedEdge, 0, len(pairs))
	for _, p := range pairs {
		proj.Edges = append(proj.Edges, ProjectedEdge{
			Source: proj.Lexemes[p.a],
			Target: proj.Lexemes[p.b],
			Weight: shared[p],
		})
	}
	return proj
}
