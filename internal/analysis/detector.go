package analysis

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Benny93/morphnet/internal/graph"
)

// DefaultSeed fixes the clustering randomness when no seed is configured.
const DefaultSeed int64 = 42

// Detector runs a clusterer across a resolution sweep and keeps the lexeme
// side of every partition.
type Detector struct {
	Clusterer Clusterer
	Seed      int64

	// Workers bounds concurrent resolutions. Zero means GOMAXPROCS.
	Workers int

	Logger *zap.Logger
}

// NewDetector returns a Louvain detector with the given seed.
func NewDetector(seed int64, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		Clusterer: Louvain{},
		Seed:      seed,
		Logger:    logger,
	}
}

// Detect clusters g at every resolution in sweep. Each resolution maps to
// its lexeme communities: exponent nodes are dropped, communities left empty
// are removed and the clusterer's community order is kept. Every resolution
// uses the same seed.
func (d *Detector) Detect(ctx context.Context, g *graph.BipartiteGraph, sweep []float64) (graph.CommunityMap, error) {
	if err := ValidateSweep(sweep); err != nil {
		return nil, err
	}

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clusterer := d.Clusterer
	if clusterer == nil {
		clusterer = Louvain{}
	}

	lexemes := g.LexemeSet()
	results := make([]graph.Communities, len(sweep))

	if len(lexemes) == 0 {
		out := make(graph.CommunityMap, len(sweep))
		for _, r := range sweep {
			out[r] = graph.Communities{}
		}
		return out, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.workers())

	for i, r := range sweep {
		eg.Go(func() error {
			communities, err := clusterer.Cluster(egCtx, g, r, d.Seed)
			if err != nil {
				return fmt.Errorf("clustering at resolution %s: %w", graph.FormatResolution(r), err)
			}
			results[i] = ProjectCommunities(communities, lexemes)
			logger.Debug("resolution clustered",
				zap.Float64("resolution", r),
				zap.Int("communities", len(results[i])))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(graph.CommunityMap, len(sweep))
	for i, r := range sweep {
		out[r] = results[i]
	}
	return out, nil
}

func (d *Detector) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ProjectCommunities keeps only lexeme members and drops communities that
// become empty, preserving order.
func ProjectCommunities(communities [][]string, lexemes map[string]struct{}) graph.Communities {
	out := make(graph.Communities, 0, len(communities))
	for _, c := range communities {
		var kept graph.Community
		for _, id := range c {
			if _, ok := lexemes[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}
