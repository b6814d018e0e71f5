package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Benny93/morphnet/internal/graph"
	"github.com/Benny93/morphnet/internal/storage"
)

// AllSingletonsLabel is reported instead of an average when every community
// at the finer resolution holds a single lexeme.
const AllSingletonsLabel = "Every lexeme in its own community"

// Coefficient is the nesting measure for one adjacent resolution pair.
type Coefficient struct {
	// Lower is the coarser (smaller) resolution.
	Lower float64

	// Upper is the finer (larger) resolution whose communities are scored.
	Upper float64

	// AllSingletons is set when every finer community has one member.
	// Scores is nil in that case.
	AllSingletons bool

	// Scores holds one value in [0,1] per multi-lexeme finer community, in
	// community order.
	Scores []float64
}

// Key renders the pair as "lower_upper", e.g. "0.1_0.2".
func (c Coefficient) Key() string {
	return PairKey(c.Lower, c.Upper)
}

// PairKey renders a resolution pair as "lower_upper".
func PairKey(lower, upper float64) string {
	return graph.FormatResolution(lower) + "_" + graph.FormatResolution(upper)
}

// Average returns the mean score; no scores average to 0.
func (c Coefficient) Average() float64 {
	if len(c.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.Scores {
		sum += s
	}
	return sum / float64(len(c.Scores))
}

// AverageLabel returns the average for reporting, or AllSingletonsLabel.
func (c Coefficient) AverageLabel() string {
	if c.AllSingletons {
		return AllSingletonsLabel
	}
	return FormatFloat(c.Average())
}

// FormatFloat renders a float in shortest form with a fractional part.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// Analyze scores every adjacent pair of sweep, ascending. The sweep must be
// strictly ascending and every resolution must have a partition.
func Analyze(communities graph.CommunityMap, sweep []float64) ([]Coefficient, error) {
	if err := ValidateSweep(sweep); err != nil {
		return nil, err
	}
	for _, r := range sweep {
		if _, ok := communities[r]; !ok {
			return nil, fmt.Errorf("resolution %s: %w", graph.FormatResolution(r), ErrMissingResolution)
		}
	}

	if len(sweep) < 2 {
		return []Coefficient{}, nil
	}

	out := make([]Coefficient, 0, len(sweep)-1)
	for i := 0; i+1 < len(sweep); i++ {
		lower, upper := sweep[i], sweep[i+1]
		c := PairCoefficient(communities[lower], communities[upper])
		c.Lower, c.Upper = lower, upper
		out = append(out, c)
	}
	return out, nil
}

// PairCoefficient scores how well the finer communities nest in coarser.
// For every multi-lexeme finer community, the score is the fraction of its
// lexeme pairs that share a coarser community. Cost grows with the square of
// community size.
func PairCoefficient(coarser, finer graph.Communities) Coefficient {
	if len(finer) > 0 && allSingletons(finer) {
		return Coefficient{AllSingletons: true}
	}

	index := coarser.MemberIndex()
	scores := []float64{}
	for _, c := range finer {
		if len(c) < 2 {
			continue
		}
		scores = append(scores, nestingScore(c, coarser, index))
	}
	return Coefficient{Scores: scores}
}

func nestingScore(c graph.Community, coarser graph.Communities, index map[string]int) float64 {
	members := make(map[int]map[string]struct{})
	hits, pairs := 0, 0
	for i := 0; i < len(c); i++ {
		home, ok := index[c[i]]
		for j := i + 1; j < len(c); j++ {
			pairs++
			if !ok {
				continue
			}
			set, cached := members[home]
			if !cached {
				set = memberSet(coarser[home])
				members[home] = set
			}
			if _, shared := set[c[j]]; shared {
				hits++
			}
		}
	}
	return float64(hits) / float64(pairs)
}

func memberSet(c graph.Community) map[string]struct{} {
	set := make(map[string]struct{}, len(c))
	for _, id := range c {
		set[id] = struct{}{}
	}
	return set
}

func allSingletons(c graph.Communities) bool {
	for _, members := range c {
		if len(members) != 1 {
			return false
		}
	}
	return true
}

// Report summarizes coefficients with community counts at both resolutions.
func Report(coeffs []Coefficient, communities graph.CommunityMap) []storage.HierarchyRow {
	rows := make([]storage.HierarchyRow, len(coeffs))
	for i, c := range coeffs {
		rows[i] = storage.HierarchyRow{
			Pair:        c.Key(),
			Average:     c.AverageLabel(),
			NCommsUpper: len(communities[c.Upper]),
			NCommsLower: len(communities[c.Lower]),
		}
	}
	return rows
}
