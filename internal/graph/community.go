package graph

import (
	"sort"
	"strconv"
	"strings"
)

// Community is a set of lexeme ids found together at one resolution.
type Community []string

// Communities is the ordered list of lexeme communities found at one
// resolution, i.e. a partition of the lexemes.
type Communities []Community

// CommunityMap maps each resolution to its lexeme communities.
type CommunityMap map[float64]Communities

// Resolutions returns the resolutions in ascending order.
func (m CommunityMap) Resolutions() []float64 {
	res := make([]float64, 0, len(m))
	for r := range m {
		res = append(res, r)
	}
	sort.Float64s(res)
	return res
}

// Sizes returns the number of members of each community.
func (c Communities) Sizes() []int {
	sizes := make([]int, len(c))
	for i, members := range c {
		sizes[i] = len(members)
	}
	return sizes
}

// MemberIndex maps each lexeme to the first community containing it.
func (c Communities) MemberIndex() map[string]int {
	index := make(map[string]int)
	for i, members := range c {
		for _, id := range members {
			if _, ok := index[id]; !ok {
				index[id] = i
			}
		}
	}
	return index
}

// FormatResolution renders a resolution as a decimal string that always
// carries a fractional part ("0.0", "0.1", "2.0").
func FormatResolution(r float64) string {
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseResolution parses a resolution rendered by FormatResolution.
func ParseResolution(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
