// Package analysis provides the morphnet pipeline: triphone encoding, the
// bipartite graph builder, multi-resolution community detection and the
// hierarchy coefficient analysis.
package analysis

import "strconv"

// BoundaryMarker frames every exponent before it is split into triphones.
const BoundaryMarker = "#"

// Triphones splits an exponent into its boundary-padded 3-character windows,
// left to right. A padded exponent of at most three characters is returned
// whole. Windows are counted in runes.
func Triphones(exponent string) []string {
	padded := []rune(BoundaryMarker + exponent + BoundaryMarker)
	if len(padded) <= 3 {
		return []string{string(padded)}
	}

	windows := make([]string, 0, len(padded)-2)
	for i := 0; i+3 <= len(padded); i++ {
		windows = append(windows, string(padded[i:i+3]))
	}
	return windows
}

// TaggedExponent is a triphone bound to the cell it realizes. Ordinal
// distinguishes repeated occurrences of the same tag within one lexeme.
type TaggedExponent struct {
	Triphone string
	Cell     string
	Ordinal  int
}

// Tag returns the bare tag without the ordinal suffix, e.g. "#ab-NOM.SG".
func (t TaggedExponent) Tag() string {
	return t.Triphone + "-" + t.Cell
}

// String returns the node identity: the tag, plus "_<n>" for the n-th repeat.
func (t TaggedExponent) String() string {
	if t.Ordinal == 0 {
		return t.Tag()
	}
	return t.Tag() + "_" + strconv.Itoa(t.Ordinal)
}

// Disambiguate assigns ordinals to repeated tags in order of occurrence.
// The first occurrence keeps ordinal 0.
func Disambiguate(candidates []TaggedExponent) []TaggedExponent {
	seen := make(map[string]int, len(candidates))
	out := make([]TaggedExponent, len(candidates))
	for i, c := range candidates {
		tag := c.Tag()
		c.Ordinal = seen[tag]
		seen[tag]++
		out[i] = c
	}
	return out
}

// TagCell encodes the exponents of one cell into tagged triphones.
func TagCell(cell string, exponents []string) []TaggedExponent {
	var tagged []TaggedExponent
	for _, exp := range exponents {
		for _, tri := range Triphones(exp) {
			tagged = append(tagged, TaggedExponent{Triphone: tri, Cell: cell})
		}
	}
	return tagged
}
