package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/morphnet/internal/formatives"
	"github.com/Benny93/morphnet/internal/graph"
	"github.com/Benny93/morphnet/internal/storage"
)

func TestPairCoefficient(t *testing.T) {
	t.Parallel()

	t.Run("PartialNesting", func(t *testing.T) {
		coarser := graph.Communities{{"a", "b", "c"}, {"d"}}
		finer := graph.Communities{{"a", "b"}, {"c", "d"}, {"e"}}

		c := PairCoefficient(coarser, finer)
		assert.False(t, c.AllSingletons)
		assert.Equal(t, []float64{1.0, 0.0}, c.Scores)
		assert.Equal(t, 0.5, c.Average())
		assert.Equal(t, "0.5", c.AverageLabel())
	})

	t.Run("ThreeMemberCommunity", func(t *testing.T) {
		coarser := graph.Communities{{"a", "b"}, {"c"}}
		finer := graph.Communities{{"a", "b", "c"}}

		c := PairCoefficient(coarser, finer)
		require.Len(t, c.Scores, 1)
		assert.InDelta(t, 1.0/3.0, c.Scores[0], 1e-12)
	})

	t.Run("MissingFromCoarser", func(t *testing.T) {
		coarser := graph.Communities{{"b"}}
		finer := graph.Communities{{"a", "b"}}

		c := PairCoefficient(coarser, finer)
		assert.Equal(t, []float64{0.0}, c.Scores)
	})

	t.Run("AllSingletons", func(t *testing.T) {
		coarser := graph.Communities{{"a", "b"}}
		finer := graph.Communities{{"a"}, {"b"}}

		c := PairCoefficient(coarser, finer)
		assert.True(t, c.AllSingletons)
		assert.Nil(t, c.Scores)
		assert.Equal(t, AllSingletonsLabel, c.AverageLabel())
	})

	t.Run("EmptyFiner", func(t *testing.T) {
		c := PairCoefficient(graph.Communities{{"a"}}, graph.Communities{})
		assert.False(t, c.AllSingletons)
		assert.Empty(t, c.Scores)
		assert.Equal(t, 0.0, c.Average())
		assert.Equal(t, "0.0", c.AverageLabel())
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	communities := graph.CommunityMap{
		0.0: {{"a", "b", "c", "d"}},
		0.5: {{"a", "b"}, {"c", "d"}},
		1.0: {{"a"}, {"b"}, {"c"}, {"d"}},
	}

	coeffs, err := Analyze(communities, []float64{0.0, 0.5, 1.0})
	require.NoError(t, err)
	require.Len(t, coeffs, 2)

	assert.Equal(t, "0.0_0.5", coeffs[0].Key())
	assert.Equal(t, []float64{1.0, 1.0}, coeffs[0].Scores)
	assert.Equal(t, "0.5_1.0", coeffs[1].Key())
	assert.True(t, coeffs[1].AllSingletons)

	for _, c := range coeffs {
		for _, s := range c.Scores {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}

	rows := Report(coeffs, communities)
	assert.Equal(t, []storage.HierarchyRow{
		{Pair: "0.0_0.5", Average: "1.0", NCommsUpper: 2, NCommsLower: 1},
		{Pair: "0.5_1.0", Average: AllSingletonsLabel, NCommsUpper: 4, NCommsLower: 2},
	}, rows)
}

func TestAnalyze_Errors(t *testing.T) {
	t.Parallel()

	communities := graph.CommunityMap{0.0: {{"a"}}, 1.0: {{"a"}}}

	_, err := Analyze(communities, []float64{1.0, 0.0})
	assert.ErrorIs(t, err, ErrUnsortedSweep)

	_, err = Analyze(communities, []float64{0.0, 0.0})
	assert.ErrorIs(t, err, ErrUnsortedSweep)

	_, err = Analyze(communities, []float64{0.0, 0.5, 1.0})
	assert.ErrorIs(t, err, ErrMissingResolution)

	coeffs, err := Analyze(communities, []float64{0.0})
	require.NoError(t, err)
	assert.Empty(t, coeffs)

	coeffs, err = Analyze(communities, nil)
	require.NoError(t, err)
	assert.Empty(t, coeffs)
}

func TestAnalyze_EndToEndSingletonSentinel(t *testing.T) {
	t.Parallel()

	tbl := formatives.NewTable([]string{"NOM.SG"})
	for _, lex := range []string{"l1", "l2", "l3"} {
		require.NoError(t, tbl.AddRow(lex, map[string][]string{"NOM.SG": {"a"}}))
	}
	g, err := Build(tbl)
	require.NoError(t, err)

	sweep := []float64{0.0, 50.0}
	communities, err := NewDetector(DefaultSeed, nil).Detect(context.Background(), g, sweep)
	require.NoError(t, err)

	require.Len(t, communities[0.0], 1)
	assert.ElementsMatch(t, []string{"l1", "l2", "l3"}, communities[0.0][0])
	assert.Len(t, communities[50.0], 3)

	coeffs, err := Analyze(communities, sweep)
	require.NoError(t, err)
	require.Len(t, coeffs, 1)
	assert.Equal(t, "0.0_50.0", coeffs[0].Key())
	assert.True(t, coeffs[0].AllSingletons)
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.0", FormatFloat(0))
	assert.Equal(t, "1.0", FormatFloat(1))
	assert.Equal(t, "0.5", FormatFloat(0.5))
	assert.Equal(t, "0.8333333333333334", FormatFloat(5.0/6.0))
}
