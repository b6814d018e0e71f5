package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityMap_Resolutions(t *testing.T) {
	t.Parallel()

	m := CommunityMap{
		1.5: nil,
		0.0: {{"a", "b"}},
		0.5: {{"a"}, {"b"}},
	}
	assert.Equal(t, []float64{0.0, 0.5, 1.5}, m.Resolutions())
	assert.Empty(t, CommunityMap{}.Resolutions())
}

func TestCommunities_SizesAndIndex(t *testing.T) {
	t.Parallel()

	c := Communities{{"lupus", "dominus"}, {"rosa"}, {"puella", "lupus"}}
	assert.Equal(t, []int{2, 1, 2}, c.Sizes())

	index := c.MemberIndex()
	assert.Equal(t, 0, index["lupus"], "first community wins")
	assert.Equal(t, 1, index["rosa"])
	assert.Equal(t, 2, index["puella"])
	_, ok := index["urbs"]
	assert.False(t, ok)
}

func TestFormatResolution(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		0:    "0.0",
		0.1:  "0.1",
		2:    "2.0",
		1.25: "1.25",
		50:   "50.0",
	}
	for r, want := range tests {
		got := FormatResolution(r)
		assert.Equal(t, want, got)

		back, err := ParseResolution(got)
		require.NoError(t, err)
		assert.Equal(t, r, back)
	}

	_, err := ParseResolution("fine")
	assert.Error(t, err)
}
