package formatives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReserved(t *testing.T) {
	t.Parallel()

	assert.True(t, IsReserved("stem"))
	assert.True(t, IsReserved("STEM"))
	assert.False(t, IsReserved("NOM.SG"))
}

func TestTable_AddRow(t *testing.T) {
	t.Parallel()

	t.Run("FillsMissingColumns", func(t *testing.T) {
		t.Parallel()
		tbl := NewTable([]string{"stem", "NOM.SG", "GEN.SG"})

		require.NoError(t, tbl.AddRow("grad", map[string][]string{"NOM.SG": {"a"}}))

		row, ok := tbl.Row("grad")
		require.True(t, ok)
		assert.Equal(t, []string{"a"}, row.Exponents("NOM.SG"))
		assert.Nil(t, row.Exponents("GEN.SG"))
		assert.Contains(t, row.Cells, "GEN.SG")
	})

	t.Run("RejectsDuplicate", func(t *testing.T) {
		t.Parallel()
		tbl := NewTable([]string{"NOM.SG"})

		require.NoError(t, tbl.AddRow("grad", nil))
		err := tbl.AddRow("grad", nil)

		assert.ErrorIs(t, err, ErrDuplicateLexeme)
		assert.Equal(t, 1, tbl.Len())
	})

	t.Run("RejectsUnknownColumn", func(t *testing.T) {
		t.Parallel()
		tbl := NewTable([]string{"NOM.SG"})

		err := tbl.AddRow("grad", map[string][]string{"DAT.SG": {"u"}})

		assert.ErrorIs(t, err, ErrUnknownColumn)
	})

	t.Run("CopiesInput", func(t *testing.T) {
		t.Parallel()
		tbl := NewTable([]string{"NOM.SG"})
		exps := []string{"a"}

		require.NoError(t, tbl.AddRow("grad", map[string][]string{"NOM.SG": exps}))
		exps[0] = "mutated"

		row, _ := tbl.Row("grad")
		assert.Equal(t, []string{"a"}, row.Exponents("NOM.SG"))
	})
}

func TestTable_Columns(t *testing.T) {
	t.Parallel()

	tbl := NewTable([]string{"stem", "NOM.SG", "STEM", "GEN.SG"})

	assert.Equal(t, []string{"stem", "NOM.SG", "STEM", "GEN.SG"}, tbl.Columns())
	assert.Equal(t, []string{"NOM.SG", "GEN.SG"}, tbl.CellColumns())
}

func TestTable_Summarize(t *testing.T) {
	t.Parallel()

	tbl := NewTable([]string{"NOM.SG", "GEN.SG"})
	require.NoError(t, tbl.AddRow("a", map[string][]string{"NOM.SG": {"x"}}))
	require.NoError(t, tbl.AddRow("b", map[string][]string{"NOM.SG": {"y"}, "GEN.SG": {}}))

	s := tbl.Summarize()

	assert.Equal(t, 2, s.Lexemes)
	assert.Equal(t, 0, s.Missing["NOM.SG"])
	assert.Equal(t, 1, s.Missing["GEN.SG"])
	assert.Equal(t, []string{"a", "b"}, tbl.Lexemes())
}
