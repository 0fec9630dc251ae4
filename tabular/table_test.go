package tabular_test

import (
	"testing"

	"github.com/datakit-io/datakit/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Validate(t *testing.T) {
	t.Run("rectangular table is valid", func(t *testing.T) {
		tbl := tabular.New("name", "age")
		tbl.Append("alice", "30")
		tbl.Append("bob", "25")
		require.NoError(t, tbl.Validate())
		assert.Equal(t, 2, tbl.NumRows())
		assert.Equal(t, 2, tbl.NumColumns())
	})

	t.Run("ragged row rejected", func(t *testing.T) {
		tbl := tabular.New("name", "age")
		tbl.Append("alice")
		assert.Error(t, tbl.Validate())
	})

	t.Run("no columns rejected", func(t *testing.T) {
		assert.Error(t, (&tabular.Table{}).Validate())
	})

	t.Run("duplicate column rejected", func(t *testing.T) {
		assert.Error(t, tabular.New("a", "a").Validate())
	})
}

func TestTable_Cell(t *testing.T) {
	tbl := tabular.New("name", "age")
	tbl.Append("alice", "30")

	v, ok := tbl.Cell(0, "age")
	require.True(t, ok)
	assert.Equal(t, "30", v)

	_, ok = tbl.Cell(0, "salary")
	assert.False(t, ok)

	_, ok = tbl.Cell(3, "name")
	assert.False(t, ok)
}

func TestTable_Equal(t *testing.T) {
	a := tabular.New("x")
	a.Append("1")
	b := tabular.New("x")
	b.Append("1")
	c := tabular.New("x")
	c.Append("2")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal(tabular.New("y")))
}

func TestTableSet(t *testing.T) {
	first := tabular.New("a")
	second := tabular.New("b")
	set := tabular.TableSet{
		{Name: "first", Table: first},
		{Name: "second", Table: second},
	}

	require.NoError(t, set.Validate())
	assert.Equal(t, []string{"first", "second"}, set.Names())

	got, ok := set.Get("second")
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = set.Get("third")
	assert.False(t, ok)

	t.Run("empty set rejected", func(t *testing.T) {
		assert.Error(t, tabular.TableSet{}.Validate())
	})

	t.Run("duplicate sheet name rejected", func(t *testing.T) {
		dup := tabular.TableSet{
			{Name: "s", Table: tabular.New("a")},
			{Name: "s", Table: tabular.New("b")},
		}
		assert.Error(t, dup.Validate())
	})
}
