package table_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/table"
)

// writeFile stores content under dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	return p
}

// TestRead_DetectsSemicolonAndBOM verifies delimiter sniffing and BOM stripping.
func TestRead_DetectsSemicolonAndBOM(t *testing.T) {
	p := writeFile(t, t.TempDir(), "g.csv", "\ufeffRegion;Time;growth\nDE;2023;1\nFR;2024; 1.5\n")

	raw, err := table.Read(p, table.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Time", "growth"}, raw.Columns())
	assert.Equal(t, "", raw.Value())

	v, err := raw.EnsureValue("Value", "growth")
	require.NoError(t, err)
	assert.Equal(t, table.DefaultValue, v.Value())
	assert.Equal(t, []string{"Region", "Time"}, v.Columns())
	assert.InDelta(t, 2.5, v.Total(), 1e-12)
}

// TestEnsureValue_CoercesBadCells verifies unparsable values read as zero.
func TestEnsureValue_CoercesBadCells(t *testing.T) {
	p := writeFile(t, t.TempDir(), "v.csv", "r,value\na,x\nb,2\nc,nan\nd,\n")
	v, err := table.ReadValues(p, table.ReadOptions{}, "value")
	require.NoError(t, err)
	assert.Equal(t, 4, v.Len())
	assert.InDelta(t, 2.0, v.Total(), 1e-12)
}

// TestEnsureValue_Missing returns ErrNoValueColumn when no alias matches.
func TestEnsureValue_Missing(t *testing.T) {
	raw, err := table.New([]string{"r", "t"}, "")
	require.NoError(t, err)
	_, err = raw.EnsureValue("Value", "val")
	assert.ErrorIs(t, err, table.ErrNoValueColumn)
}

// TestGroupSum_SortsNumerically checks aggregation and numeric-aware order.
func TestGroupSum_SortsNumerically(t *testing.T) {
	tb, err := table.New([]string{"t", "r"}, "value")
	require.NoError(t, err)
	require.NoError(t, tb.Append([]string{"10", "a"}, 1))
	require.NoError(t, tb.Append([]string{"9", "a"}, 2))
	require.NoError(t, tb.Append([]string{"10", "b"}, 3))
	require.NoError(t, tb.Append([]string{"9", "a"}, 4))

	g, err := tb.GroupSum("t")
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
	assert.Equal(t, "9", g.Key(0, "t"))
	assert.InDelta(t, 6.0, g.Val(0), 1e-12)
	assert.Equal(t, "10", g.Key(1, "t"))
	assert.InDelta(t, 4.0, g.Val(1), 1e-12)

	_, err = tb.GroupSum("missing")
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

// TestConcat_AlignsColumnOrder stacks tables whose columns are permuted.
func TestConcat_AlignsColumnOrder(t *testing.T) {
	a, _ := table.New([]string{"r", "t"}, "value")
	require.NoError(t, a.Append([]string{"DE", "2020"}, 1))
	b, _ := table.New([]string{"t", "r"}, "value")
	require.NoError(t, b.Append([]string{"2030", "FR"}, 2))

	c, err := table.Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "FR", c.Key(1, "r"))
	assert.Equal(t, "2030", c.Key(1, "t"))

	d, _ := table.New([]string{"x"}, "value")
	_, err = table.Concat(a, d)
	assert.ErrorIs(t, err, table.ErrColumnMismatch)
}

// TestRenameAndColumns covers Rename, EnsureColumn, SetColumn and Drop.
func TestRenameAndColumns(t *testing.T) {
	a, _ := table.New([]string{"Region", "t"}, "value")
	require.NoError(t, a.Append([]string{"DE", "2020"}, 1))

	r, err := a.Rename(map[string]string{"Region": "Region simple", "value": "Value"})
	require.NoError(t, err)
	assert.True(t, r.HasColumn("Region simple"))
	assert.Equal(t, "Value", r.Value())

	e, added := r.EnsureColumn("End use sector", "Buildings")
	assert.True(t, added)
	assert.Equal(t, "Buildings", e.Key(0, "End use sector"))
	_, added = e.EnsureColumn("End use sector", "x")
	assert.False(t, added)

	s := e.SetColumn("t", "2021")
	assert.Equal(t, "2021", s.Key(0, "t"))
	assert.Equal(t, "2020", e.Key(0, "t"))

	assert.Equal(t, []string{"Region simple", "End use sector"}, s.Drop("t").Columns())
}

// TestWrite_RoundTrip writes a table and reads it back.
func TestWrite_RoundTrip(t *testing.T) {
	a, _ := table.New([]string{"r", "t"}, "Value")
	require.NoError(t, a.Append([]string{"DE", "2020"}, 0.25))
	p := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, a.Write(p, 0))

	back, err := table.ReadValues(p, table.ReadOptions{}, "Value")
	require.NoError(t, err)
	assert.Equal(t, "DE", back.Key(0, "r"))
	assert.InDelta(t, 0.25, back.Val(0), 1e-15)
}

// TestParseInt accepts integral float spellings only.
func TestParseInt(t *testing.T) {
	n, ok := table.ParseInt(" 2023.0 ")
	assert.True(t, ok)
	assert.Equal(t, 2023, n)
	_, ok = table.ParseInt("2023.5")
	assert.False(t, ok)
	_, ok = table.ParseInt("abc")
	assert.False(t, ok)
}
