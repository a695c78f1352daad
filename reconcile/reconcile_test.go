package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/reconcile"
	"github.com/katalvlaran/eumfa/table"
)

// raw builds a table from a header and rows, as table.Read would.
func raw(t *testing.T, header []string, rows ...[]string) *table.Table {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "t.csv")
	lines := join(header)
	for _, r := range rows {
		lines += join(r)
	}
	require.NoError(t, os.WriteFile(p, []byte(lines), 0o644))
	tb, err := table.Read(p, table.ReadOptions{})
	require.NoError(t, err)

	return tb
}

func join(cells []string) string {
	s := ""
	for i, c := range cells {
		if i > 0 {
			s += ","
		}
		s += c
	}

	return s + "\n"
}

func valueAt(t *testing.T, tb *table.Table, col, year string) float64 {
	t.Helper()
	for i := 0; i < tb.Len(); i++ {
		if tb.Key(i, col) == year {
			return tb.Val(i)
		}
	}
	require.Failf(t, "missing row", "%s=%s", col, year)

	return 0
}

var keyHeader = []string{"Time", "Region simple", "Concrete product simple", "End use sector"}

// TestResidual_Scenario is the documented 100 - 40 case.
func TestResidual_Scenario(t *testing.T) {
	start := raw(t, append(keyHeader, "Value"), []string{"2023", "EU28", "Reinforced", "Buildings", "100"})
	bu := raw(t, append(keyHeader, "value"), []string{"2023", "EU28", "Reinforced", "Buildings", "40"})
	growth := raw(t, append(keyHeader, "growth"),
		[]string{"2023", "EU28", "Reinforced", "Buildings", "1.0"},
		[]string{"2024", "EU28", "Reinforced", "Buildings", "1.05"})

	out, err := reconcile.Residual(start, bu, growth, reconcile.ResidualOptions{
		BaseYear: 2023,
		Keys:     []string{"Region simple", "Concrete product simple", "End use sector"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"Region simple", "Concrete product simple", "End use sector", "Time"}, out.Columns())
	assert.InDelta(t, 60.0, valueAt(t, out, "Time", "2023"), 1e-12)
	assert.InDelta(t, 63.0, valueAt(t, out, "Time", "2024"), 1e-12)
}

// TestResidual_BaseYearFixpointAndClamp covers negative residuals and a
// non-unit base-year growth factor.
func TestResidual_BaseYearFixpointAndClamp(t *testing.T) {
	hdr := []string{"Time", "sector", "value"}
	start := raw(t, hdr, []string{"2023", "A", "10"}, []string{"2023", "B", "5"})
	bu := raw(t, hdr, []string{"2023", "A", "4"}, []string{"2023", "B", "9"})
	growth := raw(t, []string{"Time", "factor"}, []string{"2023", "3"}, []string{"2030", "2"})

	out, err := reconcile.Residual(start, bu, growth, reconcile.ResidualOptions{BaseYear: 2023})
	require.NoError(t, err)
	assert.Equal(t, []string{"sector", "Time"}, out.Columns())
	got := map[string]float64{}
	for i := 0; i < out.Len(); i++ {
		assert.GreaterOrEqual(t, out.Val(i), 0.0)
		got[out.Key(i, "sector")+"@"+out.Key(i, "Time")] = out.Val(i)
	}
	assert.Equal(t, map[string]float64{"A@2023": 6, "A@2030": 12, "B@2023": 0, "B@2030": 0}, got)
}

// TestResidual_GrowthStub synthesises the missing base-year row.
func TestResidual_GrowthStub(t *testing.T) {
	hdr := []string{"Time", "sector", "value"}
	start := raw(t, hdr, []string{"2023", "A", "10"})
	bu := raw(t, hdr, []string{"2023", "A", "2"})
	growth := raw(t, hdr, []string{"2024", "A", "1.5"})

	out, err := reconcile.Residual(start, bu, growth, reconcile.ResidualOptions{BaseYear: 2023})
	require.NoError(t, err)
	assert.Equal(t, 8.0, valueAt(t, out, "Time", "2023"))
	assert.Equal(t, 12.0, valueAt(t, out, "Time", "2024"))
}

// TestResidual_Errors covers missing value and time columns.
func TestResidual_Errors(t *testing.T) {
	ok := raw(t, []string{"Time", "value"}, []string{"2023", "1"})
	noValue := raw(t, []string{"Time", "amount"}, []string{"2023", "1"})
	noTime := raw(t, []string{"Year", "value"}, []string{"2023", "1"})

	_, err := reconcile.Residual(noValue, ok, ok, reconcile.ResidualOptions{BaseYear: 2023})
	assert.ErrorIs(t, err, table.ErrNoValueColumn)
	_, err = reconcile.Residual(ok, noTime, ok, reconcile.ResidualOptions{BaseYear: 2023})
	assert.ErrorIs(t, err, reconcile.ErrMissingColumn)
}

// TestTotalFuture_Scenario sums bottom-up and residual after the base year.
func TestTotalFuture_Scenario(t *testing.T) {
	bu := raw(t, []string{"time", "region", "value"}, []string{"2023", "EU", "7"}, []string{"2030", "EU", "20"})
	res := raw(t, []string{"time", "region", "element", "Value"}, []string{"2030", "EU", "All", "15"})

	out, err := reconcile.TotalFuture([]reconcile.Named{{Name: "bottom_up", Table: bu}, {Name: "residual", Table: res}},
		reconcile.TotalOptions{
			Keys:       []string{"region", "element"},
			TimeColumn: "time",
			BaseYear:   2023,
			Fills:      map[string]reconcile.Fills{"bottom_up": {"element": "All"}},
		})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"EU", "All", "2030"}, out.Keys(0))
	assert.Equal(t, 35.0, out.Val(0))

	out, err = reconcile.TotalFuture([]reconcile.Named{{Name: "bottom_up", Table: bu}},
		reconcile.TotalOptions{Keys: []string{"region", "element"}, TimeColumn: "time", BaseYear: 2023, IncludeBaseYear: true})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, reconcile.DefaultFill, out.Key(0, "element"))

	_, err = reconcile.TotalFuture(nil, reconcile.TotalOptions{})
	assert.ErrorIs(t, err, reconcile.ErrNoInputs)
}

// TestCombine unions columns, keeps totals and rejects shared years.
func TestCombine(t *testing.T) {
	hist := raw(t, []string{"Time", "Region", "Value"}, []string{"2020", "EU", "1"}, []string{"2021", "EU", "2"})
	fut := raw(t, []string{"Time", "Region", "Sector", "Value"}, []string{"2024", "EU", "Civil", "3"})

	out, err := reconcile.Combine(hist, fut, reconcile.CombineOptions{ValueColumn: "Value"})
	require.NoError(t, err)
	assert.Equal(t, "Value", out.Value())
	assert.Equal(t, []string{"Region", "Sector", "Time"}, out.Columns())
	assert.Equal(t, 6.0, out.Total())
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, "Civil", out.Key(0, "Sector"))
	assert.Equal(t, reconcile.DefaultFill, out.Key(1, "Sector"))

	overlap := raw(t, []string{"Time", "Region", "Value"}, []string{"2021", "EU", "9"})
	_, err = reconcile.Combine(hist, overlap, reconcile.CombineOptions{})
	assert.ErrorIs(t, err, reconcile.ErrOverlappingYears)
}

// TestCombineFiles writes the combined series.
func TestCombineFiles(t *testing.T) {
	dir := t.TempDir()
	h := filepath.Join(dir, "h.csv")
	f := filepath.Join(dir, "f.csv")
	o := filepath.Join(dir, "out", "all.csv")
	require.NoError(t, os.WriteFile(h, []byte("Time,Value\n2020,1\n"), 0o644))
	require.NoError(t, os.WriteFile(f, []byte("Time,Value\n2030,2\n"), 0o644))

	out, err := reconcile.CombineFiles(h, f, o, reconcile.CombineOptions{ValueColumn: "Value"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.Total())
	assert.FileExists(t, o)
}

// TestParseCohort covers every label form.
func TestParseCohort(t *testing.T) {
	cases := []struct {
		in         string
		start, end int
		ok         bool
	}{
		{"1970-1989", 1970, 1989, true},
		{">1970", reconcile.OpenStart, 1970, true},
		{"2040<", 2040, reconcile.OpenEnd, true},
		{"2001", 2001, 2001, true},
		{"old", 0, 0, false},
	}
	for _, c := range cases {
		s, e, ok := reconcile.ParseCohort(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.Equal(t, [2]int{c.start, c.end}, [2]int{s, e}, c.in)
		}
	}
}

// TestSplitCohorts keeps the post-base share of straddling cohorts.
func TestSplitCohorts(t *testing.T) {
	in := raw(t, []string{"Time", "Age cohort", "value"},
		[]string{"2030", "2020-2029", "100"},
		[]string{"2030", "2024-2030", "7"},
		[]string{"2030", "1970-1989", "50"},
		[]string{"2030", "unknown", "1"})
	in, err := in.EnsureValue("value")
	require.NoError(t, err)

	out, err := reconcile.SplitCohorts(in, 2023, "")
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "2024-2029", out.Key(0, "Age cohort"))
	assert.InDelta(t, 60.0, out.Val(0), 1e-12)
	assert.Equal(t, "2024-2030", out.Key(1, "Age cohort"))
	assert.Equal(t, 7.0, out.Val(1))
	assert.Less(t, out.Total(), in.Total())
}
