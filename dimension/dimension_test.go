package dimension_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/dimension"
)

// TestNew_IntNormalisation verifies float-spelled years map to the same item.
func TestNew_IntNormalisation(t *testing.T) {
	d, err := dimension.New("Time", "t", dimension.Int, []string{"2020", "2021.0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, d.Items())

	i, ok := d.Index("2021")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	i, ok = d.Index("2020.0")
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	ints, err := d.Ints()
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, ints)
}

// TestNew_Errors covers the validation failures.
func TestNew_Errors(t *testing.T) {
	_, err := dimension.New("", "t", dimension.Int, nil)
	assert.ErrorIs(t, err, dimension.ErrEmptyName)
	_, err = dimension.New("Time", "tt", dimension.Int, nil)
	assert.ErrorIs(t, err, dimension.ErrBadLetter)
	_, err = dimension.New("Time", "t", dimension.Int, []string{"x"})
	assert.ErrorIs(t, err, dimension.ErrBadInt)
	_, err = dimension.New("Region", "r", dimension.String, []string{"DE", "DE"})
	assert.ErrorIs(t, err, dimension.ErrDuplicateItem)
}

// TestSet_SubsetUnion covers letter lookups and set algebra.
func TestSet_SubsetUnion(t *testing.T) {
	tm, _ := dimension.New("Time", "t", dimension.Int, []string{"2020", "2021"})
	rg, _ := dimension.New("Region", "r", dimension.String, []string{"DE", "FR", "IT"})
	sc, _ := dimension.New("Sector", "s", dimension.String, []string{"B"})
	all, err := dimension.NewSet(tm, rg, sc)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, all.Shape())
	assert.Equal(t, 6, all.Size())

	sub, err := all.Subset("r", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"r", "t"}, sub.Letters())

	_, err = all.Subset("x")
	assert.ErrorIs(t, err, dimension.ErrUnknownDimension)

	s1, _ := all.Subset("t")
	s2, _ := all.Subset("s", "t")
	u, err := s1.Union(s2)
	require.NoError(t, err)
	assert.Equal(t, "(t,s)", u.String())
	assert.Equal(t, []string{"t"}, u.Intersect(s1).Letters())
	assert.Equal(t, []string{"s"}, u.Without("t").Letters())

	d, err := all.Get("Region")
	require.NoError(t, err)
	assert.Equal(t, "r", d.Letter)

	_, err = dimension.NewSet(tm, tm)
	assert.ErrorIs(t, err, dimension.ErrDuplicateLetter)
}

// TestLoadItems_HeaderDetection reads files with and without header lines.
func TestLoadItems_HeaderDetection(t *testing.T) {
	dir := t.TempDir()
	years := filepath.Join(dir, "time_in_years.csv")
	require.NoError(t, os.WriteFile(years, []byte("Time\n2020\n2021\n"), 0o644))
	regions := filepath.Join(dir, "regions.csv")
	require.NoError(t, os.WriteFile(regions, []byte("DE\nFR\n\n"), 0o644))
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, []byte("Region\n"), 0o644))

	items, err := dimension.LoadItems(years, dimension.Definition{Name: "Time", Letter: "t", Dtype: dimension.Int})
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, items)

	d, err := dimension.Load(regions, dimension.Definition{Name: "Region", Letter: "r"})
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "FR"}, d.Items())

	_, err = dimension.LoadItems(empty, dimension.Definition{Name: "Region", Letter: "r"})
	assert.ErrorIs(t, err, dimension.ErrNoItems)
}
