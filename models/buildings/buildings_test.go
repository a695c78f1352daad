package buildings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models/buildings"
)

func system(t *testing.T) *mfa.System {
	t.Helper()
	def := buildings.Definition()
	items := map[string][]string{
		"t": {"2020", "2021"}, "r": {"DE"}, "b": {"SFH"}, "a": {"1970"},
		"o": {"Ready-mix"}, "l": {"Rebar"}, "i": {"EPS"}, "g": {"Float"},
	}
	var dims []*dimension.Dimension
	for _, d := range def.Dimensions {
		dim, err := dimension.FromDefinition(d, items[d.Letter])
		require.NoError(t, err)
		dims = append(dims, dim)
	}
	set, err := dimension.NewSet(dims...)
	require.NoError(t, err)
	s, err := mfa.NewSystem(buildings.Class, def, set)
	require.NoError(t, err)

	return s
}

// TestSteelReuse routes a quarter of the steel outflow back into the stock.
func TestSteelReuse(t *testing.T) {
	s := system(t)
	require.NoError(t, s.SetParameter("building_inflow", array.Scalar(10)))
	// Demolished floor area is recorded as negative.
	require.NoError(t, s.SetParameter("building_outflow", array.Scalar(-4)))
	require.NoError(t, s.SetParameter("building_steel_intensity", array.Scalar(2)))
	require.NoError(t, s.SetParameter("building_steel_element_reuse", array.Scalar(0.25)))
	require.NoError(t, s.SetParameter("building_glass_intensity", array.Scalar(1)))

	m, err := buildings.New(config.Customization{})
	require.NoError(t, err)
	require.NoError(t, s.Compute(context.Background(), m.Steps))

	get := func(id string, labels ...string) float64 {
		t.Helper()
		f, err := s.Flow(mfa.FlowID(id))
		require.NoError(t, err)
		v, err := f.Array.Get(labels...)
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, 22.0, get(buildings.InflowFlow("Steel"), "2020", "DE", "Rebar"), 1e-12)
	assert.InDelta(t, 6.0, get(buildings.OutflowFlow("Steel"), "2020", "DE", "Rebar", "1970"), 1e-12)
	assert.InDelta(t, 2.0, get(buildings.ReuseFlow("Steel"), "2020", "DE", "Rebar", "1970"), 1e-12)

	// Glass has no reuse loop.
	assert.InDelta(t, 10.0, get(buildings.InflowFlow("Glass"), "2021", "DE", "Float"), 1e-12)
	assert.InDelta(t, 4.0, get(buildings.OutflowFlow("Glass"), "2021", "DE", "Float", "1970"), 1e-12)
	_, err = s.Flow(mfa.FlowID(buildings.ReuseFlow("Glass")))
	assert.ErrorIs(t, err, mfa.ErrUnknownFlow)

	st, err := s.Stock(buildings.Process("Steel"))
	require.NoError(t, err)
	v, _ := st.Stock().Get("2021", "DE", "Rebar")
	assert.InDelta(t, 32.0, v, 1e-12)

	assert.Empty(t, s.CheckBalance(1e-9))
}

func TestDimensionFilesCoverDefinition(t *testing.T) {
	m, err := buildings.New(config.Customization{})
	require.NoError(t, err)
	paths, err := m.DimensionPaths("in")
	require.NoError(t, err)
	assert.Len(t, paths, len(m.Definition.Dimensions))
}
