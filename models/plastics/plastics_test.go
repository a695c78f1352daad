package plastics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/lifetime"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models/plastics"
)

type fixture struct {
	t   *testing.T
	sys *mfa.System
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	def := plastics.Definition()
	items := map[string][]string{
		"t": {"2020", "2021"}, "c": {"2020", "2021"}, "e": {"All"}, "r": {"DE"}, "R": {"DE"},
		"p": {"PE"}, "s": {"Packaging", "Building"}, "w": {"Recyclable", "Mixed"}, "m": {"Pellets"},
	}
	var dims []*dimension.Dimension
	for _, d := range def.Dimensions {
		dim, err := dimension.FromDefinition(d, items[d.Letter])
		require.NoError(t, err)
		dims = append(dims, dim)
	}
	set, err := dimension.NewSet(dims...)
	require.NoError(t, err)
	s, err := mfa.NewSystem(plastics.Class, def, set, mfa.WithLifetime(lifetime.Fixed))
	require.NoError(t, err)

	for name, v := range map[string]float64{
		plastics.PDomesticDemand:  100,
		plastics.PFinalDemand:     100,
		plastics.PRecyclateShare:  0.2,
		plastics.PMarketShare:     1,
		plastics.PLifetime:        1,
		plastics.PDeprivedRate:    0.1,
		plastics.PCollectionRate:  0.5,
		plastics.PUtilisationRate: 1,
		plastics.PSortingRate:     0.5,
	} {
		require.NoError(t, s.SetParameter(name, array.Scalar(v)))
	}
	conv, err := s.Parameter(plastics.PConversionRate)
	require.NoError(t, err)
	for _, tm := range items["t"] {
		for _, sec := range items["s"] {
			require.NoError(t, conv.Set(0.8, "DE", tm, sec, "PE", "Recyclable", "Pellets"))
		}
	}

	return &fixture{t: t, sys: s}
}

func (f *fixture) run(cust config.Customization) {
	f.t.Helper()
	m, err := plastics.New(cust)
	require.NoError(f.t, err)
	require.NoError(f.t, f.sys.Compute(context.Background(), m.Steps))
}

func (f *fixture) flow(id string, labels ...string) float64 {
	f.t.Helper()
	fl, err := f.sys.Flow(mfa.FlowID(id))
	require.NoError(f.t, err)
	v, err := fl.Array.Get(labels...)
	require.NoError(f.t, err)

	return v
}

func production(sectors config.Sectors, notRecycled ...string) config.Customization {
	return config.Customization{
		DrivingMode:          config.DrivingProduction,
		EndUseSectors:        sectors,
		WasteNotForRecycling: notRecycled,
	}
}

// TestProduction_WasteChain follows packaging demand through collection,
// sorting and recycling.
func TestProduction_WasteChain(t *testing.T) {
	f := newFixture(t)
	f.run(production(config.Sectors{Names: []string{"Packaging"}}, "Mixed"))

	assert.InDelta(t, 100.0, f.flow(plastics.FInflow, "DE", "2020", "Packaging", "PE", "All"), 1e-9)
	assert.Zero(t, f.flow(plastics.FInflow, "DE", "2020", "Building", "PE", "All"), "sector not selected")
	assert.InDelta(t, 20.0, f.flow(plastics.FSecondary, "DE", "2020", "Packaging", "PE", "All"), 1e-9)
	assert.InDelta(t, 80.0, f.flow(plastics.FPrimary, "DE", "2020", "Packaging", "PE", "All"), 1e-9)

	eol := []string{"DE", "2021", "2020", "Packaging", "PE", "All"}
	assert.InDelta(t, 100.0, f.flow(plastics.FEoL, eol...), 1e-9)
	assert.InDelta(t, 10.0, f.flow(plastics.FLittering, eol...), 1e-9)
	assert.InDelta(t, 45.0, f.flow(plastics.FRecovered, eol...), 1e-9)
	assert.InDelta(t, 45.0, f.flow(plastics.FDefault, eol...), 1e-9)

	assert.InDelta(t, 22.5, f.flow(plastics.FSorted, "DE", "2021", "2020", "Packaging", "PE", "Recyclable", "All"), 1e-9)
	assert.Zero(t, f.flow(plastics.FSorted, "DE", "2021", "2020", "Packaging", "PE", "Mixed", "All"))
	assert.InDelta(t, 22.5, f.flow(plastics.FNotRecycled, "DE", "2021", "2020", "Packaging", "PE", "Mixed", "All"), 1e-9)

	assert.InDelta(t, 18.0, f.flow(plastics.FProcessed, "DE", "2021", "Packaging", "PE", "Pellets", "All"), 1e-9)
	assert.InDelta(t, 4.5, f.flow(plastics.FLosses, "DE", "2021", "Packaging", "PE", "All"), 1e-9)

	assert.Empty(t, f.sys.CheckBalance(1e-9))
}

// TestFinalDemand_BackCalculatesDomesticInput solves D*(1+ir-er) = demand.
func TestFinalDemand_BackCalculatesDomesticInput(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sys.SetParameter(plastics.PImportRateNew, array.Scalar(0.1)))
	require.NoError(t, f.sys.SetParameter(plastics.PExportRateNew, array.Scalar(0.3)))
	f.run(config.Customization{DrivingMode: config.DrivingFinalDemand, EndUseSectors: config.Sectors{All: true}})

	at := []string{"DE", "2020", "Building", "PE", "All"}
	assert.InDelta(t, 125.0, f.flow(plastics.FDomestic, at...), 1e-9)
	assert.InDelta(t, 12.5, f.flow(plastics.FImportNew, at...), 1e-9)
	assert.InDelta(t, 37.5, f.flow(plastics.FExportNew, at...), 1e-9)
	assert.InDelta(t, 100.0, f.flow(plastics.FNewPlastics, at...), 1e-9)
	assert.InDelta(t, 25.0, f.flow(plastics.FSecondary, at...), 1e-9)

	assert.Empty(t, f.sys.CheckBalance(1e-9))
}

func TestNew_RejectsUnknownMode(t *testing.T) {
	_, err := plastics.New(config.Customization{DrivingMode: "push"})
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}
