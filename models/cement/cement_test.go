package cement_test

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
	"github.com/katalvlaran/eumfa/models/cement"
)

var items = map[string][]string{
	"t": {"2020", "2021"}, "j": {"EU"}, "f": {"Ready-mix"}, "x": {"CEM I"},
	"y": {"Clinker"}, "s": {"Residential"}, "h": {"Concrete waste"},
}

// shared holds parameter values common to every cement model; models
// ignore the ones they do not declare.
var shared = map[string]float64{
	cement.PLifetimeMean:  1,
	cement.PDissipative:   0.9,
	cement.PClinkerFactor: 0.7,
	cement.PCementProd:    100,
	cement.PCementToConcH: 4,
	cement.PCementToConcF: 0.25,
	cement.PEndUseMatrix:  1,
	cement.PMappingWaste:  1,
	cement.PSeparation:    0.75,
	cement.PDemandFuture:  30,
	cement.PTotalDemand:   50,
	cement.PTotalEoL:      20,
	cement.PStartValue:    10,
	cement.PGrowthRate:    2,
}

func run(t *testing.T, class string, factory func(config.Customization) (*mfa.Model, error)) *mfa.System {
	t.Helper()
	m, err := factory(config.Customization{})
	require.NoError(t, err)
	var dims []*dimension.Dimension
	for _, d := range m.Definition.Dimensions {
		dim, err := dimension.FromDefinition(d, items[d.Letter])
		require.NoError(t, err)
		dims = append(dims, dim)
	}
	set, err := dimension.NewSet(dims...)
	require.NoError(t, err)
	s, err := mfa.NewSystem(class, m.Definition, set, mfa.WithLifetime(lifetime.Fixed))
	require.NoError(t, err)
	for _, name := range s.ParameterNames() {
		if v, ok := shared[name]; ok {
			require.NoError(t, s.SetParameter(name, array.Scalar(v)))
		}
	}
	require.NoError(t, s.Compute(context.Background(), m.Steps))

	return s
}

func flow(t *testing.T, s *mfa.System, id string, labels ...string) float64 {
	t.Helper()
	f, err := s.Flow(mfa.FlowID(id))
	require.NoError(t, err)
	v, err := f.Array.Get(labels...)
	require.NoError(t, err)

	return v
}

func TestPhaseNames(t *testing.T) {
	assert.Equal(t, "Cement market historic", cement.Historic.Process(cement.CementMarket))
	assert.Equal(t, "End use stock future => CDW collection future", cement.FutureEoLFlow)
	assert.Equal(t, "Cement market historic => TRADE sysenv historic",
		cement.Historic.Tagged(cement.CementMarket, "TRADE", cement.Env))
}

// TestStock accumulates future demand and splits the outflow.
func TestStock(t *testing.T) {
	s := run(t, cement.StockClass, cement.NewStock)
	at := []string{"2021", "EU", "Ready-mix", "Residential"}
	assert.InDelta(t, 30.0, flow(t, s, cement.FutureMarketFlow, at...), 1e-9)
	assert.InDelta(t, 27.0, flow(t, s, cement.FutureEoLFlow, at...), 1e-9)
	assert.InDelta(t, 3.0, flow(t, s, cement.Future.Tagged(cement.EndUseStock, "DISSIPATION", cement.Env), at...), 1e-9)
	assert.Empty(t, s.CheckBalance(1e-9))
}

// TestFlows runs the historic chain forward and the future chain backward.
func TestFlows(t *testing.T) {
	s := run(t, cement.FlowsClass, cement.NewFlows)
	h, f := cement.Historic, cement.Future

	assert.InDelta(t, 70.0, flow(t, s, h.Flow(cement.ClinkerMarket, cement.CementProduction), "2020", "EU", "Clinker"), 1e-9)
	assert.InDelta(t, 30.0, flow(t, s, h.Flow(cement.Env, cement.CementProduction), "2020", "EU"), 1e-9)
	assert.InDelta(t, 400.0, flow(t, s, h.Flow(cement.ConcreteProduction, cement.ConcreteMarket), "2020", "EU", "Ready-mix"), 1e-9)
	assert.InDelta(t, 300.0, flow(t, s, h.Flow(cement.Env, cement.ConcreteProduction), "2020", "EU"), 1e-9)
	assert.InDelta(t, 360.0, flow(t, s, h.Flow(cement.EndUseStock, cement.CDWCollection), "2021", "EU", "Ready-mix", "Residential"), 1e-9)
	assert.InDelta(t, 270.0, flow(t, s, h.Flow(cement.Separation, cement.SortedMarket), "2021", "EU", "Concrete waste"), 1e-9)
	assert.InDelta(t, 90.0, flow(t, s, h.Tagged(cement.Separation, "LOSSES", cement.Env), "2021", "EU", "Concrete waste"), 1e-9)

	assert.InDelta(t, 12.5, flow(t, s, f.Flow(cement.CementProduction, cement.CementMarket), "2020", "EU", "CEM I"), 1e-9)
	assert.InDelta(t, 8.75, flow(t, s, f.Flow(cement.ClinkerMarket, cement.CementProduction), "2020", "EU", "Clinker"), 1e-9)
	assert.InDelta(t, 15.0, flow(t, s, f.Flow(cement.Separation, cement.SortedMarket), "2020", "EU", "Concrete waste"), 1e-9)

	st, err := s.Stock(f.Process(cement.EndUseStock))
	require.NoError(t, err)
	v, _ := st.Stock().Get("2021", "EU", "Ready-mix", "Residential")
	assert.InDelta(t, 60.0, v, 1e-9)

	assert.Empty(t, s.CheckBalance(1e-9))
}

// TestTopdown builds future demand from start value and growth rate.
func TestTopdown(t *testing.T) {
	s := run(t, cement.TopdownClass, cement.NewTopdown)
	f := cement.Future
	at := []string{"2021", "EU", "Ready-mix", "Residential"}
	assert.InDelta(t, 20.0, flow(t, s, cement.FutureMarketFlow, at...), 1e-9)
	assert.InDelta(t, 18.0, flow(t, s, cement.FutureEoLFlow, at...), 1e-9)
	assert.InDelta(t, 5.0, flow(t, s, f.Flow(cement.CementProduction, cement.CementMarket), "2021", "EU", "CEM I"), 1e-9)
	assert.Empty(t, s.CheckBalance(1e-9))
}
