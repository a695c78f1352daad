package mfa_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/dfs"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/lifetime"
	"github.com/katalvlaran/eumfa/mfa"
)

const (
	fSupply = "sysenv => Market"
	fUse    = "Market => Use"
	fEol    = "Use => sysenv"
)

func definition() *mfa.Definition {
	return &mfa.Definition{
		Dimensions: []dimension.Definition{
			{Name: "Time", Letter: "t", Dtype: dimension.Int},
			{Name: "Region", Letter: "r"},
		},
		Processes: []string{"sysenv", "Market", "Use"},
		Flows: []mfa.FlowDefinition{
			{From: "sysenv", To: "Market", Dims: []string{"t", "r"}},
			{From: "Market", To: "Use", Dims: []string{"t", "r"}},
			{From: "Use", To: "sysenv", Dims: []string{"t", "r"}},
		},
		Stocks: []mfa.StockDefinition{
			{Name: "Use stock", Process: "Use", Dims: []string{"t", "r"}, Kind: mfa.InflowDrivenStock},
		},
		Parameters: []mfa.ParameterDefinition{
			{Name: "demand", Dims: []string{"t", "r"}},
			{Name: "lifetime", Dims: []string{"r"}},
		},
	}
}

func dims(t *testing.T) *dimension.Set {
	t.Helper()
	tm, err := dimension.New("Time", "t", dimension.Int, []string{"2020", "2021", "2022"})
	require.NoError(t, err)
	rg, err := dimension.New("Region", "r", dimension.String, []string{"DE", "FR"})
	require.NoError(t, err)
	set, err := dimension.NewSet(tm, rg)
	require.NoError(t, err)

	return set
}

// steps are declared consumer-first to exercise dependency ordering.
func steps() []mfa.Step {
	return []mfa.Step{
		{
			Name:   "end of life",
			Reads:  []mfa.Ref{mfa.S("Use stock")},
			Writes: []mfa.Ref{mfa.F(fEol)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(fEol, sc.Stock("Use stock").Outflow())
				return nil
			},
		},
		{
			Name:   "use stock",
			Reads:  []mfa.Ref{mfa.F(fUse), mfa.P("lifetime")},
			Writes: []mfa.Ref{mfa.S("Use stock")},
			Run: func(sc *mfa.Scope) error {
				st := sc.InflowDriven("Use stock")
				sc.Check(st.Inflow().Assign(sc.Flow(fUse)))
				sc.Check(st.SetLifetime(sc.Param("lifetime"), array.Scalar(0)))
				return st.Compute()
			},
		},
		{
			Name:   "market",
			Reads:  []mfa.Ref{mfa.P("demand")},
			Writes: []mfa.Ref{mfa.F(fSupply), mfa.F(fUse)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(fSupply, sc.Param("demand"))
				sc.Set(fUse, sc.Flow(fSupply))
				return nil
			},
		},
	}
}

func system(t *testing.T, opts ...mfa.Option) *mfa.System {
	t.Helper()
	opts = append([]mfa.Option{mfa.WithLifetime(lifetime.Fixed)}, opts...)
	s, err := mfa.NewSystem("toy", definition(), dims(t), opts...)
	require.NoError(t, err)
	require.NoError(t, s.SetParameter("demand", array.Scalar(10)))
	require.NoError(t, s.SetParameter("lifetime", array.Scalar(1)))

	return s
}

// TestCompute_OrdersAndBalances runs the toy model end to end.
func TestCompute_OrdersAndBalances(t *testing.T) {
	s := system(t)
	require.NoError(t, s.Compute(context.Background(), steps()))

	eol, err := s.Flow(mfa.FlowID(fEol))
	require.NoError(t, err)
	v, _ := eol.Array.Get("2021", "DE")
	assert.Equal(t, 10.0, v)
	v, _ = eol.Array.Get("2020", "DE")
	assert.Equal(t, 0.0, v)

	assert.Empty(t, s.CheckBalance(1e-9))
}

// TestCompute_ImbalanceDetected breaks the market on purpose.
func TestCompute_ImbalanceDetected(t *testing.T) {
	s := system(t)
	st := steps()
	st[2].Run = func(sc *mfa.Scope) error {
		sc.Set(fSupply, sc.Param("demand"))
		sc.Set(fUse, sc.Param("demand").MulScalar(0.5))
		return nil
	}
	require.NoError(t, s.Compute(context.Background(), st))
	imb := s.CheckBalance(1e-9)
	require.Len(t, imb, 1)
	assert.Equal(t, "Market", imb[0].Process)
	assert.Equal(t, []string{"t", "r"}, imb[0].Dims)
	assert.InDelta(t, 5.0, imb[0].MaxAbs, 1e-12)
}

// TestCompute_UnknownReference fails before any step runs.
func TestCompute_UnknownReference(t *testing.T) {
	s := system(t)
	ran := false
	err := s.Compute(context.Background(), []mfa.Step{
		{Name: "ok", Writes: []mfa.Ref{mfa.F(fSupply)}, Run: func(*mfa.Scope) error { ran = true; return nil }},
		{Name: "bad", Reads: []mfa.Ref{mfa.F("Market => Nowhere")}, Run: func(*mfa.Scope) error { return nil }},
	})
	assert.ErrorIs(t, err, mfa.ErrUnknownFlow)
	assert.False(t, ran)
}

// TestCompute_UndeclaredAccess rejects reading an undeclared flow.
func TestCompute_UndeclaredAccess(t *testing.T) {
	s := system(t)
	err := s.Compute(context.Background(), []mfa.Step{{
		Name:   "sneaky",
		Writes: []mfa.Ref{mfa.F(fUse)},
		Run: func(sc *mfa.Scope) error {
			sc.Set(fUse, sc.Flow(fSupply))
			return nil
		},
	}})
	assert.ErrorIs(t, err, mfa.ErrUndeclaredAccess)
}

// TestCompute_Cycle reports mutually dependent steps.
func TestCompute_Cycle(t *testing.T) {
	s := system(t)
	noop := func(*mfa.Scope) error { return nil }
	err := s.Compute(context.Background(), []mfa.Step{
		{Name: "a", Reads: []mfa.Ref{mfa.F(fUse)}, Writes: []mfa.Ref{mfa.F(fSupply)}, Run: noop},
		{Name: "b", Reads: []mfa.Ref{mfa.F(fSupply)}, Writes: []mfa.Ref{mfa.F(fUse)}, Run: noop},
	})
	assert.ErrorIs(t, err, dfs.ErrCycleDetected)
}

// TestOrder_Cancelled stops the dependency sort on a done context.
func TestOrder_Cancelled(t *testing.T) {
	s := system(t)
	ordered, err := s.Order(context.Background(), steps())
	require.NoError(t, err)
	assert.Len(t, ordered, len(steps()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Order(ctx, steps())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Compute(ctx, steps()), context.Canceled)
}

// TestOrder_SharedDependencies links a reader once to a writer of
// several of its inputs.
func TestOrder_SharedDependencies(t *testing.T) {
	s := system(t)
	noop := func(*mfa.Scope) error { return nil }
	ordered, err := s.Order(context.Background(), []mfa.Step{
		{Name: "eol", Reads: []mfa.Ref{mfa.F(fSupply), mfa.F(fUse)}, Writes: []mfa.Ref{mfa.F(fEol)}, Run: noop},
		{Name: "market", Writes: []mfa.Ref{mfa.F(fSupply), mfa.F(fUse)}, Run: noop},
	})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "market", ordered[0].Name)
	assert.Equal(t, "eol", ordered[1].Name)
}

// TestCompute_StrictNumerics turns NaN output into an error.
func TestCompute_StrictNumerics(t *testing.T) {
	div := []mfa.Step{{
		Name:   "divide",
		Reads:  []mfa.Ref{mfa.P("demand")},
		Writes: []mfa.Ref{mfa.F(fSupply)},
		Run: func(sc *mfa.Scope) error {
			d := sc.Param("demand")
			sc.Set(fSupply, d.Div(d.ScalarMinus(10)))
			return nil
		},
	}}
	require.NoError(t, system(t).Compute(context.Background(), div))
	err := system(t, mfa.WithStrictNumerics(true)).Compute(context.Background(), div)
	assert.ErrorIs(t, err, mfa.ErrNonFinite)
}

// TestDefinition_Validate covers the static checks.
func TestDefinition_Validate(t *testing.T) {
	d := definition()
	d.Flows = append(d.Flows, mfa.FlowDefinition{From: "Market", To: "Use", Dims: []string{"t"}})
	assert.ErrorIs(t, d.Validate(), mfa.ErrDuplicateName)

	d = definition()
	d.Flows[0].To = "Warehouse"
	assert.ErrorIs(t, d.Validate(), mfa.ErrUnknownProcess)

	d = definition()
	d.Stocks[0].Dims = []string{"r"}
	assert.ErrorIs(t, d.Validate(), mfa.ErrUnknownLetter)

	d = definition()
	d.Parameters[0].Dims = []string{"x"}
	assert.ErrorIs(t, d.Validate(), mfa.ErrUnknownLetter)

	named := mfa.FlowDefinition{From: "a", To: "b", Name: "custom"}
	assert.Equal(t, mfa.FlowID("custom"), named.ID())
}

// TestLoadParameters covers missing files with and without the toggle.
func TestLoadParameters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demand.csv"),
		[]byte("Time,Region,value\n2020,DE,1\n2021,DE,2\n"), 0o644))

	s := system(t)
	err := s.LoadParameters(mfa.LoadOptions{Dir: dir})
	assert.ErrorIs(t, err, mfa.ErrMissingParameter)

	s = system(t)
	require.NoError(t, s.LoadParameters(mfa.LoadOptions{Dir: dir, AllowMissing: true}))
	p, _ := s.Parameter("demand")
	assert.Equal(t, 3.0, p.Sum())
	lt, _ := s.Parameter("lifetime")
	assert.Equal(t, 0.0, lt.Sum())
}

// TestLoadDimensions reads dimension files by name.
func TestLoadDimensions(t *testing.T) {
	dir := t.TempDir()
	tp := filepath.Join(dir, "time_in_years.csv")
	rp := filepath.Join(dir, "regions.csv")
	require.NoError(t, os.WriteFile(tp, []byte("2020\n2021\n"), 0o644))
	require.NoError(t, os.WriteFile(rp, []byte("DE\nFR\nIT\n"), 0o644))

	set, err := mfa.LoadDimensions(definition().Dimensions, map[string]string{"Time": tp, "Region": rp})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, set.Shape())

	_, err = mfa.LoadDimensions(definition().Dimensions, map[string]string{"Time": tp})
	assert.ErrorIs(t, err, dimension.ErrNoItems)
}

// TestExportCSV writes flows, stocks and the manifest.
func TestExportCSV(t *testing.T) {
	s := system(t)
	require.NoError(t, s.Compute(context.Background(), steps()))
	dir := t.TempDir()
	require.NoError(t, s.ExportCSV(dir, mfa.ExportOptions{Flows: true, Stocks: true, Manifest: true, RunID: "r1"}))

	assert.FileExists(t, filepath.Join(dir, "flows", "Market__to__Use.csv"))
	assert.FileExists(t, filepath.Join(dir, "stocks", "Use_stock__outflow.csv"))
	data, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: r1")
	assert.Len(t, s.FlowTables(), 3)
}

// TestSanitize pins the file naming rule.
func TestSanitize(t *testing.T) {
	assert.Equal(t, "End_use_stock__to__CDW_collection", mfa.Sanitize("End use stock => CDW collection"))
}
