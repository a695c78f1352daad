package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models/cement"
	"github.com/katalvlaran/eumfa/pipeline"
	"github.com/katalvlaran/eumfa/table"
)

// fakeRunner returns canned flows per model config and records the calls.
type fakeRunner struct {
	flows map[string]map[mfa.FlowID]*table.Table
	fail  map[string]error
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, path string) (map[mfa.FlowID]*table.Table, error) {
	f.calls = append(f.calls, path)
	if err := f.fail[path]; err != nil {
		return nil, err
	}

	return f.flows[path], nil
}

func tab(t *testing.T, cols []string, rows ...[]string) *table.Table {
	t.Helper()
	out, err := table.New(cols, table.DefaultValue)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, out.Append(r[:len(cols)], table.ParseValue(r[len(cols)])))
	}

	return out
}

func write(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

// value sums the "Value" column of path over rows matching want.
func value(t *testing.T, path string, want map[string]string) float64 {
	t.Helper()
	tb, err := table.ReadValues(path, table.ReadOptions{}, pipeline.OutputValue, table.DefaultValue)
	require.NoError(t, err)
	sum := 0.0
	for i := 0; i < tb.Len(); i++ {
		ok := true
		for c, v := range want {
			ok = ok && tb.Key(i, c) == v
		}
		if ok {
			sum += tb.Val(i)
		}
	}

	return sum
}

var cementCols = []string{"Time", "Region simple", "Concrete product simple", "End use sector"}

type fixture struct {
	cfg    config.Pipeline
	runner *fakeRunner
	dir    string
}

func cementFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	p := config.DefaultPipeline()
	p.UseBuildings, p.UseVehicles = true, false
	p.CombineCement, p.CombinePlastics, p.CombineSteel = true, false, false
	p.Models.Buildings = "buildings.yml"
	p.Models.CementStock = "cement_stock.yml"
	p.Models.CementFlows = "cement_flows.yml"
	p.Catalogs = nil
	p.TopDown.CementStockDir = filepath.Join(dir, "stock")
	p.TopDown.CementFlowsDir = filepath.Join(dir, "flows")
	p.TopDown.CementStart = write(t, filepath.Join(dir, "start_value.csv"),
		"Time;Region simple;Concrete product simple;End use sector;Value\n2023;EU;Concrete;Residential;100\n")
	p.TopDown.CementGrowth = write(t, filepath.Join(dir, "growth_rate.csv"),
		"Time;End use sector;Value\n2024;Residential;1.1\n2025;Residential;1.2\n")
	p.Mapping = map[string]string{
		config.MapBuildingsConcreteRegions: write(t, filepath.Join(dir, "regions.csv"),
			"original_dimension,original_element,target_dimension,target_element,factor\nRegion,DE,Region simple,EU,1\n"),
		config.MapBuildingsConcreteProducts: write(t, filepath.Join(dir, "products.csv"),
			"original_dimension,original_element,target_dimension,target_element,target_dimension.1,target_element.1,factor\n"+
				"Concrete product,Ready-mix,Concrete product simple,Concrete,End use sector,Residential,1\n"),
	}

	runner := &fakeRunner{flows: map[string]map[mfa.FlowID]*table.Table{
		"buildings.yml": {
			mfa.FlowID(p.SourceFlows.BuildingsConcrete): tab(t, []string{"Time", "Region", "Concrete product"},
				[]string{"2023", "DE", "Ready-mix", "40"}),
			mfa.FlowID(p.SourceFlows.BuildingsEoL): tab(t, []string{"Time", "Region", "Concrete product", "Age cohort"},
				[]string{"2030", "DE", "Ready-mix", "2020-2029", "10"},
				[]string{"2030", "DE", "Ready-mix", ">1970", "99"}),
		},
		"cement_stock.yml": {
			mfa.FlowID(cement.FutureEoLFlow): tab(t, cementCols, []string{"2025", "EU", "Concrete", "Residential", "5"}),
		},
		"cement_flows.yml": {
			mfa.FlowID(cement.HistoricMarketFlow): tab(t, cementCols,
				[]string{"2022", "EU", "Concrete", "Residential", "10"},
				[]string{"2023", "EU", "Concrete", "Residential", "11"},
				[]string{"2024", "EU", "Concrete", "Residential", "99"}),
			mfa.FlowID(cement.FutureMarketFlow): tab(t, cementCols,
				[]string{"2023", "EU", "Concrete", "Residential", "50"},
				[]string{"2024", "EU", "Concrete", "Residential", "66"}),
		},
	}}

	return fixture{cfg: p, runner: runner, dir: dir}
}

func (f fixture) run(t *testing.T) (*pipeline.Report, error) {
	t.Helper()
	cfg, err := pipeline.NewConfig(f.cfg)
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return pipeline.New(cfg, pipeline.WithRunner(f.runner), pipeline.WithLogger(log)).Run(context.Background())
}

// TestRun_Cement drives the whole cement chain on canned sub-model output.
func TestRun_Cement(t *testing.T) {
	f := cementFixture(t)
	f.cfg.SplitBuildingsEoL = true
	rep, err := f.run(t)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, []string{"buildings.yml", "cement_stock.yml", "cement_flows.yml"}, f.runner.calls)

	stock, flows := f.cfg.TopDown.CementStockDir, f.cfg.TopDown.CementFlowsDir
	at := func(year string) map[string]string {
		return map[string]string{"Time": year, "Region simple": "EU", "Concrete product simple": "Concrete", "End use sector": "Residential"}
	}

	bu := filepath.Join(stock, "bottom_up_demand_buildings.csv")
	assert.InDelta(t, 40.0, value(t, bu, at("2023")), 1e-9)

	// Residual 100-40 at the base year, then scaled by growth.
	demand := filepath.Join(stock, "demand_future.csv")
	assert.InDelta(t, 60.0, value(t, demand, at("2023")), 1e-9)
	assert.InDelta(t, 66.0, value(t, demand, at("2024")), 1e-9)
	assert.InDelta(t, 72.0, value(t, demand, at("2025")), 1e-9)

	total := filepath.Join(flows, "total_future_demand.csv")
	assert.InDelta(t, 100.0, value(t, total, at("2023")), 1e-9)
	assert.InDelta(t, 66.0, value(t, total, at("2024")), 1e-9)

	// Residual EoL plus 6/10 of the 2020-2029 buildings cohort.
	eol := filepath.Join(flows, "total_future_eol_flows.csv")
	assert.InDelta(t, 5.0, value(t, eol, at("2025")), 1e-9)
	assert.InDelta(t, 6.0, value(t, eol, at("2030")), 1e-9)

	all := filepath.Join(flows, "concrete_market_all.csv")
	assert.InDelta(t, 10.0, value(t, all, at("2022")), 1e-9)
	assert.InDelta(t, 11.0, value(t, all, at("2023")), 1e-9)
	assert.InDelta(t, 66.0, value(t, all, at("2024")), 1e-9)
	assert.Contains(t, rep.Written, all)
}

// TestRun_CementWithoutSplit writes the stock EoL unchanged.
func TestRun_CementWithoutSplit(t *testing.T) {
	f := cementFixture(t)
	_, err := f.run(t)
	require.NoError(t, err)
	eol := filepath.Join(f.cfg.TopDown.CementFlowsDir, "total_future_eol_flows.csv")
	assert.InDelta(t, 5.0, value(t, eol, map[string]string{"Time": "2025"}), 1e-9)
	assert.Zero(t, value(t, eol, map[string]string{"Time": "2030"}))
}

// TestRun_DownstreamOnly runs only the flows sub-model.
func TestRun_DownstreamOnly(t *testing.T) {
	f := cementFixture(t)
	f.cfg.DownstreamOnly = true
	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"cement_flows.yml"}, f.runner.calls)
	assert.NoFileExists(t, filepath.Join(f.cfg.TopDown.CementStockDir, "demand_future.csv"))
}

// TestRun_StageError names the failing stage and config.
func TestRun_StageError(t *testing.T) {
	f := cementFixture(t)
	boom := errors.New("boom")
	f.runner.fail = map[string]error{"cement_stock.yml": boom}
	_, err := f.run(t)
	require.Error(t, err)

	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.StageStock, se.Stage)
	assert.Equal(t, config.TargetCement, se.Target)
	assert.Equal(t, "cement_stock.yml", se.Path)
	assert.ErrorIs(t, err, boom)
	// Earlier stages keep their output.
	assert.FileExists(t, filepath.Join(f.cfg.TopDown.CementStockDir, "demand_future.csv"))
}

// TestRun_MissingStartFile fails in the residual stage.
func TestRun_MissingStartFile(t *testing.T) {
	f := cementFixture(t)
	f.cfg.TopDown.CementStart = filepath.Join(f.dir, "absent.csv")
	_, err := f.run(t)
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.StageResidual, se.Stage)
	assert.Equal(t, f.cfg.TopDown.CementStart, se.Path)
}

// TestRun_VehiclesFailureTolerated continues with buildings only.
func TestRun_VehiclesFailureTolerated(t *testing.T) {
	f := cementFixture(t)
	f.cfg.UseVehicles = true
	f.cfg.Models.Vehicles = "vehicles.yml"
	f.runner.fail = map[string]error{"vehicles.yml": errors.New("no data")}
	_, err := f.run(t)
	require.NoError(t, err)
	assert.Contains(t, f.runner.calls, "cement_flows.yml")
}

func TestNewConfig_CopiesMaps(t *testing.T) {
	p := config.DefaultPipeline()
	cfg, err := pipeline.NewConfig(p)
	require.NoError(t, err)
	p.Mapping[config.MapBuildingsConcreteRegions] = "changed.csv"
	assert.NotEqual(t, "changed.csv", cfg.Settings().Mapping[config.MapBuildingsConcreteRegions])
	assert.Equal(t, 2023, cfg.BaseYear())

	p.BaseYear = 0
	_, err = pipeline.NewConfig(p)
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}
