package models_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models"
	"github.com/katalvlaran/eumfa/models/vehicles"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func write(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

// vehicleFixture writes a one-region, one-type vehicles input tree and
// returns its root.
func vehicleFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dim := func(stem string, items ...string) { write(t, filepath.Join(root, "dimensions", stem+".csv"), items...) }
	dim("time_in_years", "2020", "2021", "2022")
	dim("regions", "DE")
	dim("vehicle_types", "Car")
	dim("vehicle_size", "Small", "Large")
	dim("steel_products", "Sheet")
	dim("plastics_products", "PP")
	dim("glass_products", "Flat")

	data := func(name string, lines ...string) { write(t, filepath.Join(root, "datasets", name+".csv"), lines...) }
	data("vehicle_inflow", "Time,Region,Vehicle type,value", "2020,DE,Car,10")
	data("vehicle_technology_share",
		"Time,Region,Vehicle size,value",
		"2020,DE,Small,0.4", "2020,DE,Large,0.6",
		"2021,DE,Small,0.4", "2021,DE,Large,0.6",
		"2022,DE,Small,0.4", "2022,DE,Large,0.6",
	)
	data("vehicle_lifetime_mean", "Vehicle type,value", "Car,1")
	data("vehicle_lifetime_std", "Vehicle type,value", "Car,0")
	data("vehicle_steel_intensity", "v,z,l,value", "Car,Small,Sheet,2", "Car,Large,Sheet,3")

	return root
}

func modelFile(t *testing.T, m config.Model) string {
	t.Helper()
	body := map[string]any{
		"model_class":     m.ModelClass,
		"input_data_path": m.InputDataPath,
		"output_path":     m.OutputPath,
		"customization":   map[string]any{"lifetime_model_name": m.Customization.LifetimeModelName},
		"logging":         map[string]any{"level": "ERROR"},
	}
	data, err := yaml.Marshal(body)
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "vehicles.yml")
	require.NoError(t, os.WriteFile(p, data, 0o644))

	return p
}

// TestRunFile_Vehicles runs the vehicles model end to end and checks
// flows, balance and the exported tree.
func TestRunFile_Vehicles(t *testing.T) {
	in, out := vehicleFixture(t), t.TempDir()
	path := modelFile(t, config.Model{
		ModelClass:    vehicles.Class,
		InputDataPath: in,
		OutputPath:    out,
		Customization: config.Customization{LifetimeModelName: "FixedLifetime"},
	})

	res, err := models.RunFile(context.Background(), path, quiet())
	require.NoError(t, err)
	assert.Equal(t, vehicles.Class, res.Class)
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.Imbalances)

	steelIn, err := res.System.Flow(mfa.FlowID(vehicles.InflowFlow(vehicles.Process("Steel"))))
	require.NoError(t, err)
	v, err := steelIn.Array.Get("2020", "DE", "Car", "Sheet")
	require.NoError(t, err)
	assert.InDelta(t, 26.0, v, 1e-9)

	steelOut, err := res.System.Flow(mfa.FlowID(vehicles.OutflowFlow(vehicles.Process("Steel"))))
	require.NoError(t, err)
	v, _ = steelOut.Array.Get("2021", "DE", "Car", "Sheet")
	assert.InDelta(t, 26.0, v, 1e-9)
	v, _ = steelOut.Array.Get("2022", "DE", "Car", "Sheet")
	assert.Zero(t, v)

	tab, err := res.Flow(vehicles.InflowFlow(vehicles.VehicleStock))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, tab.Total(), 1e-9)

	export := filepath.Join(out, "export")
	assert.FileExists(t, filepath.Join(export, "flows", "sysenv__to__Steel_stock_in_vehicles.csv"))
	assert.FileExists(t, filepath.Join(export, "stocks", "Vehicle_stock__stock.csv"))

	data, err := os.ReadFile(filepath.Join(export, "manifest.yaml"))
	require.NoError(t, err)
	var man mfa.Manifest
	require.NoError(t, yaml.Unmarshal(data, &man))
	assert.Equal(t, res.RunID, man.RunID)
	assert.Equal(t, vehicles.Class, man.ModelClass)
	assert.Contains(t, man.Stocks, vehicles.VehicleStock)
	assert.Len(t, man.Flows, len(res.Flows()))
}

// TestRun_Errors covers configuration failures surfaced before compute.
func TestRun_Errors(t *testing.T) {
	cfg := config.DefaultModel()
	cfg.ModelClass = "ships"
	_, err := models.Run(context.Background(), cfg, quiet())
	assert.ErrorIs(t, err, models.ErrUnknownModelClass)

	cfg.ModelClass = vehicles.Class
	cfg.Customization.LifetimeModelName = "GammaLifetime"
	_, err = models.Run(context.Background(), cfg, quiet())
	assert.Error(t, err)

	cfg = config.DefaultModel()
	cfg.ModelClass = vehicles.Class
	cfg.InputDataPath = t.TempDir()
	cfg.OutputPath = t.TempDir()
	_, err = models.Run(context.Background(), cfg, quiet())
	assert.Error(t, err, "dimension files are missing")

	cfg.Customization.DrivingMode = "push"
	cfg.ModelClass = "plastics"
	_, err = models.Run(context.Background(), cfg, quiet())
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

// TestRun_MissingParametersStrict rejects absent data when zero-fill is off.
func TestRun_MissingParametersStrict(t *testing.T) {
	cfg := config.DefaultModel()
	cfg.ModelClass = vehicles.Class
	cfg.InputDataPath = vehicleFixture(t)
	cfg.OutputPath = t.TempDir()
	cfg.Customization.LifetimeModelName = "FixedLifetime"
	cfg.Customization.AllowMissingParameterValues = false
	_, err := models.Run(context.Background(), cfg, quiet())
	assert.ErrorIs(t, err, mfa.ErrMissingParameter)
}

func TestClasses(t *testing.T) {
	assert.Equal(t, []string{
		"buildings", "cement_flows", "cement_stock", "cement_topdown", "plastics", "steel", "vehicles",
	}, models.Classes())
	for _, c := range models.Classes() {
		f, err := models.Lookup(c)
		require.NoError(t, err)
		m, err := f(config.DefaultModel().Customization)
		require.NoError(t, err, c)
		require.NoError(t, m.Definition.Validate(), c)
	}
}
