// SPDX-License-Identifier: MIT

// Package models maps configuration model classes to sub-models and runs
// them: load dimensions and parameters, compute, check mass balance and
// export.
//
// The registry is a plain map from model_class to Factory. Unknown classes
// are configuration errors (ErrUnknownModelClass).
package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/lifetime"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models/buildings"
	"github.com/katalvlaran/eumfa/models/cement"
	"github.com/katalvlaran/eumfa/models/plastics"
	"github.com/katalvlaran/eumfa/models/steel"
	"github.com/katalvlaran/eumfa/models/vehicles"
	"github.com/katalvlaran/eumfa/table"
)

// ErrUnknownModelClass indicates a model_class without a registered factory.
var ErrUnknownModelClass = errors.New("models: unknown model class")

// BalanceTolerance is the relative tolerance of the post-run balance check.
const BalanceTolerance = 1e-6

// Factory builds a sub-model for the given customization.
type Factory func(config.Customization) (*mfa.Model, error)

var registry = map[string]Factory{
	buildings.Class:     buildings.New,
	vehicles.Class:      vehicles.New,
	steel.Class:         steel.New,
	plastics.Class:      plastics.New,
	cement.StockClass:   cement.NewStock,
	cement.FlowsClass:   cement.NewFlows,
	cement.TopdownClass: cement.NewTopdown,
}

// Lookup returns the factory registered for class.
func Lookup(class string) (Factory, error) {
	f, ok := registry[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelClass, class)
	}

	return f, nil
}

// Classes returns the registered model classes, sorted.
func Classes() []string {
	out := make([]string, 0, len(registry))
	for c := range registry {
		out = append(out, c)
	}
	sort.Strings(out)

	return out
}

// Result is the outcome of one sub-model run.
type Result struct {
	RunID      string
	Class      string
	System     *mfa.System
	Imbalances []mfa.Imbalance
}

// Flows returns every flow as a table keyed by flow id.
func (r *Result) Flows() map[mfa.FlowID]*table.Table { return r.System.FlowTables() }

// Flow returns one flow table.
func (r *Result) Flow(id string) (*table.Table, error) {
	f, err := r.System.Flow(mfa.FlowID(id))
	if err != nil {
		return nil, err
	}

	return f.Array.ToTable(), nil
}

// Run executes the sub-model cfg names. Dimension items are read from
// {input}/dimensions/{stem}.csv and parameters from {input}/datasets.
// Exports go to {output}/export.
func Run(ctx context.Context, cfg config.Model, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	factory, err := Lookup(cfg.ModelClass)
	if err != nil {
		return nil, err
	}
	model, err := factory(cfg.Customization)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.ModelClass, err)
	}
	lt, err := lifetime.Lookup(cfg.Customization.LifetimeModelName)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log = log.With("run", runID, "model", cfg.ModelClass)

	paths, err := model.DimensionPaths(filepath.Join(cfg.InputDataPath, "dimensions"))
	if err != nil {
		return nil, err
	}
	dims, err := mfa.LoadDimensions(model.Definition.Dimensions, paths)
	if err != nil {
		return nil, err
	}
	sys, err := mfa.NewSystem(cfg.ModelClass, model.Definition, dims,
		mfa.WithLogger(log),
		mfa.WithLifetime(lt),
		mfa.WithStrictNumerics(cfg.Customization.StrictNumerics),
	)
	if err != nil {
		return nil, err
	}
	err = sys.LoadParameters(mfa.LoadOptions{
		Dir:          filepath.Join(cfg.InputDataPath, "datasets"),
		AllowMissing: cfg.Customization.AllowMissingParameterValues,
		AllowExtra:   cfg.Customization.AllowExtraParameterValues,
	})
	if err != nil {
		return nil, err
	}

	log.Info("computing", "steps", len(model.Steps), "lifetime", cfg.Customization.LifetimeModelName)
	if err = sys.Compute(ctx, model.Steps); err != nil {
		return nil, err
	}
	res := &Result{RunID: runID, Class: cfg.ModelClass, System: sys, Imbalances: sys.LogBalance(BalanceTolerance)}

	if err = export(sys, cfg, runID, log); err != nil {
		return nil, err
	}
	log.Info("model run finished", "flows", len(sys.Flows()), "imbalances", len(res.Imbalances))

	return res, nil
}

func export(sys *mfa.System, cfg config.Model, runID string, log *slog.Logger) error {
	ex := cfg.DoExport
	if ex.Pickle {
		log.Warn("pickle export is not supported, skipped")
	}
	if !ex.CSV && !ex.Stocks && !ex.Manifest {
		return nil
	}
	dir := filepath.Join(cfg.OutputPath, "export")
	err := sys.ExportCSV(dir, mfa.ExportOptions{
		Flows:      ex.CSV,
		Stocks:     ex.Stocks,
		Manifest:   ex.Manifest,
		RunID:      runID,
		ModelClass: cfg.ModelClass,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", dir, err)
	}
	log.Info("exported", "dir", dir)

	return nil
}

// RunFile loads the sub-model configuration at path and runs it.
func RunFile(ctx context.Context, path string, log *slog.Logger) (*Result, error) {
	cfg, err := config.LoadModel(path)
	if err != nil {
		return nil, err
	}

	return Run(ctx, cfg, log)
}
