// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/mfa"
	"github.com/katalvlaran/eumfa/models"
	"github.com/katalvlaran/eumfa/table"
)

// Stage names reported in StageError.
const (
	StageBottomUp = "bottom-up"
	StageRemap    = "remap"
	StageResidual = "residual"
	StageStock    = "stock"
	StageTotals   = "totals"
	StageFlows    = "flows"
	StageCombine  = "combine"
)

// StageError reports the stage, target and file of a failed run.
type StageError struct {
	Stage  string
	Target string // "" for stages shared by every target
	Path   string
	Err    error
}

func (e *StageError) Error() string {
	where := e.Stage
	if e.Target != "" {
		where = e.Target + " " + e.Stage
	}
	if e.Path == "" {
		return fmt.Sprintf("pipeline %s: %v", where, e.Err)
	}

	return fmt.Sprintf("pipeline %s (%s): %v", where, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage, target, path string, err error) error {
	if err == nil {
		return nil
	}

	return &StageError{Stage: stage, Target: target, Path: path, Err: err}
}

// Config is a validated, immutable copy of the combined-run settings.
type Config struct {
	p config.Pipeline
}

// NewConfig validates p and copies its maps.
func NewConfig(p config.Pipeline) (Config, error) {
	if err := p.Validate(); err != nil {
		return Config{}, err
	}
	p.Mapping = maps.Clone(p.Mapping)
	p.Delimiters = maps.Clone(p.Delimiters)
	cats := make(map[string]map[string]string, len(p.Catalogs))
	for k, v := range p.Catalogs {
		cats[k] = maps.Clone(v)
	}
	p.Catalogs = cats

	return Config{p: p}, nil
}

// LoadConfig reads a pipeline YAML file into a Config.
func LoadConfig(path string) (Config, error) {
	p, err := config.LoadPipeline(path)
	if err != nil {
		return Config{}, err
	}

	return NewConfig(p)
}

// Settings returns a copy of the underlying settings.
func (c Config) Settings() config.Pipeline {
	out, _ := NewConfig(c.p)

	return out.p
}

// BaseYear returns the reconciliation base year.
func (c Config) BaseYear() int { return c.p.BaseYear }

// Runner runs one sub-model configuration and returns its flows.
type Runner interface {
	Run(ctx context.Context, modelConfig string) (map[mfa.FlowID]*table.Table, error)
}

// ModelRunner runs sub-models in process through models.RunFile.
type ModelRunner struct {
	Logger *slog.Logger
}

// Run implements Runner.
func (r ModelRunner) Run(ctx context.Context, modelConfig string) (map[mfa.FlowID]*table.Table, error) {
	res, err := models.RunFile(ctx, modelConfig, r.Logger)
	if err != nil {
		return nil, err
	}

	return res.Flows(), nil
}
