// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Model is the configuration of one sub-model run.
type Model struct {
	ModelClass    string        `yaml:"model_class"`
	InputDataPath string        `yaml:"input_data_path"`
	OutputPath    string        `yaml:"output_path"`
	Customization Customization `yaml:"customization"`
	DoExport      Export        `yaml:"do_export"`
	Logging       Logging       `yaml:"logging"`
	// Visualization is accepted for compatibility and ignored.
	Visualization map[string]any `yaml:"visualization"`
}

// Customization holds model-specific switches.
type Customization struct {
	// LifetimeModelName selects a lifetime registry entry; default NormalLifetime.
	LifetimeModelName string `yaml:"lifetime_model_name"`
	// DrivingMode is "production" (default) or "final_demand".
	DrivingMode string `yaml:"driving_mode"`
	// EndUseSectors is "all" (default) or an explicit list.
	EndUseSectors Sectors `yaml:"end_use_sectors"`
	// WasteNotForRecycling lists waste categories excluded from recycling.
	WasteNotForRecycling []string `yaml:"waste_not_for_recycling"`
	// AllowMissingParameterValues zero-fills absent parameter data; default true.
	AllowMissingParameterValues bool `yaml:"allow_missing_parameter_values"`
	// AllowExtraParameterValues skips rows outside dimension items; default true.
	AllowExtraParameterValues bool `yaml:"allow_extra_parameter_values"`
	// StrictNumerics fails a step that produces NaN or Inf.
	StrictNumerics bool `yaml:"strict_numerics"`
	// LifetimeStdFactor derives lifetime std from mean where a model has
	// no std parameter; default 0.3.
	LifetimeStdFactor float64 `yaml:"lifetime_std_factor"`
}

// Export selects outputs.
type Export struct {
	CSV      bool `yaml:"csv"`
	Stocks   bool `yaml:"stocks"`
	Manifest bool `yaml:"manifest"`
	// Pickle is accepted and has no effect.
	Pickle bool `yaml:"pickle"`
}

// Sectors is "all" or an explicit sector list.
type Sectors struct {
	All   bool
	Names []string
}

// UnmarshalYAML accepts the scalar "all" or a sequence of names.
func (s *Sectors) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value != AllSectors {
			return fmt.Errorf("%w: end_use_sectors %q", ErrInvalidValue, n.Value)
		}
		*s = Sectors{All: true}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return err
		}
		*s = Sectors{Names: names}
		return nil
	}

	return fmt.Errorf("%w: end_use_sectors must be %q or a list", ErrInvalidValue, AllSectors)
}

// Includes reports whether sector is selected.
func (s Sectors) Includes(sector string) bool {
	if s.All {
		return true
	}
	for _, n := range s.Names {
		if n == sector {
			return true
		}
	}

	return false
}

// DefaultModel returns a Model with every default applied.
func DefaultModel() Model {
	return Model{
		Customization: Customization{
			LifetimeModelName:           "NormalLifetime",
			DrivingMode:                 DrivingProduction,
			EndUseSectors:               Sectors{All: true},
			AllowMissingParameterValues: true,
			AllowExtraParameterValues:   true,
			LifetimeStdFactor:           0.3,
		},
		DoExport: Export{CSV: true, Stocks: true, Manifest: true},
		Logging:  Logging{Level: "INFO"},
	}
}

// LoadModel reads and validates a sub-model YAML file.
func LoadModel(path string) (Model, error) {
	m := DefaultModel()
	if err := decode(path, &m); err != nil {
		return Model{}, err
	}
	if err := m.Validate(); err != nil {
		return Model{}, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// Validate checks required fields and enumerations.
func (m Model) Validate() error {
	for _, f := range []struct{ key, val string }{
		{"model_class", m.ModelClass},
		{"input_data_path", m.InputDataPath},
		{"output_path", m.OutputPath},
		{"customization.lifetime_model_name", m.Customization.LifetimeModelName},
	} {
		if f.val == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.key)
		}
	}
	switch m.Customization.DrivingMode {
	case DrivingProduction, DrivingFinalDemand:
	default:
		return fmt.Errorf("%w: driving_mode %q", ErrInvalidValue, m.Customization.DrivingMode)
	}
	if m.Customization.LifetimeStdFactor < 0 {
		return fmt.Errorf("%w: lifetime_std_factor %g", ErrInvalidValue, m.Customization.LifetimeStdFactor)
	}
	if _, err := SlogLevel(m.Logging.Level); err != nil {
		return err
	}

	return nil
}
