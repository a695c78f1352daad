// SPDX-License-Identifier: MIT

package mfa

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/table"
)

// ParameterValueAliases are the value column names accepted in parameter files.
var ParameterValueAliases = []string{"value", "Value", "VALUE", "val"}

// LoadDimensions reads every declared dimension from files, keyed by
// dimension name, and returns them as a Set in declaration order.
func LoadDimensions(defs []dimension.Definition, files map[string]string) (*dimension.Set, error) {
	dims := make([]*dimension.Dimension, 0, len(defs))
	for _, def := range defs {
		path, ok := files[def.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no file for dimension %q", dimension.ErrNoItems, def.Name)
		}
		d, err := dimension.Load(path, def)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}

	return dimension.NewSet(dims...)
}

// LoadOptions controls LoadParameters.
type LoadOptions struct {
	// Dir holds one {name}.csv per parameter.
	Dir string
	// Files overrides the path of individual parameters.
	Files map[string]string
	// AllowMissing zero-fills absent files and uncovered coordinates.
	AllowMissing bool
	// AllowExtra skips rows with labels outside the dimension items.
	AllowExtra bool
}

// LoadParameters fills every declared parameter from CSV.
func (s *System) LoadParameters(opts LoadOptions) error {
	for _, name := range s.paramOrder {
		path := opts.Files[name]
		if path == "" {
			path = filepath.Join(opts.Dir, name+".csv")
		}
		if err := s.loadParameter(name, path, opts); err != nil {
			return err
		}
	}

	return nil
}

func (s *System) loadParameter(name, path string, opts LoadOptions) error {
	dst := s.params[name]
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if !opts.AllowMissing {
			return fmt.Errorf("%w: %q (%s)", ErrMissingParameter, name, path)
		}
		s.log.Warn("parameter file missing, using zeros", "parameter", name, "path", path)
		dst.Fill(0)
		return nil
	}
	t, err := table.ReadValues(path, table.ReadOptions{}, ParameterValueAliases...)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", name, err)
	}
	a, rep, err := array.FromTable(t, dst.Dims(), array.FillOptions{
		AllowMissing: opts.AllowMissing,
		AllowExtra:   opts.AllowExtra,
	})
	if err != nil {
		if errors.Is(err, array.ErrMissingValues) {
			return fmt.Errorf("%w: %q: %v", ErrMissingParameter, name, err)
		}
		return fmt.Errorf("parameter %q (%s): %w", name, path, err)
	}
	if rep.Missing > 0 {
		s.log.Warn("parameter values missing, zero-filled", "parameter", name, "missing", rep.Missing, "of", a.Size())
	}
	if rep.Extra > 0 {
		s.log.Warn("parameter rows outside dimension items skipped", "parameter", name, "rows", rep.Extra)
	}

	return dst.Assign(a)
}
