// SPDX-License-Identifier: MIT

package mfa

import (
	"fmt"
	"path/filepath"
)

// Model bundles what a sub-model contributes to a run: its definition,
// where its dimension items live and its equations.
type Model struct {
	Definition *Definition
	// DimensionFiles maps dimension names to file stems under the
	// input's dimensions directory.
	DimensionFiles map[string]string
	Steps          []Step
}

// DimensionPaths resolves DimensionFiles to {dir}/{stem}.csv.
func (m *Model) DimensionPaths(dir string) (map[string]string, error) {
	out := make(map[string]string, len(m.Definition.Dimensions))
	for _, d := range m.Definition.Dimensions {
		stem, ok := m.DimensionFiles[d.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no file stem for dimension %q", ErrUnknownLetter, d.Name)
		}
		out[d.Name] = filepath.Join(dir, stem+".csv")
	}

	return out, nil
}
