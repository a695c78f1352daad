// SPDX-License-Identifier: MIT

package mfa

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/eumfa/table"
)

// Sanitize turns a flow or stock name into a file stem: "=>" becomes
// "_to_" and spaces become "_", so "A => B" is "A__to__B".
func Sanitize(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "=>", "_to_"), " ", "_")
}

// FlowTables renders every flow as a table keyed by flow identifier.
func (s *System) FlowTables() map[FlowID]*table.Table {
	out := make(map[FlowID]*table.Table, len(s.flows))
	for _, id := range s.flowOrder {
		out[id] = s.flows[id].Array.ToTable()
	}

	return out
}

// ExportOptions selects what ExportCSV writes.
type ExportOptions struct {
	Flows    bool
	Stocks   bool
	Manifest bool
	// RunID and ModelClass are recorded in the manifest.
	RunID      string
	ModelClass string
}

// Manifest describes one export directory.
type Manifest struct {
	RunID      string    `yaml:"run_id"`
	System     string    `yaml:"system"`
	ModelClass string    `yaml:"model_class"`
	Created    time.Time `yaml:"created"`
	Flows      []string  `yaml:"flows"`
	Stocks     []string  `yaml:"stocks"`
}

// ExportCSV writes flows to dir/flows/{name}.csv and stocks to
// dir/stocks/{name}__{stock|inflow|outflow}.csv, plus dir/manifest.yaml.
func (s *System) ExportCSV(dir string, opts ExportOptions) error {
	man := Manifest{RunID: opts.RunID, System: s.Name, ModelClass: opts.ModelClass, Created: time.Now().UTC()}
	if opts.Flows {
		for _, f := range s.Flows() {
			name := Sanitize(string(f.ID))
			if err := f.Array.ToTable().Write(filepath.Join(dir, "flows", name+".csv"), ','); err != nil {
				return err
			}
			man.Flows = append(man.Flows, string(f.ID))
		}
	}
	if opts.Stocks {
		for _, st := range s.Stocks() {
			name := Sanitize(st.Name())
			fields := []struct {
				suffix string
				tab    *table.Table
			}{
				{"stock", st.Stock().ToTable()},
				{"inflow", st.Inflow().ToTable()},
				{"outflow", st.Outflow().ToTable()},
			}
			for _, fl := range fields {
				p := filepath.Join(dir, "stocks", fmt.Sprintf("%s__%s.csv", name, fl.suffix))
				if err := fl.tab.Write(p, ','); err != nil {
					return err
				}
			}
			man.Stocks = append(man.Stocks, st.Name())
		}
	}
	if !opts.Manifest {
		return nil
	}
	data, err := yaml.Marshal(man)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	p := filepath.Join(dir, "manifest.yaml")
	if err = os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}

	return nil
}
