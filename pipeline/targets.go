// SPDX-License-Identifier: MIT

package pipeline

import (
	"path/filepath"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/table"
)

// source is one bottom-up flow feeding a target.
type source struct {
	model    string // "buildings" or "vehicles"
	flow     string
	regions  string // mapping key of the region rules
	products string // mapping key of the product rules
}

// target describes how one material is reconciled.
type target struct {
	name      string
	model     string // flows sub-model config
	dir       string // top-down dataset directory
	timeCol   string
	regionCol string
	keys      []string
	// renames and fills standardize column names and add missing keys.
	renames map[string]string
	fills   map[string]string
	start   string
	growth  string
	// startDelim applies to start and growth files (0 = detect).
	startDelim rune
	// rawGrowth leaves growth columns as read, so no placeholder keys are
	// added that the growth table does not vary over.
	rawGrowth bool
	sources   []source
	// bottomUp is the file name of the mapped bottom-up demand.
	bottomUp string
}

// columns returns the standardized key columns plus time.
func (t target) columns() []string { return append(append([]string(nil), t.keys...), t.timeCol) }

// standardize renames known columns and adds the missing ones.
func (t target) standardize(tab *table.Table) (*table.Table, error) {
	out, err := tab.Rename(t.renames)
	if err != nil {
		return nil, err
	}
	for _, c := range t.columns() {
		out, _ = out.EnsureColumn(c, t.fills[c])
	}

	return out, nil
}

func (t target) path(name string) string { return filepath.Join(t.dir, name) }

func plasticsTarget(p config.Pipeline) target {
	return target{
		name:      config.TargetPlastics,
		model:     p.Models.Plastics,
		dir:       p.TopDown.PlasticsDir,
		timeCol:   "time",
		regionCol: "region",
		keys:      []string{"region", "sector", "polymer", "element"},
		renames: map[string]string{
			"Time": "time", "Region": "region", "Sector": "sector", "Polymer": "polymer", "Element": "element",
		},
		fills:  map[string]string{"time": "Unknown", "region": "Unknown", "sector": "Unknown", "polymer": "Unknown", "element": "All"},
		start:  p.TopDown.PlasticsStart,
		growth: p.TopDown.PlasticsGrowth,
		sources: []source{
			{"buildings", p.SourceFlows.BuildingsInsulation, config.MapBuildingsPlasticsRegions, config.MapBuildingsPlasticsProducts},
			{"vehicles", p.SourceFlows.VehiclesPlastics, config.MapVehiclesPlasticsRegions, config.MapVehiclesPlasticsProducts},
		},
		bottomUp: "bottom_up_demand_all.csv",
	}
}

func steelTarget(p config.Pipeline) target {
	return target{
		name:      config.TargetSteel,
		model:     p.Models.Steel,
		dir:       p.TopDown.SteelDir,
		timeCol:   "time",
		regionCol: "region",
		keys:      []string{"region", "sector", "intermediate", "product", "element"},
		renames: map[string]string{
			"Time": "time", "Region": "region", "Sector": "sector",
			"Intermediate": "intermediate", "Product": "product", "Element": "element",
		},
		fills: map[string]string{
			"time": "Unknown", "region": "Unknown", "sector": "Unknown",
			"intermediate": "Unknown", "product": "Unknown", "element": "All",
		},
		start:  p.TopDown.SteelStart,
		growth: p.TopDown.SteelGrowth,
		sources: []source{
			{"vehicles", p.SourceFlows.VehiclesSteel, config.MapVehiclesSteelRegions, config.MapVehiclesSteelProducts},
			{"buildings", p.SourceFlows.BuildingsSteel, config.MapBuildingsSteelRegions, config.MapBuildingsSteelProducts},
		},
		bottomUp: "bottom_up_demand_all.csv",
	}
}

const (
	cementTime    = "Time"
	cementRegion  = "Region simple"
	cementProduct = "Concrete product simple"
	cementSector  = "End use sector"
)

func cementTarget(p config.Pipeline) target {
	return target{
		name:      config.TargetCement,
		model:     p.Models.CementFlows,
		dir:       p.TopDown.CementStockDir,
		timeCol:   cementTime,
		regionCol: cementRegion,
		keys:      []string{cementRegion, cementProduct, cementSector},
		renames:   map[string]string{"Region": cementRegion, "Concrete product": cementProduct},
		fills: map[string]string{
			cementTime: "Unknown", cementRegion: "Unknown", cementProduct: "Unknown", cementSector: "Buildings",
		},
		start:      p.TopDown.CementStart,
		growth:     p.TopDown.CementGrowth,
		startDelim: p.TopDownRune(),
		rawGrowth:  true,
		sources: []source{
			{"buildings", p.SourceFlows.BuildingsConcrete, config.MapBuildingsConcreteRegions, config.MapBuildingsConcreteProducts},
		},
		bottomUp: "bottom_up_demand_buildings.csv",
	}
}
