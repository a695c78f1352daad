// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"sort"
)

// Mapping file keys of Pipeline.Mapping.
const (
	MapBuildingsPlasticsRegions  = "buildings_plastics_regions"
	MapBuildingsPlasticsProducts = "buildings_plastics_products"
	MapVehiclesPlasticsRegions   = "vehicles_plastics_regions"
	MapVehiclesPlasticsProducts  = "vehicles_plastics_products"
	MapBuildingsConcreteRegions  = "buildings_concrete_regions"
	MapBuildingsConcreteProducts = "buildings_concrete_products"
	MapVehiclesSteelRegions      = "vehicles_steel_regions"
	MapVehiclesSteelProducts     = "vehicles_steel_products"
	MapBuildingsSteelRegions     = "buildings_steel_regions"
	MapBuildingsSteelProducts    = "buildings_steel_products"
)

// Target materials of the combined run.
const (
	TargetPlastics = "plastics"
	TargetSteel    = "steel"
	TargetCement   = "cement"
)

// Pipeline configures the combined bottom-up/top-down run.
type Pipeline struct {
	BaseYear int `yaml:"base_year"`
	// DownstreamOnly skips bottom-up runs and reconciliation and only runs
	// the flows sub-model of each enabled material.
	DownstreamOnly  bool `yaml:"downstream_only"`
	UseBuildings    bool `yaml:"use_buildings"`
	UseVehicles     bool `yaml:"use_vehicles"`
	CombinePlastics bool `yaml:"combine_plastics"`
	CombineSteel    bool `yaml:"combine_steel"`
	CombineCement   bool `yaml:"combine_cement"`

	Models      ModelFiles                   `yaml:"models"`
	Mapping     map[string]string            `yaml:"mapping"`
	TopDown     TopDown                      `yaml:"topdown"`
	Catalogs    map[string]map[string]string `yaml:"catalogs"`
	SourceFlows SourceFlows                  `yaml:"source_flows"`
	// Delimiters maps a target material to its mapping file separator;
	// absent targets auto-detect.
	Delimiters map[string]string `yaml:"delimiters"`
	// TopDownDelimiter is the separator of cement start and growth files.
	TopDownDelimiter string `yaml:"topdown_delimiter"`
	// SplitBuildingsEoL adds the post-base-year share of buildings EoL
	// cohorts to the cement EoL total.
	SplitBuildingsEoL bool    `yaml:"split_buildings_eol"`
	Logging           Logging `yaml:"logging"`
}

// ModelFiles are the sub-model configuration paths.
type ModelFiles struct {
	Buildings   string `yaml:"buildings"`
	Vehicles    string `yaml:"vehicles"`
	Plastics    string `yaml:"plastics"`
	Steel       string `yaml:"steel"`
	CementStock string `yaml:"cement_stock"`
	CementFlows string `yaml:"cement_flows"`
}

// TopDown holds the dataset directories and start/growth files.
type TopDown struct {
	PlasticsDir    string `yaml:"plastics_dir"`
	SteelDir       string `yaml:"steel_dir"`
	CementStockDir string `yaml:"cement_stock_dir"`
	CementFlowsDir string `yaml:"cement_flows_dir"`
	PlasticsStart  string `yaml:"plastics_start"`
	PlasticsGrowth string `yaml:"plastics_growth"`
	SteelStart     string `yaml:"steel_start"`
	SteelGrowth    string `yaml:"steel_growth"`
	CementStart    string `yaml:"cement_start"`
	CementGrowth   string `yaml:"cement_growth"`
}

// SourceFlows names the bottom-up flows that feed each target.
type SourceFlows struct {
	BuildingsSteel      string `yaml:"buildings_steel"`
	BuildingsConcrete   string `yaml:"buildings_concrete"`
	BuildingsInsulation string `yaml:"buildings_insulation"`
	BuildingsEoL        string `yaml:"buildings_eol"`
	VehiclesSteel       string `yaml:"vehicles_steel"`
	VehiclesPlastics    string `yaml:"vehicles_plastics"`
}

// DefaultPipeline returns the baseline combined-run settings.
func DefaultPipeline() Pipeline {
	const (
		combined = "data/baseline_combined/"
		plastics = "data/baseline_plastics_flows/input/"
		steel    = "data/baseline_steel_flows/input/"
		cement   = "data/baseline_cement_stock_flows/input/"
	)
	return Pipeline{
		BaseYear:      2023,
		UseBuildings:  true,
		CombineCement: true,
		Models: ModelFiles{
			Buildings:   "config/buildings.yml",
			Vehicles:    "config/vehicles.yml",
			Plastics:    "config/plastics_baseline.yml",
			Steel:       "config/steel.yml",
			CementStock: "config/cement_stock.yml",
			CementFlows: "config/cement_flows.yml",
		},
		Mapping: map[string]string{
			MapBuildingsPlasticsRegions:  combined + "mapping_buildings_plastics_regions.csv",
			MapBuildingsPlasticsProducts: combined + "mapping_buildings_plastics_products.csv",
			MapVehiclesPlasticsRegions:   combined + "mapping_vehicles_plastics_regions.csv",
			MapVehiclesPlasticsProducts:  combined + "mapping_vehicles_plastics_products.csv",
			MapBuildingsConcreteRegions:  combined + "mapping_buildings_concrete_regions.csv",
			MapBuildingsConcreteProducts: combined + "mapping_buildings_concrete_products.csv",
			MapVehiclesSteelRegions:      combined + "mapping_vehicles_steel_regions.csv",
			MapVehiclesSteelProducts:     combined + "mapping_vehicles_steel_products.csv",
			MapBuildingsSteelRegions:     combined + "mapping_buildings_steel_regions.csv",
			MapBuildingsSteelProducts:    combined + "mapping_buildings_steel_products.csv",
		},
		TopDown: TopDown{
			PlasticsDir:    plastics + "datasets",
			SteelDir:       steel + "datasets",
			CementStockDir: cement + "datasets",
			CementFlowsDir: cement + "datasets",
			PlasticsStart:  plastics + "datasets/start_value.csv",
			PlasticsGrowth: plastics + "datasets/growth_rate.csv",
			SteelStart:     steel + "datasets/start_value.csv",
			SteelGrowth:    steel + "datasets/growth_rate.csv",
			CementStart:    cement + "datasets/start_value.csv",
			CementGrowth:   cement + "datasets/growth_rate.csv",
		},
		Catalogs: map[string]map[string]string{
			TargetPlastics: {
				"sector":  plastics + "dimensions/end_use_sectors_all.csv",
				"polymer": plastics + "dimensions/polymers.csv",
				"element": plastics + "dimensions/elements.csv",
			},
			TargetSteel: {
				"sector":       steel + "dimensions/end_use_sectors.csv",
				"product":      steel + "dimensions/products.csv",
				"intermediate": steel + "dimensions/intermediates.csv",
				"element":      steel + "dimensions/elements.csv",
			},
			TargetCement: {
				"Concrete product simple": cement + "dimensions/concrete_products_simple.csv",
				"End use sector":          cement + "dimensions/end_use_sectors.csv",
			},
		},
		SourceFlows: SourceFlows{
			BuildingsSteel:      "sysenv => Steel stock in buildings",
			BuildingsConcrete:   "sysenv => Concrete stock in buildings",
			BuildingsInsulation: "sysenv => Insulation stock in buildings",
			BuildingsEoL:        "Concrete stock in buildings => sysenv",
			VehiclesSteel:       "sysenv => Steel stock in vehicles",
			VehiclesPlastics:    "sysenv => Plastics stock in vehicles",
		},
		TopDownDelimiter: ";",
		Logging:          Logging{Level: "INFO"},
	}
}

// LoadPipeline reads a combined-run YAML file over DefaultPipeline.
// Mapping and catalog entries merge with the defaults key by key.
func LoadPipeline(path string) (Pipeline, error) {
	p := DefaultPipeline()
	if err := decode(path, &p); err != nil {
		return Pipeline{}, err
	}
	if err := p.Validate(); err != nil {
		return Pipeline{}, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// Validate checks that every enabled stage has its inputs configured.
func (p Pipeline) Validate() error {
	if p.BaseYear <= 0 {
		return fmt.Errorf("%w: base_year %d", ErrInvalidValue, p.BaseYear)
	}
	type field struct{ key, val string }
	var need []field
	if p.CombinePlastics {
		need = append(need, field{"models.plastics", p.Models.Plastics})
		if !p.DownstreamOnly {
			need = append(need, field{"topdown.plastics_start", p.TopDown.PlasticsStart},
				field{"topdown.plastics_growth", p.TopDown.PlasticsGrowth},
				field{"topdown.plastics_dir", p.TopDown.PlasticsDir})
		}
	}
	if p.CombineSteel {
		need = append(need, field{"models.steel", p.Models.Steel})
		if !p.DownstreamOnly {
			need = append(need, field{"topdown.steel_start", p.TopDown.SteelStart},
				field{"topdown.steel_growth", p.TopDown.SteelGrowth},
				field{"topdown.steel_dir", p.TopDown.SteelDir})
		}
	}
	if p.CombineCement {
		need = append(need, field{"models.cement_flows", p.Models.CementFlows})
		if !p.DownstreamOnly {
			need = append(need, field{"models.cement_stock", p.Models.CementStock},
				field{"topdown.cement_start", p.TopDown.CementStart},
				field{"topdown.cement_growth", p.TopDown.CementGrowth},
				field{"topdown.cement_stock_dir", p.TopDown.CementStockDir},
				field{"topdown.cement_flows_dir", p.TopDown.CementFlowsDir})
		}
	}
	if !p.DownstreamOnly {
		if p.UseBuildings {
			need = append(need, field{"models.buildings", p.Models.Buildings})
		}
		if p.UseVehicles {
			need = append(need, field{"models.vehicles", p.Models.Vehicles})
		}
	}
	for _, f := range need {
		if f.val == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.key)
		}
	}
	keys := make([]string, 0, len(p.Delimiters))
	for k := range p.Delimiters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := p.Delimiters[k]; len([]rune(v)) > 1 {
			return fmt.Errorf("%w: delimiters.%s %q", ErrInvalidValue, k, v)
		}
	}

	return nil
}

// Delimiter returns the mapping file separator for target (0 = detect).
func (p Pipeline) Delimiter(target string) rune {
	if r := []rune(p.Delimiters[target]); len(r) == 1 {
		return r[0]
	}

	return 0
}

// TopDownRune returns TopDownDelimiter as a rune (0 = detect).
func (p Pipeline) TopDownRune() rune {
	if r := []rune(p.TopDownDelimiter); len(r) == 1 {
		return r[0]
	}

	return 0
}
