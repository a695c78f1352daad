// SPDX-License-Identifier: MIT

// Package plastics is the top-down plastics flows sub-model.
//
// The chain runs from domestic polymer demand through manufacturing (with
// import and export of new plastics, absolute and rate based), the market
// (redistributed over consuming regions by market share), an inflow-driven
// end-use stock and the waste chain: collection, sorting by waste
// category, trade of sorted waste and recycling into secondary raw
// materials.
//
// Two driving modes exist:
//
//	production   - DomesticDemand drives the chain forward.
//	final_demand - FinalDemand fixes the stock inflow; domestic demand is
//	               back-calculated through the trade rates.
package plastics

import (
	"fmt"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
)

// Class is the model_class of this sub-model.
const Class = "plastics"

// Boundary is the system environment of the plastics model.
const Boundary = "Environment"

// Processes.
const (
	PolymerMarket  = "Polymer market"
	Manufacturing  = "Plastics manufacturing"
	PlasticsMarket = "Plastics market"
	EndUseStock    = "End use stock"
	Collection     = "Waste collection"
	Sorting        = "Waste sorting"
	SortedMarket   = "Sorted waste market"
	Recycling      = "Recycling"
)

// Flow identifiers.
const (
	FDomestic     = "Environment => Polymer market"
	FPrimary      = "Polymer market => PRIMARY Plastics manufacturing"
	FSecondary    = "Polymer market => SECONDARY Plastics manufacturing"
	FImportNew    = "Environment => Plastics manufacturing"
	FExportNew    = "Plastics manufacturing => Environment"
	FNewPlastics  = "Plastics manufacturing => Plastics market"
	FInflow       = "Plastics market => End use stock"
	FEoL          = "End use stock => Waste collection"
	FRecovered    = "Waste collection => Waste sorting"
	FLittering    = "Waste collection => LITTERING Environment"
	FDefault      = "Waste collection => DEFAULT TREATMENT Environment"
	FSorted       = "Waste sorting => Sorted waste market"
	FNotRecycled  = "Waste sorting => Environment"
	FImportSorted = "Environment => Sorted waste market"
	FExportSorted = "Sorted waste market => Environment"
	FToRecycling  = "Sorted waste market => Recycling"
	FProcessed    = "Recycling => Environment"
	FLosses       = "Recycling => LOSSES Environment"
)

// Parameters.
const (
	PDomesticDemand  = "DomesticDemand"
	PFinalDemand     = "FinalDemand"
	PRecyclateShare  = "RecyclateShare"
	PImportNew       = "ImportNew"
	PExportNew       = "ExportNew"
	PImportRateNew   = "ImportRateNew"
	PExportRateNew   = "ExportRateNew"
	PMarketShare     = "MarketShare"
	PLifetime        = "Lifetime"
	PDeprivedRate    = "DeprivedRate"
	PCollectionRate  = "EoLCollectionRate"
	PUtilisationRate = "EoLUtilisationRate"
	PSortingRate     = "SortingRate"
	PImportRateWaste = "ImportRateSortedWaste"
	PExportRateWaste = "ExportRateSortedWaste"
	PConversionRate  = "RecyclingConversionRate"
)

// DimensionFiles maps dimension names to file stems.
var DimensionFiles = map[string]string{
	"time":                   "time_in_years",
	"Age-cohort":             "age_cohorts",
	"element":                "elements",
	"region":                 "regions",
	"other Region":           "regions",
	"polymer":                "polymers",
	"sector":                 "end_use_sectors",
	"Waste category":         "waste_categories",
	"Secondary raw material": "secondary_raw_materials",
}

var (
	rtspe   = []string{"r", "t", "s", "p", "e"}
	rtcspe  = []string{"r", "t", "c", "s", "p", "e"}
	rtcspwe = []string{"r", "t", "c", "s", "p", "w", "e"}
	rtspwe  = []string{"r", "t", "s", "p", "w", "e"}
	rtsp    = []string{"r", "t", "s", "p"}
)

// Definition returns the plastics system definition.
func Definition() *mfa.Definition {
	flow := func(from, to string, dims []string) mfa.FlowDefinition {
		return mfa.FlowDefinition{From: from, To: to, Dims: dims}
	}
	named := func(name, from, to string, dims []string) mfa.FlowDefinition {
		return mfa.FlowDefinition{From: from, To: to, Dims: dims, Name: name}
	}
	param := func(name string, dims ...string) mfa.ParameterDefinition {
		return mfa.ParameterDefinition{Name: name, Dims: dims}
	}
	const env = Boundary

	return &mfa.Definition{
		Dimensions: []dimension.Definition{
			{Name: "time", Letter: "t", Dtype: dimension.Int},
			{Name: "Age-cohort", Letter: "c", Dtype: dimension.Int},
			{Name: "element", Letter: "e"},
			{Name: "region", Letter: "r"},
			{Name: "other Region", Letter: "R"},
			{Name: "polymer", Letter: "p"},
			{Name: "sector", Letter: "s"},
			{Name: "Waste category", Letter: "w"},
			{Name: "Secondary raw material", Letter: "m"},
		},
		Processes: []string{env, PolymerMarket, Manufacturing, PlasticsMarket, EndUseStock,
			Collection, Sorting, SortedMarket, Recycling},
		Boundaries: []string{env},
		Flows: []mfa.FlowDefinition{
			flow(env, PolymerMarket, rtspe),
			named(FPrimary, PolymerMarket, Manufacturing, rtspe),
			named(FSecondary, PolymerMarket, Manufacturing, rtspe),
			flow(env, Manufacturing, rtspe),
			flow(Manufacturing, env, rtspe),
			flow(Manufacturing, PlasticsMarket, rtspe),
			flow(PlasticsMarket, EndUseStock, rtspe),
			flow(EndUseStock, Collection, rtcspe),
			flow(Collection, Sorting, rtcspe),
			named(FLittering, Collection, env, rtcspe),
			named(FDefault, Collection, env, rtcspe),
			flow(Sorting, SortedMarket, rtcspwe),
			flow(Sorting, env, rtcspwe),
			flow(env, SortedMarket, rtspwe),
			flow(SortedMarket, env, rtspwe),
			flow(SortedMarket, Recycling, rtspwe),
			flow(Recycling, env, []string{"r", "t", "s", "p", "m", "e"}),
			named(FLosses, Recycling, env, rtspe),
		},
		Stocks: []mfa.StockDefinition{
			{Name: EndUseStock, Process: EndUseStock, Dims: []string{"t", "r", "s", "p", "e"}, Kind: mfa.InflowDrivenStock},
		},
		Parameters: []mfa.ParameterDefinition{
			param(PDomesticDemand, rtspe...),
			param(PFinalDemand, rtspe...),
			param(PRecyclateShare, rtsp...),
			param(PImportNew, "R", "r", "t", "s", "p", "e"),
			param(PExportNew, "r", "R", "t", "s", "p", "e"),
			param(PImportRateNew, "R", "r", "t", "s", "p"),
			param(PExportRateNew, "r", "R", "t", "s", "p"),
			param(PMarketShare, "r", "R", "t", "s", "p"),
			param(PLifetime, "r", "s", "p"),
			param(PDeprivedRate, rtsp...),
			param(PCollectionRate, rtsp...),
			param(PUtilisationRate, rtsp...),
			param(PSortingRate, "r", "t", "s", "p", "w"),
			param(PImportRateWaste, "R", "r", "t", "s", "p", "w"),
			param(PExportRateWaste, "r", "R", "t", "s", "p", "w"),
			param(PConversionRate, "r", "t", "s", "p", "w", "m"),
		},
	}
}

// New builds the plastics model for the driving mode, sector selection
// and recycling exclusions in cust.
func New(cust config.Customization) (*mfa.Model, error) {
	var front []mfa.Step
	switch cust.DrivingMode {
	case config.DrivingProduction, "":
		front = productionSteps(cust.EndUseSectors)
	case config.DrivingFinalDemand:
		front = finalDemandSteps(cust.EndUseSectors)
	default:
		return nil, fmt.Errorf("%w: driving_mode %q", config.ErrInvalidValue, cust.DrivingMode)
	}
	steps := append(front, wasteSteps(cust.LifetimeStdFactor, cust.WasteNotForRecycling)...)

	return &mfa.Model{Definition: Definition(), DimensionFiles: DimensionFiles, Steps: steps}, nil
}
