// SPDX-License-Identifier: MIT

// Package cement holds the three cement sub-models:
//
//	cement_stock   - residual future concrete demand into an inflow-driven
//	                 end-use stock; its outflow, less dissipative losses,
//	                 is the future CDW (construction and demolition waste).
//	cement_flows   - the historic clinker -> cement -> concrete -> CDW chain
//	                 with a historic end-use stock, and the same chain for
//	                 the future driven by total demand and EoL inputs.
//	cement_topdown - both chains in one system, with future demand built
//	                 as start_value x growth_rate.
//
// Every chain (historic or future) has its own environment process and
// explicit raw-material, additive, trade and loss flows so that every
// market and production step conserves mass.
package cement

import (
	"github.com/katalvlaran/eumfa/dimension"
)

// Model classes.
const (
	StockClass   = "cement_stock"
	FlowsClass   = "cement_flows"
	TopdownClass = "cement_topdown"
)

// Dimension letters.
const (
	lTime     = "t"
	lRegion   = "j"
	lConcrete = "f"
	lCement   = "x"
	lClinker  = "y"
	lSector   = "s"
	lWaste    = "h"
)

// DimensionFiles maps dimension names to file stems.
var DimensionFiles = map[string]string{
	"Time":                    "time_in_years",
	"Region simple":           "regions_simple",
	"Concrete product simple": "concrete_products_simple",
	"Cement product":          "cement_products",
	"Clinker product":         "clinker_products",
	"End use sector":          "end_use_sectors",
	"Concrete waste":          "concrete_waste",
}

var (
	dimTime     = dimension.Definition{Name: "Time", Letter: lTime, Dtype: dimension.Int}
	dimRegion   = dimension.Definition{Name: "Region simple", Letter: lRegion}
	dimConcrete = dimension.Definition{Name: "Concrete product simple", Letter: lConcrete}
	dimCement   = dimension.Definition{Name: "Cement product", Letter: lCement}
	dimClinker  = dimension.Definition{Name: "Clinker product", Letter: lClinker}
	dimSector   = dimension.Definition{Name: "End use sector", Letter: lSector}
	dimWaste    = dimension.Definition{Name: "Concrete waste", Letter: lWaste}
)

func chainDimensions() []dimension.Definition {
	return []dimension.Definition{dimTime, dimRegion, dimConcrete, dimCement, dimClinker, dimSector, dimWaste}
}

// Shared parameters.
const (
	PTradeClinker  = "trade_clinker"
	PClinkerFactor = "clinker_factor"
	PCementProd    = "cement_production"
	PTradeCement   = "trade_cement"
	PTradeConcrete = "trade_concrete"
	PEndUseMatrix  = "end_use_matrix"
	PMappingWaste  = "mapping_waste"
	PDissipative   = "dissipative_losses"
	PTradeUnsorted = "trade_CDW_unsorted"
	PSeparation    = "separation_efficiency"
	PTradeSorted   = "trade_CDW_sorted"
	PLifetimeMean  = "end_use_lifetime_mean"
	PLifetimeStd   = "end_use_lifetime_std"
	PDemandFuture  = "demand_future"
	PTotalDemand   = "total_future_demand"
	PTotalEoL      = "total_future_eol_flows"
	PStartValue    = "start_value"
	PGrowthRate    = "growth_rate"
	PCementToConcH = "cement_to_concrete_historic"
	PCementToConcF = "cement_to_concrete_future"
)
