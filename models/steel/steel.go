// SPDX-License-Identifier: MIT

// Package steel is the top-down steel flows sub-model.
//
// Steel products are netted for trade at the product market, turned into
// goods with a new-scrap loss, netted again at the goods market and
// accumulated in an inflow-driven end-use stock. End-of-life outflows by
// cohort are split into recovered and lost scrap; the recovered part picks
// up copper contamination in waste management and is finally sorted into
// available and lost scrap.
package steel

import (
	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
)

// Class is the model_class of this sub-model.
const Class = "steel"

// Processes.
const (
	ProductMarket = "Steel product market"
	Manufacturing = "Steel goods manufacturing"
	GoodsMarket   = "Steel goods market"
	EndUseStock   = "End use stock"
	WasteMgmt     = "Waste management"
)

// Flow identifiers.
const (
	FDomestic       = "sysenv => Steel product market"
	FImportProducts = "sysenv => IMPORT Steel product market"
	FExportProducts = "Steel product market => sysenv"
	FProducts       = "Steel product market => Steel goods manufacturing"
	FNewScrap       = "Steel goods manufacturing => sysenv"
	FGoods          = "Steel goods manufacturing => Steel goods market"
	FImportGoods    = "sysenv => Steel goods market"
	FExportGoods    = "Steel goods market => sysenv"
	FInflow         = "Steel goods market => End use stock"
	FLostEoL        = "End use stock => sysenv"
	FCollected      = "End use stock => Waste management"
	FContamination  = "sysenv => CONTAMINATION Waste management"
	FAvailable      = "Waste management => AVAILABLE SCRAP sysenv"
	FLostScrap      = "Waste management => LOST SCRAP sysenv"
)

// Element labels used by the contamination update.
const (
	ElementAll    = "All"
	ElementCopper = "Cu"
)

// DimensionFiles maps dimension names to file stems.
var DimensionFiles = map[string]string{
	"time":           "time_in_years",
	"age-cohort":     "age_cohorts",
	"element":        "elements",
	"region":         "regions",
	"intermediate":   "intermediates",
	"product":        "products",
	"sector":         "end_use_sectors",
	"waste_category": "waste_categories",
}

var (
	rtsipe  = []string{"r", "t", "s", "i", "p", "e"}
	rtcsipe = []string{"r", "t", "c", "s", "i", "p", "e"}
	rtwe    = []string{"r", "t", "w", "e"}
)

// Definition returns the steel system definition.
func Definition() *mfa.Definition {
	flow := func(from, to string, dims []string) mfa.FlowDefinition {
		return mfa.FlowDefinition{From: from, To: to, Dims: dims}
	}
	named := func(name, from, to string, dims []string) mfa.FlowDefinition {
		return mfa.FlowDefinition{From: from, To: to, Dims: dims, Name: name}
	}
	const env = mfa.DefaultBoundary

	return &mfa.Definition{
		Dimensions: []dimension.Definition{
			{Name: "time", Letter: "t", Dtype: dimension.Int},
			{Name: "age-cohort", Letter: "c", Dtype: dimension.Int},
			{Name: "element", Letter: "e"},
			{Name: "region", Letter: "r"},
			{Name: "intermediate", Letter: "i"},
			{Name: "product", Letter: "p"},
			{Name: "sector", Letter: "s"},
			{Name: "waste_category", Letter: "w"},
		},
		Processes: []string{env, ProductMarket, Manufacturing, GoodsMarket, EndUseStock, WasteMgmt},
		Flows: []mfa.FlowDefinition{
			flow(env, ProductMarket, rtsipe),
			named(FImportProducts, env, ProductMarket, rtsipe),
			flow(ProductMarket, env, rtsipe),
			flow(ProductMarket, Manufacturing, rtsipe),
			flow(Manufacturing, env, rtsipe),
			flow(Manufacturing, GoodsMarket, rtsipe),
			flow(env, GoodsMarket, rtsipe),
			flow(GoodsMarket, env, rtsipe),
			flow(GoodsMarket, EndUseStock, rtsipe),
			flow(EndUseStock, env, rtcsipe),
			flow(EndUseStock, WasteMgmt, rtcsipe),
			named(FContamination, env, WasteMgmt, rtsipe),
			named(FAvailable, WasteMgmt, env, rtwe),
			named(FLostScrap, WasteMgmt, env, rtwe),
		},
		Stocks: []mfa.StockDefinition{
			{Name: EndUseStock, Process: EndUseStock, Dims: []string{"t", "r", "s", "i", "p", "e"}, Kind: mfa.InflowDrivenStock},
		},
		Parameters: []mfa.ParameterDefinition{
			{Name: "Lifetime", Dims: []string{"r", "s", "i", "p"}},
			{Name: "EoLRecoveryRate", Dims: []string{"r", "t", "s", "i", "p"}},
			{Name: "ScrapSortingRate", Dims: []string{"r", "t", "s", "i", "p", "w"}},
			{Name: "Contamination", Dims: rtsipe},
			{Name: "DomesticProduction", Dims: rtsipe},
			{Name: "ImportNewProducts", Dims: rtsipe},
			{Name: "ImportNewGoods", Dims: rtsipe},
			{Name: "ExportNewProducts", Dims: rtsipe},
			{Name: "ExportNewGoods", Dims: rtsipe},
			{Name: "NewScrapRate", Dims: []string{"r", "t", "s", "i", "p"}},
		},
	}
}

// Steps returns the steel equations. stdFactor scales the lifetime mean
// into its standard deviation.
func Steps(stdFactor float64) []mfa.Step {
	return []mfa.Step{
		{
			Name:   "product market",
			Reads:  []mfa.Ref{mfa.P("DomesticProduction"), mfa.P("ImportNewProducts"), mfa.P("ExportNewProducts")},
			Writes: []mfa.Ref{mfa.F(FDomestic), mfa.F(FImportProducts), mfa.F(FExportProducts), mfa.F(FProducts)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(FDomestic, sc.Param("DomesticProduction"))
				sc.Set(FImportProducts, sc.Param("ImportNewProducts"))
				sc.Set(FExportProducts, sc.Param("ExportNewProducts"))
				sc.Set(FProducts, sc.Flow(FDomestic).Add(sc.Flow(FImportProducts)).Sub(sc.Flow(FExportProducts)))
				return nil
			},
		},
		{
			Name:   "goods manufacturing",
			Reads:  []mfa.Ref{mfa.F(FProducts), mfa.P("NewScrapRate")},
			Writes: []mfa.Ref{mfa.F(FNewScrap), mfa.F(FGoods)},
			Run: func(sc *mfa.Scope) error {
				products := sc.Flow(FProducts)
				sc.Set(FNewScrap, products.Mul(sc.Param("NewScrapRate")))
				sc.Set(FGoods, products.Sub(sc.Flow(FNewScrap)))
				return nil
			},
		},
		{
			Name:   "goods market",
			Reads:  []mfa.Ref{mfa.F(FGoods), mfa.P("ImportNewGoods"), mfa.P("ExportNewGoods")},
			Writes: []mfa.Ref{mfa.F(FImportGoods), mfa.F(FExportGoods), mfa.F(FInflow)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(FImportGoods, sc.Param("ImportNewGoods"))
				sc.Set(FExportGoods, sc.Param("ExportNewGoods"))
				sc.Set(FInflow, sc.Flow(FGoods).Add(sc.Flow(FImportGoods)).Sub(sc.Flow(FExportGoods)))
				return nil
			},
		},
		{
			Name:   "end use stock",
			Reads:  []mfa.Ref{mfa.F(FInflow), mfa.P("Lifetime")},
			Writes: []mfa.Ref{mfa.S(EndUseStock)},
			Run: func(sc *mfa.Scope) error {
				st := sc.InflowDriven(EndUseStock)
				if st == nil {
					return sc.Err()
				}
				mean := sc.Param("Lifetime")
				sc.Check(st.Inflow().Assign(sc.Flow(FInflow)))
				sc.Check(st.SetLifetime(mean, mean.MulScalar(stdFactor)))
				if err := sc.Err(); err != nil {
					return err
				}
				return st.Compute()
			},
		},
		{
			Name:   "end of life",
			Reads:  []mfa.Ref{mfa.S(EndUseStock), mfa.P("EoLRecoveryRate")},
			Writes: []mfa.Ref{mfa.F(FCollected), mfa.F(FLostEoL)},
			Run: func(sc *mfa.Scope) error {
				st := sc.InflowDriven(EndUseStock)
				if st == nil {
					return sc.Err()
				}
				eol, err := st.OutflowByCohort(sc.Dim("c"))
				if err != nil {
					return err
				}
				rate := sc.Param("EoLRecoveryRate")
				sc.Set(FCollected, eol.Mul(rate))
				sc.Set(FLostEoL, eol.Mul(rate.ScalarMinus(1)))
				return nil
			},
		},
		{
			Name:   "waste management",
			Reads:  []mfa.Ref{mfa.F(FCollected), mfa.P("Contamination"), mfa.P("ScrapSortingRate")},
			Writes: []mfa.Ref{mfa.F(FContamination), mfa.F(FAvailable), mfa.F(FLostScrap)},
			Run: func(sc *mfa.Scope) error {
				collected := sc.Flow(FCollected).SumTo(rtsipe...)
				scrap, err := contaminate(collected, sc.Param("Contamination"), sc.Dim("e"))
				if err != nil {
					return err
				}
				sc.Set(FContamination, scrap.Sub(collected))
				rate := sc.Param("ScrapSortingRate")
				sc.Set(FAvailable, scrap.Mul(rate))
				sc.Set(FLostScrap, scrap.Mul(rate.ScalarMinus(1)))
				return nil
			},
		},
	}
}

// contaminate adds copper picked up in scrap handling to the "All" and
// "Cu" element totals: All += k*All, then Cu += k*All with the updated
// All, where k is the Cu contamination factor. Without both labels the
// scrap is returned unchanged.
func contaminate(scrap, factor *array.Array, elements *dimension.Dimension) (*array.Array, error) {
	if err := scrap.Err(); err != nil {
		return nil, err
	}
	if elements == nil {
		return scrap, nil
	}
	if _, ok := elements.Index(ElementAll); !ok {
		return scrap, nil
	}
	if _, ok := elements.Index(ElementCopper); !ok {
		return scrap, nil
	}
	out := scrap.Copy()
	k := factor.Slice("e", ElementCopper)
	all := out.Slice("e", ElementAll)
	all = all.Add(k.Mul(all))
	if err := out.SetSlice("e", ElementAll, all); err != nil {
		return nil, err
	}
	cu := out.Slice("e", ElementCopper).Add(k.Mul(all))
	if err := out.SetSlice("e", ElementCopper, cu); err != nil {
		return nil, err
	}

	return out, nil
}

// New builds the steel model from cust.
func New(cust config.Customization) (*mfa.Model, error) {
	return &mfa.Model{Definition: Definition(), DimensionFiles: DimensionFiles, Steps: Steps(cust.LifetimeStdFactor)}, nil
}
