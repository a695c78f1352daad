// SPDX-License-Identifier: MIT

package cement

import (
	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
)

// FutureEoLFlow is the CDW generated by the future end-use stock; the
// combined run reads it from the cement_stock result.
var FutureEoLFlow = Future.Flow(EndUseStock, CDWCollection)

// Market flows into the end-use stock, combined into one time series
// after the flows run.
var (
	HistoricMarketFlow = Historic.Flow(ConcreteMarket, EndUseStock)
	FutureMarketFlow   = Future.Flow(ConcreteMarket, EndUseStock)
)

// StockDefinition returns the cement_stock definition: the future
// concrete market, end-use stock and CDW collection only.
func StockDefinition() *mfa.Definition {
	p := Future
	env := p.Process(Env)
	market, stock, cdw := p.Process(ConcreteMarket), p.Process(EndUseStock), p.Process(CDWCollection)

	return &mfa.Definition{
		Dimensions: []dimension.Definition{dimTime, dimRegion, dimConcrete, dimSector},
		Processes:  []string{env, market, stock, cdw},
		Boundaries: []string{env},
		Flows: []mfa.FlowDefinition{
			{From: env, To: market, Dims: tjfs},
			{From: market, To: stock, Dims: tjfs},
			{From: stock, To: cdw, Dims: tjfs},
			{From: stock, To: env, Dims: tjfs, Name: p.Tagged(EndUseStock, tagDissipation, Env)},
			{From: cdw, To: env, Dims: tjfs},
		},
		Stocks: []mfa.StockDefinition{
			{Name: stock, Process: stock, Dims: tjfs, Kind: mfa.InflowDrivenStock},
		},
		Parameters: []mfa.ParameterDefinition{
			{Name: PDemandFuture, Dims: tjfs},
			{Name: PLifetimeMean, Dims: []string{lSector}},
			{Name: PLifetimeStd, Dims: []string{lSector}},
			{Name: PDissipative, Dims: []string{lSector, lTime}},
		},
	}
}

// StockSteps returns the cement_stock equations.
func StockSteps() []mfa.Step {
	p := Future
	demand := p.Flow(Env, ConcreteMarket)
	toStock := p.Flow(ConcreteMarket, EndUseStock)
	cdwOut := p.Flow(CDWCollection, Env)

	return []mfa.Step{
		{
			Name:   "future demand",
			Reads:  []mfa.Ref{mfa.P(PDemandFuture)},
			Writes: []mfa.Ref{mfa.F(demand), mfa.F(toStock)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(demand, sc.Param(PDemandFuture))
				sc.Set(toStock, sc.Flow(demand))
				return nil
			},
		},
		p.stockStep(),
		{
			Name:   "cdw collection future",
			Reads:  []mfa.Ref{mfa.F(FutureEoLFlow)},
			Writes: []mfa.Ref{mfa.F(cdwOut)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(cdwOut, sc.Flow(FutureEoLFlow))
				return nil
			},
		},
	}
}

// chainDefinition declares both chains; futureKind selects how the future
// end-use stock is accumulated.
func chainDefinition(futureKind mfa.StockKind, extra ...mfa.ParameterDefinition) *mfa.Definition {
	def := &mfa.Definition{
		Dimensions: chainDimensions(),
		Boundaries: []string{Historic.Process(Env), Future.Process(Env)},
		Stocks: []mfa.StockDefinition{
			{Name: Historic.Process(EndUseStock), Process: Historic.Process(EndUseStock), Dims: tjfs, Kind: mfa.InflowDrivenStock},
			{Name: Future.Process(EndUseStock), Process: Future.Process(EndUseStock), Dims: tjfs, Kind: futureKind},
		},
		Parameters: append(chainParameters(),
			mfa.ParameterDefinition{Name: PCementProd, Dims: []string{lTime, lRegion, lCement}},
			mfa.ParameterDefinition{Name: PCementToConcH, Dims: []string{lConcrete, lCement}},
			mfa.ParameterDefinition{Name: PCementToConcF, Dims: []string{lConcrete, lCement}},
			mfa.ParameterDefinition{Name: PEndUseMatrix, Dims: []string{lConcrete, lSector, lTime}},
		),
	}
	def.Parameters = append(def.Parameters, extra...)
	for _, p := range []Phase{Historic, Future} {
		def.Processes = append(def.Processes, p.processes()...)
		def.Flows = append(def.Flows, p.flows()...)
	}

	return def
}

// historicSteps are shared by cement_flows and cement_topdown.
func historicSteps() []mfa.Step {
	return append(historicSupplySteps(), Historic.stockStep(), wasteStep(Historic))
}

// FlowsDefinition returns the cement_flows definition.
func FlowsDefinition() *mfa.Definition {
	return chainDefinition(mfa.FlowDrivenStock,
		mfa.ParameterDefinition{Name: PTotalDemand, Dims: tjfs},
		mfa.ParameterDefinition{Name: PTotalEoL, Dims: tjfs},
	)
}

// FlowsSteps returns the cement_flows equations. The future chain is
// driven by given totals: demand into and EoL out of the end-use stock.
func FlowsSteps() []mfa.Step {
	p := Future
	toStock := p.Flow(ConcreteMarket, EndUseStock)
	stock := p.Process(EndUseStock)

	steps := historicSteps()
	steps = append(steps,
		mfa.Step{
			Name:   "future totals",
			Reads:  []mfa.Ref{mfa.P(PTotalDemand), mfa.P(PTotalEoL)},
			Writes: []mfa.Ref{mfa.F(toStock), mfa.F(FutureEoLFlow)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(toStock, sc.Param(PTotalDemand))
				sc.Set(FutureEoLFlow, sc.Param(PTotalEoL))
				return nil
			},
		},
		mfa.Step{
			Name:   stock,
			Reads:  []mfa.Ref{mfa.F(toStock), mfa.F(FutureEoLFlow)},
			Writes: []mfa.Ref{mfa.S(stock)},
			Run: func(sc *mfa.Scope) error {
				st := sc.Stock(stock)
				if st == nil {
					return sc.Err()
				}
				sc.Check(st.Inflow().Assign(sc.Flow(toStock)))
				sc.Check(st.Outflow().Assign(sc.Flow(FutureEoLFlow)))
				if err := sc.Err(); err != nil {
					return err
				}
				return st.Compute()
			},
		},
	)
	steps = append(steps, futureDemandSteps()...)

	return append(steps, wasteStep(p))
}

// TopdownDefinition returns the cement_topdown definition.
func TopdownDefinition() *mfa.Definition {
	return chainDefinition(mfa.InflowDrivenStock,
		mfa.ParameterDefinition{Name: PStartValue, Dims: []string{lConcrete, lSector, lTime, lRegion}},
		mfa.ParameterDefinition{Name: PGrowthRate, Dims: []string{lSector, lTime}},
	)
}

// TopdownSteps returns the cement_topdown equations: future demand is
// start_value x growth_rate and runs through the future stock before the
// future chain is solved upstream.
func TopdownSteps() []mfa.Step {
	p := Future
	toStock := p.Flow(ConcreteMarket, EndUseStock)

	steps := historicSteps()
	steps = append(steps,
		mfa.Step{
			Name:   "future demand",
			Reads:  []mfa.Ref{mfa.P(PStartValue), mfa.P(PGrowthRate)},
			Writes: []mfa.Ref{mfa.F(toStock)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(toStock, sc.Param(PStartValue).Mul(sc.Param(PGrowthRate)))
				return nil
			},
		},
		p.stockStep(),
	)
	steps = append(steps, futureDemandSteps()...)

	return append(steps, wasteStep(p))
}

// NewStock builds the cement_stock model.
func NewStock(config.Customization) (*mfa.Model, error) {
	return &mfa.Model{Definition: StockDefinition(), DimensionFiles: DimensionFiles, Steps: StockSteps()}, nil
}

// NewFlows builds the cement_flows model.
func NewFlows(config.Customization) (*mfa.Model, error) {
	return &mfa.Model{Definition: FlowsDefinition(), DimensionFiles: DimensionFiles, Steps: FlowsSteps()}, nil
}

// NewTopdown builds the cement_topdown model.
func NewTopdown(config.Customization) (*mfa.Model, error) {
	return &mfa.Model{Definition: TopdownDefinition(), DimensionFiles: DimensionFiles, Steps: TopdownSteps()}, nil
}
