// SPDX-License-Identifier: MIT

package cement

import (
	"github.com/katalvlaran/eumfa/mfa"
)

// Chain process base names; a Phase appends its suffix.
const (
	Env                = "sysenv"
	ClinkerProduction  = "Clinker production"
	ClinkerMarket      = "Clinker market"
	CementProduction   = "Cement production"
	CementMarket       = "Cement market"
	ConcreteProduction = "Concrete production"
	ConcreteMarket     = "Concrete market"
	EndUseStock        = "End use stock"
	CDWCollection      = "CDW collection"
	UnsortedMarket     = "CDW unsorted market"
	Separation         = "CDW separation"
	SortedMarket       = "CDW sorted market"
)

// Flow tags of the balancing flows.
const (
	tagTrade       = "TRADE"
	tagDissipation = "DISSIPATION"
	tagLosses      = "LOSSES"
)

// Phase selects one of the two parallel chains.
type Phase string

const (
	Historic Phase = "historic"
	Future   Phase = "future"
)

// Process returns the phase-specific name of a chain process.
func (p Phase) Process(name string) string { return name + " " + string(p) }

// Flow returns the id of the flow between two chain processes.
func (p Phase) Flow(from, to string) string {
	return string(mfa.FlowName(p.Process(from), p.Process(to)))
}

// Tagged returns the id of a balancing flow, e.g.
// "Cement market historic => TRADE sysenv historic".
func (p Phase) Tagged(from, tag, to string) string {
	return p.Process(from) + " => " + tag + " " + p.Process(to)
}

// importsTrade reports whether trade at the cement and concrete markets is
// booked as net imports (future, demand-driven) or net exports (historic,
// supply-driven).
func (p Phase) importsTrade() bool { return p == Future }

func (p Phase) tradeFlow(market string) string {
	if p.importsTrade() {
		return p.Tagged(Env, tagTrade, market)
	}

	return p.Tagged(market, tagTrade, Env)
}

var (
	tjy  = []string{lTime, lRegion, lClinker}
	tjx  = []string{lTime, lRegion, lCement}
	tjf  = []string{lTime, lRegion, lConcrete}
	tjfs = []string{lTime, lRegion, lConcrete, lSector}
	tjh  = []string{lTime, lRegion, lWaste}
	tj   = []string{lTime, lRegion}
)

// processes returns the chain processes of p, environment first.
func (p Phase) processes() []string {
	names := []string{Env, ClinkerProduction, ClinkerMarket, CementProduction, CementMarket,
		ConcreteProduction, ConcreteMarket, EndUseStock, CDWCollection, UnsortedMarket, Separation, SortedMarket}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = p.Process(n)
	}

	return out
}

// flows returns the main chain flows of p plus its balancing flows.
func (p Phase) flows() []mfa.FlowDefinition {
	flow := func(from, to string, dims []string) mfa.FlowDefinition {
		return mfa.FlowDefinition{From: p.Process(from), To: p.Process(to), Dims: dims}
	}
	tagged := func(from, tag, to string, dims []string) mfa.FlowDefinition {
		return mfa.FlowDefinition{From: p.Process(from), To: p.Process(to), Dims: dims, Name: p.Tagged(from, tag, to)}
	}
	trade := func(market string, dims []string) mfa.FlowDefinition {
		if p.importsTrade() {
			return tagged(Env, tagTrade, market, dims)
		}
		return tagged(market, tagTrade, Env, dims)
	}

	return []mfa.FlowDefinition{
		flow(Env, ClinkerProduction, tjy),
		flow(ClinkerProduction, ClinkerMarket, tjy),
		tagged(Env, tagTrade, ClinkerMarket, tjy),
		flow(ClinkerMarket, CementProduction, tjy),
		flow(Env, CementProduction, tj),
		flow(CementProduction, CementMarket, tjx),
		trade(CementMarket, tjx),
		flow(CementMarket, ConcreteProduction, tjx),
		flow(Env, ConcreteProduction, tj),
		flow(ConcreteProduction, ConcreteMarket, tjf),
		trade(ConcreteMarket, tjf),
		flow(ConcreteMarket, EndUseStock, tjfs),
		flow(EndUseStock, CDWCollection, tjfs),
		tagged(EndUseStock, tagDissipation, Env, tjfs),
		flow(CDWCollection, UnsortedMarket, tjh),
		tagged(UnsortedMarket, tagTrade, Env, tjh),
		flow(UnsortedMarket, Separation, tjh),
		flow(Separation, SortedMarket, tjh),
		tagged(Separation, tagLosses, Env, tjh),
		tagged(SortedMarket, tagTrade, Env, tjh),
		flow(SortedMarket, Env, tjh),
	}
}

// chainParameters are read by both chains.
func chainParameters() []mfa.ParameterDefinition {
	return []mfa.ParameterDefinition{
		{Name: PTradeClinker, Dims: []string{lTime, lRegion, lClinker}},
		{Name: PClinkerFactor, Dims: []string{lTime, lCement, lClinker}},
		{Name: PTradeCement, Dims: []string{lTime, lRegion, lCement}},
		{Name: PTradeConcrete, Dims: []string{lConcrete, lRegion, lTime}},
		{Name: PMappingWaste, Dims: []string{lConcrete, lWaste}},
		{Name: PDissipative, Dims: []string{lSector, lTime}},
		{Name: PTradeUnsorted, Dims: []string{lWaste, lRegion, lTime}},
		{Name: PSeparation, Dims: []string{lWaste, lTime}},
		{Name: PTradeSorted, Dims: []string{lWaste, lRegion, lTime}},
		{Name: PLifetimeMean, Dims: []string{lSector}},
		{Name: PLifetimeStd, Dims: []string{lSector}},
	}
}

// clinkerStep derives clinker use, clinker production, raw meal, clinker
// trade and cement additives from the cement production flow of p.
func clinkerStep(p Phase) mfa.Step {
	cement := p.Flow(CementProduction, CementMarket)
	use := p.Flow(ClinkerMarket, CementProduction)
	prod := p.Flow(ClinkerProduction, ClinkerMarket)
	raw := p.Flow(Env, ClinkerProduction)
	trade := p.Tagged(Env, tagTrade, ClinkerMarket)
	additives := p.Flow(Env, CementProduction)

	return mfa.Step{
		Name:   "clinker " + string(p),
		Reads:  []mfa.Ref{mfa.F(cement), mfa.P(PClinkerFactor), mfa.P(PTradeClinker)},
		Writes: []mfa.Ref{mfa.F(use), mfa.F(prod), mfa.F(raw), mfa.F(trade), mfa.F(additives)},
		Run: func(sc *mfa.Scope) error {
			c := sc.Flow(cement)
			sc.Set(use, c.Mul(sc.Param(PClinkerFactor)).SumTo(tjy...))
			sc.Set(trade, sc.Param(PTradeClinker))
			sc.Set(prod, sc.Flow(use).Sub(sc.Flow(trade)))
			sc.Set(raw, sc.Flow(prod))
			sc.Set(additives, c.SumTo(tj...).Sub(sc.Flow(use).SumTo(tj...)))
			return nil
		},
	}
}

// historicSupplySteps run the historic chain forward from cement
// production down to the end-use stock inflow.
func historicSupplySteps() []mfa.Step {
	p := Historic
	cement := p.Flow(CementProduction, CementMarket)
	toConcrete := p.Flow(CementMarket, ConcreteProduction)
	cementTrade := p.tradeFlow(CementMarket)
	concrete := p.Flow(ConcreteProduction, ConcreteMarket)
	aggregates := p.Flow(Env, ConcreteProduction)
	concreteTrade := p.tradeFlow(ConcreteMarket)
	toStock := p.Flow(ConcreteMarket, EndUseStock)

	return []mfa.Step{
		{
			Name:   "cement production historic",
			Reads:  []mfa.Ref{mfa.P(PCementProd)},
			Writes: []mfa.Ref{mfa.F(cement)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(cement, sc.Param(PCementProd))
				return nil
			},
		},
		clinkerStep(p),
		{
			Name:   "concrete production historic",
			Reads:  []mfa.Ref{mfa.F(cement), mfa.P(PTradeCement), mfa.P(PCementToConcH)},
			Writes: []mfa.Ref{mfa.F(cementTrade), mfa.F(toConcrete), mfa.F(concrete), mfa.F(aggregates)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(cementTrade, sc.Param(PTradeCement))
				sc.Set(toConcrete, sc.Flow(cement).Sub(sc.Flow(cementTrade)))
				used := sc.Flow(toConcrete)
				sc.Set(concrete, used.Mul(sc.Param(PCementToConcH)).SumTo(tjf...))
				sc.Set(aggregates, sc.Flow(concrete).SumTo(tj...).Sub(used.SumTo(tj...)))
				return nil
			},
		},
		{
			Name:   "concrete market historic",
			Reads:  []mfa.Ref{mfa.F(concrete), mfa.P(PTradeConcrete), mfa.P(PEndUseMatrix)},
			Writes: []mfa.Ref{mfa.F(concreteTrade), mfa.F(toStock)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(concreteTrade, sc.Param(PTradeConcrete))
				sc.Set(toStock, sc.Flow(concrete).Sub(sc.Flow(concreteTrade)).Mul(sc.Param(PEndUseMatrix)))
				return nil
			},
		},
	}
}

// futureDemandSteps run the future chain backward from the end-use stock
// inflow up to clinker production.
func futureDemandSteps() []mfa.Step {
	p := Future
	toStock := p.Flow(ConcreteMarket, EndUseStock)
	concrete := p.Flow(ConcreteProduction, ConcreteMarket)
	concreteTrade := p.tradeFlow(ConcreteMarket)
	toConcrete := p.Flow(CementMarket, ConcreteProduction)
	aggregates := p.Flow(Env, ConcreteProduction)
	cement := p.Flow(CementProduction, CementMarket)
	cementTrade := p.tradeFlow(CementMarket)

	return []mfa.Step{
		{
			Name:   "concrete market future",
			Reads:  []mfa.Ref{mfa.F(toStock), mfa.P(PTradeConcrete)},
			Writes: []mfa.Ref{mfa.F(concreteTrade), mfa.F(concrete)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(concreteTrade, sc.Param(PTradeConcrete))
				sc.Set(concrete, sc.Flow(toStock).SumTo(tjf...).Sub(sc.Flow(concreteTrade)))
				return nil
			},
		},
		{
			Name:   "concrete production future",
			Reads:  []mfa.Ref{mfa.F(concrete), mfa.P(PCementToConcF)},
			Writes: []mfa.Ref{mfa.F(toConcrete), mfa.F(aggregates)},
			Run: func(sc *mfa.Scope) error {
				made := sc.Flow(concrete)
				sc.Set(toConcrete, made.Mul(sc.Param(PCementToConcF)).SumTo(tjx...))
				sc.Set(aggregates, made.SumTo(tj...).Sub(sc.Flow(toConcrete).SumTo(tj...)))
				return nil
			},
		},
		{
			Name:   "cement market future",
			Reads:  []mfa.Ref{mfa.F(toConcrete), mfa.P(PTradeCement)},
			Writes: []mfa.Ref{mfa.F(cementTrade), mfa.F(cement)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(cementTrade, sc.Param(PTradeCement))
				sc.Set(cement, sc.Flow(toConcrete).Sub(sc.Flow(cementTrade)))
				return nil
			},
		},
		clinkerStep(p),
	}
}

// inflowStockStep feeds the stock of process from inflow, computes it with
// the end-use lifetimes and splits its outflow into CDW (times the
// dissipative_losses share) and dissipation.
func inflowStockStep(name, inflow, cdw, dissipation string) mfa.Step {
	return mfa.Step{
		Name:   name,
		Reads:  []mfa.Ref{mfa.F(inflow), mfa.P(PLifetimeMean), mfa.P(PLifetimeStd), mfa.P(PDissipative)},
		Writes: []mfa.Ref{mfa.S(name), mfa.F(cdw), mfa.F(dissipation)},
		Run: func(sc *mfa.Scope) error {
			st := sc.InflowDriven(name)
			if st == nil {
				return sc.Err()
			}
			sc.Check(st.Inflow().Assign(sc.Flow(inflow)))
			sc.Check(st.SetLifetime(sc.Param(PLifetimeMean), sc.Param(PLifetimeStd)))
			if err := sc.Err(); err != nil {
				return err
			}
			if err := st.Compute(); err != nil {
				return err
			}
			out := st.Outflow()
			share := sc.Param(PDissipative)
			sc.Set(cdw, out.Mul(share))
			sc.Set(dissipation, out.Mul(share.ScalarMinus(1)))
			return nil
		},
	}
}

// stockStep is inflowStockStep for the end-use stock of p.
func (p Phase) stockStep() mfa.Step {
	return inflowStockStep(p.Process(EndUseStock), p.Flow(ConcreteMarket, EndUseStock),
		p.Flow(EndUseStock, CDWCollection), p.Tagged(EndUseStock, tagDissipation, Env))
}

// wasteStep maps CDW onto waste categories and runs it through the
// unsorted market, separation and the sorted market.
func wasteStep(p Phase) mfa.Step {
	cdw := p.Flow(EndUseStock, CDWCollection)
	collected := p.Flow(CDWCollection, UnsortedMarket)
	unsortedTrade := p.Tagged(UnsortedMarket, tagTrade, Env)
	toSeparation := p.Flow(UnsortedMarket, Separation)
	sorted := p.Flow(Separation, SortedMarket)
	losses := p.Tagged(Separation, tagLosses, Env)
	sortedTrade := p.Tagged(SortedMarket, tagTrade, Env)
	out := p.Flow(SortedMarket, Env)

	return mfa.Step{
		Name: "cdw " + string(p),
		Reads: []mfa.Ref{mfa.F(cdw), mfa.P(PMappingWaste), mfa.P(PTradeUnsorted),
			mfa.P(PSeparation), mfa.P(PTradeSorted)},
		Writes: []mfa.Ref{mfa.F(collected), mfa.F(unsortedTrade), mfa.F(toSeparation),
			mfa.F(sorted), mfa.F(losses), mfa.F(sortedTrade), mfa.F(out)},
		Run: func(sc *mfa.Scope) error {
			sc.Set(collected, sc.Flow(cdw).Mul(sc.Param(PMappingWaste)).SumTo(tjh...))
			sc.Set(unsortedTrade, sc.Param(PTradeUnsorted))
			sc.Set(toSeparation, sc.Flow(collected).Sub(sc.Flow(unsortedTrade)))
			in := sc.Flow(toSeparation)
			sc.Set(sorted, in.Mul(sc.Param(PSeparation)))
			sc.Set(losses, in.Sub(sc.Flow(sorted)))
			sc.Set(sortedTrade, sc.Param(PTradeSorted))
			sc.Set(out, sc.Flow(sorted).Sub(sc.Flow(sortedTrade)))
			return nil
		},
	}
}
