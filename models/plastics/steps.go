// SPDX-License-Identifier: MIT

package plastics

import (
	"slices"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
)

// selection returns a 0/1 array over d marking the labels keep accepts.
func selection(d *dimension.Dimension, keep func(string) bool) (*array.Array, error) {
	set, err := dimension.NewSet(d)
	if err != nil {
		return nil, err
	}
	out := array.New(set)
	for _, it := range d.Items() {
		if !keep(it) {
			continue
		}
		if err = out.Set(1, it); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// restrict zeroes the sectors not in sectors.
func restrict(sc *mfa.Scope, a *array.Array, sectors config.Sectors) *array.Array {
	if sectors.All {
		return a
	}
	d := sc.Dim("s")
	if d == nil {
		return a
	}
	mask, err := selection(d, sectors.Includes)
	if err != nil {
		sc.Check(err)
		return a
	}

	return a.Mul(mask)
}

// newTrade returns imports and exports of new plastics for a domestic
// manufacturing input: absolute values plus rates applied to the input,
// summed over partner regions.
func newTrade(sc *mfa.Scope, input *array.Array) (imports, exports *array.Array) {
	imports = sc.Param(PImportNew).SumTo(rtspe...).Add(input.Mul(sc.Param(PImportRateNew)).SumTo(rtspe...))
	exports = sc.Param(PExportNew).SumTo(rtspe...).Add(input.Mul(sc.Param(PExportRateNew)).SumTo(rtspe...))

	return imports, exports
}

var tradeReads = []mfa.Ref{mfa.P(PImportNew), mfa.P(PExportNew), mfa.P(PImportRateNew), mfa.P(PExportRateNew)}

func splitStep() mfa.Step {
	return mfa.Step{
		Name:   "recyclate split",
		Reads:  []mfa.Ref{mfa.F(FDomestic), mfa.P(PRecyclateShare)},
		Writes: []mfa.Ref{mfa.F(FSecondary), mfa.F(FPrimary)},
		Run: func(sc *mfa.Scope) error {
			demand := sc.Flow(FDomestic)
			sc.Set(FSecondary, demand.Mul(sc.Param(PRecyclateShare)))
			sc.Set(FPrimary, demand.Sub(sc.Flow(FSecondary)))
			return nil
		},
	}
}

// productionSteps drive the chain forward from DomesticDemand.
func productionSteps(sectors config.Sectors) []mfa.Step {
	return []mfa.Step{
		{
			Name:   "polymer demand",
			Reads:  []mfa.Ref{mfa.P(PDomesticDemand)},
			Writes: []mfa.Ref{mfa.F(FDomestic)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(FDomestic, restrict(sc, sc.Param(PDomesticDemand), sectors))
				return nil
			},
		},
		splitStep(),
		{
			Name:   "manufacturing",
			Reads:  append([]mfa.Ref{mfa.F(FPrimary), mfa.F(FSecondary)}, tradeReads...),
			Writes: []mfa.Ref{mfa.F(FImportNew), mfa.F(FExportNew), mfa.F(FNewPlastics)},
			Run: func(sc *mfa.Scope) error {
				input := sc.Flow(FPrimary).Add(sc.Flow(FSecondary))
				imports, exports := newTrade(sc, input)
				sc.Set(FImportNew, imports)
				sc.Set(FExportNew, exports)
				sc.Set(FNewPlastics, input.Add(imports).Sub(exports))
				return nil
			},
		},
		{
			Name:   "plastics market",
			Reads:  []mfa.Ref{mfa.F(FNewPlastics), mfa.P(PMarketShare)},
			Writes: []mfa.Ref{mfa.F(FInflow)},
			Run: func(sc *mfa.Scope) error {
				// Manufacturing region r supplies consuming region R.
				consumed := sc.Flow(FNewPlastics).Mul(sc.Param(PMarketShare)).
					SumTo("R", "t", "s", "p", "e").Relabel("R", sc.Dim("r"))
				sc.Set(FInflow, consumed)
				return nil
			},
		},
	}
}

// finalDemandSteps fix the stock inflow at FinalDemand and solve
// output = D*(1+ir-er) + I - E for the domestic input D.
func finalDemandSteps(sectors config.Sectors) []mfa.Step {
	return []mfa.Step{
		{
			Name:   "final demand",
			Reads:  []mfa.Ref{mfa.P(PFinalDemand)},
			Writes: []mfa.Ref{mfa.F(FInflow), mfa.F(FNewPlastics)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(FInflow, restrict(sc, sc.Param(PFinalDemand), sectors))
				sc.Set(FNewPlastics, sc.Flow(FInflow))
				return nil
			},
		},
		{
			Name:   "manufacturing",
			Reads:  append([]mfa.Ref{mfa.F(FNewPlastics)}, tradeReads...),
			Writes: []mfa.Ref{mfa.F(FDomestic), mfa.F(FImportNew), mfa.F(FExportNew)},
			Run: func(sc *mfa.Scope) error {
				ir := sc.Param(PImportRateNew).SumTo(rtsp...)
				er := sc.Param(PExportRateNew).SumTo(rtsp...)
				abs := sc.Param(PImportNew).SumTo(rtspe...).Sub(sc.Param(PExportNew).SumTo(rtspe...))
				input := sc.Flow(FNewPlastics).Sub(abs).Div(ir.Sub(er).AddScalar(1))
				sc.Set(FDomestic, input)
				imports, exports := newTrade(sc, input)
				sc.Set(FImportNew, imports)
				sc.Set(FExportNew, exports)
				return nil
			},
		},
		splitStep(),
	}
}

// wasteSteps cover the end-use stock and everything downstream of it.
func wasteSteps(stdFactor float64, notRecycled []string) []mfa.Step {
	return []mfa.Step{
		{
			Name:   "end use stock",
			Reads:  []mfa.Ref{mfa.F(FInflow), mfa.P(PLifetime)},
			Writes: []mfa.Ref{mfa.S(EndUseStock)},
			Run: func(sc *mfa.Scope) error {
				st := sc.InflowDriven(EndUseStock)
				if st == nil {
					return sc.Err()
				}
				mean := sc.Param(PLifetime)
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
			Reads:  []mfa.Ref{mfa.S(EndUseStock)},
			Writes: []mfa.Ref{mfa.F(FEoL)},
			Run: func(sc *mfa.Scope) error {
				st := sc.InflowDriven(EndUseStock)
				if st == nil {
					return sc.Err()
				}
				eol, err := st.OutflowByCohort(sc.Dim("c"))
				if err != nil {
					return err
				}
				sc.Set(FEoL, eol)
				return nil
			},
		},
		{
			Name:   "collection",
			Reads:  []mfa.Ref{mfa.F(FEoL), mfa.P(PDeprivedRate), mfa.P(PCollectionRate), mfa.P(PUtilisationRate)},
			Writes: []mfa.Ref{mfa.F(FLittering), mfa.F(FRecovered), mfa.F(FDefault)},
			Run: func(sc *mfa.Scope) error {
				eol := sc.Flow(FEoL)
				deprived := sc.Param(PDeprivedRate)
				littered := eol.Mul(deprived)
				recovered := eol.Mul(deprived.ScalarMinus(1)).
					Mul(sc.Param(PCollectionRate)).Mul(sc.Param(PUtilisationRate))
				sc.Set(FLittering, littered)
				sc.Set(FRecovered, recovered)
				sc.Set(FDefault, eol.Sub(littered).Sub(recovered))
				return nil
			},
		},
		{
			Name:   "sorting",
			Reads:  []mfa.Ref{mfa.F(FRecovered), mfa.P(PSortingRate)},
			Writes: []mfa.Ref{mfa.F(FSorted), mfa.F(FNotRecycled)},
			Run: func(sc *mfa.Scope) error {
				w := sc.Dim("w")
				if w == nil {
					return sc.Err()
				}
				recyclable, err := selection(w, func(cat string) bool { return !slices.Contains(notRecycled, cat) })
				if err != nil {
					return err
				}
				sorted := sc.Flow(FRecovered).Mul(sc.Param(PSortingRate))
				sc.Set(FSorted, sorted.Mul(recyclable))
				sc.Set(FNotRecycled, sorted.Mul(recyclable.ScalarMinus(1)))
				return nil
			},
		},
		{
			Name:   "sorted waste market",
			Reads:  []mfa.Ref{mfa.F(FSorted), mfa.P(PImportRateWaste), mfa.P(PExportRateWaste)},
			Writes: []mfa.Ref{mfa.F(FImportSorted), mfa.F(FExportSorted), mfa.F(FToRecycling)},
			Run: func(sc *mfa.Scope) error {
				in := sc.Flow(FSorted).SumTo(rtspwe...)
				imports := in.Mul(sc.Param(PImportRateWaste)).SumTo(rtspwe...)
				exports := in.Mul(sc.Param(PExportRateWaste)).SumTo(rtspwe...)
				sc.Set(FImportSorted, imports)
				sc.Set(FExportSorted, exports)
				sc.Set(FToRecycling, in.Add(imports).Sub(exports))
				return nil
			},
		},
		{
			Name:   "recycling",
			Reads:  []mfa.Ref{mfa.F(FToRecycling), mfa.P(PConversionRate)},
			Writes: []mfa.Ref{mfa.F(FProcessed), mfa.F(FLosses)},
			Run: func(sc *mfa.Scope) error {
				in := sc.Flow(FToRecycling)
				processed := in.Mul(sc.Param(PConversionRate)).SumTo("r", "t", "s", "p", "m", "e")
				sc.Set(FProcessed, processed)
				sc.Set(FLosses, in.SumTo(rtspe...).Sub(processed.SumTo(rtspe...)))
				return nil
			},
		},
	}
}
