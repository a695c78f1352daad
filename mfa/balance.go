// SPDX-License-Identifier: MIT

package mfa

import (
	"math"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/dimension"
)

// Imbalance reports a process whose inflows, outflows and stock change do
// not cancel.
type Imbalance struct {
	Process string
	// Dims are the letters the check was reduced onto.
	Dims []string
	// MaxAbs is the largest absolute residual cell.
	MaxAbs float64
	// Scale is the largest absolute inflow cell, for relative judgement.
	Scale float64
}

// CheckBalance verifies mass conservation at every non-boundary process:
// sum(inflows) - sum(outflows) - sum(stock inflow - stock outflow) = 0.
// All terms are reduced onto the dimensions shared by every term. A
// process passes when MaxAbs <= tol * max(1, Scale).
func (s *System) CheckBalance(tol float64) []Imbalance {
	var out []Imbalance
	for _, p := range s.Graph.Vertices() {
		if s.IsBoundary(p) {
			continue
		}
		var ins, outs, deltas []*array.Array
		inEdges, _ := s.Graph.InEdges(p)
		for _, e := range inEdges {
			ins = append(ins, s.flows[FlowID(e.ID)].Array)
		}
		outEdges, _ := s.Graph.OutEdges(p)
		for _, e := range outEdges {
			outs = append(outs, s.flows[FlowID(e.ID)].Array)
		}
		for _, name := range s.stockOrder {
			if s.stockProc[name] == p {
				st := s.stocks[name]
				deltas = append(deltas, st.Inflow().Sub(st.Outflow()))
			}
		}
		if len(ins)+len(outs) == 0 {
			continue
		}
		common := commonDims(append(append(append([]*array.Array(nil), ins...), outs...), deltas...))
		letters := common.Letters()
		resid := array.New(common)
		scale := array.New(common)
		for _, a := range ins {
			r := a.SumTo(letters...)
			resid = resid.Add(r)
			scale = scale.Add(r.Apply(math.Abs))
		}
		for _, a := range outs {
			resid = resid.Sub(a.SumTo(letters...))
		}
		for _, a := range deltas {
			resid = resid.Sub(a.SumTo(letters...))
		}
		maxAbs, maxScale := 0.0, 0.0
		for i, v := range resid.Values() {
			maxAbs = math.Max(maxAbs, math.Abs(v))
			maxScale = math.Max(maxScale, scale.Values()[i])
		}
		if math.IsNaN(maxAbs) || maxAbs > tol*math.Max(1, maxScale) {
			out = append(out, Imbalance{Process: p, Dims: letters, MaxAbs: maxAbs, Scale: maxScale})
		}
	}

	return out
}

// commonDims intersects the dimension sets of all arrays (first array's order).
func commonDims(arrays []*array.Array) *dimension.Set {
	set := arrays[0].Dims()
	for _, a := range arrays[1:] {
		set = set.Intersect(a.Dims())
	}

	return set
}

// LogBalance runs CheckBalance and logs every imbalance as a warning.
func (s *System) LogBalance(tol float64) []Imbalance {
	imb := s.CheckBalance(tol)
	for _, b := range imb {
		s.log.Warn("mass balance violated", "system", s.Name, "process", b.Process,
			"dims", b.Dims, "max_abs", b.MaxAbs, "scale", b.Scale)
	}

	return imb
}
