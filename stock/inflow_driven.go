// SPDX-License-Identifier: MIT

package stock

import (
	"fmt"
	"math"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/lifetime"
	"github.com/katalvlaran/eumfa/matrix"
)

// InflowDriven is a survival-curve stock: every year's inflow opens a
// cohort, and the lifetime model decides how much of it remains later.
//
// Per stratum it keeps two time × cohort histories: the stock still
// present and the amount removed that year. Row sums give the stock level
// and the outflow; the first invariant is that a cohort never grows.
type InflowDriven struct {
	base
	model    lifetime.Model
	mean     *array.Array
	std      *array.Array
	byCohort []*matrix.Dense
	outAge   []*matrix.Dense
}

// NewInflowDriven returns an inflow-driven stock using model.
func NewInflowDriven(name string, dims *dimension.Set, timeLetter string, model lifetime.Model) (*InflowDriven, error) {
	b, err := newBase(name, dims, timeLetter)
	if err != nil {
		return nil, err
	}

	return &InflowDriven{base: b, model: model}, nil
}

// SetLifetime supplies mean and standard deviation arrays. Each is cast
// onto the stock dimensions without time: missing letters broadcast,
// extra letters are summed away.
func (s *InflowDriven) SetLifetime(mean, std *array.Array) error {
	strata := s.dims.Without(s.time)
	m := mean.Cast(strata)
	if err := m.Err(); err != nil {
		return fmt.Errorf("stock %s: lifetime mean: %w", s.name, err)
	}
	d := std.Cast(strata)
	if err := d.Err(); err != nil {
		return fmt.Errorf("stock %s: lifetime std: %w", s.name, err)
	}
	s.mean, s.std = m, d

	return nil
}

// Compute runs the left-to-right scan over calendar time for each stratum:
// the new inflow is added as cohort t, then every cohort c <= t is reduced
// to inflow(c) * S(t-c) and the decrement is booked as outflow at t.
func (s *InflowDriven) Compute() error {
	if s.mean == nil || s.std == nil {
		return fmt.Errorf("%w: %s", ErrNoLifetime, s.name)
	}
	strata, err := s.stock.Strata(s.time)
	if err != nil {
		return err
	}
	ts := s.stock.Stride(s.time)
	n := s.dims.Shape()[s.dims.Pos(s.time)]
	in, out, st := s.inflow.Values(), s.outflow.Values(), s.stock.Values()
	means, stds := s.mean.Values(), s.std.Values()

	s.byCohort = make([]*matrix.Dense, len(strata))
	s.outAge = make([]*matrix.Dense, len(strata))
	sf := make([]float64, n)
	for k, b := range strata {
		p := lifetime.Params{Mean: means[k], Std: stds[k]}
		for age := range sf {
			sf[age] = s.model.Survival(float64(age), p)
		}
		sc, _ := matrix.NewSquare(n)
		oc, _ := matrix.NewSquare(n)
		for t := 0; t < n; t++ {
			for c := 0; c <= t; c++ {
				entered := in[b+c*ts]
				prev := entered
				if c < t {
					prev, _ = sc.At(t-1, c)
				}
				left := entered * sf[t-c]
				if left > prev {
					left = prev
				}
				_ = sc.Set(t, c, left)
				_ = oc.Set(t, c, prev-left)
			}
			st[b+t*ts], _ = sc.RowSum(t)
			out[b+t*ts], _ = oc.RowSum(t)
		}
		if err = conserved(sc, oc, in, b, ts); err != nil {
			return fmt.Errorf("stock %s: %w", s.name, err)
		}
		s.byCohort[k], s.outAge[k] = sc, oc
	}

	return nil
}

// conserved checks that every cohort's remaining stock plus everything it
// ever released equals what entered. Non-finite cohorts are left to the
// engine's NaN/Inf scan.
func conserved(sc, oc *matrix.Dense, in []float64, b, ts int) error {
	n := sc.Rows()
	for c := 0; c < n; c++ {
		entered := in[b+c*ts]
		left, _ := sc.At(n-1, c)
		gone, _ := oc.ColSum(c)
		diff := left + gone - entered
		if math.IsNaN(diff) || math.IsInf(diff, 0) {
			continue
		}
		if math.Abs(diff) > cohortTolerance*math.Max(1, math.Abs(entered)) {
			return fmt.Errorf("%w: cohort %d off by %g", ErrCohortLeak, c, diff)
		}
	}

	return nil
}

// StockByCohort returns the stock split by entry cohort, over the stock
// dimensions plus cohort (whose items must equal the time items).
func (s *InflowDriven) StockByCohort(cohort *dimension.Dimension) (*array.Array, error) {
	return s.expand(cohort, s.byCohort)
}

// OutflowByCohort returns the outflow split by entry cohort.
func (s *InflowDriven) OutflowByCohort(cohort *dimension.Dimension) (*array.Array, error) {
	return s.expand(cohort, s.outAge)
}

func (s *InflowDriven) expand(cohort *dimension.Dimension, hist []*matrix.Dense) (*array.Array, error) {
	if hist == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotComputed, s.name)
	}
	tdim, _ := s.dims.Get(s.time)
	if !tdim.SameItems(cohort) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrCohortMismatch, cohort.Name, tdim.Name)
	}
	dims := s.dims.Dims()
	p := s.dims.Pos(s.time)
	dims = append(dims[:p+1], append([]*dimension.Dimension{cohort}, dims[p+1:]...)...)
	set, err := dimension.NewSet(dims...)
	if err != nil {
		return nil, err
	}
	out := array.New(set)
	strata, _ := s.stock.Strata(s.time)
	ts, cs := out.Stride(s.time), out.Stride(cohort.Letter)
	// Strata offsets are relative to the stock layout; recompute them for
	// the expanded layout by walking the non-time, non-cohort axes.
	outStrata, err := out.Strata(s.time)
	if err != nil {
		return nil, err
	}
	v := out.Values()
	n := tdim.Len()
	k := 0
	for _, b := range outStrata {
		if cohortIndex(b, out, cohort.Letter) != 0 {
			continue
		}
		h := hist[k]
		for t := 0; t < n; t++ {
			row, _ := h.Row(t)
			for c := 0; c <= t; c++ {
				v[b+t*ts+c*cs] = row[c]
			}
		}
		k++
	}
	if k != len(strata) {
		return nil, fmt.Errorf("stock %s: cohort expansion visited %d of %d strata", s.name, k, len(strata))
	}

	return out, nil
}

// cohortIndex recovers the cohort coordinate of flat offset off.
func cohortIndex(off int, a *array.Array, letter string) int {
	st := a.Stride(letter)
	n := a.Dims().Shape()[a.Dims().Pos(letter)]

	return (off / st) % n
}
