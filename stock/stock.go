// SPDX-License-Identifier: MIT

// Package stock implements the two stock accumulators of a material-flow
// system.
//
//   - FlowDriven: both inflow and outflow are given; the stock is their
//     running balance.
//   - InflowDriven: only the inflow is given; a lifetime.Model decides how
//     much of each entry cohort leaves in every later year.
//
// Both operate independently on every stratum, i.e. every combination of
// the non-time coordinates of the stock's dimensions.
package stock

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/dimension"
)

// Sentinel errors for stock accumulators.
var (
	// ErrNoTime indicates the stock dimensions lack the time letter.
	ErrNoTime = errors.New("stock: dimensions lack the time letter")

	// ErrCohortMismatch indicates a cohort dimension whose items differ from time.
	ErrCohortMismatch = errors.New("stock: cohort items differ from time items")

	// ErrNoLifetime indicates Compute was called before SetLifetime.
	ErrNoLifetime = errors.New("stock: lifetime not set")

	// ErrNotComputed indicates a cohort history was requested before Compute.
	ErrNotComputed = errors.New("stock: not computed")

	// ErrCohortLeak indicates a cohort whose stock and outflows do not add
	// up to its inflow.
	ErrCohortLeak = errors.New("stock: cohort mass not conserved")
)

// cohortTolerance is the relative slack allowed by the cohort check.
const cohortTolerance = 1e-9

// Stock is what the compute engine needs from any accumulator.
type Stock interface {
	Name() string
	Dims() *dimension.Set
	Inflow() *array.Array
	Outflow() *array.Array
	Stock() *array.Array
	Compute() error
}

// base carries the arrays shared by both accumulators.
type base struct {
	name    string
	time    string
	dims    *dimension.Set
	inflow  *array.Array
	outflow *array.Array
	stock   *array.Array
}

func newBase(name string, dims *dimension.Set, timeLetter string) (base, error) {
	if !dims.Has(timeLetter) {
		return base{}, fmt.Errorf("%w: %s %s lacks %q", ErrNoTime, name, dims, timeLetter)
	}

	return base{
		name:    name,
		time:    timeLetter,
		dims:    dims,
		inflow:  array.New(dims),
		outflow: array.New(dims),
		stock:   array.New(dims),
	}, nil
}

// Name returns the stock name.
func (b *base) Name() string { return b.name }

// Dims returns the stock dimensions.
func (b *base) Dims() *dimension.Set { return b.dims }

// Inflow returns the inflow array (writable before Compute).
func (b *base) Inflow() *array.Array { return b.inflow }

// Outflow returns the outflow array.
func (b *base) Outflow() *array.Array { return b.outflow }

// Stock returns the stock level array.
func (b *base) Stock() *array.Array { return b.stock }

// FlowDriven is a stock whose inflow and outflow are both exogenous.
type FlowDriven struct{ base }

// NewFlowDriven returns a flow-driven stock over dims.
func NewFlowDriven(name string, dims *dimension.Set, timeLetter string) (*FlowDriven, error) {
	b, err := newBase(name, dims, timeLetter)
	if err != nil {
		return nil, err
	}

	return &FlowDriven{base: b}, nil
}

// Compute sets stock(t) = stock(t-1) + inflow(t) - outflow(t), starting
// from an empty stock before the first year.
func (s *FlowDriven) Compute() error {
	strata, err := s.stock.Strata(s.time)
	if err != nil {
		return err
	}
	ts := s.stock.Stride(s.time)
	n := s.dims.Shape()[s.dims.Pos(s.time)]
	in, out, st := s.inflow.Values(), s.outflow.Values(), s.stock.Values()
	for _, b := range strata {
		level := 0.0
		for t := 0; t < n; t++ {
			off := b + t*ts
			level += in[off] - out[off]
			st[off] = level
		}
	}

	return nil
}
