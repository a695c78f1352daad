// SPDX-License-Identifier: MIT

package mfa

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/core"
	"github.com/katalvlaran/eumfa/dfs"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/stock"
)

// RefKind tells which catalog a Ref points into.
type RefKind int

const (
	FlowRef RefKind = iota
	ParamRef
	StockRef
)

// Ref names one flow, parameter or stock.
type Ref struct {
	Kind RefKind
	Name string
}

// F references a flow.
func F(id string) Ref { return Ref{Kind: FlowRef, Name: id} }

// P references a parameter.
func P(name string) Ref { return Ref{Kind: ParamRef, Name: name} }

// S references a stock.
func S(name string) Ref { return Ref{Kind: StockRef, Name: name} }

func (r Ref) String() string {
	switch r.Kind {
	case ParamRef:
		return "parameter " + r.Name
	case StockRef:
		return "stock " + r.Name
	}

	return "flow " + r.Name
}

// Step is one equation block of a model.
type Step struct {
	Name   string
	Reads  []Ref
	Writes []Ref
	Run    func(sc *Scope) error
}

// ValidateSteps checks that every reference names a declared array.
func (s *System) ValidateSteps(steps []Step) error {
	var errs []error
	for _, st := range steps {
		for _, r := range append(append([]Ref(nil), st.Reads...), st.Writes...) {
			if err := s.resolve(r); err != nil {
				errs = append(errs, fmt.Errorf("step %q: %w", st.Name, err))
			}
		}
	}

	return errors.Join(errs...)
}

func (s *System) resolve(r Ref) error {
	var ok bool
	switch r.Kind {
	case FlowRef:
		_, ok = s.flows[FlowID(r.Name)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFlow, r.Name)
		}
	case ParamRef:
		_, ok = s.params[r.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownParameter, r.Name)
		}
	case StockRef:
		_, ok = s.stocks[r.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStock, r.Name)
		}
	}

	return nil
}

// Order sorts steps by data dependency. Writers of a reference run in
// declaration order; every pure reader runs after all of its writers.
// Steps without mutual dependency keep declaration order. The sort stops
// once ctx is done.
func (s *System) Order(ctx context.Context, steps []Step) ([]Step, error) {
	g := core.NewGraph(core.WithDirected(true))
	ids := make([]string, len(steps))
	byID := make(map[string]int, len(steps))
	for i, st := range steps {
		ids[i] = fmt.Sprintf("%04d %s", i, st.Name)
		byID[ids[i]] = i
		if err := g.AddVertex(ids[i]); err != nil {
			return nil, err
		}
	}
	writers := make(map[Ref][]int)
	for i, st := range steps {
		for _, w := range st.Writes {
			writers[w] = append(writers[w], i)
		}
	}
	link := func(from, to string) error {
		if from == to || g.HasEdge(from, to) {
			return nil
		}
		_, err := g.AddEdge(from, to)

		return err
	}
	for _, ws := range writers {
		for k := 1; k < len(ws); k++ {
			if err := link(ids[ws[k-1]], ids[ws[k]]); err != nil {
				return nil, err
			}
		}
	}
	for i, st := range steps {
		for _, r := range st.Reads {
			if writes(st, r) {
				continue
			}
			for _, w := range writers[r] {
				if err := link(ids[w], ids[i]); err != nil {
					return nil, err
				}
			}
		}
	}
	order, err := dfs.TopologicalSort(g, dfs.WithCancelContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("system %s: %w", s.Name, err)
	}
	out := make([]Step, len(order))
	for k, id := range order {
		out[k] = steps[byID[id]]
	}

	return out, nil
}

func writes(st Step, r Ref) bool {
	for _, w := range st.Writes {
		if w == r {
			return true
		}
	}

	return false
}

// Compute validates, orders and runs steps. After each step the arrays it
// wrote are scanned for NaN/Inf: a warning normally, ErrNonFinite under
// strict numerics.
func (s *System) Compute(ctx context.Context, steps []Step) error {
	if err := s.ValidateSteps(steps); err != nil {
		return err
	}
	ordered, err := s.Order(ctx, steps)
	if err != nil {
		return err
	}
	s.warnUnwritten(steps)
	for _, st := range ordered {
		if err = ctx.Err(); err != nil {
			return err
		}
		s.log.Debug("compute step", "system", s.Name, "step", st.Name)
		sc := newScope(s, st)
		if err = st.Run(sc); err == nil {
			err = sc.err
		}
		if err != nil {
			return fmt.Errorf("system %s: step %q: %w", s.Name, st.Name, err)
		}
		if err = s.scanNonFinite(st); err != nil {
			return err
		}
	}

	return nil
}

// warnUnwritten logs flows some step reads that no step writes.
func (s *System) warnUnwritten(steps []Step) {
	written := make(map[Ref]bool)
	for _, st := range steps {
		for _, w := range st.Writes {
			written[w] = true
		}
	}
	seen := make(map[Ref]bool)
	var names []string
	for _, st := range steps {
		for _, r := range st.Reads {
			if r.Kind == FlowRef && !written[r] && !seen[r] {
				seen[r] = true
				names = append(names, r.Name)
			}
		}
	}
	sort.Strings(names)
	for _, n := range names {
		s.log.Warn("flow read but never written, stays zero", "system", s.Name, "flow", n)
	}
}

func (s *System) scanNonFinite(st Step) error {
	for _, w := range st.Writes {
		var arrays []*array.Array
		switch w.Kind {
		case FlowRef:
			arrays = []*array.Array{s.flows[FlowID(w.Name)].Array}
		case StockRef:
			stk := s.stocks[w.Name]
			arrays = []*array.Array{stk.Inflow(), stk.Outflow(), stk.Stock()}
		case ParamRef:
			arrays = []*array.Array{s.params[w.Name]}
		}
		n := 0
		for _, a := range arrays {
			n += a.NonFinite()
		}
		if n == 0 {
			continue
		}
		if s.strict {
			return fmt.Errorf("%w: %s after step %q (%d cells)", ErrNonFinite, w, st.Name, n)
		}
		s.log.Warn("non-finite values", "system", s.Name, "step", st.Name, "target", w.String(), "cells", n)
	}

	return nil
}

// Scope is the view of a System handed to one Step. It only exposes the
// arrays the step declared and collects the first error it sees.
type Scope struct {
	sys    *System
	step   Step
	reads  map[Ref]bool
	writes map[Ref]bool
	err    error
}

func newScope(s *System, st Step) *Scope {
	sc := &Scope{sys: s, step: st, reads: make(map[Ref]bool), writes: make(map[Ref]bool)}
	for _, r := range st.Reads {
		sc.reads[r] = true
	}
	for _, w := range st.Writes {
		sc.writes[w] = true
	}

	return sc
}

// Check records err if it is the first one.
func (sc *Scope) Check(err error) {
	if err != nil && sc.err == nil {
		sc.err = err
	}
}

// Err returns the first recorded error.
func (sc *Scope) Err() error { return sc.err }

func (sc *Scope) allowed(r Ref) bool { return sc.reads[r] || sc.writes[r] }

func (sc *Scope) deny(r Ref) {
	sc.Check(fmt.Errorf("%w: %s", ErrUndeclaredAccess, r))
}

// Flow returns the live array of flow id.
func (sc *Scope) Flow(id string) *array.Array {
	r := F(id)
	f, ok := sc.sys.flows[FlowID(id)]
	if !ok {
		sc.Check(fmt.Errorf("%w: %q", ErrUnknownFlow, id))
		return array.Scalar(0)
	}
	if !sc.allowed(r) {
		sc.deny(r)
		return f.Array.Copy()
	}

	return f.Array
}

// Set assigns value to flow id (summing extra, broadcasting missing dims).
func (sc *Scope) Set(id string, value *array.Array) {
	r := F(id)
	if !sc.writes[r] {
		sc.deny(r)
		return
	}
	f, ok := sc.sys.flows[FlowID(id)]
	if !ok {
		sc.Check(fmt.Errorf("%w: %q", ErrUnknownFlow, id))
		return
	}
	sc.Check(f.Array.Assign(value))
}

// Param returns parameter name. Treat it as read-only unless declared written.
func (sc *Scope) Param(name string) *array.Array {
	r := P(name)
	p, ok := sc.sys.params[name]
	if !ok {
		sc.Check(fmt.Errorf("%w: %q", ErrUnknownParameter, name))
		return array.Scalar(0)
	}
	if !sc.allowed(r) {
		sc.deny(r)
		return p.Copy()
	}

	return p
}

// SetParam assigns value to parameter name.
func (sc *Scope) SetParam(name string, value *array.Array) {
	r := P(name)
	if !sc.writes[r] {
		sc.deny(r)
		return
	}
	sc.Check(sc.sys.params[name].Assign(value))
}

// Stock returns stock name.
func (sc *Scope) Stock(name string) stock.Stock {
	r := S(name)
	st, ok := sc.sys.stocks[name]
	if !ok || !sc.allowed(r) {
		if !ok {
			sc.Check(fmt.Errorf("%w: %q", ErrUnknownStock, name))
		} else {
			sc.deny(r)
		}
		return nil
	}

	return st
}

// InflowDriven returns stock name as a survival-curve stock.
func (sc *Scope) InflowDriven(name string) *stock.InflowDriven {
	st := sc.Stock(name)
	if st == nil {
		return nil
	}
	ids, ok := st.(*stock.InflowDriven)
	if !ok {
		sc.Check(fmt.Errorf("mfa: stock %q is not inflow-driven", name))
		return nil
	}

	return ids
}

// Dim returns the system dimension for a letter or name.
func (sc *Scope) Dim(key string) *dimension.Dimension {
	d, err := sc.sys.Dim(key)
	sc.Check(err)

	return d
}

// System returns the system under computation.
func (sc *Scope) System() *System { return sc.sys }
