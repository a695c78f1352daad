// SPDX-License-Identifier: MIT

// Package mfa is the flow-balance compute engine.
//
// A Definition declares dimensions, processes, flows, stocks and
// parameters. NewSystem turns it into a System over concrete dimension
// items: the process graph (a core.Graph) plus zero-initialised arrays for
// every flow, stock and parameter. Compute then runs a model's Steps in
// dependency order; each Step must declare what it reads and writes, and
// every reference is validated before anything runs.
//
// Errors:
//
//	ErrDuplicateName    - two flows, stocks or parameters share a name.
//	ErrUnknownProcess   - a flow or stock names an undeclared process.
//	ErrUnknownLetter    - a dimension letter is not declared.
//	ErrUnknownFlow      - a step or lookup names an undeclared flow.
//	ErrUnknownStock     - a step or lookup names an undeclared stock.
//	ErrUnknownParameter - a step or lookup names an undeclared parameter.
//	ErrUndeclaredAccess - a step touched an array it did not declare.
//	ErrMissingParameter - a parameter file or its values are missing.
//	ErrNonFinite        - NaN/Inf produced under strict numerics.
package mfa

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/eumfa/dimension"
)

// Sentinel errors for definitions and systems.
var (
	ErrDuplicateName    = errors.New("mfa: duplicate name")
	ErrUnknownProcess   = errors.New("mfa: unknown process")
	ErrUnknownLetter    = errors.New("mfa: unknown dimension letter")
	ErrUnknownFlow      = errors.New("mfa: unknown flow")
	ErrUnknownStock     = errors.New("mfa: unknown stock")
	ErrUnknownParameter = errors.New("mfa: unknown parameter")
	ErrUndeclaredAccess = errors.New("mfa: undeclared access")
	ErrMissingParameter = errors.New("mfa: missing parameter")
	ErrNonFinite        = errors.New("mfa: non-finite values")
)

// DefaultBoundary is the system-environment process.
const DefaultBoundary = "sysenv"

// DefaultTime is the conventional time letter.
const DefaultTime = "t"

// FlowID is the canonical name of a flow: "{from} => {to}" or an override.
type FlowID string

// FlowName builds the canonical "{from} => {to}" identifier.
func FlowName(from, to string) FlowID { return FlowID(from + " => " + to) }

// FlowDefinition declares one directed flow.
type FlowDefinition struct {
	From string
	To   string
	Dims []string
	// Name overrides the canonical identifier when set.
	Name string
}

// ID returns the flow identifier.
func (f FlowDefinition) ID() FlowID {
	if f.Name != "" {
		return FlowID(f.Name)
	}

	return FlowName(f.From, f.To)
}

// StockKind selects the accumulator.
type StockKind int

const (
	// FlowDrivenStock integrates given inflows and outflows.
	FlowDrivenStock StockKind = iota
	// InflowDrivenStock derives outflows from a lifetime model.
	InflowDrivenStock
)

// StockDefinition declares one stock held by a process.
type StockDefinition struct {
	Name    string
	Process string
	Dims    []string
	Kind    StockKind
	// Lifetime names a lifetime model; "" uses the system default.
	Lifetime string
}

// ParameterDefinition declares one exogenous input array.
type ParameterDefinition struct {
	Name string
	Dims []string
}

// Definition is the static description of a material-flow system.
type Definition struct {
	Dimensions []dimension.Definition
	Processes  []string
	// Boundaries lists processes exempt from mass balance; defaults to sysenv.
	Boundaries []string
	Flows      []FlowDefinition
	Stocks     []StockDefinition
	Parameters []ParameterDefinition
	// Time is the time letter; defaults to "t".
	Time string
}

// TimeLetter returns the configured or default time letter.
func (d *Definition) TimeLetter() string {
	if d.Time == "" {
		return DefaultTime
	}

	return d.Time
}

// BoundarySet returns the boundary processes.
func (d *Definition) BoundarySet() map[string]bool {
	out := make(map[string]bool)
	if len(d.Boundaries) == 0 {
		out[DefaultBoundary] = true
	}
	for _, b := range d.Boundaries {
		out[b] = true
	}

	return out
}

// Validate checks internal consistency of the definition.
func (d *Definition) Validate() error {
	letters := make(map[string]bool, len(d.Dimensions))
	for _, dim := range d.Dimensions {
		if letters[dim.Letter] {
			return fmt.Errorf("%w: dimension letter %q", ErrDuplicateName, dim.Letter)
		}
		letters[dim.Letter] = true
	}
	checkDims := func(owner string, dims []string) error {
		for _, l := range dims {
			if !letters[l] {
				return fmt.Errorf("%w: %q in %s", ErrUnknownLetter, l, owner)
			}
		}
		return nil
	}
	procs := make(map[string]bool, len(d.Processes))
	for _, p := range d.Processes {
		if procs[p] {
			return fmt.Errorf("%w: process %q", ErrDuplicateName, p)
		}
		procs[p] = true
	}
	for b := range d.BoundarySet() {
		if !procs[b] {
			return fmt.Errorf("%w: boundary %q", ErrUnknownProcess, b)
		}
	}
	flows := make(map[FlowID]bool, len(d.Flows))
	for _, f := range d.Flows {
		id := f.ID()
		if flows[id] {
			return fmt.Errorf("%w: flow %q", ErrDuplicateName, id)
		}
		flows[id] = true
		if !procs[f.From] || !procs[f.To] {
			return fmt.Errorf("%w: flow %q", ErrUnknownProcess, id)
		}
		if err := checkDims(string(id), f.Dims); err != nil {
			return err
		}
	}
	stocks := make(map[string]bool, len(d.Stocks))
	for _, s := range d.Stocks {
		if stocks[s.Name] {
			return fmt.Errorf("%w: stock %q", ErrDuplicateName, s.Name)
		}
		stocks[s.Name] = true
		if !procs[s.Process] {
			return fmt.Errorf("%w: stock %q at %q", ErrUnknownProcess, s.Name, s.Process)
		}
		if err := checkDims(s.Name, s.Dims); err != nil {
			return err
		}
		hasTime := false
		for _, l := range s.Dims {
			hasTime = hasTime || l == d.TimeLetter()
		}
		if !hasTime {
			return fmt.Errorf("%w: stock %q lacks time letter %q", ErrUnknownLetter, s.Name, d.TimeLetter())
		}
	}
	params := make(map[string]bool, len(d.Parameters))
	for _, p := range d.Parameters {
		if params[p.Name] {
			return fmt.Errorf("%w: parameter %q", ErrDuplicateName, p.Name)
		}
		params[p.Name] = true
		if err := checkDims(p.Name, p.Dims); err != nil {
			return err
		}
	}

	return nil
}
