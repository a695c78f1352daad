// SPDX-License-Identifier: MIT

package mfa

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/katalvlaran/eumfa/array"
	"github.com/katalvlaran/eumfa/core"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/lifetime"
	"github.com/katalvlaran/eumfa/stock"
)

// Flow is one edge of the process graph together with its values.
type Flow struct {
	ID    FlowID
	From  string
	To    string
	Array *array.Array
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the structured logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.log = l
		}
	}
}

// WithLifetime sets the default lifetime model for inflow-driven stocks.
func WithLifetime(m lifetime.Model) Option {
	return func(s *System) { s.lifetime = m }
}

// WithStrictNumerics turns the post-step NaN/Inf warning into an error.
func WithStrictNumerics(on bool) Option {
	return func(s *System) { s.strict = on }
}

// System is a Definition bound to concrete dimension items.
type System struct {
	Name  string
	Def   *Definition
	Dims  *dimension.Set
	Graph *core.Graph

	flows      map[FlowID]*Flow
	flowOrder  []FlowID
	stocks     map[string]stock.Stock
	stockOrder []string
	stockProc  map[string]string
	params     map[string]*array.Array
	paramOrder []string

	lifetime lifetime.Model
	strict   bool
	log      *slog.Logger
}

// NewSystem validates def and allocates every flow, stock and parameter
// over dims, which must hold every declared dimension.
func NewSystem(name string, def *Definition, dims *dimension.Set, opts ...Option) (*System, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	s := &System{
		Name:      name,
		Def:       def,
		Dims:      dims,
		Graph:     core.NewGraph(core.WithDirected(true), core.WithMultiEdges(), core.WithLoops()),
		flows:     make(map[FlowID]*Flow, len(def.Flows)),
		stocks:    make(map[string]stock.Stock, len(def.Stocks)),
		stockProc: make(map[string]string, len(def.Stocks)),
		params:    make(map[string]*array.Array, len(def.Parameters)),
		lifetime:  lifetime.Normal,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range def.Dimensions {
		if !dims.Has(d.Letter) {
			return nil, fmt.Errorf("%w: %q (%s) has no items", ErrUnknownLetter, d.Letter, d.Name)
		}
	}
	boundary := def.BoundarySet()
	for _, p := range def.Processes {
		if err := s.Graph.AddVertex(p); err != nil {
			return nil, err
		}
		if boundary[p] {
			_ = s.Graph.SetVertexMetadata(p, metaBoundary, true)
		}
	}
	for _, fd := range def.Flows {
		set, err := dims.Subset(fd.Dims...)
		if err != nil {
			return nil, err
		}
		id := fd.ID()
		if _, err = s.Graph.AddEdge(fd.From, fd.To, core.WithEdgeID(string(id)),
			core.WithEdgeMetadata(metaDims, strings.Join(fd.Dims, ""))); err != nil {
			return nil, fmt.Errorf("flow %q: %w", id, err)
		}
		s.flows[id] = &Flow{ID: id, From: fd.From, To: fd.To, Array: array.New(set)}
		s.flowOrder = append(s.flowOrder, id)
	}
	for _, sd := range def.Stocks {
		st, err := s.newStock(sd)
		if err != nil {
			return nil, err
		}
		s.stocks[sd.Name] = st
		s.stockProc[sd.Name] = sd.Process
		s.stockOrder = append(s.stockOrder, sd.Name)
	}
	for _, pd := range def.Parameters {
		set, err := dims.Subset(pd.Dims...)
		if err != nil {
			return nil, err
		}
		s.params[pd.Name] = array.New(set)
		s.paramOrder = append(s.paramOrder, pd.Name)
	}

	return s, nil
}

const (
	metaBoundary = "boundary"
	metaDims     = "dims"
)

func (s *System) newStock(sd StockDefinition) (stock.Stock, error) {
	set, err := s.Dims.Subset(sd.Dims...)
	if err != nil {
		return nil, err
	}
	tl := s.Def.TimeLetter()
	if sd.Kind == FlowDrivenStock {
		return stock.NewFlowDriven(sd.Name, set, tl)
	}
	model := s.lifetime
	if sd.Lifetime != "" {
		if model, err = lifetime.Lookup(sd.Lifetime); err != nil {
			return nil, fmt.Errorf("stock %q: %w", sd.Name, err)
		}
	}

	return stock.NewInflowDriven(sd.Name, set, tl, model)
}

// Logger returns the system logger.
func (s *System) Logger() *slog.Logger { return s.log }

// Dim returns the dimension with the given letter or name.
func (s *System) Dim(key string) (*dimension.Dimension, error) { return s.Dims.Get(key) }

// Flow returns the flow with the given identifier.
func (s *System) Flow(id FlowID) (*Flow, error) {
	f, ok := s.flows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, id)
	}

	return f, nil
}

// Flows returns every flow in declaration order.
func (s *System) Flows() []*Flow {
	out := make([]*Flow, len(s.flowOrder))
	for i, id := range s.flowOrder {
		out[i] = s.flows[id]
	}

	return out
}

// Stock returns the stock with the given name.
func (s *System) Stock(name string) (stock.Stock, error) {
	st, ok := s.stocks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStock, name)
	}

	return st, nil
}

// Stocks returns every stock in declaration order.
func (s *System) Stocks() []stock.Stock {
	out := make([]stock.Stock, len(s.stockOrder))
	for i, n := range s.stockOrder {
		out[i] = s.stocks[n]
	}

	return out
}

// Parameter returns the parameter array with the given name.
func (s *System) Parameter(name string) (*array.Array, error) {
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}

	return p, nil
}

// SetParameter overwrites a parameter, casting value onto its dimensions.
func (s *System) SetParameter(name string, value *array.Array) error {
	p, err := s.Parameter(name)
	if err != nil {
		return err
	}

	return p.Assign(value)
}

// ParameterNames returns parameter names in declaration order.
func (s *System) ParameterNames() []string { return append([]string(nil), s.paramOrder...) }

// IsBoundary reports whether process p is exempt from mass balance.
func (s *System) IsBoundary(p string) bool {
	v, ok := s.Graph.VertexMetadata(p, metaBoundary)

	return ok && v == true
}
