// SPDX-License-Identifier: MIT

// Package buildings is the bottom-up buildings sub-model: material flows
// into and out of the building stock, derived from floor-area inflow and
// outflow by building type and age cohort times per-material intensities.
//
// Steel and concrete elements can be reused: a share of the outflow is
// routed back into the same stock through a self-loop, which increases
// the inflow and decreases the outflow by the same amount.
package buildings

import (
	"fmt"

	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
)

// Class is the model_class of this sub-model.
const Class = "buildings"

// material is one material tracked in buildings.
type material struct {
	name   string // "Steel"
	key    string // "steel", used in parameter names
	letter string
	reuse  bool
}

var materials = []material{
	{name: "Steel", key: "steel", letter: "l", reuse: true},
	{name: "Concrete", key: "concrete", letter: "o", reuse: true},
	{name: "Insulation", key: "insulation", letter: "i"},
	{name: "Glass", key: "glass", letter: "g"},
}

// Process returns the stock process of material, e.g. "Steel stock in buildings".
func Process(material string) string { return material + " stock in buildings" }

// InflowFlow returns the id of the flow into a material stock.
func InflowFlow(material string) string { return string(mfa.FlowName(mfa.DefaultBoundary, Process(material))) }

// OutflowFlow returns the id of the end-of-life flow of a material stock.
func OutflowFlow(material string) string { return string(mfa.FlowName(Process(material), mfa.DefaultBoundary)) }

// ReuseFlow returns the id of the element-reuse self-loop.
func ReuseFlow(material string) string { return string(mfa.FlowName(Process(material), Process(material))) }

func (m material) intensity() string { return "building_" + m.key + "_intensity" }
func (m material) reuseRate() string { return "building_" + m.key + "_element_reuse" }

const (
	pInflow  = "building_inflow"
	pOutflow = "building_outflow"
)

// DimensionFiles maps dimension names to file stems.
var DimensionFiles = map[string]string{
	"Time":               "time_in_years",
	"Region":             "regions",
	"Building type":      "building_types",
	"Age cohort":         "building_cohorts",
	"Steel product":      "steel_products",
	"Concrete product":   "concrete_products",
	"Insulation product": "insulation_products",
	"Glass product":      "glass_products",
}

// Definition returns the buildings system definition.
func Definition() *mfa.Definition {
	def := &mfa.Definition{
		Dimensions: []dimension.Definition{
			{Name: "Time", Letter: "t", Dtype: dimension.Int},
			{Name: "Region", Letter: "r"},
			{Name: "Building type", Letter: "b"},
			{Name: "Age cohort", Letter: "a"},
			{Name: "Concrete product", Letter: "o"},
			{Name: "Steel product", Letter: "l"},
			{Name: "Insulation product", Letter: "i"},
			{Name: "Glass product", Letter: "g"},
		},
		Processes: []string{mfa.DefaultBoundary, "Building stock"},
		Parameters: []mfa.ParameterDefinition{
			{Name: pInflow, Dims: []string{"t", "r", "b", "a"}},
			{Name: pOutflow, Dims: []string{"t", "r", "b", "a"}},
		},
	}
	for _, m := range materials {
		p := Process(m.name)
		def.Processes = append(def.Processes, p)
		def.Flows = append(def.Flows,
			mfa.FlowDefinition{From: mfa.DefaultBoundary, To: p, Dims: []string{"t", "r", m.letter}},
			mfa.FlowDefinition{From: p, To: mfa.DefaultBoundary, Dims: []string{"t", "r", m.letter, "a"}},
		)
		if m.reuse {
			def.Flows = append(def.Flows, mfa.FlowDefinition{From: p, To: p, Dims: []string{"t", "r", m.letter, "a"}})
		}
		def.Stocks = append(def.Stocks, mfa.StockDefinition{
			Name: p, Process: p, Dims: []string{"t", "r", m.letter}, Kind: mfa.FlowDrivenStock,
		})
		def.Parameters = append(def.Parameters,
			mfa.ParameterDefinition{Name: m.intensity(), Dims: []string{"r", "b", "a", m.letter}})
		if m.reuse {
			def.Parameters = append(def.Parameters,
				mfa.ParameterDefinition{Name: m.reuseRate(), Dims: []string{"t", "r", m.letter}})
		}
	}

	return def
}

// Steps returns one flow step and one stock step per material.
func Steps() []mfa.Step {
	var steps []mfa.Step
	for _, m := range materials {
		steps = append(steps, flowStep(m), stockStep(m))
	}

	return steps
}

func flowStep(m material) mfa.Step {
	in, out := InflowFlow(m.name), OutflowFlow(m.name)
	st := mfa.Step{
		Name:   m.key + " flows",
		Reads:  []mfa.Ref{mfa.P(pInflow), mfa.P(pOutflow), mfa.P(m.intensity())},
		Writes: []mfa.Ref{mfa.F(in), mfa.F(out)},
	}
	if m.reuse {
		st.Reads = append(st.Reads, mfa.P(m.reuseRate()))
		st.Writes = append(st.Writes, mfa.F(ReuseFlow(m.name)))
	}
	st.Run = func(sc *mfa.Scope) error {
		intensity := sc.Param(m.intensity())
		sc.Set(in, sc.Param(pInflow).Mul(intensity))
		// Outflow data is recorded as negative floor area.
		sc.Set(out, sc.Param(pOutflow).Neg().Mul(intensity))
		if !m.reuse {
			return nil
		}
		loop := ReuseFlow(m.name)
		sc.Set(loop, sc.Flow(out).Mul(sc.Param(m.reuseRate())))
		sc.Set(in, sc.Flow(in).Add(sc.Flow(loop).SumTo("t", "r", m.letter)))
		sc.Set(out, sc.Flow(out).Sub(sc.Flow(loop)))

		return nil
	}

	return st
}

func stockStep(m material) mfa.Step {
	p := Process(m.name)
	in, out := InflowFlow(m.name), OutflowFlow(m.name)

	return mfa.Step{
		Name:   m.key + " stock",
		Reads:  []mfa.Ref{mfa.F(in), mfa.F(out)},
		Writes: []mfa.Ref{mfa.S(p)},
		Run: func(sc *mfa.Scope) error {
			st := sc.Stock(p)
			if st == nil {
				return sc.Err()
			}
			sc.Check(st.Inflow().Assign(sc.Flow(in)))
			sc.Check(st.Outflow().Assign(sc.Flow(out)))
			if err := sc.Err(); err != nil {
				return err
			}
			if err := st.Compute(); err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}

			return nil
		},
	}
}

// New builds the buildings model. It has no customization switches.
func New(config.Customization) (*mfa.Model, error) {
	return &mfa.Model{Definition: Definition(), DimensionFiles: DimensionFiles, Steps: Steps()}, nil
}
