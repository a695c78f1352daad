// SPDX-License-Identifier: MIT

// Package vehicles is the bottom-up vehicles sub-model. New registrations
// by vehicle type are split over sizes by technology share, converted to
// material inflows via intensities and accumulated in inflow-driven
// stocks that share the vehicle lifetime distribution.
package vehicles

import (
	"github.com/katalvlaran/eumfa/config"
	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/mfa"
)

// Class is the model_class of this sub-model.
const Class = "vehicles"

// VehicleStock is the process and stock of whole vehicles.
const VehicleStock = "Vehicle stock"

// Process returns the stock process of material, e.g. "Steel stock in vehicles".
func Process(material string) string { return material + " stock in vehicles" }

// InflowFlow returns the id of the flow into a stock process.
func InflowFlow(process string) string { return string(mfa.FlowName(mfa.DefaultBoundary, process)) }

// OutflowFlow returns the id of the end-of-life flow of a stock process.
func OutflowFlow(process string) string { return string(mfa.FlowName(process, mfa.DefaultBoundary)) }

type material struct {
	name, key, letter string
}

var materials = []material{
	{name: "Steel", key: "steel", letter: "l"},
	{name: "Plastics", key: "plastics", letter: "d"},
	{name: "Glass", key: "glass", letter: "g"},
}

func (m material) intensity() string { return "vehicle_" + m.key + "_intensity" }

const (
	pInflow = "vehicle_inflow"
	pShare  = "vehicle_technology_share"
	pMean   = "vehicle_lifetime_mean"
	pStd    = "vehicle_lifetime_std"
)

// DimensionFiles maps dimension names to file stems.
var DimensionFiles = map[string]string{
	"Time":             "time_in_years",
	"Region":           "regions",
	"Vehicle type":     "vehicle_types",
	"Vehicle size":     "vehicle_size",
	"Steel product":    "steel_products",
	"Plastics product": "plastics_products",
	"Glass product":    "glass_products",
}

// Definition returns the vehicles system definition.
func Definition() *mfa.Definition {
	vz := []string{"t", "r", "v", "z"}
	def := &mfa.Definition{
		Dimensions: []dimension.Definition{
			{Name: "Time", Letter: "t", Dtype: dimension.Int},
			{Name: "Region", Letter: "r"},
			{Name: "Vehicle type", Letter: "v"},
			{Name: "Vehicle size", Letter: "z"},
			{Name: "Steel product", Letter: "l"},
			{Name: "Plastics product", Letter: "d"},
			{Name: "Glass product", Letter: "g"},
		},
		Processes: []string{mfa.DefaultBoundary, VehicleStock},
		Flows: []mfa.FlowDefinition{
			{From: mfa.DefaultBoundary, To: VehicleStock, Dims: vz},
			{From: VehicleStock, To: mfa.DefaultBoundary, Dims: vz},
		},
		Stocks: []mfa.StockDefinition{
			{Name: VehicleStock, Process: VehicleStock, Dims: vz, Kind: mfa.InflowDrivenStock},
		},
		Parameters: []mfa.ParameterDefinition{
			{Name: pInflow, Dims: []string{"t", "r", "v"}},
			{Name: pShare, Dims: []string{"t", "r", "z"}},
			{Name: pMean, Dims: []string{"v"}},
			{Name: pStd, Dims: []string{"v"}},
		},
	}
	for _, m := range materials {
		p := Process(m.name)
		dims := []string{"t", "r", "v", m.letter}
		def.Processes = append(def.Processes, p)
		def.Flows = append(def.Flows,
			mfa.FlowDefinition{From: mfa.DefaultBoundary, To: p, Dims: dims},
			mfa.FlowDefinition{From: p, To: mfa.DefaultBoundary, Dims: dims},
		)
		def.Stocks = append(def.Stocks, mfa.StockDefinition{Name: p, Process: p, Dims: dims, Kind: mfa.InflowDrivenStock})
		def.Parameters = append(def.Parameters,
			mfa.ParameterDefinition{Name: m.intensity(), Dims: []string{"v", "z", m.letter}})
	}

	return def
}

// Steps returns the registration split, the material inflows and one
// stock step per stock.
func Steps() []mfa.Step {
	vehicles := InflowFlow(VehicleStock)
	steps := []mfa.Step{
		{
			Name:   "registrations",
			Reads:  []mfa.Ref{mfa.P(pInflow), mfa.P(pShare)},
			Writes: []mfa.Ref{mfa.F(vehicles)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(vehicles, sc.Param(pInflow).Mul(sc.Param(pShare)))
				return nil
			},
		},
		stockStep(VehicleStock),
	}
	for _, m := range materials {
		m := m // per-iteration copy: go.mod targets go 1.21 loop semantics
		in := InflowFlow(Process(m.name))
		steps = append(steps, mfa.Step{
			Name:   m.key + " inflow",
			Reads:  []mfa.Ref{mfa.F(vehicles), mfa.P(m.intensity())},
			Writes: []mfa.Ref{mfa.F(in)},
			Run: func(sc *mfa.Scope) error {
				sc.Set(in, sc.Flow(vehicles).Mul(sc.Param(m.intensity())))
				return nil
			},
		}, stockStep(Process(m.name)))
	}

	return steps
}

// stockStep feeds the inflow of process into its stock, computes it and
// routes the outflow back to sysenv.
func stockStep(process string) mfa.Step {
	in, out := InflowFlow(process), OutflowFlow(process)

	return mfa.Step{
		Name:   process,
		Reads:  []mfa.Ref{mfa.F(in), mfa.P(pMean), mfa.P(pStd)},
		Writes: []mfa.Ref{mfa.S(process), mfa.F(out)},
		Run: func(sc *mfa.Scope) error {
			st := sc.InflowDriven(process)
			if st == nil {
				return sc.Err()
			}
			sc.Check(st.Inflow().Assign(sc.Flow(in)))
			sc.Check(st.SetLifetime(sc.Param(pMean), sc.Param(pStd)))
			if err := sc.Err(); err != nil {
				return err
			}
			if err := st.Compute(); err != nil {
				return err
			}
			sc.Set(out, st.Outflow())

			return nil
		},
	}
}

// New builds the vehicles model. It has no customization switches.
func New(config.Customization) (*mfa.Model, error) {
	return &mfa.Model{Definition: Definition(), DimensionFiles: DimensionFiles, Steps: Steps()}, nil
}
