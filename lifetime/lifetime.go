// SPDX-License-Identifier: MIT

// Package lifetime provides survival-curve models for inflow-driven stocks.
//
// A Model answers one question: which fraction of a cohort that entered
// the stock is still present age years later, given the mean and standard
// deviation of its lifetime. Models are selected by name through a
// registry (see Lookup), so configuration files can name them.
//
// Every model returns 1 for negative ages and is non-increasing in age.
// A non-positive standard deviation degrades to a fixed lifetime.
package lifetime

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrUnknownModel indicates Lookup was asked for an unregistered name.
var ErrUnknownModel = errors.New("lifetime: unknown lifetime model")

// Params are the moments of a lifetime distribution, in years.
type Params struct {
	Mean float64
	Std  float64
}

// Model is a survival function.
type Model interface {
	Survival(age float64, p Params) float64
}

// Func adapts a plain function to Model.
type Func func(age float64, p Params) float64

// Survival implements Model.
func (f Func) Survival(age float64, p Params) float64 { return f(age, p) }

// Fixed removes the whole cohort once its age reaches the mean.
var Fixed Model = Func(func(age float64, p Params) float64 {
	if age < p.Mean {
		return 1
	}

	return 0
})

// Normal uses the upper tail of a normal distribution.
var Normal Model = Func(func(age float64, p Params) float64 {
	if age < 0 {
		return 1
	}
	if p.Std <= 0 {
		return Fixed.Survival(age, p)
	}

	return distuv.Normal{Mu: p.Mean, Sigma: p.Std}.Survival(age)
})

// FoldedNormal uses a normal distribution folded at zero, so no mass is
// assigned to negative lifetimes.
var FoldedNormal Model = Func(func(age float64, p Params) float64 {
	if age < 0 {
		return 1
	}
	if p.Std <= 0 {
		return Fixed.Survival(age, p)
	}
	n := distuv.Normal{Mu: 0, Sigma: 1}
	cdf := n.CDF((age-p.Mean)/p.Std) + n.CDF((age+p.Mean)/p.Std) - 1

	return clamp01(1 - cdf)
})

// LogNormal matches a log-normal distribution to Mean and Std.
var LogNormal Model = Func(func(age float64, p Params) float64 {
	if age < 0 {
		return 1
	}
	if p.Std <= 0 || p.Mean <= 0 {
		return Fixed.Survival(age, p)
	}
	if age == 0 {
		return 1
	}
	s2 := math.Log(1 + (p.Std*p.Std)/(p.Mean*p.Mean))

	return distuv.LogNormal{Mu: math.Log(p.Mean) - s2/2, Sigma: math.Sqrt(s2)}.Survival(age)
})

// Weibull matches a Weibull distribution to Mean and Std, deriving the
// shape from the coefficient of variation (Justus approximation).
var Weibull Model = Func(func(age float64, p Params) float64 {
	if age < 0 {
		return 1
	}
	if p.Std <= 0 || p.Mean <= 0 {
		return Fixed.Survival(age, p)
	}
	k := math.Pow(p.Std/p.Mean, -1.086)
	lambda := p.Mean / math.Gamma(1+1/k)

	return distuv.Weibull{K: k, Lambda: lambda}.Survival(age)
})

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

var (
	mu       sync.RWMutex
	registry = map[string]Model{
		"FixedLifetime":        Fixed,
		"NormalLifetime":       Normal,
		"FoldedNormalLifetime": FoldedNormal,
		"LogNormalLifetime":    LogNormal,
		"WeibullLifetime":      Weibull,
	}
)

// Register adds or replaces a named model.
func Register(name string, m Model) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = m
}

// Lookup returns the model registered under name.
func Lookup(name string) (Model, error) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}

	return m, nil
}

// Names returns the registered model names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)

	return out
}
