// SPDX-License-Identifier: MIT

package remap

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/eumfa/table"
)

// Sentinel errors for mapping rules.
var (
	// ErrMissingColumn indicates a required column is absent from a mapping file
	// or the source table.
	ErrMissingColumn = errors.New("remap: missing column")

	// ErrNoRules indicates a mapping file without rule rows.
	ErrNoRules = errors.New("remap: no rules")
)

// Column names of a mapping file.
const (
	ColOriginalDimension = "original_dimension"
	ColOriginalElement   = "original_element"
	ColTargetDimension   = "target_dimension"
	ColTargetElement     = "target_element"
	ColFactor            = "factor"
	ColTargetRegion      = "target_region"
	ColTargetParameter   = "target_parameter"
)

// Wildcard is the target element (or target region) matching everything.
const Wildcard = "all"

// ParameterColumn holds target_parameter in remapped output.
const ParameterColumn = "parameter"

// Target is one destination coordinate of a rule.
type Target struct {
	Dimension string
	Element   string
}

// Rule maps one original element onto one or more target coordinates.
type Rule struct {
	Dimension string
	Element   string
	Targets   []Target
	Factor    float64
	// Region restricts the rule to source rows in that region; "" or "all"
	// matches every row.
	Region string
	// Parameter is copied into the "parameter" output column when set.
	Parameter string
}

// appliesTo reports whether the region selector admits region.
func (r Rule) appliesTo(region string) bool {
	return r.Region == "" || strings.EqualFold(r.Region, Wildcard) || r.Region == region
}

// Rules is an ordered rule list read from one mapping file.
type Rules struct {
	Rules []Rule
	// Pairs are the (target_dimension*, target_element*) column pairs found.
	Pairs [][2]string
}

// Dimension returns the original dimension of the first rule.
func (rs *Rules) Dimension() string {
	if len(rs.Rules) == 0 {
		return ""
	}

	return rs.Rules[0].Dimension
}

// For returns the rules whose original dimension is dim.
func (rs *Rules) For(dim string) []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.Dimension == dim {
			out = append(out, r)
		}
	}

	return out
}

// TargetDimensions returns every distinct target dimension in first-seen order.
func (rs *Rules) TargetDimensions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs.Rules {
		for _, t := range r.Targets {
			if !seen[t.Dimension] {
				seen[t.Dimension] = true
				out = append(out, t.Dimension)
			}
		}
	}

	return out
}

// LoadRules reads a mapping file. delim 0 auto-detects the separator.
// An empty or unparsable factor reads as 1.
func LoadRules(path string, delim rune) (*Rules, error) {
	raw, err := table.Read(path, table.ReadOptions{Delimiter: delim})
	if err != nil {
		return nil, err
	}
	for _, c := range []string{ColOriginalDimension, ColOriginalElement} {
		if !raw.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, c, path)
		}
	}
	rs := &Rules{Pairs: targetPairs(raw.Columns())}
	for i := 0; i < raw.Len(); i++ {
		r := Rule{
			Dimension: raw.Key(i, ColOriginalDimension),
			Element:   raw.Key(i, ColOriginalElement),
			Factor:    1,
			Region:    raw.Key(i, ColTargetRegion),
			Parameter: raw.Key(i, ColTargetParameter),
		}
		if r.Dimension == "" {
			continue
		}
		if f := raw.Key(i, ColFactor); f != "" {
			if v, ok := parseFactor(f); ok {
				r.Factor = v
			}
		}
		for _, p := range rs.Pairs {
			if d := raw.Key(i, p[0]); d != "" {
				r.Targets = append(r.Targets, Target{Dimension: d, Element: raw.Key(i, p[1])})
			}
		}
		rs.Rules = append(rs.Rules, r)
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRules, path)
	}

	return rs, nil
}

func parseFactor(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}

	return v, true
}

// targetPairs zips target_dimension* with target_element* columns, each
// side ordered by numeric suffix: the bare name first, then ".1"/"_2"
// and so on. Non-numeric suffixes sort last by name.
func targetPairs(cols []string) [][2]string {
	var dims, elems []string
	for _, c := range cols {
		switch {
		case strings.HasPrefix(c, ColTargetDimension):
			dims = append(dims, c)
		case strings.HasPrefix(c, ColTargetElement):
			elems = append(elems, c)
		}
	}
	bySuffix := func(s []string, prefix string) {
		sort.SliceStable(s, func(a, b int) bool {
			na, oka := suffixIndex(s[a], prefix)
			nb, okb := suffixIndex(s[b], prefix)
			switch {
			case oka && okb && na != nb:
				return na < nb
			case oka != okb:
				return oka
			}
			return s[a] < s[b]
		})
	}
	bySuffix(dims, ColTargetDimension)
	bySuffix(elems, ColTargetElement)
	n := min(len(dims), len(elems))
	out := make([][2]string, n)
	for i := 0; i < n; i++ {
		out[i] = [2]string{dims[i], elems[i]}
	}

	return out
}

// suffixIndex parses the numeric suffix of col after prefix; a bare
// prefix is 0.
func suffixIndex(col, prefix string) (int, bool) {
	rest := strings.TrimLeft(strings.TrimPrefix(col, prefix), "._")
	if rest == "" {
		return 0, true
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}

	return n, true
}
