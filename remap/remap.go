// SPDX-License-Identifier: MIT

package remap

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/katalvlaran/eumfa/table"
)

// Options controls Remap.
type Options struct {
	// Dimension is the source column to remap; "" uses the rules' first
	// original dimension.
	Dimension string
	// DropSourceDim removes the source column from the output. Rows without
	// a matching rule are then dropped and logged as errors instead of
	// passing through.
	DropSourceDim bool
	// RegionColumn is matched against target_region; "" ignores selectors.
	RegionColumn string
	// Catalog expands "all" target elements.
	Catalog *Catalog
	Logger  *slog.Logger
}

// Report summarises one Remap call.
type Report struct {
	// Matched and Unmatched count source rows.
	Matched   int
	Unmatched int
	// Emitted counts rows before the final aggregation.
	Emitted int
	// UnmatchedElements lists distinct source elements without a rule.
	UnmatchedElements []string
}

// expansion is a rule with every wildcard resolved.
type expansion struct {
	cells     map[string]string
	factor    float64
	region    string
	parameter string
}

// Remap applies rules to src and group-sums the result over every key
// column. src must carry a value column and the remapped dimension.
func Remap(src *table.Table, rules *Rules, opts Options) (*table.Table, Report, error) {
	var rep Report
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	dim := opts.Dimension
	if dim == "" {
		dim = rules.Dimension()
	}
	if src.Value() == "" {
		return nil, rep, fmt.Errorf("remap %q: %w", dim, table.ErrNoValueColumn)
	}
	if !src.HasColumn(dim) {
		return nil, rep, fmt.Errorf("%w: source lacks %q", ErrMissingColumn, dim)
	}
	byElem, targets, withParam, err := expand(rules.For(dim), opts.Catalog, log)
	if err != nil {
		return nil, rep, err
	}
	out, err := table.New(outputColumns(src, dim, targets, withParam, opts.DropSourceDim), src.Value())
	if err != nil {
		return nil, rep, err
	}

	srcCols := src.Columns()
	inSrc := make(map[string]bool, len(srcCols))
	for _, c := range srcCols {
		inSrc[c] = true
	}
	unmatched := make(map[string]bool)
	for i := 0; i < src.Len(); i++ {
		elem := src.Key(i, dim)
		region := ""
		if opts.RegionColumn != "" {
			region = src.Key(i, opts.RegionColumn)
		}
		cells := make(map[string]string, len(srcCols)+len(targets)+1)
		for _, c := range srcCols {
			cells[c] = src.Key(i, c)
		}
		var hits []expansion
		for _, e := range byElem[elem] {
			if regionMatches(e.region, region, opts.RegionColumn) {
				hits = append(hits, e)
			}
		}
		if len(hits) == 0 {
			rep.Unmatched++
			unmatched[elem] = true
			if opts.DropSourceDim {
				continue
			}
			for _, td := range targets {
				if !inSrc[td] {
					cells[td] = elem
				}
			}
			out.AppendMap(cells, src.Val(i))
			rep.Emitted++
			continue
		}
		rep.Matched++
		for _, e := range hits {
			row := make(map[string]string, len(cells)+len(targets)+1)
			for k, v := range cells {
				row[k] = v
			}
			for _, td := range targets {
				if v, ok := e.cells[td]; ok {
					row[td] = v
				} else if !inSrc[td] {
					row[td] = elem
				}
			}
			if e.parameter != "" {
				row[ParameterColumn] = e.parameter
			}
			out.AppendMap(row, src.Val(i)*e.factor)
			rep.Emitted++
		}
	}
	for e := range unmatched {
		rep.UnmatchedElements = append(rep.UnmatchedElements, e)
	}
	sort.Strings(rep.UnmatchedElements)
	if len(unmatched) > 0 {
		if opts.DropSourceDim {
			log.Error("remap: rows without rule dropped", "dimension", dim,
				"rows", rep.Unmatched, "elements", rep.UnmatchedElements)
		} else {
			log.Debug("remap: rows without rule passed through", "dimension", dim,
				"rows", rep.Unmatched, "elements", rep.UnmatchedElements)
		}
	}

	agg, err := out.GroupSum(out.Columns()...)
	if err != nil {
		return nil, rep, err
	}

	return agg, rep, nil
}

func regionMatches(selector, region, column string) bool {
	if column == "" {
		return true
	}

	return Rule{Region: selector}.appliesTo(region)
}

// outputColumns keeps the source columns in order, drops dim when asked
// (unless a rule writes it back), then appends new target dimensions and
// the parameter column.
func outputColumns(src *table.Table, dim string, targets []string, withParam, drop bool) []string {
	rewritten := false
	for _, td := range targets {
		rewritten = rewritten || td == dim
	}
	var cols []string
	have := make(map[string]bool)
	for _, c := range src.Columns() {
		if c == dim && drop && !rewritten {
			continue
		}
		cols = append(cols, c)
		have[c] = true
	}
	for _, td := range targets {
		if !have[td] {
			cols = append(cols, td)
			have[td] = true
		}
	}
	if withParam && !have[ParameterColumn] {
		cols = append(cols, ParameterColumn)
	}

	return cols
}

// expand resolves wildcard targets against cat and indexes the result by
// original element. It also returns the target dimensions in first-seen
// order and whether any rule sets a parameter.
func expand(rules []Rule, cat *Catalog, log *slog.Logger) (map[string][]expansion, []string, bool, error) {
	byElem := make(map[string][]expansion)
	var targets []string
	seen := make(map[string]bool)
	withParam := false
	for _, r := range rules {
		parts := []map[string]string{{}}
		for _, t := range r.Targets {
			if !seen[t.Dimension] {
				seen[t.Dimension] = true
				targets = append(targets, t.Dimension)
			}
			if !strings.EqualFold(t.Element, Wildcard) || !cat.Has(t.Dimension) {
				for _, p := range parts {
					p[t.Dimension] = t.Element
				}
				continue
			}
			items, err := cat.Items(t.Dimension)
			if err != nil {
				return nil, nil, false, fmt.Errorf("remap: catalog %q: %w", t.Dimension, err)
			}
			if len(items) == 0 {
				log.Warn("remap: no catalog items to expand wildcard", "dimension", t.Dimension, "element", r.Element)
				for _, p := range parts {
					p[t.Dimension] = t.Element
				}
				continue
			}
			next := make([]map[string]string, 0, len(parts)*len(items))
			for _, p := range parts {
				for _, it := range items {
					q := make(map[string]string, len(p)+1)
					for k, v := range p {
						q[k] = v
					}
					q[t.Dimension] = it
					next = append(next, q)
				}
			}
			parts = next
		}
		withParam = withParam || r.Parameter != ""
		for _, p := range parts {
			byElem[r.Element] = append(byElem[r.Element], expansion{
				cells: p, factor: r.Factor, region: r.Region, parameter: r.Parameter,
			})
		}
	}

	return byElem, targets, withParam, nil
}
