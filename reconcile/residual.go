// SPDX-License-Identifier: MIT

package reconcile

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/eumfa/table"
)

// ResidualAliases are accepted value column names for Residual inputs.
var ResidualAliases = []string{"value", "Value", "VALUE", "val", "growth", "Growth", "factor", "Factor"}

// Fills names key columns to add, with their cell, when a table lacks them.
type Fills map[string]string

// ResidualOptions controls Residual.
type ResidualOptions struct {
	BaseYear int
	// TimeColumn defaults to "Time".
	TimeColumn string
	// Keys pins the alignment keys; entries absent from either the start or
	// the bottom-up table are dropped with a warning. nil uses the
	// intersection of their non-time key columns.
	Keys []string
	// Per-input fills applied before key alignment.
	StartFills, BottomUpFills, GrowthFills Fills
	Logger                                 *slog.Logger
}

func (o ResidualOptions) timeColumn() string {
	if o.TimeColumn == "" {
		return DefaultTime
	}

	return o.TimeColumn
}

// Residual projects the non-negative residual demand
//
//	base(k)   = max(start(k, base_year) - bottom_up(k, base_year), 0)
//	out(k, t) = base(k) * growth(k, t),  out(k, base_year) = base(k)
//
// over every (key, year) row of the growth table. A growth table without
// a base-year row gets one with factor 1 per distinct key combination, and
// growth is broadcast across alignment keys it does not vary over.
// The output carries the alignment keys, the time column and "value".
func Residual(start, bottomUp, growth *table.Table, opts ResidualOptions) (*table.Table, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	tc := opts.timeColumn()
	var err error
	if start, err = prepare(start, "start value", ResidualAliases, opts.StartFills, tc); err != nil {
		return nil, err
	}
	if bottomUp, err = prepare(bottomUp, "bottom-up", ResidualAliases, opts.BottomUpFills, tc); err != nil {
		return nil, err
	}
	if growth, err = prepare(growth, "growth rate", ResidualAliases, opts.GrowthFills, tc); err != nil {
		return nil, err
	}

	keys := alignKeys(start, bottomUp, opts.Keys, tc, log)
	base, err := residualBase(start, bottomUp, keys, tc, opts.BaseYear)
	if err != nil {
		return nil, err
	}
	if growth, err = ensureBaseYear(growth, tc, opts.BaseYear); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if !growth.HasColumn(k) {
			growth = crossJoin(growth, k, base.values(k))
		}
	}

	out, err := table.New(append(append([]string(nil), keys...), tc), table.DefaultValue)
	if err != nil {
		return nil, err
	}
	cells := make([]string, len(keys)+1)
	for i := 0; i < growth.Len(); i++ {
		for j, k := range keys {
			cells[j] = growth.Key(i, k)
		}
		cells[len(keys)] = growth.Key(i, tc)
		rb := base.byKey[strings.Join(cells[:len(keys)], keySep)]
		v := rb * growth.Val(i)
		if y, ok := growth.Int(i, tc); ok && y == opts.BaseYear {
			v = rb
		}
		if err = out.Append(cells, v); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// prepare resolves the value column, applies fills and checks time.
func prepare(t *table.Table, what string, aliases []string, fills Fills, tc string) (*table.Table, error) {
	out, err := t.EnsureValue(aliases...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	names := make([]string, 0, len(fills))
	for k := range fills {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		out, _ = out.EnsureColumn(k, fills[k])
	}
	if !out.HasColumn(tc) {
		return nil, fmt.Errorf("%w: %s lacks time column %q", ErrMissingColumn, what, tc)
	}

	return out, nil
}

func alignKeys(start, bottomUp *table.Table, pinned []string, tc string, log *slog.Logger) []string {
	if pinned == nil {
		var keys []string
		for _, c := range start.Columns() {
			if c != tc && bottomUp.HasColumn(c) {
				keys = append(keys, c)
			}
		}
		sort.Strings(keys)
		if len(keys) == 0 {
			log.Warn("residual: no common keys, residual computed on totals only")
		}
		return keys
	}
	var keys, dropped []string
	for _, k := range pinned {
		if start.HasColumn(k) && bottomUp.HasColumn(k) {
			keys = append(keys, k)
		} else {
			dropped = append(dropped, k)
		}
	}
	if len(dropped) > 0 {
		sort.Strings(dropped)
		log.Warn("residual: dropping keys not shared by start and bottom-up", "keys", dropped)
	}

	return keys
}

// baseTable is residual_base keyed by the joined alignment tuple.
type baseTable struct {
	keys  []string
	rows  [][]string
	byKey map[string]float64
}

// values returns the distinct cells of key k in row order.
func (b *baseTable) values(k string) []string {
	j := -1
	for n, c := range b.keys {
		if c == k {
			j = n
		}
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range b.rows {
		if !seen[r[j]] {
			seen[r[j]] = true
			out = append(out, r[j])
		}
	}

	return out
}

func residualBase(start, bottomUp *table.Table, keys []string, tc string, year int) (*baseTable, error) {
	atBase := func(t *table.Table) (*table.Table, error) {
		sel := t.Filter(func(r table.Row) bool {
			y, ok := table.ParseInt(r.Get(tc))
			return ok && y == year
		})
		return sel.GroupSum(keys...)
	}
	sv, err := atBase(start)
	if err != nil {
		return nil, fmt.Errorf("start value: %w", err)
	}
	bu, err := atBase(bottomUp)
	if err != nil {
		return nil, fmt.Errorf("bottom-up: %w", err)
	}
	b := &baseTable{keys: keys, byKey: make(map[string]float64)}
	startSum := make(map[string]float64)
	buSum := make(map[string]float64)
	collect := func(t *table.Table, sums map[string]float64) {
		for i := 0; i < t.Len(); i++ {
			row := t.Keys(i)
			k := strings.Join(row, keySep)
			if _, seen := startSum[k]; !seen {
				if _, seen = buSum[k]; !seen {
					b.rows = append(b.rows, row)
				}
			}
			sums[k] += t.Val(i)
		}
	}
	collect(sv, startSum)
	collect(bu, buSum)
	for _, r := range b.rows {
		k := strings.Join(r, keySep)
		b.byKey[k] = math.Max(startSum[k]-buSum[k], 0)
	}

	return b, nil
}

// ensureBaseYear adds a factor-1 base-year row per distinct key tuple
// when the growth table has no base-year row at all.
func ensureBaseYear(g *table.Table, tc string, year int) (*table.Table, error) {
	for i := 0; i < g.Len(); i++ {
		if y, ok := g.Int(i, tc); ok && y == year {
			return g, nil
		}
	}
	var others []string
	for _, c := range g.Columns() {
		if c != tc {
			others = append(others, c)
		}
	}
	combos, err := g.Distinct(others...)
	if err != nil {
		return nil, err
	}
	out := g.Clone()
	for _, combo := range combos {
		cells := make(map[string]string, len(others)+1)
		for j, c := range others {
			cells[c] = combo[j]
		}
		cells[tc] = strconv.Itoa(year)
		out.AppendMap(cells, 1)
	}

	return out, nil
}

// crossJoin repeats every row of g once per value, in new column k.
func crossJoin(g *table.Table, k string, values []string) *table.Table {
	cols := append(g.Columns(), k)
	out, _ := table.New(cols, g.Value())
	for i := 0; i < g.Len(); i++ {
		row := append(g.Keys(i), "")
		for _, v := range values {
			row[len(row)-1] = v
			_ = out.Append(row, g.Val(i))
		}
	}

	return out
}
