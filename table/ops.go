// SPDX-License-Identifier: MIT

package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// keySep joins key tuples into map keys; it never appears in CSV cells.
const keySep = "\x1f"

// EnsureValue returns a table whose value column is named DefaultValue.
//
// If t already carries a value column it is renamed. Otherwise the first
// key column found in aliases is converted to floats (unparsable cells
// read as 0) and promoted. ErrNoValueColumn is returned when neither holds.
func (t *Table) EnsureValue(aliases ...string) (*Table, error) {
	if t.value != "" {
		out := t.Clone()
		out.value = DefaultValue
		if _, clash := out.index[DefaultValue]; clash {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, DefaultValue)
		}

		return out, nil
	}
	for _, a := range aliases {
		j, ok := t.index[a]
		if !ok {
			continue
		}
		cols := append(append([]string(nil), t.cols[:j]...), t.cols[j+1:]...)
		out, err := New(cols, DefaultValue)
		if err != nil {
			return nil, err
		}
		for i, row := range t.keys {
			keys := append(append([]string(nil), row[:j]...), row[j+1:]...)
			out.keys = append(out.keys, keys)
			out.vals = append(out.vals, ParseValue(t.keys[i][j]))
		}

		return out, nil
	}

	return nil, fmt.Errorf("%w: tried %v among %v", ErrNoValueColumn, aliases, t.cols)
}

// Rename maps column names (key columns and value column alike).
func (t *Table) Rename(names map[string]string) (*Table, error) {
	cols := make([]string, len(t.cols))
	for i, c := range t.cols {
		if n, ok := names[c]; ok {
			cols[i] = n
		} else {
			cols[i] = c
		}
	}
	value := t.value
	if n, ok := names[value]; ok && value != "" {
		value = n
	}
	out, err := New(cols, value)
	if err != nil {
		return nil, err
	}
	src := t.Clone()
	out.keys, out.vals = src.keys, src.vals

	return out, nil
}

// EnsureColumn appends key column name filled with fill when absent.
// It reports whether the column was added.
func (t *Table) EnsureColumn(name, fill string) (*Table, bool) {
	if t.HasColumn(name) {
		return t.Clone(), false
	}
	out, _ := New(append(t.Columns(), name), t.value)
	for i, row := range t.keys {
		out.keys = append(out.keys, append(append([]string(nil), row...), fill))
		out.vals = append(out.vals, t.vals[i])
	}

	return out, true
}

// SetColumn overwrites every cell of key column name with cell,
// adding the column when absent.
func (t *Table) SetColumn(name, cell string) *Table {
	out, _ := t.EnsureColumn(name, cell)
	j := out.index[name]
	for _, row := range out.keys {
		row[j] = cell
	}

	return out
}

// Drop removes key columns; unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	keep := make([]string, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)

	return out
}

// Select projects onto the given key columns, in that order. Rows are
// kept one-to-one; use GroupSum to aggregate.
func (t *Table) Select(cols ...string) (*Table, error) {
	pos := make([]int, len(cols))
	for k, c := range cols {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		pos[k] = j
	}
	out, err := New(cols, t.value)
	if err != nil {
		return nil, err
	}
	for i, row := range t.keys {
		keys := make([]string, len(pos))
		for k, j := range pos {
			keys[k] = row[j]
		}
		out.keys = append(out.keys, keys)
		out.vals = append(out.vals, t.vals[i])
	}

	return out, nil
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(r Row) bool) *Table {
	out, _ := New(t.cols, t.value)
	for i := range t.keys {
		if keep(Row{t: t, i: i}) {
			out.keys = append(out.keys, append([]string(nil), t.keys[i]...))
			out.vals = append(out.vals, t.vals[i])
		}
	}

	return out
}

// Map returns a copy whose values are replaced by fn(row).
func (t *Table) Map(fn func(r Row) float64) *Table {
	out := t.Clone()
	for i := range out.vals {
		out.vals[i] = fn(Row{t: t, i: i})
	}

	return out
}

// GroupSum sums values over rows sharing the given key columns. Output rows
// are sorted by key tuple, numerically where both cells are numbers.
func (t *Table) GroupSum(keys ...string) (*Table, error) {
	sel, err := t.Select(keys...)
	if err != nil {
		return nil, err
	}
	if sel.value == "" {
		sel.value = DefaultValue
	}
	out, err := New(keys, sel.value)
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int)
	for i, row := range sel.keys {
		k := strings.Join(row, keySep)
		if p, ok := pos[k]; ok {
			out.vals[p] += sel.vals[i]
			continue
		}
		pos[k] = len(out.keys)
		out.keys = append(out.keys, row)
		out.vals = append(out.vals, sel.vals[i])
	}
	out.sortRows()

	return out, nil
}

// sortRows orders rows by key tuple with numeric-aware comparison.
func (t *Table) sortRows() {
	idx := make([]int, len(t.keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return lessTuple(t.keys[idx[a]], t.keys[idx[b]])
	})
	keys := make([][]string, len(idx))
	vals := make([]float64, len(idx))
	for k, i := range idx {
		keys[k], vals[k] = t.keys[i], t.vals[i]
	}
	t.keys, t.vals = keys, vals
}

func lessTuple(a, b []string) bool {
	for j := range a {
		if a[j] == b[j] {
			continue
		}
		fa, ea := strconv.ParseFloat(a[j], 64)
		fb, eb := strconv.ParseFloat(b[j], 64)
		if ea == nil && eb == nil && fa != fb {
			return fa < fb
		}

		return a[j] < b[j]
	}

	return false
}

// Concat stacks tables with identical column sets (order may differ; the
// first table's order wins) and identical value columns.
func Concat(ts ...*Table) (*Table, error) {
	if len(ts) == 0 {
		return New(nil, DefaultValue)
	}
	out := ts[0].Clone()
	for _, t := range ts[1:] {
		if t.value != out.value || len(t.cols) != len(out.cols) {
			return nil, fmt.Errorf("%w: %v vs %v", ErrColumnMismatch, out.cols, t.cols)
		}
		aligned, err := t.Select(out.cols...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrColumnMismatch, err)
		}
		out.keys = append(out.keys, aligned.keys...)
		out.vals = append(out.vals, aligned.vals...)
	}

	return out, nil
}

// Distinct returns the unique tuples over cols in first-seen order.
func (t *Table) Distinct(cols ...string) ([][]string, error) {
	sel, err := t.Select(cols...)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out [][]string
	for _, row := range sel.keys {
		k := strings.Join(row, keySep)
		if !seen[k] {
			seen[k] = true
			out = append(out, row)
		}
	}

	return out, nil
}

// SortBy returns a copy sorted by the given key columns.
func (t *Table) SortBy(cols ...string) (*Table, error) {
	pos := make([]int, len(cols))
	for k, c := range cols {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		pos[k] = j
	}
	out := t.Clone()
	idx := make([]int, out.Len())
	for i := range idx {
		idx[i] = i
	}
	proj := func(i int) []string {
		r := make([]string, len(pos))
		for k, j := range pos {
			r[k] = out.keys[i][j]
		}
		return r
	}
	sort.SliceStable(idx, func(a, b int) bool { return lessTuple(proj(idx[a]), proj(idx[b])) })
	keys := make([][]string, len(idx))
	vals := make([]float64, len(idx))
	for k, i := range idx {
		keys[k], vals[k] = out.keys[i], out.vals[i]
	}
	out.keys, out.vals = keys, vals

	return out, nil
}
