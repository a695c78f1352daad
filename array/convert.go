// SPDX-License-Identifier: MIT

package array

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/eumfa/dimension"
	"github.com/katalvlaran/eumfa/table"
)

// ToTable renders every cell as one row, with full dimension names as key
// columns and a "value" column.
func (a *Array) ToTable() *table.Table {
	t, _ := table.New(a.dims.Names(), table.DefaultValue)
	dims := a.dims.Dims()
	shape := a.dims.Shape()
	idx := make([]int, len(shape))
	labels := make([]string, len(shape))
	v := a.data.Elements
	for flat := range v {
		rem := flat
		for i := range shape {
			idx[i] = rem / a.strides[i]
			rem %= a.strides[i]
			labels[i] = dims[i].Item(idx[i])
		}
		_ = t.Append(labels, v[flat])
	}

	return t
}

// FillOptions controls FromTable.
type FillOptions struct {
	// AllowMissing zero-fills coordinates the table does not cover.
	AllowMissing bool
	// AllowExtra skips rows whose labels are not items of the dimensions.
	AllowExtra bool
}

// FillReport counts the coordinates FromTable zero-filled and skipped.
type FillReport struct {
	Missing int
	Extra   int
}

// Wildcard is the key cell that addresses every item of a dimension.
const Wildcard = "all"

// FromTable builds an array over dims from a valued table whose key
// columns name every dimension (by full name or letter). Rows addressing
// the same coordinate are summed. A Wildcard cell that is not itself an
// item writes the row's full value to every item of that dimension.
func FromTable(t *table.Table, dims *dimension.Set, opts FillOptions) (*Array, FillReport, error) {
	var rep FillReport
	if t.Value() == "" {
		return nil, rep, table.ErrNoValueColumn
	}
	cols := make([]string, dims.Len())
	for i, d := range dims.Dims() {
		switch {
		case t.HasColumn(d.Name):
			cols[i] = d.Name
		case t.HasColumn(d.Letter):
			cols[i] = d.Letter
		default:
			return nil, rep, fmt.Errorf("%w: %q", ErrMissingColumn, d.Name)
		}
	}
	a := New(dims)
	seen := make([]bool, a.Size())
	axes := make([][]int, len(cols))
	for r := 0; r < t.Len(); r++ {
		err := a.rowIndices(t, r, cols, axes)
		if err != nil {
			if opts.AllowExtra {
				rep.Extra++
				continue
			}
			return nil, rep, fmt.Errorf("%w: row %d: %v", ErrExtraValues, r+1, err)
		}
		v := t.Val(r)
		a.cross(axes, func(off int) {
			a.data.Elements[off] += v
			seen[off] = true
		})
	}
	for _, ok := range seen {
		if !ok {
			rep.Missing++
		}
	}
	if rep.Missing > 0 && !opts.AllowMissing {
		return nil, rep, fmt.Errorf("%w: %d of %d coordinates", ErrMissingValues, rep.Missing, a.Size())
	}

	return a, rep, nil
}

// rowIndices resolves the key cells of row r into one index list per axis.
func (a *Array) rowIndices(t *table.Table, r int, cols []string, axes [][]int) error {
	for i, c := range cols {
		d := a.dims.At(i)
		label := t.Key(r, c)
		if j, ok := d.Index(label); ok {
			axes[i] = append(axes[i][:0], j)
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(label), Wildcard) {
			_, err := d.MustIndex(label)
			return err
		}
		axes[i] = axes[i][:0]
		for j := 0; j < d.Len(); j++ {
			axes[i] = append(axes[i], j)
		}
	}

	return nil
}

// cross calls fn with the flat offset of every combination of axes.
func (a *Array) cross(axes [][]int, fn func(off int)) {
	var rec func(ax, off int)
	rec = func(ax, off int) {
		if ax == len(axes) {
			fn(off)
			return
		}
		for _, j := range axes[ax] {
			rec(ax+1, off+j*a.strides[ax])
		}
	}
	rec(0, 0)
}
