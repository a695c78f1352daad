// SPDX-License-Identifier: MIT

package reconcile

import (
	"fmt"

	"github.com/katalvlaran/eumfa/table"
)

// TotalAliases are accepted value column names for TotalFuture inputs.
var TotalAliases = []string{"value", "Value", "VALUE", "val", "residual", "Residual"}

// Named is one input of TotalFuture.
type Named struct {
	Name  string
	Table *table.Table
}

// TotalOptions controls TotalFuture.
type TotalOptions struct {
	Keys []string
	// TimeColumn defaults to "Time".
	TimeColumn string
	// BaseYear filters rows to t > BaseYear (t >= with IncludeBaseYear).
	// Zero disables the filter.
	BaseYear        int
	IncludeBaseYear bool
	// Fills maps input name -> key column -> cell for missing key columns.
	Fills map[string]Fills
	// DefaultFill is used for missing key columns without a per-input fill.
	DefaultFill string
}

// TotalFuture concatenates the inputs on Keys + time and sums duplicates.
// Columns outside Keys are discarded.
func TotalFuture(inputs []Named, opts TotalOptions) (*table.Table, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	tc := opts.TimeColumn
	if tc == "" {
		tc = DefaultTime
	}
	def := opts.DefaultFill
	if def == "" {
		def = DefaultFill
	}
	cols := append(append([]string(nil), opts.Keys...), tc)
	parts := make([]*table.Table, 0, len(inputs))
	for _, in := range inputs {
		t, err := in.Table.EnsureValue(TotalAliases...)
		if err != nil {
			return nil, fmt.Errorf("total %q: %w", in.Name, err)
		}
		if !t.HasColumn(tc) {
			return nil, fmt.Errorf("%w: total %q lacks time column %q", ErrMissingColumn, in.Name, tc)
		}
		for _, k := range opts.Keys {
			fill, ok := opts.Fills[in.Name][k]
			if !ok {
				fill = def
			}
			t, _ = t.EnsureColumn(k, fill)
		}
		if opts.BaseYear != 0 {
			t = t.Filter(func(r table.Row) bool {
				y, ok := table.ParseInt(r.Get(tc))
				if !ok {
					return false
				}
				if opts.IncludeBaseYear {
					return y >= opts.BaseYear
				}
				return y > opts.BaseYear
			})
		}
		if t, err = t.Select(cols...); err != nil {
			return nil, fmt.Errorf("total %q: %w", in.Name, err)
		}
		parts = append(parts, t)
	}
	all, err := table.Concat(parts...)
	if err != nil {
		return nil, err
	}

	return all.GroupSum(cols...)
}
