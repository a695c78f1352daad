// SPDX-License-Identifier: MIT

package reconcile

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/katalvlaran/eumfa/table"
)

// CombineAliases are accepted value column names for Combine inputs.
var CombineAliases = []string{"value", "Value", "VALUE", "val"}

// CombineOptions controls Combine.
type CombineOptions struct {
	// TimeColumn defaults to "Time".
	TimeColumn string
	// ValueColumn names the output value column; defaults to "value".
	ValueColumn string
	// Fill labels missing categorical cells; defaults to "Unknown".
	Fill   string
	Logger *slog.Logger
}

// Combine unions the columns of hist and fut, fills cells of columns a
// table lacks ("0" for columns numeric in the other table, Fill otherwise),
// concatenates and group-sums over every key column. The two series must
// not share a year: ErrOverlappingYears lists the shared years.
func Combine(hist, fut *table.Table, opts CombineOptions) (*table.Table, error) {
	tc := opts.TimeColumn
	if tc == "" {
		tc = DefaultTime
	}
	fill := opts.Fill
	if fill == "" {
		fill = DefaultFill
	}
	h, err := hist.EnsureValue(CombineAliases...)
	if err != nil {
		return nil, fmt.Errorf("historic: %w", err)
	}
	f, err := fut.EnsureValue(CombineAliases...)
	if err != nil {
		return nil, fmt.Errorf("future: %w", err)
	}
	if !h.HasColumn(tc) || !f.HasColumn(tc) {
		return nil, fmt.Errorf("%w: time column %q", ErrMissingColumn, tc)
	}
	if shared := sharedYears(h, f, tc); len(shared) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrOverlappingYears, shared)
	}

	union := make(map[string]bool)
	for _, c := range append(h.Columns(), f.Columns()...) {
		union[c] = true
	}
	cols := make([]string, 0, len(union))
	for c := range union {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	widen := func(t, other *table.Table) (*table.Table, error) {
		for _, c := range cols {
			cell := fill
			if other.IsNumeric(c) {
				cell = "0"
			}
			t, _ = t.EnsureColumn(c, cell)
		}
		return t.Select(cols...)
	}
	if h, err = widen(h, f); err != nil {
		return nil, err
	}
	if f, err = widen(f, h); err != nil {
		return nil, err
	}
	all, err := table.Concat(h, f)
	if err != nil {
		return nil, err
	}
	out, err := all.GroupSum(cols...)
	if err != nil {
		return nil, err
	}
	if opts.ValueColumn != "" && opts.ValueColumn != table.DefaultValue {
		return out.Rename(map[string]string{table.DefaultValue: opts.ValueColumn})
	}

	return out, nil
}

// CombineFiles reads two CSV files, combines them and writes outPath.
func CombineFiles(histPath, futPath, outPath string, opts CombineOptions) (*table.Table, error) {
	hist, err := table.Read(histPath, table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	fut, err := table.Read(futPath, table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	out, err := Combine(hist, fut, opts)
	if err != nil {
		return nil, fmt.Errorf("combine %s + %s: %w", histPath, futPath, err)
	}
	if err = out.Write(outPath, ','); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("combined series written", "path", outPath, "rows", out.Len())

	return out, nil
}

func sharedYears(h, f *table.Table, tc string) []int {
	years := func(t *table.Table) map[int]bool {
		out := make(map[int]bool)
		for i := 0; i < t.Len(); i++ {
			if y, ok := t.Int(i, tc); ok {
				out[y] = true
			}
		}
		return out
	}
	hy, fy := years(h), years(f)
	var shared []int
	for y := range hy {
		if fy[y] {
			shared = append(shared, y)
		}
	}
	sort.Ints(shared)

	return shared
}
