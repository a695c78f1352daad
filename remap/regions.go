// SPDX-License-Identifier: MIT

package remap

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/eumfa/table"
)

// MapRegions renames column srcDim to tgtDim, replacing each source region
// by its target regions (first target pair of every rule on srcDim) with
// value scaled by factor. Rows whose region has no rule are dropped with a
// warning. The result is group-summed.
func MapRegions(src *table.Table, srcDim, tgtDim string, rules *Rules, log *slog.Logger) (*table.Table, error) {
	if log == nil {
		log = slog.Default()
	}
	if src.Value() == "" {
		return nil, fmt.Errorf("map regions: %w", table.ErrNoValueColumn)
	}
	if !src.HasColumn(srcDim) {
		return nil, fmt.Errorf("%w: source lacks %q", ErrMissingColumn, srcDim)
	}
	type target struct {
		region string
		factor float64
	}
	byRegion := make(map[string][]target)
	for _, r := range rules.For(srcDim) {
		if len(r.Targets) == 0 {
			continue
		}
		byRegion[r.Element] = append(byRegion[r.Element], target{r.Targets[0].Element, r.Factor})
	}

	cols := src.Columns()
	pos := -1
	for j, c := range cols {
		if c == srcDim {
			pos = j
		}
	}
	cols[pos] = tgtDim
	out, err := table.New(cols, src.Value())
	if err != nil {
		return nil, fmt.Errorf("map regions %q -> %q: %w", srcDim, tgtDim, err)
	}
	dropped := 0
	for i := 0; i < src.Len(); i++ {
		keys := src.Keys(i)
		ts, ok := byRegion[keys[pos]]
		if !ok {
			dropped++
			continue
		}
		for _, t := range ts {
			keys[pos] = t.region
			if err = out.Append(keys, src.Val(i)*t.factor); err != nil {
				return nil, err
			}
		}
	}
	if dropped > 0 {
		log.Warn("map regions: rows without region rule dropped", "dimension", srcDim, "rows", dropped)
	}

	return out.GroupSum(out.Columns()...)
}
