// SPDX-License-Identifier: MIT

package dimension

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/eumfa/table"
)

// headerWords are first cells treated as a header line in String files.
var headerWords = map[string]bool{
	"item": true, "items": true, "name": true, "value": true,
	"dimension": true, "label": true, "element": true,
}

// LoadItems reads the first column of a dimension file.
//
// A header line is skipped when the first cell cannot be an item: for Int
// dimensions any non-integer cell, for String dimensions a cell equal to
// def.Name, def.Letter or a generic header word.
func LoadItems(path string, def Definition) ([]string, error) {
	recs, err := table.ReadRecords(path, 0)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 && isHeader(recs[0][0], def) {
		recs = recs[1:]
	}
	items := make([]string, 0, len(recs))
	for _, r := range recs {
		if r[0] != "" {
			items = append(items, r[0])
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoItems, path, def.Name)
	}

	return items, nil
}

// Load reads a dimension file and builds the Dimension.
func Load(path string, def Definition) (*Dimension, error) {
	items, err := LoadItems(path, def)
	if err != nil {
		return nil, err
	}
	d, err := FromDefinition(def, items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return d, nil
}

func isHeader(cell string, def Definition) bool {
	if def.Dtype == Int {
		_, ok := parseInt(cell)
		return !ok
	}
	c := strings.ToLower(cell)

	return strings.EqualFold(cell, def.Name) || cell == def.Letter || headerWords[c]
}
