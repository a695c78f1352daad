// SPDX-License-Identifier: MIT

package remap

import (
	"errors"

	"github.com/katalvlaran/eumfa/dimension"
)

// Catalog resolves target dimension names to their item lists, reading
// each dimension file at most once.
type Catalog struct {
	files map[string]string
	cache map[string][]string
}

// NewCatalog returns a catalog over files keyed by target dimension name.
func NewCatalog(files map[string]string) *Catalog {
	c := &Catalog{files: make(map[string]string, len(files)), cache: make(map[string][]string)}
	for k, v := range files {
		c.files[k] = v
	}

	return c
}

// Has reports whether dim has a catalog file.
func (c *Catalog) Has(dim string) bool {
	if c == nil {
		return false
	}
	_, ok := c.files[dim]

	return ok
}

// Items returns the items of dim. A file with no items yields an empty
// list and no error; unknown dims yield nil.
func (c *Catalog) Items(dim string) ([]string, error) {
	if !c.Has(dim) {
		return nil, nil
	}
	if items, ok := c.cache[dim]; ok {
		return items, nil
	}
	items, err := dimension.LoadItems(c.files[dim], dimension.Definition{Name: dim, Dtype: dimension.String})
	if errors.Is(err, dimension.ErrNoItems) {
		items, err = []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	c.cache[dim] = items

	return items, nil
}
