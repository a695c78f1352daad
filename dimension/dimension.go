// SPDX-License-Identifier: MIT

// Package dimension defines the named, lettered axes that every flow,
// stock and parameter of a material-flow system is indexed by.
//
// A Dimension is immutable once built: its item order is the order of
// the backing CSV file and it offers O(1) label lookup. Integer
// dimensions (time, age cohort) normalise labels so that "2023" and
// "2023.0" address the same item.
//
// Errors:
//
//	ErrEmptyName        - dimension name is empty.
//	ErrBadLetter        - letter is not exactly one character.
//	ErrDuplicateItem    - an item occurs twice.
//	ErrBadInt           - an item of an Int dimension is not an integer.
//	ErrUnknownItem      - label lookup failed.
//	ErrUnknownDimension - letter or name lookup failed in a Set.
//	ErrDuplicateLetter  - two dimensions of a Set share a letter.
//	ErrNoItems          - item file or list is empty.
package dimension

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for dimension operations.
var (
	ErrEmptyName        = errors.New("dimension: name is empty")
	ErrBadLetter        = errors.New("dimension: letter must be a single character")
	ErrDuplicateItem    = errors.New("dimension: duplicate item")
	ErrBadInt           = errors.New("dimension: item is not an integer")
	ErrUnknownItem      = errors.New("dimension: unknown item")
	ErrUnknownDimension = errors.New("dimension: unknown dimension")
	ErrDuplicateLetter  = errors.New("dimension: duplicate letter")
	ErrNoItems          = errors.New("dimension: no items")
)

// Dtype is the label type of a dimension.
type Dtype int

const (
	// String labels are kept verbatim.
	String Dtype = iota
	// Int labels are integers (years, cohorts).
	Int
)

// String implements fmt.Stringer.
func (d Dtype) String() string {
	if d == Int {
		return "int"
	}

	return "str"
}

// ParseDtype accepts "int"/"integer" and "str"/"string" (case-insensitive).
func ParseDtype(s string) (Dtype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return Int, nil
	case "", "str", "string":
		return String, nil
	}

	return String, fmt.Errorf("dimension: unknown dtype %q", s)
}

// Definition declares a dimension before its items are known.
type Definition struct {
	Name   string
	Letter string
	Dtype  Dtype
}

// Dimension is a named, lettered, ordered list of unique labels.
type Dimension struct {
	Name   string
	Letter string
	Dtype  Dtype

	items []string
	index map[string]int
}

// New validates and builds a Dimension.
func New(name, letter string, dtype Dtype, items []string) (*Dimension, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if len([]rune(letter)) != 1 {
		return nil, fmt.Errorf("%w: %q (%s)", ErrBadLetter, letter, name)
	}
	d := &Dimension{
		Name:   name,
		Letter: letter,
		Dtype:  dtype,
		items:  make([]string, 0, len(items)),
		index:  make(map[string]int, len(items)),
	}
	for _, raw := range items {
		it := strings.TrimSpace(raw)
		if dtype == Int {
			n, ok := parseInt(it)
			if !ok {
				return nil, fmt.Errorf("%w: %q in %s", ErrBadInt, raw, name)
			}
			it = strconv.Itoa(n)
		}
		if _, dup := d.index[it]; dup {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateItem, it, name)
		}
		d.index[it] = len(d.items)
		d.items = append(d.items, it)
	}

	return d, nil
}

// FromDefinition builds a Dimension from def and its items.
func FromDefinition(def Definition, items []string) (*Dimension, error) {
	return New(def.Name, def.Letter, def.Dtype, items)
}

// Len returns the number of items.
func (d *Dimension) Len() int { return len(d.items) }

// Items returns a copy of the labels in order.
func (d *Dimension) Items() []string { return append([]string(nil), d.items...) }

// Item returns the i-th label.
func (d *Dimension) Item(i int) string { return d.items[i] }

// Normalize returns label in the canonical spelling used by Index.
func (d *Dimension) Normalize(label string) string {
	label = strings.TrimSpace(label)
	if d.Dtype == Int {
		if n, ok := parseInt(label); ok {
			return strconv.Itoa(n)
		}
	}

	return label
}

// Index returns the position of label.
func (d *Dimension) Index(label string) (int, bool) {
	i, ok := d.index[d.Normalize(label)]

	return i, ok
}

// MustIndex returns the position of label or an ErrUnknownItem error.
func (d *Dimension) MustIndex(label string) (int, error) {
	i, ok := d.Index(label)
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s", ErrUnknownItem, label, d.Name)
	}

	return i, nil
}

// Ints returns the items of an Int dimension as integers.
func (d *Dimension) Ints() ([]int, error) {
	if d.Dtype != Int {
		return nil, fmt.Errorf("dimension: %s is not an int dimension", d.Name)
	}
	out := make([]int, len(d.items))
	for i, it := range d.items {
		out[i], _ = strconv.Atoi(it)
	}

	return out, nil
}

// SameItems reports whether d and o carry identical labels in identical order.
func (d *Dimension) SameItems(o *Dimension) bool {
	if d.Len() != o.Len() {
		return false
	}
	for i := range d.items {
		if d.items[i] != o.items[i] {
			return false
		}
	}

	return true
}

func parseInt(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}

	return int(f), true
}
