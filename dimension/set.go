// SPDX-License-Identifier: MIT

package dimension

import (
	"fmt"
	"strings"
)

// Set is an ordered collection of dimensions addressed by letter.
// The order defines the axis order of arrays built over the set.
type Set struct {
	dims     []*Dimension
	byLetter map[string]int
}

// NewSet builds a Set. An empty Set is valid and describes a scalar.
func NewSet(dims ...*Dimension) (*Set, error) {
	s := &Set{byLetter: make(map[string]int, len(dims))}
	for _, d := range dims {
		if _, dup := s.byLetter[d.Letter]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLetter, d.Letter)
		}
		s.byLetter[d.Letter] = len(s.dims)
		s.dims = append(s.dims, d)
	}

	return s, nil
}

// Len returns the number of dimensions.
func (s *Set) Len() int { return len(s.dims) }

// Dims returns the dimensions in order.
func (s *Set) Dims() []*Dimension { return append([]*Dimension(nil), s.dims...) }

// At returns the i-th dimension.
func (s *Set) At(i int) *Dimension { return s.dims[i] }

// Letters returns the dimension letters in order.
func (s *Set) Letters() []string {
	out := make([]string, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.Letter
	}

	return out
}

// Names returns the dimension names in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.Name
	}

	return out
}

// Shape returns the item counts in order.
func (s *Set) Shape() []int {
	out := make([]int, len(s.dims))
	for i, d := range s.dims {
		out[i] = d.Len()
	}

	return out
}

// Size returns the number of cells of an array over s (1 for a scalar).
func (s *Set) Size() int {
	n := 1
	for _, d := range s.dims {
		n *= d.Len()
	}

	return n
}

// Has reports whether letter is part of the set.
func (s *Set) Has(letter string) bool {
	_, ok := s.byLetter[letter]

	return ok
}

// Pos returns the axis position of letter, or -1.
func (s *Set) Pos(letter string) int {
	if i, ok := s.byLetter[letter]; ok {
		return i
	}

	return -1
}

// Get looks a dimension up by letter first, then by name.
func (s *Set) Get(key string) (*Dimension, error) {
	if i, ok := s.byLetter[key]; ok {
		return s.dims[i], nil
	}
	for _, d := range s.dims {
		if d.Name == key {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, key)
}

// Subset returns the dimensions for letters, in the given order.
func (s *Set) Subset(letters ...string) (*Set, error) {
	dims := make([]*Dimension, 0, len(letters))
	for _, l := range letters {
		i, ok := s.byLetter[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownDimension, l, strings.Join(s.Letters(), ""))
		}
		dims = append(dims, s.dims[i])
	}

	return NewSet(dims...)
}

// Without returns s minus the given letters, order preserved.
func (s *Set) Without(letters ...string) *Set {
	drop := make(map[string]bool, len(letters))
	for _, l := range letters {
		drop[l] = true
	}
	out := &Set{byLetter: make(map[string]int)}
	for _, d := range s.dims {
		if !drop[d.Letter] {
			out.byLetter[d.Letter] = len(out.dims)
			out.dims = append(out.dims, d)
		}
	}

	return out
}

// Union returns s followed by the dimensions of o not already in s.
// A letter bound to different items in s and o is an error.
func (s *Set) Union(o *Set) (*Set, error) {
	dims := s.Dims()
	for _, d := range o.dims {
		if i, ok := s.byLetter[d.Letter]; ok {
			if !s.dims[i].SameItems(d) {
				return nil, fmt.Errorf("dimension: letter %q bound to %s and %s", d.Letter, s.dims[i].Name, d.Name)
			}
			continue
		}
		dims = append(dims, d)
	}

	return NewSet(dims...)
}

// Intersect returns the dimensions of s also present in o, in s order.
func (s *Set) Intersect(o *Set) *Set {
	out := &Set{byLetter: make(map[string]int)}
	for _, d := range s.dims {
		if o.Has(d.Letter) {
			out.byLetter[d.Letter] = len(out.dims)
			out.dims = append(out.dims, d)
		}
	}

	return out
}

// Equal reports whether s and o hold the same letters in the same order.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.dims {
		if s.dims[i].Letter != o.dims[i].Letter {
			return false
		}
	}

	return true
}

// String renders the letters, e.g. "(t,r,s)".
func (s *Set) String() string { return "(" + strings.Join(s.Letters(), ",") + ")" }
