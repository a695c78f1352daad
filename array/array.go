// SPDX-License-Identifier: MIT

// Package array provides the labeled N-dimensional array every flow,
// stock and parameter is stored in.
//
// An Array is a dense float64 tensor over an ordered dimension.Set,
// stored row-major in a github.com/ctessum/sparse DenseArray. Binary
// operations align operands by dimension letter and broadcast over the
// union of their dimensions; reductions name the letters to keep or drop.
//
// Error model:
//   - Arithmetic returns *Array so equations chain naturally. A failure
//     (conflicting letters, unknown letter) is recorded in the result
//     and propagates through every later operation; check it with Err
//     or let Assign report it.
//   - Accessors and constructors return errors directly.
//
// Complexity quicksheet:
//   - New: O(N); Get/Set: O(rank); binary ops, Assign, SumTo: O(N_out) or O(N_in).
package array

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/eumfa/dimension"
)

// Sentinel errors for array operations.
var (
	// ErrRank indicates a label or index list of the wrong length.
	ErrRank = errors.New("array: wrong number of coordinates")

	// ErrDimensionMismatch indicates operands that cannot be aligned.
	ErrDimensionMismatch = errors.New("array: dimension mismatch")

	// ErrUnknownLetter indicates a reduction or slice named a letter the array lacks.
	ErrUnknownLetter = errors.New("array: unknown dimension letter")

	// ErrMissingValues indicates a table did not cover every coordinate.
	ErrMissingValues = errors.New("array: missing values")

	// ErrExtraValues indicates a table addressed labels outside the dimensions.
	ErrExtraValues = errors.New("array: values outside dimension items")

	// ErrMissingColumn indicates a table lacks a column for some dimension.
	ErrMissingColumn = errors.New("array: table lacks dimension column")
)

// Array is a dense labeled tensor.
type Array struct {
	dims    *dimension.Set
	data    *sparse.DenseArray
	strides []int
	err     error
}

// New returns a zero array over dims.
func New(dims *dimension.Set) *Array {
	shape := dims.Shape()
	var data *sparse.DenseArray
	if len(shape) == 0 {
		data = sparse.ZerosDense(1)
	} else {
		data = sparse.ZerosDense(shape...)
	}

	return &Array{dims: dims, data: data, strides: rowMajor(shape)}
}

// Full returns an array over dims with every cell set to v.
func Full(dims *dimension.Set, v float64) *Array {
	a := New(dims)
	a.Fill(v)

	return a
}

// Scalar returns a dimensionless array holding v.
func Scalar(v float64) *Array {
	s, _ := dimension.NewSet()

	return Full(s, v)
}

// failed returns an array that only carries err.
func failed(err error) *Array {
	s, _ := dimension.NewSet()
	a := New(s)
	a.err = err

	return a
}

func rowMajor(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}

	return st
}

// Err returns the first error recorded while computing a.
func (a *Array) Err() error { return a.err }

// Dims returns the dimension set.
func (a *Array) Dims() *dimension.Set { return a.dims }

// Letters returns the dimension letters in axis order.
func (a *Array) Letters() []string { return a.dims.Letters() }

// Shape returns the item counts in axis order.
func (a *Array) Shape() []int { return a.dims.Shape() }

// Size returns the number of cells.
func (a *Array) Size() int { return len(a.data.Elements) }

// Values exposes the row-major backing slice. Mutations are visible.
func (a *Array) Values() []float64 { return a.data.Elements }

// Stride returns the flat-offset step of axis letter, or 0 if absent.
func (a *Array) Stride(letter string) int {
	if p := a.dims.Pos(letter); p >= 0 {
		return a.strides[p]
	}

	return 0
}

// Copy returns a deep copy.
func (a *Array) Copy() *Array {
	return &Array{dims: a.dims, data: a.data.Copy(), strides: append([]int(nil), a.strides...), err: a.err}
}

// Fill sets every cell to v.
func (a *Array) Fill(v float64) {
	for i := range a.data.Elements {
		a.data.Elements[i] = v
	}
}

// offset converts labels (axis order) to a flat offset.
func (a *Array) offset(labels []string) (int, error) {
	if len(labels) != a.dims.Len() {
		return 0, fmt.Errorf("%w: got %d, want %d %s", ErrRank, len(labels), a.dims.Len(), a.dims)
	}
	off := 0
	for i, l := range labels {
		j, err := a.dims.At(i).MustIndex(l)
		if err != nil {
			return 0, err
		}
		off += j * a.strides[i]
	}

	return off, nil
}

// Get returns the value at the given labels (axis order).
func (a *Array) Get(labels ...string) (float64, error) {
	off, err := a.offset(labels)
	if err != nil {
		return 0, err
	}

	return a.data.Elements[off], nil
}

// Set stores v at the given labels (axis order).
func (a *Array) Set(v float64, labels ...string) error {
	off, err := a.offset(labels)
	if err != nil {
		return err
	}
	a.data.Elements[off] = v

	return nil
}

// Sum returns the total over all cells.
func (a *Array) Sum() float64 { return floats.Sum(a.data.Elements) }

// NonFinite counts NaN and ±Inf cells.
func (a *Array) NonFinite() int {
	n := 0
	for _, v := range a.data.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			n++
		}
	}

	return n
}

// Strata returns the flat offsets of every cell whose coordinate on axis
// letter is the first item. Adding k*Stride(letter) walks that axis.
func (a *Array) Strata(letter string) ([]int, error) {
	p := a.dims.Pos(letter)
	if p < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownLetter, letter, a.dims)
	}
	shape := a.dims.Shape()
	shape[p] = 1
	var out []int
	walk(shape, [][]int{a.strides}, func(offs []int) { out = append(out, offs[0]) })

	return out, nil
}

// walk visits every cell of shape in row-major order, calling fn with the
// flat offset into each operand described by one stride vector per operand
// (stride 0 broadcasts that axis).
func walk(shape []int, strides [][]int, fn func(offs []int)) {
	for _, s := range shape {
		if s == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	offs := make([]int, len(strides))
	for {
		fn(offs)
		ax := len(shape) - 1
		for ; ax >= 0; ax-- {
			idx[ax]++
			for k := range strides {
				offs[k] += strides[k][ax]
			}
			if idx[ax] < shape[ax] {
				break
			}
			for k := range strides {
				offs[k] -= strides[k][ax] * shape[ax]
			}
			idx[ax] = 0
		}
		if ax < 0 {
			return
		}
	}
}

// stridesIn maps the axes of target onto a: the stride of every target
// axis inside a, or 0 when a lacks it.
func stridesIn(target *dimension.Set, a *Array) []int {
	st := make([]int, target.Len())
	for i, d := range target.Dims() {
		st[i] = a.Stride(d.Letter)
	}

	return st
}
