// SPDX-License-Identifier: MIT

package array

import (
	"fmt"

	"github.com/katalvlaran/eumfa/dimension"
)

// binary applies op cell-wise over the union of a's and b's dimensions.
func binary(a, b *Array, op func(x, y float64) float64) *Array {
	if a.err != nil {
		return failed(a.err)
	}
	if b.err != nil {
		return failed(b.err)
	}
	dims, err := a.dims.Union(b.dims)
	if err != nil {
		return failed(fmt.Errorf("%w: %v", ErrDimensionMismatch, err))
	}
	out := New(dims)
	o := out.data.Elements
	av, bv := a.data.Elements, b.data.Elements
	walk(dims.Shape(), [][]int{out.strides, stridesIn(dims, a), stridesIn(dims, b)}, func(offs []int) {
		o[offs[0]] = op(av[offs[1]], bv[offs[2]])
	})

	return out
}

// Add returns a + b broadcast over the union of their dimensions.
func (a *Array) Add(b *Array) *Array {
	if a.err == nil && b.err == nil && a.dims.Equal(b.dims) {
		out := a.Copy()
		out.data.AddDense(b.data)
		return out
	}

	return binary(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b.
func (a *Array) Sub(b *Array) *Array {
	return binary(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b.
func (a *Array) Mul(b *Array) *Array {
	return binary(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a / b. Division by zero is not guarded; the resulting
// NaN/Inf cells surface through NonFinite.
func (a *Array) Div(b *Array) *Array {
	return binary(a, b, func(x, y float64) float64 { return x / y })
}

// Apply returns fn applied to every cell.
func (a *Array) Apply(fn func(float64) float64) *Array {
	out := a.Copy()
	for i, v := range out.data.Elements {
		out.data.Elements[i] = fn(v)
	}

	return out
}

// MulScalar returns k*a.
func (a *Array) MulScalar(k float64) *Array {
	return a.Apply(func(v float64) float64 { return k * v })
}

// AddScalar returns a+k.
func (a *Array) AddScalar(k float64) *Array {
	return a.Apply(func(v float64) float64 { return v + k })
}

// ScalarMinus returns k-a, e.g. ScalarMinus(1) for a complementary rate.
func (a *Array) ScalarMinus(k float64) *Array {
	return a.Apply(func(v float64) float64 { return k - v })
}

// Neg returns -a.
func (a *Array) Neg() *Array { return a.MulScalar(-1) }

// SumTo sums over every dimension not in letters; the result has exactly
// letters, in the given order.
func (a *Array) SumTo(letters ...string) *Array {
	if a.err != nil {
		return failed(a.err)
	}
	dims, err := a.dims.Subset(letters...)
	if err != nil {
		return failed(fmt.Errorf("%w: %v", ErrUnknownLetter, err))
	}
	out := New(dims)
	o, v := out.data.Elements, a.data.Elements
	walk(a.dims.Shape(), [][]int{a.strides, stridesIn(a.dims, out)}, func(offs []int) {
		o[offs[1]] += v[offs[0]]
	})

	return out
}

// SumOver sums over the given letters, keeping the others in order.
func (a *Array) SumOver(letters ...string) *Array {
	if a.err != nil {
		return failed(a.err)
	}
	for _, l := range letters {
		if !a.dims.Has(l) {
			return failed(fmt.Errorf("%w: %q in %s", ErrUnknownLetter, l, a.dims))
		}
	}

	return a.SumTo(a.dims.Without(letters...).Letters()...)
}

// Assign overwrites a with src: dimensions of src absent from a are summed
// away, dimensions of a absent from src are broadcast.
func (a *Array) Assign(src *Array) error {
	if src.err != nil {
		return src.err
	}
	common := src.dims.Intersect(a.dims)
	s := src
	if common.Len() != src.dims.Len() {
		s = src.SumTo(common.Letters()...)
		if s.err != nil {
			return s.err
		}
	}
	for _, d := range common.Dims() {
		mine, _ := a.dims.Get(d.Letter)
		if !mine.SameItems(d) {
			return fmt.Errorf("%w: letter %q bound to %s and %s", ErrDimensionMismatch, d.Letter, mine.Name, d.Name)
		}
	}
	o, v := a.data.Elements, s.data.Elements
	walk(a.dims.Shape(), [][]int{a.strides, stridesIn(a.dims, s)}, func(offs []int) {
		o[offs[0]] = v[offs[1]]
	})

	return nil
}

// Cast returns a re-expressed over dims (sum extra, broadcast missing).
func (a *Array) Cast(dims *dimension.Set) *Array {
	out := New(dims)
	if err := out.Assign(a); err != nil {
		return failed(err)
	}

	return out
}

// Slice returns the sub-array at label on axis letter, without that axis.
func (a *Array) Slice(letter, label string) *Array {
	if a.err != nil {
		return failed(a.err)
	}
	base, err := a.labelOffset(letter, label)
	if err != nil {
		return failed(err)
	}
	out := New(a.dims.Without(letter))
	o, v := out.data.Elements, a.data.Elements
	walk(out.dims.Shape(), [][]int{out.strides, stridesIn(out.dims, a)}, func(offs []int) {
		o[offs[0]] = v[base+offs[1]]
	})

	return out
}

// SetSlice assigns src into the slice at label on axis letter.
func (a *Array) SetSlice(letter, label string, src *Array) error {
	base, err := a.labelOffset(letter, label)
	if err != nil {
		return err
	}
	tmp := New(a.dims.Without(letter))
	if err = tmp.Assign(src); err != nil {
		return err
	}
	o, v := a.data.Elements, tmp.data.Elements
	walk(tmp.dims.Shape(), [][]int{tmp.strides, stridesIn(tmp.dims, a)}, func(offs []int) {
		o[base+offs[1]] = v[offs[0]]
	})

	return nil
}

func (a *Array) labelOffset(letter, label string) (int, error) {
	d, err := a.dims.Get(letter)
	if err != nil || d.Letter != letter {
		return 0, fmt.Errorf("%w: %q in %s", ErrUnknownLetter, letter, a.dims)
	}
	j, err := d.MustIndex(label)
	if err != nil {
		return 0, err
	}

	return j * a.Stride(letter), nil
}

// Relabel replaces axis from with dimension to, which must have the same
// items. It is the reindexing step of an einsum such as 'rR->R' -> 'r'.
func (a *Array) Relabel(from string, to *dimension.Dimension) *Array {
	if a.err != nil {
		return failed(a.err)
	}
	p := a.dims.Pos(from)
	if p < 0 {
		return failed(fmt.Errorf("%w: %q in %s", ErrUnknownLetter, from, a.dims))
	}
	old := a.dims.At(p)
	if old.Len() != to.Len() {
		return failed(fmt.Errorf("%w: relabel %s -> %s", ErrDimensionMismatch, old.Name, to.Name))
	}
	dims := a.dims.Dims()
	dims[p] = to
	set, err := dimension.NewSet(dims...)
	if err != nil {
		return failed(fmt.Errorf("%w: %v", ErrDimensionMismatch, err))
	}

	return &Array{dims: set, data: a.data.Copy(), strides: append([]int(nil), a.strides...)}
}
