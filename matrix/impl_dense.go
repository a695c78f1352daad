// SPDX-License-Identifier: MIT

// Dense storage (row-major) and safe accessors.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the explicit index formula i*cols + j.
//   - Guarantee safety at the public surface: At/Set return errors instead of panicking.
//   - Back the per-stratum cohort histories of stock accumulators: row = calendar
//     time, column = cohort (year of entry).
//
// Complexity quicksheet:
//   - NewDense: O(r*c) zero-init; At/Set: O(1); Row/RowSum: O(c); ColSum: O(r).

package matrix

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ---------- error context tags ----------

const (
	ctxAt    = "At"    // method tag used in error wrappers
	ctxSet   = "Set"   // method tag used in error wrappers
	ctxRow   = "Row"   // method tag used in error wrappers
	ctxCol   = "Col"   // method tag used in error wrappers
)

// ---------- Formatting literals  ----------
const (
	_fmtRowOpen  = "["
	_fmtRowClose = "]\n"
	_fmtSep      = ", "
)

// denseErrorf wraps an error with a uniform Dense context and callsite indices.
//
// Implementation:
//   - Stage 1: format "Dense.<method>(row,col): %w".
//   - Stage 2: return wrapped error; the sentinel survives for errors.Is.
//
// Complexity:
//   - Time O(1), Space O(1).
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a concrete row-major matrix.
//   - r,c hold dimensions (rows, cols).
//   - data is a flat buffer of length r*c in row-major order (offset = i*c + j).
type Dense struct {
	r, c int       // row and column counts (>=0)
	data []float64 // contiguous row-major storage (len == r*c)
}

var _ fmt.Stringer = (*Dense)(nil)

// NewDense creates an r×c zero matrix using row-major storage.
//
// Implementation:
//   - Stage 1: validate rows>=0 && cols>=0; else ErrInvalidDimensions.
//   - Stage 2: allocate a zero-filled buffer.
//
// Behavior highlights:
//   - Zero-sized shapes are legal: a stock over an empty time axis has an
//     empty history.
//   - NaN/Inf are stored as given and reported upstream.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewDense(rows, cols int) (*Dense, error) {
	if rows < 0 || cols < 0 {
		return nil, ErrInvalidDimensions
	}

	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// NewSquare is NewDense(n, n); cohort histories are always time × time.
func NewSquare(n int) (*Dense, error) { return NewDense(n, n) }

// Rows returns the row count.
func (m *Dense) Rows() int { return m.r }

// indexOf bounds-checks (row,col) and computes the flat offset.
// Public methods wrap the returned sentinel with coordinates and method name.
func (m *Dense) indexOf(method string, row, col int) (int, error) {
	if m == nil {
		return 0, ErrNilMatrix
	}
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, denseErrorf(method, row, col, ErrOutOfRange)
	}

	return row*m.c + col, nil
}

// At returns the element at (row,col).
// Complexity: O(1).
func (m *Dense) At(row, col int) (float64, error) {
	off, err := m.indexOf(ctxAt, row, col)
	if err != nil {
		return 0, err
	}

	return m.data[off], nil
}

// Set assigns v to (row,col).
// Complexity: O(1).
func (m *Dense) Set(row, col int, v float64) error {
	off, err := m.indexOf(ctxSet, row, col)
	if err != nil {
		return err
	}
	m.data[off] = v

	return nil
}

// Row returns a copy of row i.
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, denseErrorf(ctxRow, i, 0, ErrOutOfRange)
	}

	return append([]float64(nil), m.data[i*m.c:(i+1)*m.c]...), nil
}

// RowSum returns the sum of row i (a stock total at one calendar time).
func (m *Dense) RowSum(i int) (float64, error) {
	if i < 0 || i >= m.r {
		return 0, denseErrorf(ctxRow, i, 0, ErrOutOfRange)
	}

	return floats.Sum(m.data[i*m.c : (i+1)*m.c]), nil
}

// ColSum returns the sum of column j (everything one cohort ever did).
func (m *Dense) ColSum(j int) (float64, error) {
	if j < 0 || j >= m.c {
		return 0, denseErrorf(ctxCol, 0, j, ErrOutOfRange)
	}
	s := 0.0
	for i := 0; i < m.r; i++ {
		s += m.data[i*m.c+j]
	}

	return s, nil
}

// String renders the matrix row by row.
func (m *Dense) String() string {
	var b strings.Builder
	for i := 0; i < m.r; i++ {
		b.WriteString(_fmtRowOpen)
		for j := 0; j < m.c; j++ {
			if j > 0 {
				b.WriteString(_fmtSep)
			}
			fmt.Fprintf(&b, "%g", m.data[i*m.c+j])
		}
		b.WriteString(_fmtRowClose)
	}

	return b.String()
}
