// SPDX-License-Identifier: MIT

package matrix

import "errors"

// Messages carry the "matrix:" prefix; call sites add coordinates with
// fmt.Errorf("ctx: %w", ErrX).
var (
	// ErrOutOfRange indicates a row or column index outside the matrix.
	// At, Set and the row/column accessors return it instead of panicking.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrNilMatrix indicates a nil *Dense receiver.
	ErrNilMatrix = errors.New("matrix: nil receiver")

	// ErrInvalidDimensions indicates a negative row or column count.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be >= 0")
)
