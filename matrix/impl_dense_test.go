package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/eumfa/matrix"
)

// TestNewDense_Shapes verifies zero-sized shapes are legal and negatives are not.
func TestNewDense_Shapes(t *testing.T) {
	m, err := matrix.NewDense(0, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Rows())

	_, err = matrix.NewDense(-1, 2)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestDense_AccessAndSums covers At/Set and the row/column sums.
func TestDense_AccessAndSums(t *testing.T) {
	m, err := matrix.NewSquare(3)
	require.NoError(t, err)
	require.NoError(t, m.Set(1, 0, 3))
	require.NoError(t, m.Set(1, 1, 4))
	require.NoError(t, m.Set(2, 0, 5))

	v, err := m.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	rs, err := m.RowSum(1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, rs)
	cs, err := m.ColSum(0)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cs)

	row, err := m.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 0}, row)

	_, err = m.At(3, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.RowSum(-1)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.ColSum(9)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestDense_String renders rows in order.
func TestDense_String(t *testing.T) {
	m, _ := matrix.NewSquare(2)
	require.NoError(t, m.Set(0, 1, 1))
	assert.Equal(t, "[0, 1]\n[0, 0]\n", m.String())
}
