// SPDX-License-Identifier: MIT

// Package table implements the row-per-coordinate tabular form used to
// exchange flows between sub-models: an ordered set of string key
// columns plus an optional float64 value column.
//
// A table read from disk is "raw": every column is a key column. Engines
// resolve the value column explicitly with EnsureValue, which accepts the
// alias set relevant to that engine (Value, val, growth, residual, ...).
//
// Tables are treated as values: every operation returns a new *Table and
// leaves its receiver untouched.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// DefaultValue is the canonical name of the value column.
const DefaultValue = "value"

// Sentinel errors for table operations.
var (
	// ErrNoValueColumn indicates that no value column (or alias) was found.
	ErrNoValueColumn = errors.New("table: value column not found")

	// ErrUnknownColumn indicates an operation referenced a missing column.
	ErrUnknownColumn = errors.New("table: unknown column")

	// ErrDuplicateColumn indicates two columns share a name.
	ErrDuplicateColumn = errors.New("table: duplicate column")

	// ErrColumnMismatch indicates tables with different column sets were combined.
	ErrColumnMismatch = errors.New("table: column sets differ")

	// ErrRowWidth indicates a row whose width does not match the header.
	ErrRowWidth = errors.New("table: row width does not match header")

	// ErrEmptyFile indicates a CSV file without a header row.
	ErrEmptyFile = errors.New("table: file is empty")
)

// Table is an ordered list of rows over named key columns.
type Table struct {
	cols  []string
	index map[string]int
	value string // "" when the table carries no value column
	keys  [][]string
	vals  []float64
}

// New returns an empty table over the given key columns. value names the
// value column; pass "" for a raw table.
func New(cols []string, value string) (*Table, error) {
	t := &Table{
		cols:  append([]string(nil), cols...),
		index: make(map[string]int, len(cols)),
		value: value,
	}
	for i, c := range t.cols {
		if _, dup := t.index[c]; dup || c == value {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.index[c] = i
	}

	return t, nil
}

// Append adds one row. keys must follow Columns order.
func (t *Table) Append(keys []string, v float64) error {
	if len(keys) != len(t.cols) {
		return fmt.Errorf("%w: got %d cells, want %d", ErrRowWidth, len(keys), len(t.cols))
	}
	t.keys = append(t.keys, append([]string(nil), keys...))
	t.vals = append(t.vals, v)

	return nil
}

// AppendMap adds one row from a column->cell map. Absent columns get "".
func (t *Table) AppendMap(cells map[string]string, v float64) {
	row := make([]string, len(t.cols))
	for i, c := range t.cols {
		row[i] = cells[c]
	}
	t.keys = append(t.keys, row)
	t.vals = append(t.vals, v)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.keys) }

// Columns returns a copy of the key column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }

// Value returns the value column name, or "" for a raw table.
func (t *Table) Value() string { return t.value }

// HasColumn reports whether name is a key column or the value column.
func (t *Table) HasColumn(name string) bool {
	if name != "" && name == t.value {
		return true
	}
	_, ok := t.index[name]

	return ok
}

// Key returns the cell of row i in column col ("" if col is absent).
func (t *Table) Key(i int, col string) string {
	j, ok := t.index[col]
	if !ok {
		return ""
	}

	return t.keys[i][j]
}

// Keys returns a copy of the key cells of row i.
func (t *Table) Keys(i int) []string { return append([]string(nil), t.keys[i]...) }

// Val returns the value of row i.
func (t *Table) Val(i int) float64 { return t.vals[i] }

// Total returns the sum of the value column.
func (t *Table) Total() float64 { return floats.Sum(t.vals) }

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out, _ := New(t.cols, t.value)
	out.keys = make([][]string, len(t.keys))
	for i, k := range t.keys {
		out.keys[i] = append([]string(nil), k...)
	}
	out.vals = append([]float64(nil), t.vals...)

	return out
}

// IsNumeric reports whether every non-empty cell of key column col parses
// as a number. The value column is always numeric.
func (t *Table) IsNumeric(col string) bool {
	if col == t.value && col != "" {
		return true
	}
	j, ok := t.index[col]
	if !ok {
		return false
	}
	seen := false
	for _, row := range t.keys {
		c := strings.TrimSpace(row[j])
		if c == "" {
			continue
		}
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			return false
		}
		seen = true
	}

	return seen
}

// Int parses the cell of row i in col as an integer year-like label.
// Integral floats ("2023.0") are accepted.
func (t *Table) Int(i int, col string) (int, bool) {
	return ParseInt(t.Key(i, col))
}

// ParseInt parses s as an integer, accepting integral float spellings.
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}

	return int(f), true
}

// ParseValue converts a cell to a float. Empty, unparsable and NaN cells
// read as 0.
func ParseValue(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}

	return f
}

// FormatValue renders v the way Write does.
func FormatValue(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Row is a read-only view of one table row, handed to predicates.
type Row struct {
	t *Table
	i int
}

// Get returns the cell in column col.
func (r Row) Get(col string) string { return r.t.Key(r.i, col) }

// Value returns the row value.
func (r Row) Value() float64 { return r.t.vals[r.i] }

// Index returns the row position in its table.
func (r Row) Index() int { return r.i }
