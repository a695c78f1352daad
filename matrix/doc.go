// SPDX-License-Identifier: MIT

// Package matrix provides Dense, a bounds-checked row-major float64
// buffer. Stock accumulators keep one time × cohort Dense per stratum:
// row i is the calendar year, column j the year of entry, so RowSum(i) is
// the stock at year i and ColSum(j) the lifetime total of cohort j.
package matrix
