// SPDX-License-Identifier: MIT

// Package reconcile aligns bottom-up model output with top-down demand
// statistics.
//
// Residual computes, at a base year, how much of the top-down demand the
// bottom-up model leaves unexplained (clamped at zero) and projects it
// through a multiplicative growth series. TotalFuture sums several named
// tables on a shared key space. Combine stitches historic and future
// series that must not share a year. SplitCohorts keeps the post-base-year
// share of age-cohort rows.
//
// All functions accept raw tables as read by table.Read: the value column
// is resolved through an alias list and unparsable cells count as 0.
// Missing key columns are filled; a missing value or time column is an
// error.
package reconcile

import "errors"

// Sentinel errors for reconciliation.
var (
	// ErrMissingColumn indicates a required time column is absent.
	ErrMissingColumn = errors.New("reconcile: missing column")

	// ErrNoInputs indicates TotalFuture received no tables.
	ErrNoInputs = errors.New("reconcile: no input tables")

	// ErrOverlappingYears indicates historic and future series share a year.
	ErrOverlappingYears = errors.New("reconcile: historic and future years overlap")
)

// DefaultTime is the time column used when options leave it empty.
const DefaultTime = "Time"

// DefaultFill labels key cells of columns a table did not carry.
const DefaultFill = "Unknown"

// keySep joins key tuples into map keys.
const keySep = "\x1f"
