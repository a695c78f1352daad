// SPDX-License-Identifier: MIT

// Package pipeline runs the combined bottom-up/top-down analysis. For
// every enabled target material (plastics, steel, cement) it chains:
//
//  1. bottom-up sub-models (buildings, vehicles),
//  2. region and product remapping of the configured source flows onto
//     the target classification, with the target's column names,
//  3. the residual of top-down start values over bottom-up demand at the
//     base year, projected with growth rates (demand_future.csv),
//  4. for cement, the stock sub-model turning that residual into EoL,
//  5. totals: FinalDemand.csv, or total_future_demand.csv and
//     total_future_eol_flows.csv for cement,
//  6. the flows sub-model of the target,
//  7. combination of historic and future series into {name}_all.csv.
//
// CSV files in the top-down directories are the only channel between
// stages. A failing stage aborts the run with a *StageError naming the
// stage and the file involved; files written by earlier stages remain.
//
// With downstream_only set, steps 1-5 and 7 are skipped and only the
// flows sub-model of each target runs.
package pipeline
