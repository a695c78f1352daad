// SPDX-License-Identifier: MIT

// Package remap re-expresses flow tables from one classification into
// another: bottom-up region codes onto a coarser target region set, and
// source product categories onto target product/sector pairs.
//
// A mapping file has one rule per row:
//
//	original_dimension, original_element,
//	target_dimension[, target_dimension_2 ...],
//	target_element[, target_element_2 ...],
//	factor[, target_region, target_parameter]
//
// Every source row whose original element matches a rule emits one row per
// rule with value scaled by factor. Factors of rules sharing an element do
// not have to sum to one: overlap is a modelling choice. A target element
// "all" fans out over every item of the target dimension taken from a
// Catalog, each copy keeping the factor unchanged. Duplicate target keys
// are always summed.
//
// Complexity: O(R + N*k) for R rules, N source rows and k rules per element,
// plus the final O(M log M) group-sum over M emitted rows.
package remap
