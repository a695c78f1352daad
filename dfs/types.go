// SPDX-License-Identifier: MIT

// Package dfs provides depth-first algorithms on directed core graphs.
// The compute engine uses TopologicalSort to order model steps by their
// data dependencies.
package dfs

import "errors"

// VertexState represents the DFS visitation state of a vertex.
const (
	White = iota // White: the vertex has not been visited yet.
	Gray         // Gray: the vertex is in the recursion stack (visiting).
	Black        // Black: the vertex and all its descendants have been fully explored.
)

var (
	// ErrGraphNil is returned when a nil *core.Graph is passed to TopologicalSort.
	ErrGraphNil = errors.New("dfs: graph is nil")

	// ErrCycleDetected indicates that a cycle was encountered during TopologicalSort.
	ErrCycleDetected = errors.New("dfs: cycle detected")

	// ErrNeighborFetch indicates a failure to retrieve neighbors from the graph.
	ErrNeighborFetch = errors.New("dfs: failed to fetch neighbors")

	// ErrUndirected indicates an undirected graph was passed where direction matters.
	ErrUndirected = errors.New("dfs: TopologicalSort requires directed graph")
)
