// SPDX-License-Identifier: MIT

// Package core provides the thread-safe in-memory Graph behind a
// material-flow system: processes are vertices, flows are edges.
//
// The Graph G = (V,E) supports:
//
//   - Directed vs. undirected edges (WithDirected)
//   - Parallel edges between the same processes (WithMultiEdges), e.g. a
//     product flow and a trade flow between two markets
//   - Self-loops (WithLoops), e.g. element reuse inside a building stock
//   - Caller-chosen edge identifiers (WithEdgeID), so an edge can carry the
//     canonical flow name; otherwise IDs are generated ("e1", "e2", ...)
//   - Separate sync.RWMutex for vertices (muVert) and edges+adjacency
//     (muEdgeAdj) to minimize lock contention
//
// Deterministic iteration: Vertices(), OutEdges() and InEdges() return
// results sorted by ID.
//
// The same Graph is used by the compute engine as a step-dependency
// graph, ordered with dfs.TopologicalSort.
package core
