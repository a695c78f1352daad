// SPDX-License-Identifier: MIT

// File: methods_adjacent.go
// Role: Neighborhood APIs (OutEdges, InEdges).
// Determinism:
//   - Every result is sorted by Edge.ID asc.
// Concurrency:
//   - Read operations hold muVert then muEdgeAdj read locks.

package core

import "sort"

// OutEdges returns the edges leaving id (for undirected edges: incident).
//
// Errors:
//   - ErrEmptyVertexID: if id == "".
//   - ErrVertexNotFound: if the vertex does not exist.
//
// Complexity: O(d log d).
func (g *Graph) OutEdges(id string) ([]*Edge, error) {
	return g.collect(id, g.out)
}

// InEdges returns the edges entering id (for undirected edges: incident).
func (g *Graph) InEdges(id string) ([]*Edge, error) {
	return g.collect(id, g.in)
}

func (g *Graph) collect(id string, side map[string]map[string]struct{}) ([]*Edge, error) {
	if id == "" {
		return nil, ErrEmptyVertexID
	}
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	if _, ok := g.vertices[id]; !ok {
		return nil, ErrVertexNotFound
	}
	out := make([]*Edge, 0, len(side[id]))
	for eid := range side[id] {
		out = append(out, g.edges[eid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
