// SPDX-License-Identifier: MIT

// File: methods_edges.go
// Role: Edge lifecycle & queries: AddEdge/HasEdge plus nextEdgeID().
// Determinism:
//   - nextEdgeID() is monotonic and stable ("e" + decimal).
// Concurrency:
//   - Mutations under muEdgeAdj write lock.
//   - Read queries under muEdgeAdj read lock.

package core

import (
	"strconv"
	"sync/atomic"
)

// edgeIDPrefix is the textual prefix of generated edge identifiers.
const edgeIDPrefix = 'e'

// AddEdge creates a new edge from→to and returns its ID.
//
// Steps:
//  1. Validate IDs and the loop constraint.
//  2. Ensure endpoints via AddVertex.
//  3. Lock muEdgeAdj, check the multi-edge constraint.
//  4. Build the Edge, apply opts, generate an ID when none was chosen.
//  5. Reject a duplicate caller-chosen ID.
//  6. File the edge in out[from] and in[to] (both ways when undirected).
//
// Complexity: O(1) amortized, O(deg) for the multi-edge check.
func (g *Graph) AddEdge(from, to string, opts ...EdgeOption) (string, error) {
	if from == "" || to == "" {
		return "", ErrEmptyVertexID
	}
	if from == to && !g.allowLoops {
		return "", ErrLoopNotAllowed
	}
	if err := g.AddVertex(from); err != nil {
		return "", err
	}
	if err := g.AddVertex(to); err != nil {
		return "", err
	}

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	if !g.allowMulti {
		for eid := range g.out[from] {
			if e := g.edges[eid]; e.To == to || (!e.Directed && e.From == to) {
				return "", ErrMultiEdgeNotAllowed
			}
		}
	}

	e := &Edge{From: from, To: to, Directed: g.directed}
	for _, opt := range opts {
		opt(e)
	}
	if e.ID == "" {
		e.ID = nextEdgeID(g)
	}
	if _, dup := g.edges[e.ID]; dup {
		return "", ErrDuplicateEdgeID
	}

	g.edges[e.ID] = e
	link(g.out, from, e.ID)
	link(g.in, to, e.ID)
	if !e.Directed && from != to {
		link(g.out, to, e.ID)
		link(g.in, from, e.ID)
	}

	return e.ID, nil
}

func link(m map[string]map[string]struct{}, v, eid string) {
	if m[v] == nil {
		m[v] = make(map[string]struct{})
	}
	m[v][eid] = struct{}{}
}

// nextEdgeID returns a fresh generated identifier. Caller holds muEdgeAdj.
func nextEdgeID(g *Graph) string {
	for {
		n := atomic.AddUint64(&g.nextEdgeID, 1)
		id := string(strconv.AppendUint([]byte{edgeIDPrefix}, n, 10))
		if _, taken := g.edges[id]; !taken {
			return id
		}
	}
}

// HasEdge reports whether at least one edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	for eid := range g.out[from] {
		e := g.edges[eid]
		if e.To == to || (!e.Directed && e.From == to) {
			return true
		}
	}

	return false
}
