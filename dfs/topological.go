// SPDX-License-Identifier: MIT

package dfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/katalvlaran/eumfa/core"
)

// TopoOption configures TopologicalSort.
type TopoOption func(*topoOptions)

type topoOptions struct {
	ctx context.Context
}

// WithCancelContext aborts the sort once ctx is done. A nil ctx is ignored.
func WithCancelContext(ctx context.Context) TopoOption {
	return func(o *topoOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// sorter is the state of one TopologicalSort call.
type sorter struct {
	g     *core.Graph
	ctx   context.Context
	state map[string]int
	path  []string // vertices currently Gray, outermost first
	post  []string
}

// TopologicalSort orders the vertices of the directed graph g so that
// every edge u→v has u first. A cycle yields ErrCycleDetected wrapped with
// the cycle, e.g. "a -> b -> a".
//
// The order is deterministic. When ascending vertex IDs already form a
// valid order they are returned as is, so callers that encode a
// declaration index in the ID keep that order for independent vertices.
//
// Time O(V+E), memory O(V).
func TopologicalSort(g *core.Graph, options ...TopoOption) ([]string, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	if !g.Directed() {
		return nil, ErrUndirected
	}
	opts := topoOptions{ctx: context.Background()}
	for _, opt := range options {
		opt(&opts)
	}
	verts := g.Vertices()
	s := &sorter{
		g:     g,
		ctx:   opts.ctx,
		state: make(map[string]int, len(verts)),
		post:  make([]string, 0, len(verts)),
	}
	// Roots in descending ID order; reversing the post-order then yields
	// ascending IDs wherever the edges allow it.
	for i := len(verts) - 1; i >= 0; i-- {
		if s.state[verts[i]] != White {
			continue
		}
		if err := s.visit(verts[i]); err != nil {
			return nil, err
		}
	}
	out := make([]string, len(s.post))
	for i, v := range s.post {
		out[len(s.post)-1-i] = v
	}

	return out, nil
}

func (s *sorter) visit(id string) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	switch s.state[id] {
	case Gray:
		return fmt.Errorf("%w: %s", ErrCycleDetected, s.cycle(id))
	case Black:
		return nil
	}
	s.state[id] = Gray
	s.path = append(s.path, id)

	out, err := s.g.OutEdges(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNeighborFetch, err)
	}
	for i := len(out) - 1; i >= 0; i-- {
		if err = s.visit(out[i].To); err != nil {
			return err
		}
	}

	s.state[id] = Black
	s.path = s.path[:len(s.path)-1]
	s.post = append(s.post, id)

	return nil
}

// cycle renders the Gray path from id back to id.
func (s *sorter) cycle(id string) string {
	for i, v := range s.path {
		if v == id {
			return strings.Join(append(append([]string(nil), s.path[i:]...), id), " -> ")
		}
	}

	return id
}
