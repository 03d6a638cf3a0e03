package graph

import "fmt"

// Direction selects which way edges are followed by a traversal.
type Direction int

const (
	// Forward follows an edge from a service to the services it depends on.
	Forward Direction = iota
	// Reverse follows an edge from a service to the services depending on it.
	Reverse
)

// Graph is a directed dependency graph over service ids. An edge A -> B means
// "A depends on B": A cannot operate before B is ready. Nodes and the edge
// lists of each node iterate in insertion order, so every algorithm in this
// package is deterministic for identical input.
//
// Graph is not safe for concurrent mutation; the registry only mutates it
// while building a snapshot, after which it is treated as immutable.
type Graph struct {
	order []string
	nodes map[string]struct{}
	out   map[string][]string // forward adjacency: id -> its dependencies
	in    map[string][]string // reverse adjacency: id -> its dependents
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
}

// AddNode adds a node. Adding an existing node is a no-op, preserving the
// original insertion position.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge records that from depends on to. Both endpoints must already be
// present. Duplicate edges collapse to one.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfDependency, from)
	}
	if !g.HasNode(from) {
		return fmt.Errorf("%w: %s", ErrDanglingReference, from)
	}
	if !g.HasNode(to) {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingReference, from, to)
	}
	for _, existing := range g.out[from] {
		if existing == to {
			return nil
		}
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return nil
}

// walk returns the nodes adjacent to id following edges in the given
// direction. Every traversal in this package goes through walk, so the
// "A -> B means A depends on B" convention is applied in exactly one place.
// The returned slice is shared internal state; callers must not modify it.
func (g *Graph) walk(id string, dir Direction) []string {
	if dir == Reverse {
		return g.in[id]
	}
	return g.out[id]
}

// Neighbors returns the direct dependencies of id, in declaration order.
func (g *Graph) Neighbors(id string) []string {
	return copied(g.walk(id, Forward))
}

// ReverseNeighbors returns the direct dependents of id.
func (g *Graph) ReverseNeighbors(id string) []string {
	return copied(g.walk(id, Reverse))
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	return copied(g.order)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.out {
		n += len(deps)
	}
	return n
}

// Clone returns a deep copy. Used to evaluate a hypothetical post-mutation
// graph without touching the snapshot's graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.order {
		c.AddNode(id)
	}
	for _, id := range g.order {
		for _, dep := range g.out[id] {
			c.out[id] = append(c.out[id], dep)
			c.in[dep] = append(c.in[dep], id)
		}
	}
	return c
}

// RemoveNode deletes a node and all edges touching it. Used to evaluate
// hypothetical removal; a no-op when the node is absent.
func (g *Graph) RemoveNode(id string) {
	if !g.HasNode(id) {
		return
	}
	delete(g.nodes, id)
	for i, n := range g.order {
		if n == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	for _, dep := range g.out[id] {
		g.in[dep] = remove(g.in[dep], id)
	}
	for _, dependent := range g.in[id] {
		g.out[dependent] = remove(g.out[dependent], id)
	}
	delete(g.out, id)
	delete(g.in, id)
}

func remove(ids []string, id string) []string {
	for i, n := range ids {
		if n == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func copied(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
