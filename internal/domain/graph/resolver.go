package graph

import "fmt"

// ResolveOrder computes a valid operational order for the seed services and
// their transitive dependencies using Kahn's algorithm: repeatedly place the
// first (in insertion order) unplaced node whose dependencies are all placed.
// For every edge A -> B the result puts B before A, so the order is safe for
// install/start.
//
// Fails with ErrUnknownService when a seed is not in the graph, and with
// UnresolvableOrderError when the scope contains a cycle; the error's
// Remaining set is exactly the nodes in or depending on a cycle.
func (g *Graph) ResolveOrder(seedIDs ...string) ([]string, error) {
	scope, err := g.Subgraph(seedIDs...)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]int, scope.Len()) // unplaced dependency count
	for _, id := range scope.order {
		pending[id] = len(scope.walk(id, Forward))
	}

	order := make([]string, 0, scope.Len())
	placed := make(map[string]struct{}, scope.Len())
	for len(order) < scope.Len() {
		progressed := false
		for _, id := range scope.order {
			if _, done := placed[id]; done {
				continue
			}
			if pending[id] != 0 {
				continue
			}
			placed[id] = struct{}{}
			order = append(order, id)
			for _, dependent := range scope.walk(id, Reverse) {
				pending[dependent]--
			}
			progressed = true
			break
		}
		if !progressed {
			var remaining []string
			for _, id := range scope.order {
				if _, done := placed[id]; !done {
					remaining = append(remaining, id)
				}
			}
			return nil, &UnresolvableOrderError{Remaining: remaining}
		}
	}
	return order, nil
}

// Subgraph returns the induced subgraph reachable from the seeds following
// forward edges transitively. The result contains the seeds themselves,
// every node reachable from them, and all edges between included nodes.
// Node order follows the parent graph's insertion order.
func (g *Graph) Subgraph(seedIDs ...string) (*Graph, error) {
	reachable := make(map[string]struct{})
	var visit func(id string)
	visit = func(id string) {
		if _, ok := reachable[id]; ok {
			return
		}
		reachable[id] = struct{}{}
		for _, dep := range g.walk(id, Forward) {
			visit(dep)
		}
	}
	for _, seed := range seedIDs {
		if !g.HasNode(seed) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownService, seed)
		}
		visit(seed)
	}

	sub := New()
	for _, id := range g.order {
		if _, ok := reachable[id]; ok {
			sub.AddNode(id)
		}
	}
	for _, id := range sub.order {
		for _, dep := range g.walk(id, Forward) {
			// Closure over forward edges: every dependency of a reachable
			// node is itself reachable.
			if err := sub.AddEdge(id, dep); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}
