package graph

import "fmt"

// Impact describes one member of an impact set: a service that transitively
// depends on the analysis target.
type Impact struct {
	// Service is the impacted member's id.
	Service string
	// Path is a shortest (by hop count) witness path from the member to the
	// target, both endpoints included.
	Path []string
	// Critical is set when the member has no alternative route to keep
	// operating: losing the target necessarily breaks it.
	Critical bool
}

// AnalyzeImpact returns the ids of every service with a forward path to the
// target, in breadth-first discovery order. The target itself is excluded.
// Fails with ErrUnknownService when the target is absent; an empty result
// means "present but without dependents", which is a different answer.
func (g *Graph) AnalyzeImpact(id string) ([]string, error) {
	details, err := g.AnalyzeImpactDetailed(id, nil)
	if err != nil {
		return nil, err
	}
	members := make([]string, len(details))
	for i, d := range details {
		members[i] = d.Service
	}
	return members, nil
}

// AnalyzeImpactDetailed computes the impact set of the target with witness
// paths, by breadth-first traversal over reverse edges. The first discovery
// of each member fixes its witness path, so paths are shortest by hop count.
//
// hard restricts the criticality judgement: a member is critical when it
// still reaches the target inside hard, the subgraph of required
// dependencies. Members whose every route crosses an optional declaration
// survive the target's removal degraded rather than broken. Pass nil to mark
// every member critical.
func (g *Graph) AnalyzeImpactDetailed(id string, hard *Graph) ([]Impact, error) {
	if !g.HasNode(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, id)
	}

	var critical map[string]struct{}
	if hard != nil {
		critical = hard.reachableReverse(id)
	}

	// parent[x] is the next hop from x toward the target.
	parent := make(map[string]string)
	visited := map[string]struct{}{id: {}}
	queue := []string{id}
	var details []Impact

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dependent := range g.walk(current, Reverse) {
			if _, seen := visited[dependent]; seen {
				continue
			}
			visited[dependent] = struct{}{}
			parent[dependent] = current
			queue = append(queue, dependent)

			path := []string{dependent}
			for hop := current; ; hop = parent[hop] {
				path = append(path, hop)
				if hop == id {
					break
				}
			}

			isCritical := true
			if critical != nil {
				_, isCritical = critical[dependent]
			}
			details = append(details, Impact{
				Service:  dependent,
				Path:     path,
				Critical: isCritical,
			})
		}
	}
	return details, nil
}

// reachableReverse returns the set of nodes with a forward path to id inside
// this graph. Absent nodes yield an empty set.
func (g *Graph) reachableReverse(id string) map[string]struct{} {
	seen := make(map[string]struct{})
	if !g.HasNode(id) {
		return seen
	}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dependent := range g.walk(current, Reverse) {
			if _, ok := seen[dependent]; ok {
				continue
			}
			seen[dependent] = struct{}{}
			queue = append(queue, dependent)
		}
	}
	return seen
}
