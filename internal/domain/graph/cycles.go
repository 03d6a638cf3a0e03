package graph

// Cycle detection uses a three-state colouring: unvisited (white), on the
// current traversal stack (grey), fully explored (black).
const (
	colorWhite = iota
	colorGray
	colorBlack
)

// DetectCycles reports every cycle found by one full depth-first traversal
// started from each unvisited node in insertion order. A back edge into a
// grey node yields one representative cycle: the slice of the traversal
// stack between that node and the current node, inclusive. The traversal
// continues past a cycle rather than stopping, so disjoint cycles are all
// reported; it does not enumerate every cycle of the graph (there may be
// exponentially many).
//
// An acyclic graph yields an empty result; that is the normal outcome, not
// an error.
func (g *Graph) DetectCycles() []Cycle {
	color := make(map[string]int, len(g.order))
	stack := make([]string, 0, len(g.order))
	var cycles []Cycle

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = colorGray
		stack = append(stack, id)

		for _, next := range g.walk(id, Forward) {
			switch color[next] {
			case colorGray:
				// Back edge: the stack from next to id is one cycle.
				for i := range stack {
					if stack[i] == next {
						cycles = append(cycles, Cycle(copied(stack[i:])))
						break
					}
				}
			case colorWhite:
				dfs(next)
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = colorBlack
	}

	for _, id := range g.order {
		if color[id] == colorWhite {
			dfs(id)
		}
	}
	return cycles
}
