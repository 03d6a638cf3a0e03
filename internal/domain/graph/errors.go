package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by graph construction and traversal.
var (
	ErrDanglingReference = errors.New("edge endpoint not present in graph")
	ErrSelfDependency    = errors.New("service cannot depend on itself")
	ErrUnknownService    = errors.New("unknown service")
)

// Cycle is an ordered sequence of node ids forming a closed walk following
// forward edges. The first node is repeated implicitly, not stored.
type Cycle []string

// String renders the cycle as "a -> b -> c -> a".
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c...), c[0]), " -> ")
}

// UnresolvableOrderError reports that no valid operational order exists.
// Remaining holds, in insertion order, every node participating in a cycle
// or depending (transitively) on one.
type UnresolvableOrderError struct {
	Remaining []string
}

func (e *UnresolvableOrderError) Error() string {
	return fmt.Sprintf("unresolvable dependency order: %d services remain unplaced: %s",
		len(e.Remaining), strings.Join(e.Remaining, ", "))
}
