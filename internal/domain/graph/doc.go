// Package graph implements the dependency graph engine for the service
// catalog: the directed graph of service dependencies and the algorithms
// that interrogate it.
//
// This package follows the domain-layer conventions of the codebase:
//   - Pure Go with standard library imports only; no I/O, no logging
//   - The registry builds a Graph per snapshot and then treats it as
//     immutable; readers traverse without locks
//
// # Edge convention
//
// An edge A -> B means "A depends on B": A cannot operate before B is ready.
// All traversals funnel through a single internal walk primitive taking a
// Direction, so the convention cannot drift between algorithms.
//
// # Operations
//
// DetectCycles reports one representative cycle per back edge found by one
// full depth-first traversal. ResolveOrder computes an install/start order
// for a seed set's closure via Kahn's algorithm, failing with the exact set
// of unplaceable nodes when a cycle exists. Subgraph extracts the forward
// closure of a seed set. AnalyzeImpact and AnalyzeImpactDetailed compute
// reverse reachability (the blast radius of a change) with shortest witness
// paths and per-member criticality.
//
// # Determinism
//
// Nodes and per-node edge lists iterate in insertion order. Given the same
// input sequence, every operation returns identical results, which the tests
// rely on.
package graph
