package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spiralhouse/aureacore/internal/domain/graph"
)

// Errors returned by registry operations.
var (
	// ErrRegistryBusy is returned when a mutation arrives while another
	// mutation is in flight. The caller should retry; reads are never
	// blocked.
	ErrRegistryBusy = errors.New("registry busy: concurrent mutation in progress")

	// ErrSourceUnavailable marks a sync that could not reach the source of
	// truth. The registry keeps serving its last snapshot, flagged degraded.
	ErrSourceUnavailable = errors.New("source of truth unavailable")

	// ErrSuperseded is returned to a sync run whose snapshot was overtaken
	// by a newer one while it was still validating. Its work is discarded.
	ErrSuperseded = errors.New("sync superseded by a newer snapshot")

	// ErrServiceExists rejects registering an id that is already present.
	ErrServiceExists = errors.New("service already registered")

	// ErrNoPreviousSnapshot rejects a rollback when only one generation has
	// ever been published.
	ErrNoPreviousSnapshot = errors.New("no previous snapshot to roll back to")
)

// NotFoundError reports a query or mutation against an unknown service.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("service not found: %s", e.ID)
}

// CircularDependencyError rejects a mutation or sync that would introduce
// one or more dependency cycles.
type CircularDependencyError struct {
	Cycles []graph.Cycle
}

func (e *CircularDependencyError) Error() string {
	rendered := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		rendered[i] = c.String()
	}
	return fmt.Sprintf("circular dependency: %s", strings.Join(rendered, "; "))
}

// VersionIncompatibleError rejects a dependency whose version constraint the
// target's current version does not satisfy.
type VersionIncompatibleError struct {
	Service    string
	Dependency string
	Constraint string
	Actual     string
}

func (e *VersionIncompatibleError) Error() string {
	return fmt.Sprintf("version incompatible: %s requires %s %s, current version is %s",
		e.Service, e.Dependency, e.Constraint, e.Actual)
}

// DanglingDependencyError rejects a mutation declaring a required dependency
// on a service the catalog does not know.
type DanglingDependencyError struct {
	Service    string
	Dependency string
}

func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("dangling dependency: %s requires unknown service %s",
		e.Service, e.Dependency)
}

// RemovalBlockedError rejects removing a service that other services still
// require.
type RemovalBlockedError struct {
	ID         string
	Dependents []string
}

func (e *RemovalBlockedError) Error() string {
	return fmt.Sprintf("cannot remove %s: required by %s",
		e.ID, strings.Join(e.Dependents, ", "))
}
