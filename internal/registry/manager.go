package registry

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/domain/graph"
)

// Mutation validation runs three phases in order: structural (every required
// dependency resolves to a known service), version (declared constraints are
// satisfiable against current versions), and topological (the hypothetical
// post-mutation graph stays acyclic). A mutation commits only when all three
// pass, so a published snapshot never contains a dangling required reference
// or an unresolved cycle.

// validateService runs the structural and version phases for one service
// against the given catalog. Non-fatal findings come back as warnings.
func validateService(all map[string]*catalog.Service, svc *catalog.Service) ([]string, error) {
	var warnings []string
	id := svc.ID()

	for _, dep := range svc.Config.Dependencies {
		target := dep.Ref(svc.Namespace)
		if target == id {
			return warnings, fmt.Errorf("%w: %s", graph.ErrSelfDependency, id)
		}

		targetSvc, known := all[target]
		if !known {
			if dep.Optional {
				warnings = append(warnings, fmt.Sprintf("optional dependency %s is not registered", target))
				continue
			}
			return warnings, &DanglingDependencyError{Service: id, Dependency: target}
		}

		if dep.VersionConstraint == "" {
			continue
		}
		constraint, err := semver.NewConstraint(dep.VersionConstraint)
		if err != nil {
			return warnings, fmt.Errorf("%w: %s -> %s: %q",
				catalog.ErrInvalidConstraint, id, target, dep.VersionConstraint)
		}
		version, err := semver.NewVersion(targetSvc.Config.Version)
		if err != nil {
			// The target's own validation flags its bad version.
			warnings = append(warnings, fmt.Sprintf("dependency %s has unparsable version %q",
				target, targetSvc.Config.Version))
			continue
		}
		if !constraint.Check(version) {
			return warnings, &VersionIncompatibleError{
				Service:    id,
				Dependency: target,
				Constraint: dep.VersionConstraint,
				Actual:     targetSvc.Config.Version,
			}
		}
	}

	return warnings, nil
}

// checkAcyclic builds the dependency graph of the hypothetical catalog and
// fails with CircularDependencyError when any cycle exists. Edges to absent
// targets are ignored; the structural phase already judged those.
func checkAcyclic(order []string, all map[string]*catalog.Service) error {
	g := graph.New()
	for _, id := range order {
		g.AddNode(id)
	}
	for _, id := range order {
		svc := all[id]
		for _, dep := range svc.Config.Dependencies {
			target := dep.Ref(svc.Namespace)
			if !g.HasNode(target) || target == id {
				continue
			}
			if err := g.AddEdge(id, target); err != nil {
				return err
			}
		}
	}

	if cycles := g.DetectCycles(); len(cycles) > 0 {
		return &CircularDependencyError{Cycles: cycles}
	}
	return nil
}

// validateRemoval rejects removing a service that others still require.
// Dependents reaching it only through optional declarations survive degraded
// and do not block the removal.
func validateRemoval(id string, order []string, all map[string]*catalog.Service) error {
	var blocked []string
	for _, otherID := range order {
		if otherID == id {
			continue
		}
		other := all[otherID]
		for _, dep := range other.Config.Dependencies {
			if dep.Optional {
				continue
			}
			if dep.Ref(other.Namespace) == id {
				blocked = append(blocked, otherID)
				break
			}
		}
	}
	if len(blocked) > 0 {
		return &RemovalBlockedError{ID: id, Dependents: blocked}
	}
	return nil
}
