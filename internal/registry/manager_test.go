package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/domain/graph"
)

// workingSetOf is a test helper indexing entries by id.
func workingSetOf(services ...*catalog.Service) ([]string, map[string]*catalog.Service) {
	order := make([]string, 0, len(services))
	all := make(map[string]*catalog.Service, len(services))
	for _, svc := range services {
		order = append(order, svc.ID())
		all[svc.ID()] = svc
	}
	return order, all
}

func TestValidateService_Clean(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "db", "2.1.0"),
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "db", VersionConstraint: ">=2.0.0"}),
	)

	warnings, err := validateService(all, all["p/auth"])
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateService_SelfDependency(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "auth"}),
	)

	_, err := validateService(all, all["p/auth"])
	require.ErrorIs(t, err, graph.ErrSelfDependency)
}

func TestValidateService_DanglingRequired(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "ghost"}),
	)

	var dangling *DanglingDependencyError
	_, err := validateService(all, all["p/auth"])
	require.ErrorAs(t, err, &dangling)
	require.Equal(t, "p/auth", dangling.Service)
	require.Equal(t, "p/ghost", dangling.Dependency)
}

func TestValidateService_DanglingOptionalIsWarning(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "ghost", Optional: true}),
	)

	warnings, err := validateService(all, all["p/auth"])
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "p/ghost")
}

func TestValidateService_VersionIncompatible(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "db", "1.5.0"),
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "db", VersionConstraint: ">=2.0.0"}),
	)

	var incompatible *VersionIncompatibleError
	_, err := validateService(all, all["p/auth"])
	require.ErrorAs(t, err, &incompatible)
	require.Equal(t, "p/auth", incompatible.Service)
	require.Equal(t, "p/db", incompatible.Dependency)
	require.Equal(t, ">=2.0.0", incompatible.Constraint)
	require.Equal(t, "1.5.0", incompatible.Actual)
}

func TestValidateService_UnparsableTargetVersionIsWarning(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "db", "not-semver"),
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "db", VersionConstraint: ">=1.0.0"}),
	)

	warnings, err := validateService(all, all["p/auth"])
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestValidateService_ConstraintSatisfiedAtBoundary(t *testing.T) {
	_, all := workingSetOf(
		entry("p", "db", "2.0.0"),
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "db", VersionConstraint: ">=1.0.0 <2.0.1"}),
	)

	_, err := validateService(all, all["p/auth"])
	require.NoError(t, err)
}

func TestCheckAcyclic(t *testing.T) {
	order, all := workingSetOf(
		entry("p", "db", "1.0.0"),
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "db"}),
	)

	require.NoError(t, checkAcyclic(order, all))
}

func TestCheckAcyclic_Cycle(t *testing.T) {
	order, all := workingSetOf(
		entry("p", "a", "1.0.0", catalog.Dependency{Service: "b"}),
		entry("p", "b", "1.0.0", catalog.Dependency{Service: "a"}),
	)

	var circular *CircularDependencyError
	err := checkAcyclic(order, all)
	require.ErrorAs(t, err, &circular)
	require.Len(t, circular.Cycles, 1)
	require.Equal(t, graph.Cycle{"p/a", "p/b"}, circular.Cycles[0])
}

func TestCheckAcyclic_OptionalEdgesCountToo(t *testing.T) {
	// A cycle through an optional declaration is still a cycle.
	order, all := workingSetOf(
		entry("p", "a", "1.0.0", catalog.Dependency{Service: "b", Optional: true}),
		entry("p", "b", "1.0.0", catalog.Dependency{Service: "a"}),
	)

	var circular *CircularDependencyError
	require.ErrorAs(t, checkAcyclic(order, all), &circular)
}

func TestValidateRemoval_Unreferenced(t *testing.T) {
	order, all := workingSetOf(
		entry("p", "db", "1.0.0"),
		entry("p", "auth", "1.0.0"),
	)

	require.NoError(t, validateRemoval("p/db", order, all))
}

func TestValidateRemoval_BlockedByRequiredDependent(t *testing.T) {
	order, all := workingSetOf(
		entry("p", "db", "1.0.0"),
		entry("p", "auth", "1.0.0", catalog.Dependency{Service: "db"}),
	)

	var blocked *RemovalBlockedError
	err := validateRemoval("p/db", order, all)
	require.ErrorAs(t, err, &blocked)
	require.Equal(t, "p/db", blocked.ID)
	require.Equal(t, []string{"p/auth"}, blocked.Dependents)
}

func TestValidateRemoval_OptionalDependentsAllowed(t *testing.T) {
	order, all := workingSetOf(
		entry("p", "db", "1.0.0"),
		entry("p", "metrics", "1.0.0", catalog.Dependency{Service: "db", Optional: true}),
	)

	require.NoError(t, validateRemoval("p/db", order, all))
}
