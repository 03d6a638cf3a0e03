package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domaincat "github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/registry"
)

func config(name, version string, deps ...domaincat.Dependency) domaincat.ServiceConfig {
	return domaincat.ServiceConfig{
		Name:         name,
		Version:      version,
		ServiceType:  domaincat.TypeRest,
		Dependencies: deps,
	}
}

// newTestService builds a facade over a registry seeded with a small chain:
// billing -> auth -> db, metrics -> db (optional).
func newTestService(t *testing.T) *CatalogService {
	t.Helper()
	reg := registry.New(registry.Options{})
	t.Cleanup(reg.Close)
	ctx := context.Background()

	require.NoError(t, reg.Register(ctx, "platform", config("db", "2.0.0")))
	require.NoError(t, reg.Register(ctx, "platform", config("auth", "1.0.0",
		domaincat.Dependency{Service: "db", VersionConstraint: ">=2.0.0"})))
	require.NoError(t, reg.Register(ctx, "platform", config("billing", "1.1.0",
		domaincat.Dependency{Service: "auth"})))
	require.NoError(t, reg.Register(ctx, "platform", config("metrics", "0.9.0",
		domaincat.Dependency{Service: "db", Optional: true})))

	return NewCatalogService(reg)
}

func TestCatalogService_List(t *testing.T) {
	svc := newTestService(t)

	services, meta := svc.List(context.Background())
	require.Len(t, services, 4)
	require.Equal(t, "platform/db", services[0].ID())
	require.Equal(t, uint64(5), meta.Generation)
	require.False(t, meta.Stale)
	require.False(t, meta.Degraded)
}

func TestCatalogService_Get(t *testing.T) {
	svc := newTestService(t)

	entry, meta, err := svc.Get(context.Background(), "platform/auth")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", entry.Config.Version)
	require.Equal(t, uint64(5), meta.Generation)

	var notFound *registry.NotFoundError
	_, _, err = svc.Get(context.Background(), "platform/ghost")
	require.ErrorAs(t, err, &notFound)
}

func TestCatalogService_DependenciesAndDependents(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	deps, _, err := svc.Dependencies(ctx, "platform/auth")
	require.NoError(t, err)
	require.Equal(t, []string{"platform/db"}, deps)

	dependents, _, err := svc.Dependents(ctx, "platform/db")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"platform/auth", "platform/metrics"}, dependents)
}

func TestCatalogService_ResolveOrder(t *testing.T) {
	svc := newTestService(t)

	order, _, err := svc.ResolveOrder(context.Background(), "platform/billing")
	require.NoError(t, err)
	require.Equal(t, []string{"platform/db", "platform/auth", "platform/billing"}, order)
}

func TestCatalogService_Subgraph(t *testing.T) {
	svc := newTestService(t)

	ids, _, err := svc.Subgraph(context.Background(), "platform/auth")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"platform/auth", "platform/db"}, ids)
}

func TestCatalogService_Cycles(t *testing.T) {
	svc := newTestService(t)

	cycles, meta := svc.Cycles(context.Background())
	require.Empty(t, cycles)
	require.Equal(t, uint64(5), meta.Generation)
}

func TestCatalogService_Impact(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	impacts, _, err := svc.Impact(ctx, "platform/db")
	require.NoError(t, err)
	require.Len(t, impacts, 3)

	byService := make(map[string]bool, len(impacts))
	for _, impact := range impacts {
		byService[impact.Service] = impact.Critical
	}
	require.True(t, byService["platform/auth"])
	require.True(t, byService["platform/billing"])
	// metrics only reaches db through an optional declaration.
	require.False(t, byService["platform/metrics"])
}

func TestCatalogService_Impact_CacheFollowsGeneration(t *testing.T) {
	reg := registry.New(registry.Options{})
	defer reg.Close()
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, "p", config("db", "1.0.0")))
	require.NoError(t, reg.Register(ctx, "p", config("auth", "1.0.0",
		domaincat.Dependency{Service: "db"})))

	svc := NewCatalogService(reg)

	impacts, _, err := svc.Impact(ctx, "p/db")
	require.NoError(t, err)
	require.Len(t, impacts, 1)

	// Same generation: answered again, from cache.
	impacts, _, err = svc.Impact(ctx, "p/db")
	require.NoError(t, err)
	require.Len(t, impacts, 1)

	// A new generation changes the cache key, so the answer reflects the
	// new dependent without explicit invalidation.
	require.NoError(t, reg.Register(ctx, "p", config("billing", "1.0.0",
		domaincat.Dependency{Service: "db"})))

	impacts, meta, err := svc.Impact(ctx, "p/db")
	require.NoError(t, err)
	require.Len(t, impacts, 2)
	require.Equal(t, uint64(4), meta.Generation)
}

func TestCatalogService_Health(t *testing.T) {
	svc := newTestService(t)

	health := svc.Health(context.Background())
	require.Equal(t, 4, health.Services)
	require.Empty(t, health.Errored)
	require.False(t, health.Degraded)
	require.Equal(t, uint64(5), health.Generation)
}

func TestCatalogService_Mutations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "platform", config("search", "1.0.0",
		domaincat.Dependency{Service: "db"})))

	entry, _, err := svc.Get(ctx, "platform/search")
	require.NoError(t, err)
	require.Equal(t, domaincat.StateConfigured, entry.Status.State)

	require.NoError(t, svc.Update(ctx, "platform/search", config("search", "1.1.0",
		domaincat.Dependency{Service: "db"})))
	entry, _, err = svc.Get(ctx, "platform/search")
	require.NoError(t, err)
	require.Equal(t, "1.1.0", entry.Config.Version)

	require.NoError(t, svc.Remove(ctx, "platform/search"))
	_, _, err = svc.Get(ctx, "platform/search")
	require.Error(t, err)
}

func TestCatalogService_Sync_NoSource(t *testing.T) {
	reg := registry.New(registry.Options{})
	defer reg.Close()
	svc := NewCatalogService(reg)

	_, err := svc.Sync(context.Background())
	require.ErrorIs(t, err, registry.ErrSourceUnavailable)
}
