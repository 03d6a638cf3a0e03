package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/spiralhouse/aureacore/internal/cachemanager"
	domaincat "github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/domain/graph"
	"github.com/spiralhouse/aureacore/internal/registry"
)

// impactCacheTTL bounds how long a cached impact analysis lives. The cache
// key includes the snapshot generation, so this only matters for memory.
const impactCacheTTL = 10 * time.Minute

// Meta describes the snapshot a query answer was computed from. Stale and
// Degraded are advisory; the answer is always served.
type Meta struct {
	Generation   uint64
	SourceCommit string
	Age          time.Duration
	Stale        bool
	Degraded     bool
}

// Health summarizes the catalog's condition for operators.
type Health struct {
	Meta
	Services int
	Errored  []string
	Warnings int
}

// impactQuery carries the inputs for one impact analysis through the
// read-through cache.
type impactQuery struct {
	snap *registry.Snapshot
	id   string
}

// CatalogService is the query and mutation facade over the registry.
type CatalogService struct {
	reg     *registry.Registry
	impacts *cachemanager.ReadThroughCache[string, []graph.Impact, impactQuery]
}

// NewCatalogService creates the facade over reg.
func NewCatalogService(reg *registry.Registry) *CatalogService {
	impactCache := cachemanager.NewInMemoryCacheManager[string, []graph.Impact](
		"impact-analysis", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)

	return &CatalogService{
		reg: reg,
		impacts: cachemanager.NewReadThroughCache[string, []graph.Impact, impactQuery](
			cachemanager.CacheManager[string, []graph.Impact](impactCache),
			func(ctx context.Context, q impactQuery) ([]graph.Impact, error) {
				return q.snap.Impact(q.id)
			},
			false,
		),
	}
}

// snapshot returns the current view with its metadata stamp.
func (s *CatalogService) snapshot() (*registry.Snapshot, Meta) {
	snap, staleness := s.reg.Snapshot()
	return snap, Meta{
		Generation:   snap.Generation(),
		SourceCommit: snap.SourceCommit(),
		Age:          staleness.Age,
		Stale:        staleness.Stale,
		Degraded:     s.reg.Degraded(),
	}
}

// List returns every catalog entry in registration order.
func (s *CatalogService) List(ctx context.Context) ([]domaincat.Service, Meta) {
	snap, meta := s.snapshot()
	return snap.Services(), meta
}

// Get returns one entry by qualified name.
func (s *CatalogService) Get(ctx context.Context, id string) (domaincat.Service, Meta, error) {
	snap, meta := s.snapshot()
	svc, err := snap.Service(id)
	return svc, meta, err
}

// Dependencies returns the services id declares, in declaration order.
func (s *CatalogService) Dependencies(ctx context.Context, id string) ([]string, Meta, error) {
	snap, meta := s.snapshot()
	deps, err := snap.Dependencies(id)
	return deps, meta, err
}

// Dependents returns the services that declare id.
func (s *CatalogService) Dependents(ctx context.Context, id string) ([]string, Meta, error) {
	snap, meta := s.snapshot()
	deps, err := snap.Dependents(id)
	return deps, meta, err
}

// ResolveOrder returns a startup order. With seeds it covers only those
// services and their transitive dependencies; without, the whole catalog.
func (s *CatalogService) ResolveOrder(ctx context.Context, seedIDs ...string) ([]string, Meta, error) {
	snap, meta := s.snapshot()
	order, err := snap.ResolveOrder(seedIDs...)
	return order, meta, err
}

// Subgraph returns the seeds plus everything they transitively depend on.
func (s *CatalogService) Subgraph(ctx context.Context, seedIDs ...string) ([]string, Meta, error) {
	snap, meta := s.snapshot()
	ids, err := snap.SubgraphIDs(seedIDs...)
	return ids, meta, err
}

// Cycles reports every dependency cycle in the current snapshot.
func (s *CatalogService) Cycles(ctx context.Context) ([]graph.Cycle, Meta) {
	snap, meta := s.snapshot()
	return snap.DetectCycles(), meta
}

// Impact reports every service that would be affected if id failed, with a
// shortest witness path each. Results are cached per snapshot generation.
func (s *CatalogService) Impact(ctx context.Context, id string) ([]graph.Impact, Meta, error) {
	snap, meta := s.snapshot()
	key := fmt.Sprintf("%d/%s", snap.Generation(), id)
	impacts, err := s.impacts.Get(ctx, key, impactQuery{snap: snap, id: id}, impactCacheTTL)
	return impacts, meta, err
}

// Health reports the catalog's overall condition.
func (s *CatalogService) Health(ctx context.Context) Health {
	snap, meta := s.snapshot()

	health := Health{Meta: meta, Services: snap.Len()}
	for _, svc := range snap.Services() {
		if svc.Status.State == domaincat.StateError {
			health.Errored = append(health.Errored, svc.ID())
		}
		health.Warnings += len(svc.Status.Warnings)
	}
	return health
}

// Register adds a new service to the catalog.
func (s *CatalogService) Register(ctx context.Context, namespace string, cfg domaincat.ServiceConfig) error {
	return s.reg.Register(ctx, namespace, cfg)
}

// Update replaces an existing service's configuration.
func (s *CatalogService) Update(ctx context.Context, id string, cfg domaincat.ServiceConfig) error {
	return s.reg.Update(ctx, id, cfg)
}

// Remove deletes a service from the catalog.
func (s *CatalogService) Remove(ctx context.Context, id string) error {
	return s.reg.Remove(ctx, id)
}

// Rollback republishes the previous snapshot as a new generation, undoing
// the latest mutation or sync.
func (s *CatalogService) Rollback(ctx context.Context) error {
	return s.reg.Rollback(ctx)
}

// Sync refreshes the catalog from the source of truth.
func (s *CatalogService) Sync(ctx context.Context) (*domaincat.ValidationSummary, error) {
	return s.reg.SyncFromSource(ctx)
}

// Restore loads the newest archived snapshot, for cold start before the
// first sync.
func (s *CatalogService) Restore(ctx context.Context) error {
	return s.reg.RestoreFromArchive(ctx)
}
