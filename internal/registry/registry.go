package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/spiralhouse/aureacore/internal/cachemanager"
	"github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/git"
	"github.com/spiralhouse/aureacore/internal/log"
	"github.com/spiralhouse/aureacore/internal/pubsub"
	"github.com/spiralhouse/aureacore/internal/source"
)

// DefaultSnapshotTTL is how long a snapshot counts as fresh before readers
// see it flagged stale.
const DefaultSnapshotTTL = 5 * time.Minute

// Options configures a Registry.
type Options struct {
	// SnapshotTTL controls staleness reporting; zero means
	// DefaultSnapshotTTL.
	SnapshotTTL time.Duration
	// Tracer instruments mutations and sync runs; nil means no-op.
	Tracer trace.Tracer
	// Archive persists committed snapshots for cold start; nil disables
	// archiving.
	Archive SnapshotArchive
	// Loader reads catalog documents from the source checkout; required for
	// SyncFromSource.
	Loader *source.Loader
	// Git synchronizes the source checkout before loading; nil skips the
	// pull and reads the checkout as-is.
	Git git.Executor
	// RootPath is the root document's path inside the checkout; empty means
	// source.RootConfigPath.
	RootPath string
	// ArchiveKeep bounds how many archived snapshots are retained.
	ArchiveKeep int
}

// Registry owns the service catalog. All mutations go through it; reads are
// served from an immutable snapshot and never block behind a writer.
type Registry struct {
	mu        sync.Mutex // serializes mutations and snapshot commits
	snapshots *cachemanager.SnapshotCache[*Snapshot]
	events    *pubsub.Broker[uint64]
	tracer    trace.Tracer
	archive   SnapshotArchive
	loader    *source.Loader
	gitExec   git.Executor
	rootPath  string
	keep      int
	degraded  atomic.Bool
}

// New creates a registry with an empty initial snapshot at generation 1.
func New(opts Options) *Registry {
	ttl := opts.SnapshotTTL
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("registry")
	}
	rootPath := opts.RootPath
	if rootPath == "" {
		rootPath = source.RootConfigPath
	}
	keep := opts.ArchiveKeep
	if keep <= 0 {
		keep = 10
	}

	events := pubsub.NewBroker[uint64]()
	r := &Registry{
		snapshots: cachemanager.NewSnapshotCache[*Snapshot](ttl, events),
		events:    events,
		tracer:    tracer,
		archive:   opts.Archive,
		loader:    opts.Loader,
		gitExec:   opts.Git,
		rootPath:  rootPath,
		keep:      keep,
	}

	if err := r.snapshots.Commit(buildSnapshot(1, "", nil)); err != nil {
		// Unreachable on a fresh cache.
		log.ErrorErr(log.CatRegistry, "initial snapshot commit failed", err)
	}
	return r
}

// Close drops the cached snapshots and releases the event broker. Readers
// that arrive later get an empty view; subscribers see the invalidation
// before their channels close.
func (r *Registry) Close() {
	r.snapshots.Invalidate()
	r.events.Close()
}

// Subscribe delivers the generation number of every committed snapshot and
// cache invalidation until ctx is done.
func (r *Registry) Subscribe(ctx context.Context) <-chan pubsub.Event[uint64] {
	return r.events.Subscribe(ctx)
}

// Snapshot returns the current catalog view with its observed staleness.
// Staleness is advisory; the snapshot is always served. A closed registry
// serves an empty view.
func (r *Registry) Snapshot() (*Snapshot, cachemanager.Staleness) {
	snap, staleness, ok := r.snapshots.Current()
	if !ok {
		return buildSnapshot(0, "", nil), staleness
	}
	return snap, staleness
}

// Degraded reports whether the last sync could not reach the source of
// truth. Queries keep working against the last good snapshot.
func (r *Registry) Degraded() bool {
	return r.degraded.Load()
}

// Get returns the entry for id from the current snapshot.
func (r *Registry) Get(id string) (catalog.Service, error) {
	snap, _ := r.Snapshot()
	return snap.Service(id)
}

// List returns every entry in catalog order.
func (r *Registry) List() []catalog.Service {
	snap, _ := r.Snapshot()
	return snap.Services()
}

// Register adds a new service. Fails with ErrRegistryBusy when another
// mutation is in flight, and atomically: on any validation error the
// published snapshot is unchanged.
func (r *Registry) Register(ctx context.Context, namespace string, cfg catalog.ServiceConfig) error {
	if !r.mu.TryLock() {
		return ErrRegistryBusy
	}
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "registry.register", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	id := catalog.QualifiedName(namespace, cfg.Name)
	span.SetAttributes(attribute.String("service.id", id))

	order, all := r.workingSet()
	if _, exists := all[id]; exists {
		return r.fail(span, ErrServiceExists)
	}

	docWarnings, err := cfg.Validate()
	if err != nil {
		return r.fail(span, err)
	}

	svc := catalog.NewService(cfg.Name, namespace, cfg)
	all[id] = svc
	order = append(order, id)

	warnings, err := validateService(all, svc)
	if err != nil {
		return r.fail(span, err)
	}
	if err := checkAcyclic(order, all); err != nil {
		return r.fail(span, err)
	}

	svc.Status = svc.Status.WithState(catalog.StateConfigured).
		WithWarnings(append(docWarnings, warnings...))

	r.commitLocked(ctx, order, all, "")
	log.Info(log.CatRegistry, "service registered", "id", id, "version", cfg.Version)
	return nil
}

// Update replaces an existing service's configuration, atomically.
func (r *Registry) Update(ctx context.Context, id string, cfg catalog.ServiceConfig) error {
	if !r.mu.TryLock() {
		return ErrRegistryBusy
	}
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "registry.update", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("service.id", id))

	order, all := r.workingSet()
	existing, ok := all[id]
	if !ok {
		return r.fail(span, &NotFoundError{ID: id})
	}

	docWarnings, err := cfg.Validate()
	if err != nil {
		return r.fail(span, err)
	}

	updated := *existing
	updated.UpdateConfig(cfg)
	all[id] = &updated

	warnings, err := validateService(all, &updated)
	if err != nil {
		return r.fail(span, err)
	}
	if err := checkAcyclic(order, all); err != nil {
		return r.fail(span, err)
	}

	updated.Status = updated.Status.WithState(catalog.StateConfigured).
		WithWarnings(append(docWarnings, warnings...))

	r.commitLocked(ctx, order, all, "")
	log.Info(log.CatRegistry, "service updated", "id", id, "version", cfg.Version)
	return nil
}

// Remove deletes a service. Blocked while other services still require it;
// dependents reaching it only optionally survive degraded.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if !r.mu.TryLock() {
		return ErrRegistryBusy
	}
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "registry.remove", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("service.id", id))

	order, all := r.workingSet()
	if _, ok := all[id]; !ok {
		return r.fail(span, &NotFoundError{ID: id})
	}
	if err := validateRemoval(id, order, all); err != nil {
		return r.fail(span, err)
	}

	delete(all, id)
	kept := order[:0]
	for _, existing := range order {
		if existing != id {
			kept = append(kept, existing)
		}
	}

	r.commitLocked(ctx, kept, all, "")
	log.Info(log.CatRegistry, "service removed", "id", id)
	return nil
}

// Rollback republishes the snapshot the current one replaced, as a new
// generation. It undoes the latest mutation or sync; pinned readers keep
// the view they hold either way.
func (r *Registry) Rollback(ctx context.Context) error {
	if !r.mu.TryLock() {
		return ErrRegistryBusy
	}
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "registry.rollback", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	prev, ok := r.snapshots.Previous()
	if !ok {
		return r.fail(span, ErrNoPreviousSnapshot)
	}

	order := prev.IDs()
	all := make(map[string]*catalog.Service, len(order))
	for _, id := range order {
		entry, _ := prev.Service(id)
		all[id] = &entry
	}

	r.commitLocked(ctx, order, all, prev.SourceCommit())
	log.Info(log.CatRegistry, "rolled back",
		"restored", prev.Generation(), "generation", r.snapshots.Generation())
	return nil
}

// SyncFromSource refreshes the whole catalog from the source of truth.
// Failures are isolated per service: a broken document marks that service
// errored and the sync continues. Only a graph-level cycle rejects the sync
// wholesale, keeping the previous snapshot live. A sync that loses the race
// against a concurrent newer commit discards its work with ErrSuperseded.
func (r *Registry) SyncFromSource(ctx context.Context) (*catalog.ValidationSummary, error) {
	if r.loader == nil {
		return nil, ErrSourceUnavailable
	}

	runID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, "registry.sync", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("sync.run_id", runID))

	startGen := r.snapshots.Generation()
	log.Info(log.CatSync, "sync started", "run_id", runID, "from_generation", startGen)

	sourceCommit, err := r.refreshCheckout(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	root, err := r.loader.LoadRoot(r.rootPath)
	if err != nil {
		log.ErrorErr(log.CatSync, "root document unreadable", err, "run_id", runID)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	summary := catalog.NewValidationSummary()
	order, all := r.loadServices(root)

	// Structural and version phases, lenient: failures mark the service and
	// the sync continues.
	for _, id := range order {
		svc := all[id]
		if svc.Status.State == catalog.StateError {
			summary.RecordFailure(id, svc.Status.Warnings)
			continue
		}
		warnings, err := validateService(all, svc)
		if err != nil {
			svc.Status = svc.Status.WithError(err.Error()).WithWarnings(warnings)
			summary.RecordFailure(id, warnings)
			log.Warn(log.CatSync, "service failed validation", "run_id", runID, "id", id, "error", err.Error())
			continue
		}
		svc.Status = svc.Status.WithState(catalog.StateConfigured).
			WithWarnings(append(svc.Status.Warnings, warnings...))
		summary.RecordSuccess(id, svc.Status.Warnings)
	}

	// A cycle poisons the whole topology; reject the sync and keep serving
	// the previous snapshot.
	if err := checkAcyclic(order, all); err != nil {
		log.ErrorErr(log.CatSync, "sync rejected", err, "run_id", runID)
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current := r.snapshots.Generation(); current != startGen {
		log.Warn(log.CatSync, "sync superseded", "run_id", runID,
			"started_at_generation", startGen, "current_generation", current)
		span.SetStatus(codes.Error, ErrSuperseded.Error())
		return summary, ErrSuperseded
	}

	r.commitLocked(ctx, order, all, sourceCommit)
	span.SetAttributes(
		attribute.Int("sync.services", summary.Total()),
		attribute.Int("sync.failed", len(summary.Failed)),
	)
	log.Info(log.CatSync, "sync committed", "run_id", runID,
		"generation", r.snapshots.Generation(),
		"services", summary.Total(), "failed", len(summary.Failed))
	return summary, nil
}

// RestoreFromArchive loads the newest archived snapshot, used on cold start
// before the first sync.
func (r *Registry) RestoreFromArchive(ctx context.Context) error {
	if r.archive == nil {
		return ErrNoArchivedSnapshots
	}
	record, err := r.archive.Latest(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := fromArchiveRecord(record)
	if snap.TopologyHash() != record.TopologyHash {
		log.Warn(log.CatArchive, "restored topology hash mismatch",
			"generation", record.Generation,
			"recorded", record.TopologyHash, "rebuilt", snap.TopologyHash())
	}
	if err := r.snapshots.Commit(snap); err != nil {
		return err
	}
	log.Info(log.CatArchive, "snapshot restored", "generation", record.Generation)
	return nil
}

// refreshCheckout pulls the source repository. An unreachable remote flips
// the degraded flag and the sync continues against the local checkout; it
// only fails when there is no usable checkout at all.
func (r *Registry) refreshCheckout(ctx context.Context) (string, error) {
	if r.gitExec == nil {
		return "", nil
	}
	if !r.gitExec.IsGitRepo() {
		// Plain directory source; nothing to pull.
		return "", nil
	}

	if err := r.gitExec.Pull(ctx); err != nil {
		if errors.Is(err, git.ErrRemoteUnavailable) {
			r.degraded.Store(true)
			log.Warn(log.CatGit, "remote unavailable, serving local checkout", "error", err.Error())
		} else {
			return "", err
		}
	} else {
		r.degraded.Store(false)
	}

	info, err := r.gitExec.CurrentCommit()
	if err != nil {
		log.Warn(log.CatGit, "could not resolve source commit", "error", err.Error())
		return "", nil
	}
	return info.Hash, nil
}

// loadServices reads each referenced document, isolating per-service
// failures: a missing or unparsable document yields an errored placeholder
// entry rather than failing the sync.
func (r *Registry) loadServices(root *source.RootConfig) ([]string, map[string]*catalog.Service) {
	order := make([]string, 0, len(root.Services))
	all := make(map[string]*catalog.Service, len(root.Services))

	for _, ref := range root.Services {
		ns := ref.Namespace
		if ns == "" {
			ns = root.Global.DefaultNamespace
		}
		id := catalog.QualifiedName(ns, ref.Name)

		cfg, err := r.loader.LoadServiceConfig(ref, root.Global)
		if err != nil {
			svc := catalog.NewService(ref.Name, ns, catalog.ServiceConfig{Name: ref.Name})
			svc.Status = svc.Status.WithError(err.Error())
			order = append(order, id)
			all[id] = svc
			log.Warn(log.CatSource, "service document unreadable", "id", id, "error", err.Error())
			continue
		}

		svc := catalog.NewService(ref.Name, ns, cfg)
		if warnings, err := cfg.Validate(); err != nil {
			svc.Status = svc.Status.WithError(err.Error()).WithWarnings(warnings)
		} else {
			svc.Status = svc.Status.WithWarnings(warnings)
		}
		order = append(order, id)
		all[id] = svc
	}

	return order, all
}

// workingSet copies the current snapshot's entries into a mutable set.
func (r *Registry) workingSet() ([]string, map[string]*catalog.Service) {
	snap, _ := r.Snapshot()
	order := snap.IDs()
	all := make(map[string]*catalog.Service, len(order))
	for _, id := range order {
		entry, _ := snap.Service(id)
		all[id] = &entry
	}
	return order, all
}

// commitLocked builds and publishes the next snapshot. Callers hold mu.
func (r *Registry) commitLocked(ctx context.Context, order []string, all map[string]*catalog.Service, sourceCommit string) {
	services := make([]*catalog.Service, 0, len(order))
	for _, id := range order {
		services = append(services, all[id])
	}

	snap := buildSnapshot(r.snapshots.Generation()+1, sourceCommit, services)
	if err := r.snapshots.Commit(snap); err != nil {
		// Monotonic by construction under mu; surface if it ever trips.
		log.ErrorErr(log.CatRegistry, "snapshot commit rejected", err, "generation", snap.Generation())
		return
	}

	if r.archive != nil {
		if err := r.archive.Save(ctx, toArchiveRecord(snap)); err != nil {
			log.ErrorErr(log.CatArchive, "archive save failed", err, "generation", snap.Generation())
		} else if err := r.archive.Prune(ctx, r.keep); err != nil {
			log.ErrorErr(log.CatArchive, "archive prune failed", err)
		}
	}
}

// fail records the error on the span and returns it.
func (r *Registry) fail(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	return err
}
