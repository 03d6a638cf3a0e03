package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/domain/graph"
	"github.com/spiralhouse/aureacore/internal/log"
)

// Snapshot is an immutable, generation-numbered view of the whole catalog:
// every service entry plus the dependency graph built from their
// declarations. Readers hold a snapshot and query it without locking; the
// registry publishes a new snapshot atomically on every committed change.
type Snapshot struct {
	generation   uint64
	createdAt    time.Time
	sourceCommit string
	ids          []string
	entries      map[string]catalog.Service
	g            *graph.Graph // all dependency edges
	hard         *graph.Graph // required (non-optional) edges only
	hash         string
}

// buildSnapshot assembles a snapshot from validated entries in the given
// order. Edges whose target is absent are skipped; the caller has already
// recorded that condition on the owning service's status.
func buildSnapshot(generation uint64, sourceCommit string, services []*catalog.Service) *Snapshot {
	s := &Snapshot{
		generation:   generation,
		createdAt:    time.Now().UTC(),
		sourceCommit: sourceCommit,
		entries:      make(map[string]catalog.Service, len(services)),
		g:            graph.New(),
		hard:         graph.New(),
	}

	for _, svc := range services {
		id := svc.ID()
		if _, dup := s.entries[id]; dup {
			log.Warn(log.CatRegistry, "duplicate service id in snapshot build", "id", id)
			continue
		}
		s.ids = append(s.ids, id)
		s.entries[id] = *svc
		s.g.AddNode(id)
		s.hard.AddNode(id)
	}

	for _, id := range s.ids {
		entry := s.entries[id]
		for _, dep := range entry.Config.Dependencies {
			target := dep.Ref(entry.Namespace)
			if !s.g.HasNode(target) {
				continue
			}
			if err := s.g.AddEdge(id, target); err != nil {
				log.Warn(log.CatRegistry, "skipping invalid dependency edge",
					"from", id, "to", target, "error", err.Error())
				continue
			}
			if !dep.Optional {
				// Mirror into the hard graph; same endpoints, cannot fail.
				_ = s.hard.AddEdge(id, target)
			}
		}
	}

	s.hash = topologyHash(s.g)
	return s
}

// topologyHash fingerprints the graph's node and edge sets, independent of
// insertion order. Two snapshots with the same hash have identical
// topologies.
func topologyHash(g *graph.Graph) string {
	ids := g.NodeIDs()
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		deps := g.Neighbors(id)
		sort.Strings(deps)
		h.Write([]byte(id))
		h.Write([]byte{'>'})
		h.Write([]byte(strings.Join(deps, ",")))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Generation returns the snapshot's monotonically increasing number.
func (s *Snapshot) Generation() uint64 { return s.generation }

// CreatedAt returns when the snapshot was built.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// SourceCommit returns the source repository commit this snapshot was built
// from, empty when the catalog was mutated directly.
func (s *Snapshot) SourceCommit() string { return s.sourceCommit }

// TopologyHash returns a fingerprint of the dependency topology.
func (s *Snapshot) TopologyHash() string { return s.hash }

// Len returns the number of services.
func (s *Snapshot) Len() int { return len(s.ids) }

// IDs returns every service id in insertion order.
func (s *Snapshot) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Service returns the entry for id.
func (s *Snapshot) Service(id string) (catalog.Service, error) {
	entry, ok := s.entries[id]
	if !ok {
		return catalog.Service{}, &NotFoundError{ID: id}
	}
	return entry, nil
}

// Services returns every entry in insertion order.
func (s *Snapshot) Services() []catalog.Service {
	out := make([]catalog.Service, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.entries[id])
	}
	return out
}

// Dependencies returns the ids the given service directly depends on.
func (s *Snapshot) Dependencies(id string) ([]string, error) {
	if _, ok := s.entries[id]; !ok {
		return nil, &NotFoundError{ID: id}
	}
	return s.g.Neighbors(id), nil
}

// Dependents returns the ids directly depending on the given service.
func (s *Snapshot) Dependents(id string) ([]string, error) {
	if _, ok := s.entries[id]; !ok {
		return nil, &NotFoundError{ID: id}
	}
	return s.g.ReverseNeighbors(id), nil
}

// DetectCycles reports the dependency cycles present in the snapshot. Empty
// for a healthy catalog.
func (s *Snapshot) DetectCycles() []graph.Cycle {
	return s.g.DetectCycles()
}

// ResolveOrder computes a dependencies-first operational order for the seeds
// and everything they transitively depend on.
func (s *Snapshot) ResolveOrder(seedIDs ...string) ([]string, error) {
	for _, seed := range seedIDs {
		if _, ok := s.entries[seed]; !ok {
			return nil, &NotFoundError{ID: seed}
		}
	}
	return s.g.ResolveOrder(seedIDs...)
}

// SubgraphIDs returns the ids of the seeds and their transitive
// dependencies, in catalog order.
func (s *Snapshot) SubgraphIDs(seedIDs ...string) ([]string, error) {
	for _, seed := range seedIDs {
		if _, ok := s.entries[seed]; !ok {
			return nil, &NotFoundError{ID: seed}
		}
	}
	sub, err := s.g.Subgraph(seedIDs...)
	if err != nil {
		return nil, err
	}
	return sub.NodeIDs(), nil
}

// Impact returns every service that transitively depends on id, with a
// shortest witness path each. A member is critical when all of its routes to
// id are required; members kept alive by optional declarations are reported
// but not critical.
func (s *Snapshot) Impact(id string) ([]graph.Impact, error) {
	if _, ok := s.entries[id]; !ok {
		return nil, &NotFoundError{ID: id}
	}
	return s.g.AnalyzeImpactDetailed(id, s.hard)
}
