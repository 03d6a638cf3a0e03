// Package catalog implements the application layer for the service catalog.
//
// This package serves as a facade that bridges the domain layer to callers
// such as the CLI:
//   - Answers queries (lookups, dependency walks, startup order, impact
//     analysis) from the registry's current snapshot
//   - Stamps every answer with the snapshot metadata it was computed from
//   - Caches impact analyses per snapshot generation
//   - Forwards mutations and source syncs to the registry
//
// # Architecture
//
// The application layer depends on:
//   - Domain layer (internal/domain/catalog, internal/domain/graph): pure
//     types and graph algorithms
//   - Registry (internal/registry): snapshot lifecycle and validation
//   - Cache manager (internal/cachemanager): read-through impact cache
//
// # Query Metadata
//
// Every query answer carries a Meta describing the snapshot it came from:
// generation, source commit, age, staleness, and whether the registry is
// degraded. Answers from a stale or degraded snapshot are still served;
// callers decide what to do with the advisory.
//
// # Impact Caching
//
// Impact analysis walks the reverse dependency graph and computes witness
// paths, so results are cached keyed by generation and service id. A new
// snapshot generation changes the key and misses naturally; no explicit
// invalidation is needed.
//
// # Import Aliasing
//
// Note: This package has the same name as the domain catalog package. When
// importing both, use aliasing to disambiguate:
//
//	import (
//	    domaincat "github.com/spiralhouse/aureacore/internal/domain/catalog"
//	    appcat "github.com/spiralhouse/aureacore/internal/application/catalog"
//	)
package catalog
