package cachemanager

import (
	"errors"
	"sync"
	"time"

	"github.com/spiralhouse/aureacore/internal/log"
	"github.com/spiralhouse/aureacore/internal/pubsub"
)

// ErrStaleGeneration is returned when a commit carries a generation at or
// below the one already cached; the caller lost a concurrent race and must
// discard its snapshot.
var ErrStaleGeneration = errors.New("snapshot generation superseded")

// Entry is what the snapshot cache holds: an immutable, generation-numbered
// view.
type Entry interface {
	Generation() uint64
	CreatedAt() time.Time
}

// Staleness describes how fresh a cached entry is. Staleness never makes a
// read fail; it is reported so callers can decide whether to trigger a
// refresh.
type Staleness struct {
	Age   time.Duration
	Stale bool
}

// SnapshotCache holds the current and previous generation of an immutable
// entry with a freshness TTL. Commits are monotonic by generation; readers
// always get the newest committed entry plus its observed staleness.
type SnapshotCache[S Entry] struct {
	mu       sync.RWMutex
	ttl      time.Duration
	current  S
	previous S
	hasCur   bool
	hasPrev  bool
	events   *pubsub.Broker[uint64]
}

// NewSnapshotCache returns a cache whose entries count as stale after ttl.
func NewSnapshotCache[S Entry](ttl time.Duration, events *pubsub.Broker[uint64]) *SnapshotCache[S] {
	return &SnapshotCache[S]{ttl: ttl, events: events}
}

// Commit atomically replaces the current entry, demoting it to previous.
// Fails with ErrStaleGeneration when entry does not advance the generation.
func (c *SnapshotCache[S]) Commit(entry S) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasCur && entry.Generation() <= c.current.Generation() {
		log.Warn(log.CatCache, "rejected stale snapshot commit",
			"generation", entry.Generation(), "current", c.current.Generation())
		return ErrStaleGeneration
	}

	if c.hasCur {
		c.previous = c.current
		c.hasPrev = true
	}
	c.current = entry
	c.hasCur = true

	if c.events != nil {
		c.events.Publish(pubsub.PublishedEvent, entry.Generation())
	}
	log.Debug(log.CatCache, "snapshot committed", "generation", entry.Generation())
	return nil
}

// Current returns the newest committed entry and its staleness.
func (c *SnapshotCache[S]) Current() (S, Staleness, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero S
	if !c.hasCur {
		return zero, Staleness{}, false
	}
	age := time.Since(c.current.CreatedAt())
	return c.current, Staleness{Age: age, Stale: age > c.ttl}, true
}

// Previous returns the entry the current one replaced.
func (c *SnapshotCache[S]) Previous() (S, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero S
	if !c.hasPrev {
		return zero, false
	}
	return c.previous, true
}

// Generation returns the current entry's generation, zero when empty.
func (c *SnapshotCache[S]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasCur {
		return 0
	}
	return c.current.Generation()
}

// Invalidate drops both entries. The next read misses, forcing callers back
// to the source.
func (c *SnapshotCache[S]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero S
	gen := uint64(0)
	if c.hasCur {
		gen = c.current.Generation()
	}
	c.current, c.previous = zero, zero
	c.hasCur, c.hasPrev = false, false

	if c.events != nil {
		c.events.Publish(pubsub.InvalidatedEvent, gen)
	}
	log.Debug(log.CatCache, "snapshot cache invalidated", "generation", gen)
}
