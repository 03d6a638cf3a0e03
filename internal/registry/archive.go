package registry

import (
	"context"
	"errors"
	"time"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
)

// ErrNoArchivedSnapshots is returned by SnapshotArchive.Latest when nothing
// has been archived yet.
var ErrNoArchivedSnapshots = errors.New("no archived snapshots")

// ArchiveRecord is the persisted form of a snapshot: enough to rebuild the
// catalog and its graph on cold start.
type ArchiveRecord struct {
	Generation   uint64
	CreatedAt    time.Time
	SourceCommit string
	TopologyHash string
	Services     []catalog.Service
}

// SnapshotArchive persists committed snapshots. The registry treats it as
// best-effort: an archive failure never blocks a commit.
type SnapshotArchive interface {
	Save(ctx context.Context, record ArchiveRecord) error
	// Latest returns the most recent archived record, or
	// ErrNoArchivedSnapshots.
	Latest(ctx context.Context) (ArchiveRecord, error)
	// Prune deletes all but the newest keep records.
	Prune(ctx context.Context, keep int) error
}

// toArchiveRecord converts a snapshot for persistence.
func toArchiveRecord(s *Snapshot) ArchiveRecord {
	return ArchiveRecord{
		Generation:   s.generation,
		CreatedAt:    s.createdAt,
		SourceCommit: s.sourceCommit,
		TopologyHash: s.hash,
		Services:     s.Services(),
	}
}

// fromArchiveRecord rebuilds a snapshot from a persisted record. The graph
// is reconstructed from the stored declarations; the recorded topology hash
// lets callers verify the rebuild.
func fromArchiveRecord(record ArchiveRecord) *Snapshot {
	services := make([]*catalog.Service, len(record.Services))
	for i := range record.Services {
		services[i] = &record.Services[i]
	}
	snap := buildSnapshot(record.Generation, record.SourceCommit, services)
	snap.createdAt = record.CreatedAt
	return snap
}
