package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/registry"
)

// SnapshotModel represents the database row for the snapshots table.
// Times are Unix timestamps; the service entries ride along JSON encoded.
type SnapshotModel struct {
	ID           int64
	Generation   int64
	CreatedAt    int64 // Unix timestamp
	SourceCommit string
	TopologyHash string
	ServiceCount int
	Payload      string // JSON encoded []catalog.Service
}

// toSnapshotModel converts an archive record to a database SnapshotModel.
func toSnapshotModel(record registry.ArchiveRecord) (*SnapshotModel, error) {
	payload, err := json.Marshal(record.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot payload: %w", err)
	}
	return &SnapshotModel{
		Generation:   int64(record.Generation),
		CreatedAt:    record.CreatedAt.Unix(),
		SourceCommit: record.SourceCommit,
		TopologyHash: record.TopologyHash,
		ServiceCount: len(record.Services),
		Payload:      string(payload),
	}, nil
}

// toRecord converts a database SnapshotModel back to an archive record.
func (m *SnapshotModel) toRecord() (registry.ArchiveRecord, error) {
	var services []catalog.Service
	if err := json.Unmarshal([]byte(m.Payload), &services); err != nil {
		return registry.ArchiveRecord{}, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}
	return registry.ArchiveRecord{
		Generation:   uint64(m.Generation),
		CreatedAt:    time.Unix(m.CreatedAt, 0).UTC(),
		SourceCommit: m.SourceCommit,
		TopologyHash: m.TopologyHash,
		Services:     services,
	}, nil
}
