package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spiralhouse/aureacore/internal/registry"
)

// snapshotColumns is the list of columns to select for snapshot queries.
const snapshotColumns = `id, generation, created_at, source_commit, topology_hash, service_count, payload`

// snapshotRepository implements registry.SnapshotArchive using SQLite.
type snapshotRepository struct {
	db *sql.DB
}

// newSnapshotRepository creates a new snapshotRepository instance.
func newSnapshotRepository(db *sql.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

// Ensure snapshotRepository implements registry.SnapshotArchive.
var _ registry.SnapshotArchive = (*snapshotRepository)(nil)

// scanSnapshot scans a row into a SnapshotModel.
func scanSnapshot(scanner interface{ Scan(...any) error }) (*SnapshotModel, error) {
	var model SnapshotModel
	err := scanner.Scan(
		&model.ID, &model.Generation, &model.CreatedAt, &model.SourceCommit,
		&model.TopologyHash, &model.ServiceCount, &model.Payload,
	)
	return &model, err
}

// Save persists an archive record. Re-archiving a generation replaces the
// stored row, so a crash between save and prune cannot wedge the archive.
func (r *snapshotRepository) Save(ctx context.Context, record registry.ArchiveRecord) error {
	model, err := toSnapshotModel(record)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO snapshots (generation, created_at, source_commit, topology_hash, service_count, payload)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(generation) DO UPDATE SET
			created_at = excluded.created_at,
			source_commit = excluded.source_commit,
			topology_hash = excluded.topology_hash,
			service_count = excluded.service_count,
			payload = excluded.payload`,
		model.Generation, model.CreatedAt, model.SourceCommit,
		model.TopologyHash, model.ServiceCount, model.Payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest returns the archived record with the highest generation.
// Returns registry.ErrNoArchivedSnapshots when the table is empty.
func (r *snapshotRepository) Latest(ctx context.Context) (registry.ArchiveRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots ORDER BY generation DESC LIMIT 1`)
	model, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.ArchiveRecord{}, registry.ErrNoArchivedSnapshots
	}
	if err != nil {
		return registry.ArchiveRecord{}, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return model.toRecord()
}

// Prune deletes all but the newest keep snapshots.
func (r *snapshotRepository) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE generation NOT IN (
			SELECT generation FROM snapshots ORDER BY generation DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
