package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DatasetVersion records a completed refresh of one source's roster.
type DatasetVersion struct {
	Source       string
	Version      int64
	Digest       string
	SubjectCount int
}

// NextVersion returns the next dataset version number for a source (the
// latest recorded version plus one, or 1 if the source has never been
// refreshed). dataset_version is an append-only log, so "latest" means the
// most recently inserted row for that source, not a unique row per source.
func (s *Store) NextVersion(ctx context.Context, source string) (int64, error) {
	var current sql.NullInt64
	err := s.conn.QueryRowContext(ctx,
		`SELECT version FROM dataset_version WHERE source = ? ORDER BY id DESC LIMIT 1`, source).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("read dataset version for %s: %w", source, err)
	}
	if !current.Valid {
		return 1, nil
	}
	return current.Int64 + 1, nil
}

// RecordDatasetVersion appends a row logging one completed refresh of a
// source's roster. Every refresh gets its own row rather than overwriting a
// per-source record, so the table is a full history, not just a latest
// snapshot. The digest is a non-cryptographic content hash (xxhash-family)
// used only to detect whether an upstream roster actually changed between
// refreshes, not for any integrity or security purpose.
func (s *Store) RecordDatasetVersion(ctx context.Context, dv DatasetVersion) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO dataset_version (id, source, version, digest, subject_count, refreshed_at)
		VALUES (nextval('dataset_version_id_seq'), ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		dv.Source, dv.Version, dv.Digest, dv.SubjectCount)
	if err != nil {
		return fmt.Errorf("record dataset version for %s: %w", dv.Source, err)
	}
	return nil
}

// LatestDigest returns the digest recorded for a source's most recent
// refresh, or "" if the source has never been refreshed — used by the
// orchestrator to skip re-indexing when an upstream roster hasn't actually
// changed.
func (s *Store) LatestDigest(ctx context.Context, source string) (string, error) {
	var digest string
	err := s.conn.QueryRowContext(ctx,
		`SELECT digest FROM dataset_version WHERE source = ? ORDER BY id DESC LIMIT 1`, source).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read digest for %s: %w", source, err)
	}
	return digest, nil
}
