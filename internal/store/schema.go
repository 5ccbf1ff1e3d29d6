package store

import (
	"context"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the subject store's core tables. As with the teacher,
// every column lives in the initial CREATE TABLE; there is no prior release
// to preserve compatibility with, so there is nothing to consolidate from.
func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range tableCreationQueries {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS subject (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_ref TEXT NOT NULL,
		kind TEXT NOT NULL,
		primary_name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		date_of_birth TEXT,
		date_of_birth_year INTEGER,
		country TEXT,
		source_is_fallback BOOLEAN NOT NULL DEFAULT false,
		dataset_version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE INDEX IF NOT EXISTS idx_subject_source ON subject(source);`,
	`CREATE INDEX IF NOT EXISTS idx_subject_dataset_version ON subject(source, dataset_version);`,
	`CREATE INDEX IF NOT EXISTS idx_subject_normalized_name ON subject(normalized_name);`,

	`CREATE TABLE IF NOT EXISTS subject_alias (
		subject_id TEXT NOT NULL,
		name TEXT NOT NULL,
		alias_type TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (subject_id, name, alias_type)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_subject_alias_subject_id ON subject_alias(subject_id);`,

	`CREATE TABLE IF NOT EXISTS dataset_version (
		id BIGINT PRIMARY KEY,
		source TEXT NOT NULL,
		version BIGINT NOT NULL,
		digest TEXT NOT NULL,
		subject_count INTEGER NOT NULL,
		refreshed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE SEQUENCE IF NOT EXISTS dataset_version_id_seq;`,
	`CREATE INDEX IF NOT EXISTS idx_dataset_version_source ON dataset_version(source, id DESC);`,
}
