package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/models"
	"github.com/cursorworkshop/aegistry/internal/normalize"
)

// Upsert inserts or updates subjects for a source, stamping each row with
// the given dataset version. Grounded on the original implementation's
// upsert_subjects: look up by id, branch to UPDATE or INSERT, then
// unconditionally replace the subject's aliases (DELETE then re-INSERT OR
// IGNORE) rather than diffing them.
//
// Transactional scope is per subject, not per batch: a subject row and its
// alias replacement commit (or roll back) as one unit, but a failure on one
// subject is logged and skipped rather than discarding every subject already
// upserted earlier in the batch.
func (s *Store) Upsert(ctx context.Context, subjects []models.Subject, version int64) (inserted, updated int, err error) {
	for _, subj := range subjects {
		ins, upd, err := s.upsertOne(ctx, subj, version)
		if err != nil {
			logging.Warn().Err(err).Str("subject_id", subj.ID()).Str("source", subj.Source).
				Msg("subject upsert failed, continuing with remaining subjects")
			continue
		}
		inserted += ins
		updated += upd
	}
	return inserted, updated, nil
}

// upsertOne upserts a single subject and its aliases inside its own
// transaction.
func (s *Store) upsertOne(ctx context.Context, subj models.Subject, version int64) (inserted, updated int, err error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	id := subj.ID()
	normalizedName := normalize.Name(subj.PrimaryName)

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM subject WHERE id = ?`, id).Scan(&exists)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `
			UPDATE subject SET
				primary_name = ?, normalized_name = ?, date_of_birth = ?, date_of_birth_year = ?,
				country = ?, source_is_fallback = ?, dataset_version = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			subj.PrimaryName, normalizedName, subj.DateOfBirth, nullInt(subj.DateOfBirthYear),
			subj.Country, subj.SourceIsFallback, version, id)
		if err != nil {
			return 0, 0, fmt.Errorf("update subject %s: %w", id, err)
		}
		updated++
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO subject (
				id, source, source_ref, kind, primary_name, normalized_name,
				date_of_birth, date_of_birth_year, country,
				source_is_fallback, dataset_version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, subj.Source, subj.SourceRef, string(subj.Kind), subj.PrimaryName, normalizedName,
			subj.DateOfBirth, nullInt(subj.DateOfBirthYear), subj.Country,
			subj.SourceIsFallback, version)
		if err != nil {
			return 0, 0, fmt.Errorf("insert subject %s: %w", id, err)
		}
		inserted++
	default:
		return 0, 0, fmt.Errorf("check subject %s exists: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM subject_alias WHERE subject_id = ?`, id); err != nil {
		return 0, 0, fmt.Errorf("clear aliases for %s: %w", id, err)
	}
	for _, alias := range subj.Aliases {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO subject_alias (subject_id, name, alias_type) VALUES (?, ?, ?)`,
			id, alias.Name, alias.AliasType); err != nil {
			return 0, 0, fmt.Errorf("insert alias for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit upsert tx for %s: %w", id, err)
	}
	return inserted, updated, nil
}

// Tombstone deletes subjects for a source whose dataset_version is older
// than the given version — i.e. subjects that existed before this refresh
// but weren't touched by it, meaning the upstream roster dropped them.
func (s *Store) Tombstone(ctx context.Context, source string, version int64) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM subject WHERE source = ? AND dataset_version < ?`, source, version)
	if err != nil {
		return 0, fmt.Errorf("tombstone stale subjects for %s: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count tombstoned rows: %w", err)
	}
	return n, nil
}

// Get fetches a subject by id along with its aliases.
func (s *Store) Get(ctx context.Context, id string) (models.Subject, bool, error) {
	var subj models.Subject
	var dobYear sql.NullInt64
	row := s.conn.QueryRowContext(ctx, `
		SELECT source, source_ref, kind, primary_name, date_of_birth,
		       date_of_birth_year, country, source_is_fallback
		FROM subject WHERE id = ?`, id)
	var kind string
	if err := row.Scan(&subj.Source, &subj.SourceRef, &kind, &subj.PrimaryName,
		&subj.DateOfBirth, &dobYear, &subj.Country, &subj.SourceIsFallback); err != nil {
		if err == sql.ErrNoRows {
			return models.Subject{}, false, nil
		}
		return models.Subject{}, false, fmt.Errorf("get subject %s: %w", id, err)
	}
	subj.Kind = models.Kind(kind)
	if dobYear.Valid {
		subj.DateOfBirthYear = int(dobYear.Int64)
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT name, alias_type FROM subject_alias WHERE subject_id = ?`, id)
	if err != nil {
		return models.Subject{}, false, fmt.Errorf("get aliases for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Alias
		if err := rows.Scan(&a.Name, &a.AliasType); err != nil {
			return models.Subject{}, false, fmt.Errorf("scan alias for %s: %w", id, err)
		}
		subj.Aliases = append(subj.Aliases, a)
	}
	return subj, true, rows.Err()
}

// CountBySource returns the number of subjects currently stored for a source.
func (s *Store) CountBySource(ctx context.Context, source string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM subject WHERE source = ?`, source).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count subjects for %s: %w", source, err)
	}
	return n, nil
}

func nullInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
