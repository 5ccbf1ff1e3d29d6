package monitoring

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists monitored subjects and their re-screen history in the same
// DuckDB file the Subject Store (C3) owns, following the teacher's
// one-database-many-tables convention (internal/store.Store.Conn() is
// shared across C3/C7/C9/C11/C12 rather than each opening its own file).
type Store struct {
	conn *sql.DB
}

// Open wraps an existing DuckDB connection and ensures the monitoring
// tables exist.
func Open(conn *sql.DB) (*Store, error) {
	s := &Store{conn: conn}
	if err := s.createTables(context.Background()); err != nil {
		return nil, fmt.Errorf("create monitoring schema: %w", err)
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	for _, q := range []string{
		`CREATE TABLE IF NOT EXISTS monitored_subject (
			id BIGINT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			reference_id TEXT NOT NULL,
			name TEXT NOT NULL,
			country TEXT,
			dob_year INTEGER,
			callback_url TEXT,
			secret TEXT NOT NULL,
			last_screened_at TIMESTAMPTZ,
			last_result_hash TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (tenant_id, reference_id)
		);`,
		`CREATE SEQUENCE IF NOT EXISTS monitored_subject_id_seq;`,
		`CREATE INDEX IF NOT EXISTS idx_monitored_subject_tenant ON monitored_subject(tenant_id, active);`,

		`CREATE TABLE IF NOT EXISTS monitoring_result (
			id BIGINT PRIMARY KEY,
			subject_id BIGINT NOT NULL,
			screened_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			result_hash TEXT NOT NULL,
			hit_count INTEGER NOT NULL,
			highest_score DOUBLE NOT NULL,
			has_changes BOOLEAN NOT NULL,
			notified BOOLEAN NOT NULL DEFAULT false,
			hits_json BLOB
		);`,
		`CREATE SEQUENCE IF NOT EXISTS monitoring_result_id_seq;`,
		`CREATE INDEX IF NOT EXISTS idx_monitoring_result_subject ON monitoring_result(subject_id, screened_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_monitoring_result_pending ON monitoring_result(has_changes, notified);`,
	} {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// AddSubject inserts or reactivates a tenant's watch on reference_id,
// generating a fresh signing secret the first time it's added. Mirrors the
// original's add_monitored_subject "INSERT OR REPLACE" semantics.
func (s *Store) AddSubject(ctx context.Context, subj Subject) (int64, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id FROM monitored_subject WHERE tenant_id = ? AND reference_id = ?`,
		subj.TenantID, subj.ReferenceID)
	var existingID int64
	err := row.Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		secret := subj.Secret
		if secret == "" {
			secret, err = generateSecret()
			if err != nil {
				return 0, fmt.Errorf("generate subscription secret: %w", err)
			}
		}
		var id int64
		if scanErr := s.conn.QueryRowContext(ctx,
			`INSERT INTO monitored_subject
				(id, tenant_id, reference_id, name, country, dob_year, callback_url, secret, active)
			 VALUES (nextval('monitored_subject_id_seq'), ?, ?, ?, ?, ?, ?, ?, true)
			 RETURNING id`,
			subj.TenantID, subj.ReferenceID, subj.Name, nullString(subj.Country), nullInt(subj.DOBYear),
			nullString(subj.CallbackURL), secret,
		).Scan(&id); scanErr != nil {
			return 0, fmt.Errorf("add monitored subject: %w", scanErr)
		}
		return id, nil
	case err != nil:
		return 0, fmt.Errorf("lookup monitored subject: %w", err)
	default:
		_, execErr := s.conn.ExecContext(ctx,
			`UPDATE monitored_subject SET name = ?, country = ?, dob_year = ?, callback_url = ?, active = true
			 WHERE id = ?`,
			subj.Name, nullString(subj.Country), nullInt(subj.DOBYear), nullString(subj.CallbackURL), existingID)
		if execErr != nil {
			return 0, fmt.Errorf("reactivate monitored subject: %w", execErr)
		}
		return existingID, nil
	}
}

// RemoveSubject soft-deletes a tenant's watch (active = false), matching
// the original's remove_monitored_subject. Returns false if nothing matched.
func (s *Store) RemoveSubject(ctx context.Context, tenantID, referenceID string) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE monitored_subject SET active = false WHERE tenant_id = ? AND reference_id = ?`,
		tenantID, referenceID)
	if err != nil {
		return false, fmt.Errorf("remove monitored subject: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove monitored subject: %w", err)
	}
	return n > 0, nil
}

// GetSubjects returns a tenant's active monitored subjects.
func (s *Store) GetSubjects(ctx context.Context, tenantID string) ([]Subject, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, tenant_id, reference_id, name, country, dob_year, callback_url, secret,
		        last_screened_at, last_result_hash, active, created_at
		 FROM monitored_subject WHERE tenant_id = ? AND active = true`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query monitored subjects: %w", err)
	}
	defer rows.Close()
	return scanSubjects(rows)
}

// GetAllActive returns every active monitored subject across all tenants,
// ordered by least-recently-screened first — used by RescreenAll so a
// subject that never completes a cycle (e.g. a transient screening error)
// doesn't permanently starve behind subjects screened more recently.
func (s *Store) GetAllActive(ctx context.Context) ([]Subject, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, tenant_id, reference_id, name, country, dob_year, callback_url, secret,
		        last_screened_at, last_result_hash, active, created_at
		 FROM monitored_subject WHERE active = true ORDER BY last_screened_at ASC NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("query active monitored subjects: %w", err)
	}
	defer rows.Close()
	return scanSubjects(rows)
}

func scanSubjects(rows *sql.Rows) ([]Subject, error) {
	var out []Subject
	for rows.Next() {
		var subj Subject
		var country, callbackURL, lastHash sql.NullString
		var dobYear sql.NullInt64
		var lastScreenedAt sql.NullTime
		if err := rows.Scan(&subj.ID, &subj.TenantID, &subj.ReferenceID, &subj.Name, &country, &dobYear,
			&callbackURL, &subj.Secret, &lastScreenedAt, &lastHash, &subj.Active, &subj.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan monitored subject: %w", err)
		}
		subj.Country = country.String
		subj.DOBYear = int(dobYear.Int64)
		subj.CallbackURL = callbackURL.String
		subj.LastResultHash = lastHash.String
		if lastScreenedAt.Valid {
			subj.LastScreenedAt = lastScreenedAt.Time
		}
		out = append(out, subj)
	}
	return out, rows.Err()
}

// RecordResult appends a re-screen outcome and updates the subject's
// last_screened_at/last_result_hash, matching the original's
// record_monitoring_result (insert the result row, then update the parent).
func (s *Store) RecordResult(ctx context.Context, subjectID int64, resultHash string, hitCount int, highestScore float64, hasChanges bool, hitsJSON []byte) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record result tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO monitoring_result
			(id, subject_id, result_hash, hit_count, highest_score, has_changes, hits_json)
		 VALUES (nextval('monitoring_result_id_seq'), ?, ?, ?, ?, ?, ?)`,
		subjectID, resultHash, hitCount, highestScore, hasChanges, hitsJSON); err != nil {
		return fmt.Errorf("insert monitoring result: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE monitored_subject SET last_screened_at = CURRENT_TIMESTAMP, last_result_hash = ? WHERE id = ?`,
		resultHash, subjectID); err != nil {
		return fmt.Errorf("update monitored subject screen state: %w", err)
	}

	return tx.Commit()
}

// pendingNotification bundles a result row with the subject it belongs to,
// matching get_pending_notifications's joined tuple.
type pendingNotification struct {
	Result  Result
	Subject Subject
}

// GetPendingNotifications returns every result with changes not yet
// dispatched, for subjects that have a callback URL configured.
func (s *Store) GetPendingNotifications(ctx context.Context) ([]pendingNotification, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT r.id, r.subject_id, r.screened_at, r.result_hash, r.hit_count, r.highest_score,
		       r.has_changes, r.notified, r.hits_json,
		       s.tenant_id, s.reference_id, s.name, s.callback_url, s.secret
		FROM monitoring_result r
		JOIN monitored_subject s ON s.id = r.subject_id
		WHERE r.has_changes = true AND r.notified = false AND s.callback_url IS NOT NULL AND s.callback_url != ''
		ORDER BY r.screened_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending notifications: %w", err)
	}
	defer rows.Close()

	var out []pendingNotification
	for rows.Next() {
		var p pendingNotification
		if err := rows.Scan(&p.Result.ID, &p.Result.SubjectID, &p.Result.ScreenedAt, &p.Result.ResultHash,
			&p.Result.HitCount, &p.Result.HighestScore, &p.Result.HasChanges, &p.Result.Notified, &p.Result.HitsJSON,
			&p.Subject.TenantID, &p.Subject.ReferenceID, &p.Subject.Name, &p.Subject.CallbackURL, &p.Subject.Secret); err != nil {
			return nil, fmt.Errorf("scan pending notification: %w", err)
		}
		p.Subject.ID = p.Result.SubjectID
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkNotified flips a result row to notified, matching mark_notified.
func (s *Store) MarkNotified(ctx context.Context, resultID int64) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE monitoring_result SET notified = true WHERE id = ?`, resultID)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
