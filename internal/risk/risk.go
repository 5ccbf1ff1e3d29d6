// Package risk implements the Risk Policy Store (C11): a tenant-tunable
// override of the scoring weights and risk-banding thresholds C6 otherwise
// defaults, so a tenant may decide for itself, say, that a 0.85 match is
// already a Hit rather than accepting the system default of 0.95.
//
// Grounded on original_source/crates/screening-api/src/risk.rs's RiskConfig
// and RiskStore::get_config's get-or-default semantics, carried over onto
// the same DuckDB file the Subject Store (C3) and Monitoring Engine (C7)
// already share, following this repo's one-database-many-tables convention.
package risk

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cursorworkshop/aegistry/internal/matching"
	"github.com/cursorworkshop/aegistry/internal/screening"
)

// Store persists per-tenant risk policy overrides.
type Store struct {
	conn *sql.DB
}

// Open wraps an existing DuckDB connection and ensures the risk_config
// table exists.
func Open(conn *sql.DB) (*Store, error) {
	s := &Store{conn: conn}
	if err := s.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("create risk config schema: %w", err)
	}
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS risk_config (
		tenant_id TEXT PRIMARY KEY,
		hit_threshold DOUBLE NOT NULL,
		review_threshold DOUBLE NOT NULL,
		name_weight DOUBLE NOT NULL,
		dob_weight DOUBLE NOT NULL,
		country_weight DOUBLE NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	if err != nil {
		return err
	}
	return nil
}

// PolicyFor implements monitoring.PolicyProvider and batch.PolicyProvider:
// a tenant with no stored override gets the system default, matching
// get_config's "Err(QueryReturnedNoRows) => Ok(RiskConfig::default())" path
// rather than erroring a tenant out of screening before it has ever called
// the override endpoint.
func (s *Store) PolicyFor(ctx context.Context, tenantID string) (screening.Policy, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT hit_threshold, review_threshold, name_weight, dob_weight, country_weight
		FROM risk_config WHERE tenant_id = ?`, tenantID)

	var hit, review, name, dob, country float64
	err := row.Scan(&hit, &review, &name, &dob, &country)
	if err == sql.ErrNoRows {
		return screening.DefaultPolicy(), nil
	}
	if err != nil {
		return screening.Policy{}, fmt.Errorf("query risk config for tenant %s: %w", tenantID, err)
	}

	return screening.Policy{
		Weights:    matching.Weights{Name: name, Country: country, DOB: dob},
		Thresholds: matching.Thresholds{Hit: hit, Review: review},
	}, nil
}

// SetPolicy upserts a tenant's risk policy override.
func (s *Store) SetPolicy(ctx context.Context, tenantID string, policy screening.Policy) error {
	_, err := s.conn.ExecContext(ctx, `INSERT INTO risk_config
		(tenant_id, hit_threshold, review_threshold, name_weight, dob_weight, country_weight, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id) DO UPDATE SET
			hit_threshold = EXCLUDED.hit_threshold,
			review_threshold = EXCLUDED.review_threshold,
			name_weight = EXCLUDED.name_weight,
			dob_weight = EXCLUDED.dob_weight,
			country_weight = EXCLUDED.country_weight,
			updated_at = CURRENT_TIMESTAMP`,
		tenantID, policy.Thresholds.Hit, policy.Thresholds.Review,
		policy.Weights.Name, policy.Weights.DOB, policy.Weights.Country)
	if err != nil {
		return fmt.Errorf("upsert risk config for tenant %s: %w", tenantID, err)
	}
	return nil
}
