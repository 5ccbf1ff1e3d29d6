// Package monitoring implements the Monitoring Engine (C7): subscription
// storage for subjects a tenant wants watched, scheduled re-screening keyed
// off the Ingest Orchestrator's refresh cycle, and at-least-once callback
// dispatch when a watched subject's hit set changes.
//
// Grounded on original_source/crates/ingest/src/monitoring.rs (the
// monitored_subject/monitoring_result schema and CRUD functions) and
// original_source/crates/screening-api/src/webhooks.rs (subscription secret
// generation and callback delivery) — merged into one table family per
// §4.7, which folds the original's separate WebhookSubscription concept
// into the monitored subject itself: one callback URL (and one generated
// signing secret) per monitored subject, rather than a many-events-per-URL
// subscription model nothing in this spec's API surface needs.
package monitoring

import "time"

// Subject is a watchlist subscription: a tenant's reference_id/name/country/
// dob_year to re-screen on every ingest refresh, plus where to call back
// when the hit set changes.
type Subject struct {
	ID              int64
	TenantID        string
	ReferenceID     string
	Name            string
	Country         string
	DOBYear         int
	CallbackURL     string
	Secret          string
	LastScreenedAt  time.Time
	LastResultHash  string
	Active          bool
	CreatedAt       time.Time
}

// Result is one re-screen outcome for a Subject.
type Result struct {
	ID           int64
	SubjectID    int64
	ScreenedAt   time.Time
	ResultHash   string
	HitCount     int
	HighestScore float64
	HasChanges   bool
	Notified     bool
	HitsJSON     []byte // serialized []models.Hit at screen time, for callback payloads
}
