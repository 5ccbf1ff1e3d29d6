package monitoring

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/models"
	"github.com/cursorworkshop/aegistry/internal/screening"
)

// Screener is the subset of *screening.Screener Rescreen depends on, kept as
// an interface so rescreen tests run against a fake query path.
type Screener interface {
	Screen(ctx context.Context, req models.ScreenRequest, limit int, policy screening.Policy) (models.ScreenResult, error)
}

// PolicyProvider resolves a tenant's risk policy (weights/thresholds) for
// re-screening. cmd/server passes the Risk Policy Store (C11); without one,
// DefaultPolicyProvider always returns screening.DefaultPolicy().
type PolicyProvider interface {
	PolicyFor(ctx context.Context, tenantID string) (screening.Policy, error)
}

// DefaultPolicyProvider is the PolicyProvider NewRescreen uses when given nil.
type DefaultPolicyProvider struct{}

// PolicyFor implements PolicyProvider.
func (DefaultPolicyProvider) PolicyFor(context.Context, string) (screening.Policy, error) {
	return screening.DefaultPolicy(), nil
}

// rescreenFanout bounds how many hits the query path returns per subject;
// the Monitoring Engine only needs enough to detect a meaningful hit-set
// change, not the full result page an interactive API caller might request.
const rescreenFanout = 20

// SubjectStore is the subset of *Store Rescreen depends on, kept as an
// interface so rescreen tests run against an in-memory fake instead of a
// live DuckDB file — the same seam orchestrator.SubjectStore establishes
// for C8.
type SubjectStore interface {
	GetAllActive(ctx context.Context) ([]Subject, error)
	RecordResult(ctx context.Context, subjectID int64, resultHash string, hitCount int, highestScore float64, hasChanges bool, hitsJSON []byte) error
}

// Rescreen drives C7's re-screening pass, implementing orchestrator.Rescreener.
type Rescreen struct {
	store    SubjectStore
	screener Screener
	policies PolicyProvider
	waker    Waker
}

// NewRescreen builds a Rescreen over a monitoring Store and a Screener.
// policies may be nil, in which case DefaultPolicyProvider is used.
func NewRescreen(store SubjectStore, screener Screener, policies PolicyProvider) *Rescreen {
	if policies == nil {
		policies = DefaultPolicyProvider{}
	}
	return &Rescreen{store: store, screener: screener, policies: policies}
}

// WithWaker attaches a Waker that RescreenAll nudges after every re-screen
// pass that does not fail for all subjects, so the Dispatcher delivers any
// resulting callbacks without waiting out the rest of its poll interval. The
// Dispatcher itself satisfies Waker for same-process wiring; a NATS-backed
// gateway (nats_waker.go, behind the "nats" build tag) satisfies it across
// processes when the orchestrator and dispatcher run as separate services.
func (r *Rescreen) WithWaker(w Waker) *Rescreen {
	r.waker = w
	return r
}

// RescreenAll runs the full query path for every active monitored subject,
// per §4.7: compute the new result hash, flag whether it changed, append a
// result row, and advance the subject's last_screened_at/last_result_hash.
// A subject whose screen fails is logged and skipped rather than aborting
// the remaining subjects, mirroring the Orchestrator's own per-source
// failure handling (C8).
func (r *Rescreen) RescreenAll(ctx context.Context) error {
	subjects, err := r.store.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("list active monitored subjects: %w", err)
	}

	var failures int
	for _, subj := range subjects {
		if err := r.rescreenOne(ctx, subj); err != nil {
			logging.Warn().Err(err).Str("tenant", subj.TenantID).Str("reference_id", subj.ReferenceID).
				Msg("re-screen failed, continuing with remaining subjects")
			failures++
		}
	}

	if failures > 0 && failures == len(subjects) {
		return fmt.Errorf("re-screening failed for all %d monitored subjects", len(subjects))
	}
	if r.waker != nil {
		r.waker.Wake()
	}
	return nil
}

func (r *Rescreen) rescreenOne(ctx context.Context, subj Subject) error {
	policy, err := r.policies.PolicyFor(ctx, subj.TenantID)
	if err != nil {
		return fmt.Errorf("resolve risk policy: %w", err)
	}

	result, err := r.screener.Screen(ctx, models.ScreenRequest{
		ReferenceID: subj.ReferenceID,
		Name:        subj.Name,
		Country:     subj.Country,
		DOBYear:     subj.DOBYear,
	}, rescreenFanout, policy)
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	newHash := computeResultHash(result.Hits)
	hasChanges := newHash != subj.LastResultHash

	var highest float64
	for _, h := range result.Hits {
		if h.Score > highest {
			highest = h.Score
		}
	}

	hitsJSON, err := json.Marshal(result.Hits)
	if err != nil {
		return fmt.Errorf("marshal hits for callback payload: %w", err)
	}

	if err := r.store.RecordResult(ctx, subj.ID, newHash, len(result.Hits), highest, hasChanges, hitsJSON); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}
