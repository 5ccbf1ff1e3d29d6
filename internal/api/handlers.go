package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/cursorworkshop/aegistry/internal/audit"
	"github.com/cursorworkshop/aegistry/internal/authz"
	"github.com/cursorworkshop/aegistry/internal/batch"
	"github.com/cursorworkshop/aegistry/internal/logging"
	"github.com/cursorworkshop/aegistry/internal/monitoring"
	"github.com/cursorworkshop/aegistry/internal/risk"
	"github.com/cursorworkshop/aegistry/internal/screening"
	"github.com/cursorworkshop/aegistry/internal/tenant"
)

// Handler contains the dependencies shared by every screening-API endpoint.
//
// Handler methods are split across one file per resource:
//   - handlers_health.go: liveness/readiness
//   - handlers_screen.go: POST /screen
//   - handlers_monitor.go: monitoring subscription CRUD
//   - handlers_batch.go: batch submission and polling
//   - handlers_tenant.go: tenant administration
//   - handlers_risk.go: risk policy overrides
//   - handlers_audit.go: audit trail queries
type Handler struct {
	screener  *screening.Screener
	monitors  *monitoring.Store
	tenants   *tenant.Store
	risk      *risk.Store
	batches   *batch.Runner
	auditLog  *audit.Logger
	enforcer  *authz.Enforcer
	startTime time.Time
}

// NewHandler wires together every resource dependency the API surface needs.
// enforcer may be nil; tenant-admin routes then deny all writes (fail closed).
func NewHandler(screener *screening.Screener, monitors *monitoring.Store, tenants *tenant.Store, riskStore *risk.Store, batches *batch.Runner, auditLog *audit.Logger, enforcer *authz.Enforcer) *Handler {
	return &Handler{
		screener:  screener,
		monitors:  monitors,
		tenants:   tenants,
		risk:      riskStore,
		batches:   batches,
		auditLog:  auditLog,
		enforcer:  enforcer,
		startTime: time.Now(),
	}
}

// resolvePolicy looks up a tenant's risk policy override, falling back to
// the system default when the tenant has none (risk.Store.PolicyFor already
// implements this fallback; resolvePolicy exists so handlers have one call
// site to log the lookup failure consistently).
func (h *Handler) resolvePolicy(r *http.Request, tenantID string) screening.Policy {
	policy, err := h.risk.PolicyFor(r.Context(), tenantID)
	if err != nil {
		logging.Warn().Err(err).Str("tenant_id", tenantID).Msg("risk policy lookup failed, using system default")
		return screening.DefaultPolicy()
	}
	return policy
}

// auditActor builds the audit.Actor for the currently authenticated tenant.
func auditActor(tctx *TenantContext) audit.Actor {
	return audit.Actor{ID: tctx.TenantID, Type: "tenant", Name: tctx.TenantName}
}

// Authenticate resolves the caller's tenant from its API key and stores a
// TenantContext on the request. Accepts the key as "Authorization: Bearer
// <key>" or "X-API-Key: <key>".
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			RespondAuthError(w, r, ErrNotAuthenticated)
			return
		}

		t, err := h.tenants.GetByKey(r.Context(), key)
		if err != nil {
			RespondAuthError(w, r, ErrNotAuthenticated)
			return
		}
		if !t.Active {
			RespondAuthError(w, r, &AuthError{Code: "TENANT_INACTIVE", Message: ErrTenantInactive.Error(), StatusCode: http.StatusForbidden})
			return
		}

		tctx := &TenantContext{
			TenantID:   t.ID,
			TenantName: t.Name,
			RequestID:  r.Header.Get("X-Request-ID"),
			authorized: true,
			enforcer:   h.enforcer,
		}
		next.ServeHTTP(w, r.WithContext(withTenantContext(r.Context(), tctx)))
	})
}

// bearerToken extracts the API key from Authorization or X-API-Key headers.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
