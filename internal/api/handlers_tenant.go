package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/cursorworkshop/aegistry/internal/audit"
	"github.com/cursorworkshop/aegistry/internal/tenant"
)

// TenantSelf handles GET /api/v1/tenants/self: return the calling tenant's
// own record.
func (h *Handler) TenantSelf(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	t, err := h.tenants.Get(r.Context(), tctx.TenantID)
	if err != nil {
		rw.NotFound("tenant not found")
		return
	}
	rw.Success(t)
}

// TenantCreate handles POST /api/v1/tenants: provision a new tenant and
// return its API key. Restricted to tenant_admin by
// RequireTenantAdminMiddleware — v1 has no separate operator role, so any
// existing tenant_admin can onboard further tenants.
func (h *Handler) TenantCreate(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	var body CreateTenantRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if message, details := validateRequest(&body); message != "" {
		rw.ValidationError(message, details)
		return
	}

	hitThreshold := body.HitThreshold
	if hitThreshold == 0 {
		hitThreshold = 0.90
	}
	reviewThreshold := body.ReviewThreshold
	if reviewThreshold == 0 {
		reviewThreshold = 0.75
	}
	rateLimit := body.RateLimitPerMinute
	if rateLimit == 0 {
		rateLimit = 300
	}

	newTenant := tenant.Tenant{
		ID:                 uuid.NewString(),
		Name:               body.Name,
		Active:             true,
		HitThreshold:       hitThreshold,
		ReviewThreshold:    reviewThreshold,
		RateLimitPerMinute: rateLimit,
	}

	apiKey, err := tenant.GenerateAPIKey()
	if err != nil {
		rw.InternalError("failed to generate api key")
		return
	}
	if err := h.tenants.Add(r.Context(), newTenant, apiKey); err != nil {
		rw.InternalError("failed to create tenant")
		return
	}
	if h.enforcer != nil {
		if err := h.enforcer.AddGroupingPolicy(newTenant.ID, "tenant_admin"); err != nil {
			rw.InternalError("failed to grant tenant_admin role")
			return
		}
	}

	h.auditLog.LogAdminAction(r.Context(), auditActor(tctx), audit.Source{IPAddress: r.RemoteAddr}, "tenant_created", "created tenant "+newTenant.ID, nil)

	rw.Created(struct {
		tenant.Tenant
		APIKey string `json:"api_key"`
	}{Tenant: newTenant, APIKey: apiKey})
}
