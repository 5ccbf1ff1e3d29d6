package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/matching"
	"github.com/cursorworkshop/aegistry/internal/screening"
)

// RiskPolicyGet handles GET /api/v1/risk-policy: return the authenticated
// tenant's current scoring weights and decision thresholds.
func (h *Handler) RiskPolicyGet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	policy := h.resolvePolicy(r, tctx.TenantID)
	rw.Success(policy)
}

// RiskPolicySet handles PUT /api/v1/risk-policy: override the authenticated
// tenant's scoring weights and decision thresholds. Restricted to
// tenant_admin by RequireTenantAdminMiddleware.
func (h *Handler) RiskPolicySet(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	var body RiskPolicyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if message, details := validateRequest(&body); message != "" {
		rw.ValidationError(message, details)
		return
	}
	if body.ReviewThreshold > body.HitThreshold {
		rw.BadRequest("review_threshold must not exceed hit_threshold")
		return
	}

	policy := screening.Policy{
		Weights: matching.Weights{
			Name:    body.NameWeight,
			Country: body.CountryWeight,
			DOB:     body.DOBWeight,
		},
		Thresholds: matching.Thresholds{
			Hit:    body.HitThreshold,
			Review: body.ReviewThreshold,
		},
	}

	if err := h.risk.SetPolicy(r.Context(), tctx.TenantID, policy); err != nil {
		rw.InternalError("failed to save risk policy")
		return
	}

	h.auditLog.LogRiskPolicyChanged(r.Context(), auditActor(tctx), body.HitThreshold, body.ReviewThreshold)
	rw.Success(policy)
}
