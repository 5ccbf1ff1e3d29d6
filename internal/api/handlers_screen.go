package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/models"
)

// Screen handles POST /api/v1/screen: run one synchronous screen against
// the watchlist roster and return ranked hits.
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	var body ScreenRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if message, details := validateRequest(&body); message != "" {
		rw.ValidationError(message, details)
		return
	}
	if body.Name == "" && body.FirstName == "" && body.LastName == "" {
		rw.BadRequest("one of name, or first_name/last_name, is required")
		return
	}

	req := models.ScreenRequest{
		ReferenceID: body.ReferenceID,
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		Name:        body.Name,
		Country:     body.Country,
		DOBYear:     body.DOBYear,
	}

	policy := h.resolvePolicy(r, tctx.TenantID)
	result, err := h.screener.Screen(r.Context(), req, body.Limit, policy)
	if err != nil {
		rw.InternalError("screening failed")
		return
	}

	highest := highestRiskLevel(result.Hits)
	h.auditLog.LogScreenPerformed(r.Context(), auditActor(tctx), body.ReferenceID, len(result.Hits), string(highest))

	rw.Success(result)
}

// highestRiskLevel returns the most severe risk level across hits, or "None"
// if there are no hits. Hits are already sorted by score descending.
func highestRiskLevel(hits []models.Hit) models.RiskLevel {
	if len(hits) == 0 {
		return models.RiskNone
	}
	best := models.RiskNone
	for _, hit := range hits {
		if rankOf(hit.RiskLevel) > rankOf(best) {
			best = hit.RiskLevel
		}
	}
	return best
}

func rankOf(level models.RiskLevel) int {
	switch level {
	case models.RiskHit:
		return 2
	case models.RiskReview:
		return 1
	default:
		return 0
	}
}
