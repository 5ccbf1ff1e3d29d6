package api

import (
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/screening"
)

func TestRiskPolicyGetReturnsSystemDefaultWhenUnset(t *testing.T) {
	th := setupTestHandler(t, nil)

	r := th.authedRequest("GET", "/api/v1/risk-policy", nil)
	w := httptest.NewRecorder()
	th.h.RiskPolicyGet(w, r)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var policy screening.Policy
	if err := json.Unmarshal(env.Data, &policy); err != nil {
		t.Fatalf("failed to decode policy: %v", err)
	}
	if policy != screening.DefaultPolicy() {
		t.Fatalf("expected default policy, got %+v", policy)
	}
}

func TestRiskPolicySetThenGetRoundTrips(t *testing.T) {
	th := setupTestHandler(t, nil)

	setReq := th.authedRequest("PUT", "/api/v1/risk-policy", map[string]any{
		"hit_threshold":    0.85,
		"review_threshold": 0.60,
		"name_weight":      0.7,
		"dob_weight":       0.2,
		"country_weight":   0.1,
	})
	setW := httptest.NewRecorder()
	th.h.RiskPolicySet(setW, setReq)

	if setW.Code != 200 {
		t.Fatalf("expected 200 on set, got %d: %s", setW.Code, setW.Body.String())
	}

	getReq := th.authedRequest("GET", "/api/v1/risk-policy", nil)
	getW := httptest.NewRecorder()
	th.h.RiskPolicyGet(getW, getReq)

	var env apiEnvelope
	if err := json.Unmarshal(getW.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode get response: %v", err)
	}
	var policy screening.Policy
	if err := json.Unmarshal(env.Data, &policy); err != nil {
		t.Fatalf("failed to decode policy: %v", err)
	}
	if policy.Thresholds.Hit != 0.85 || policy.Thresholds.Review != 0.60 {
		t.Fatalf("expected overridden thresholds to persist, got %+v", policy.Thresholds)
	}
}

func TestRiskPolicySetRejectsReviewThresholdAboveHitThreshold(t *testing.T) {
	th := setupTestHandler(t, nil)

	r := th.authedRequest("PUT", "/api/v1/risk-policy", map[string]any{
		"hit_threshold":    0.5,
		"review_threshold": 0.9,
		"name_weight":      0.7,
		"dob_weight":       0.2,
		"country_weight":   0.1,
	})
	w := httptest.NewRecorder()
	th.h.RiskPolicySet(w, r)

	if w.Code != 400 {
		t.Fatalf("expected 400 when review_threshold exceeds hit_threshold, got %d: %s", w.Code, w.Body.String())
	}
}
