package api

import (
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/audit"
)

func TestAuditQueryReturnsCallingTenantsOwnEvents(t *testing.T) {
	th := setupTestHandler(t, nil)

	screenReq := th.authedRequest("POST", "/api/v1/screen", map[string]any{"name": "Acme Corp"})
	screenW := httptest.NewRecorder()
	th.h.Screen(screenW, screenReq)
	if screenW.Code != 200 {
		t.Fatalf("expected screen to succeed, got %d: %s", screenW.Code, screenW.Body.String())
	}

	// Logger.Log hands events to an async writer goroutine; give it time to
	// land before querying, the same wait internal/audit's own tests use.
	time.Sleep(100 * time.Millisecond)

	auditReq := th.authedRequest("GET", "/api/v1/audit", nil)
	auditReq.URL.RawQuery = url.Values{"limit": {"10"}}.Encode()
	auditW := httptest.NewRecorder()
	th.h.AuditQuery(auditW, auditReq)

	if auditW.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", auditW.Code, auditW.Body.String())
	}

	var env apiEnvelope
	if err := json.Unmarshal(auditW.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var events []audit.Event
	if err := json.Unmarshal(env.Data, &events); err != nil {
		t.Fatalf("failed to decode events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least one audit event after a screen call")
	}
	for _, e := range events {
		if e.Actor.ID != th.tenantID {
			t.Fatalf("audit query returned an event for a different actor: %+v", e)
		}
	}
}

func TestAuditQueryClampsLimitTo500(t *testing.T) {
	th := setupTestHandler(t, nil)

	r := th.authedRequest("GET", "/api/v1/audit", nil)
	r.URL.RawQuery = url.Values{"limit": {"10000"}}.Encode()
	w := httptest.NewRecorder()

	th.h.AuditQuery(w, r)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var env struct {
		Meta struct {
			Pagination struct {
				Limit int `json:"limit"`
			} `json:"pagination"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Meta.Pagination.Limit != 500 {
		t.Fatalf("expected limit clamped to 500, got %d", env.Meta.Pagination.Limit)
	}
}
