package api

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/batch"
	"github.com/cursorworkshop/aegistry/internal/screening"
)

func TestBatchSubmitThenStatusReachesCompleted(t *testing.T) {
	th := setupTestHandler(t, []screening.Candidate{
		{SubjectID: "eu_1", PrimaryName: "Jane Doe", Source: "EU_SANCTIONS", Kind: "person"},
	})

	r := th.authedRequest("POST", "/api/v1/batch", map[string]any{
		"records": []map[string]any{
			{"reference_id": "ref1", "name": "Jane Doe"},
			{"reference_id": "ref2", "name": "John Roe"},
		},
	})
	w := httptest.NewRecorder()
	th.h.BatchSubmit(w, r)

	if w.Code != 201 {
		t.Fatalf("expected 201 on submit, got %d: %s", w.Code, w.Body.String())
	}

	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode submit response: %v", err)
	}
	var job batch.Job
	if err := json.Unmarshal(env.Data, &job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.TotalRecords != 2 {
		t.Fatalf("expected 2 total records, got %d", job.TotalRecords)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		statusReq := th.authedRequest("GET", "/api/v1/batch/"+job.ID, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", job.ID)
		statusReq = statusReq.WithContext(context.WithValue(statusReq.Context(), chi.RouteCtxKey, rctx))
		statusW := httptest.NewRecorder()
		th.h.BatchStatus(statusW, statusReq)

		if statusW.Code != 200 {
			t.Fatalf("expected 200 polling job status, got %d: %s", statusW.Code, statusW.Body.String())
		}

		var statusEnv apiEnvelope
		if err := json.Unmarshal(statusW.Body.Bytes(), &statusEnv); err != nil {
			t.Fatalf("failed to decode status response: %v", err)
		}
		var polled batch.Job
		if err := json.Unmarshal(statusEnv.Data, &polled); err != nil {
			t.Fatalf("failed to decode polled job: %v", err)
		}
		if polled.Status == batch.StatusCompleted {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("batch job did not complete in time")
}

func TestBatchSubmitRejectsEmptyRecordList(t *testing.T) {
	th := setupTestHandler(t, nil)

	r := th.authedRequest("POST", "/api/v1/batch", map[string]any{"records": []map[string]any{}})
	w := httptest.NewRecorder()
	th.h.BatchSubmit(w, r)

	if w.Code != 400 {
		t.Fatalf("expected 400 for an empty record list, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBatchStatusReturns404ForUnknownJobAndOtherTenantJob(t *testing.T) {
	th := setupTestHandler(t, nil)

	r := th.authedRequest("GET", "/api/v1/batch/does-not-exist", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "does-not-exist")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	th.h.BatchStatus(w, r)

	if w.Code != 404 {
		t.Fatalf("expected 404 for unknown job id, got %d", w.Code)
	}

	other := th.h.batches.Submit(context.Background(), "other-tenant", []batch.Record{{ReferenceID: "r1", Name: "Jane Doe"}})
	r = th.authedRequest("GET", "/api/v1/batch/"+other.ID, nil)
	rctx = chi.NewRouteContext()
	rctx.URLParams.Add("id", other.ID)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w = httptest.NewRecorder()

	th.h.BatchStatus(w, r)

	if w.Code != 404 {
		t.Fatalf("expected 404 for another tenant's job, got %d", w.Code)
	}
}
