package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/audit"
	"github.com/cursorworkshop/aegistry/internal/authz"
	"github.com/cursorworkshop/aegistry/internal/batch"
	"github.com/cursorworkshop/aegistry/internal/config"
	"github.com/cursorworkshop/aegistry/internal/monitoring"
	"github.com/cursorworkshop/aegistry/internal/risk"
	"github.com/cursorworkshop/aegistry/internal/screening"
	"github.com/cursorworkshop/aegistry/internal/store"
	"github.com/cursorworkshop/aegistry/internal/tenant"
)

// testDBSemaphore serializes DuckDB connection creation across this
// package's tests, the same CGO-contention guard internal/risk's and
// internal/store's own tests use.
var testDBSemaphore = make(chan struct{}, 1)

// fakeRetriever implements screening.Retriever over a fixed candidate set,
// the same seam internal/screening's own tests use in place of a live
// Subject Store.
type fakeRetriever struct {
	candidates []screening.Candidate
}

func (f *fakeRetriever) Search(ctx context.Context, name string, limit int) ([]screening.Candidate, error) {
	return f.candidates, nil
}

// testHandler bundles a live Handler (backed by an in-memory DuckDB file for
// the monitoring/risk tables, an in-memory tenant registry, and an
// in-memory audit store) with the default tenant's credentials.
type testHandler struct {
	h        *Handler
	tenantID string
	apiKey   string
}

func setupTestHandler(t *testing.T, candidates []screening.Candidate) *testHandler {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB"}
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	monitors, err := monitoring.Open(st.Conn())
	if err != nil {
		t.Fatalf("failed to open monitoring store: %v", err)
	}
	riskStore, err := risk.Open(st.Conn())
	if err != nil {
		t.Fatalf("failed to open risk store: %v", err)
	}

	tenants := tenant.New()
	tenantID, apiKey, err := tenants.CreateDefaultTenant(context.Background())
	if err != nil {
		t.Fatalf("failed to create default tenant: %v", err)
	}

	screener := screening.New(&fakeRetriever{candidates: candidates})
	runner := batch.NewRunner(screener, riskStore)

	auditLog := audit.NewLogger(audit.NewMemoryStore(1000), audit.DefaultConfig())
	t.Cleanup(func() { _ = auditLog.Close() })

	enforcer, err := authz.NewEnforcer(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	if err := enforcer.AddGroupingPolicy(tenantID, "tenant_admin"); err != nil {
		t.Fatalf("failed to grant tenant_admin: %v", err)
	}

	h := NewHandler(screener, monitors, tenants, riskStore, runner, auditLog, enforcer)
	return &testHandler{h: h, tenantID: tenantID, apiKey: apiKey}
}

// authedRequest builds a request that already carries a resolved
// TenantContext, the way a request would look after passing through
// Handler.Authenticate — used by handler-level tests that exercise one
// handler in isolation rather than the full middleware chain.
func (th *testHandler) authedRequest(method, target string, body interface{}) *http.Request {
	var r *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		r = httptest.NewRequest(method, target, bytes.NewReader(data))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	tctx := &TenantContext{
		TenantID:   th.tenantID,
		TenantName: "Default Tenant",
		authorized: true,
		enforcer:   th.h.enforcer,
	}
	return r.WithContext(withTenantContext(r.Context(), tctx))
}
