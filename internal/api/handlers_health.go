package api

import (
	"net/http"
	"time"
)

// healthResponse is the liveness/readiness payload.
type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Health handles GET /api/v1/health: an unauthenticated liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /api/v1/ready: a readiness probe confirming every
// dependency the handler needs is wired and reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.screener == nil || h.tenants == nil || h.risk == nil || h.monitors == nil || h.batches == nil {
		rw.ServiceUnavailable("dependency not ready")
		return
	}
	rw.Success(healthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	})
}
