package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/monitoring"
)

// MonitorSubscribe handles POST /api/v1/monitor: add or reactivate a
// monitored subject for the authenticated tenant.
func (h *Handler) MonitorSubscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	var body MonitorSubjectRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if message, details := validateRequest(&body); message != "" {
		rw.ValidationError(message, details)
		return
	}

	name := body.Name
	if name == "" {
		name = (body.FirstName + " " + body.LastName)
	}

	subj := monitoring.Subject{
		TenantID:    tctx.TenantID,
		ReferenceID: body.ReferenceID,
		Name:        name,
		Country:     body.Country,
		DOBYear:     body.DOBYear,
		CallbackURL: body.CallbackURL,
	}

	id, err := h.monitors.AddSubject(r.Context(), subj)
	if err != nil {
		rw.InternalError("failed to add monitored subject")
		return
	}

	h.auditLog.LogSubjectMonitored(r.Context(), auditActor(tctx), body.ReferenceID, true)
	rw.Created(struct {
		ID          int64  `json:"id"`
		ReferenceID string `json:"reference_id"`
	}{ID: id, ReferenceID: body.ReferenceID})
}

// MonitorList handles GET /api/v1/monitor: list the tenant's active
// monitored subjects.
func (h *Handler) MonitorList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	subjects, err := h.monitors.GetSubjects(r.Context(), tctx.TenantID)
	if err != nil {
		rw.InternalError("failed to list monitored subjects")
		return
	}
	rw.Success(subjects)
}

// MonitorUnsubscribe handles DELETE /api/v1/monitor/{referenceID}: stop
// monitoring a subject for the authenticated tenant.
func (h *Handler) MonitorUnsubscribe(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)
	referenceID := chi.URLParam(r, "referenceID")

	removed, err := h.monitors.RemoveSubject(r.Context(), tctx.TenantID, referenceID)
	if err != nil {
		rw.InternalError("failed to remove monitored subject")
		return
	}
	if !removed {
		rw.NotFound(ErrSubjectNotFound.Error())
		return
	}

	h.auditLog.LogSubjectMonitored(r.Context(), auditActor(tctx), referenceID, false)
	rw.NoContent()
}
