package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cursorworkshop/aegistry/internal/batch"
)

// BatchSubmit handles POST /api/v1/batch: accept a batch of screening
// records and begin processing them in the background, returning the job
// id immediately.
func (h *Handler) BatchSubmit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	var body BatchSubmitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if message, details := validateRequest(&body); message != "" {
		rw.ValidationError(message, details)
		return
	}

	records := make([]batch.Record, len(body.Records))
	for i, rec := range body.Records {
		records[i] = batch.Record{
			ReferenceID: rec.ReferenceID,
			Name:        rec.Name,
			Country:     rec.Country,
			DOBYear:     rec.DOBYear,
		}
	}

	job := h.batches.Submit(r.Context(), tctx.TenantID, records)
	h.auditLog.LogBatchSubmitted(r.Context(), auditActor(tctx), job.ID, len(records))

	rw.Created(job)
}

// BatchStatus handles GET /api/v1/batch/{id}: return a submitted job's
// current progress and, once complete, its results.
func (h *Handler) BatchStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)
	jobID := chi.URLParam(r, "id")

	job, ok := h.batches.Get(jobID)
	if !ok || job.TenantID != tctx.TenantID {
		rw.NotFound(ErrJobNotFound.Error())
		return
	}

	rw.Success(job)
}
