package api

import (
	"net/http"

	"github.com/cursorworkshop/aegistry/internal/audit"
)

// AuditQuery handles GET /api/v1/audit: return the authenticated tenant's
// own audit trail. ActorID is always pinned to the caller's tenant id so a
// tenant can never read another tenant's events.
func (h *Handler) AuditQuery(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	tctx := GetTenantContext(r)

	filter := audit.DefaultQueryFilter()
	filter.ActorID = tctx.TenantID
	filter.Limit = getIntParam(r, "limit", 50)
	filter.Offset = getIntParam(r, "offset", 0)
	if filter.Limit > 500 {
		filter.Limit = 500
	}

	events, err := h.auditLog.Query(r.Context(), filter)
	if err != nil {
		rw.InternalError("failed to query audit trail")
		return
	}

	rw.SuccessWithPagination(events, &PaginationMeta{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Count:  len(events),
	})
}
