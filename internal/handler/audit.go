package handler

import (
	"net/http"

	"github.com/pkordes/tagledger/internal/domain"
)

// ListAudit handles GET /audit.
// Supports ?tag_id=, ?actor=, ?rider_id= filters and ?page= / ?limit=
// (defaults: page=1, limit=50, max=200). Entries are newest first.
func (s *Server) ListAudit(w http.ResponseWriter, r *http.Request) {
	params, err := bindListAuditParams(r)
	if err != nil {
		requestError(w, err)
		return
	}

	filter := domain.AuditFilter{
		TagID:   derefString(params.TagID),
		Actor:   derefString(params.Actor),
		RiderID: derefString(params.RiderID),
	}
	page := domain.NewPaginationParams(params.Page, params.Limit)

	entries, total, err := s.audit.List(r.Context(), filter, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuditPage{
		Data: entries,
		Pagination: Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
		},
	})
}
