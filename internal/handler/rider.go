package handler

import (
	"net/http"
)

// ListRiderBatches handles GET /riders/{riderId}/batches.
func (s *Server) ListRiderBatches(w http.ResponseWriter, r *http.Request) {
	riderID, err := bindPathString(r, "riderId")
	if err != nil {
		requestError(w, err)
		return
	}

	batches, err := s.batches.ListBatches(r.Context(), riderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]Batch, len(batches))
	for i, b := range batches {
		resp[i] = batchToResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRiderTags handles GET /riders/{riderId}/tags.
func (s *Server) ListRiderTags(w http.ResponseWriter, r *http.Request) {
	riderID, err := bindPathString(r, "riderId")
	if err != nil {
		requestError(w, err)
		return
	}

	tags, err := s.tags.ListByRider(r.Context(), riderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// ReconcileRider handles GET /riders/{riderId}/reconciliation?physical_count=N.
func (s *Server) ReconcileRider(w http.ResponseWriter, r *http.Request) {
	riderID, err := bindPathString(r, "riderId")
	if err != nil {
		requestError(w, err)
		return
	}
	params, err := bindReconcileRiderParams(r)
	if err != nil {
		requestError(w, err)
		return
	}

	res, err := s.reconciler.Reconcile(r.Context(), riderID, params.PhysicalCount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
