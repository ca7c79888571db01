package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pkordes/tagledger/internal/middleware"
)

// IssueBatch handles POST /batches.
func (s *Server) IssueBatch(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		missingActor(w)
		return
	}

	var body IssueBatchRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err)
		return
	}
	if body.FromID == nil || body.ToID == nil {
		validationError(w, "from_id and to_id are required")
		return
	}

	batch, err := s.batches.IssueBatch(r.Context(), actor, body.RiderID, *body.FromID, *body.ToID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/batches/"+batch.ID.String())
	writeJSON(w, http.StatusCreated, batchToResponse(batch))
}

// GetBatch handles GET /batches/{batchId}.
func (s *Server) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := bindPathUUID(r, "batchId")
	if err != nil {
		requestError(w, err)
		return
	}

	batch, tags, err := s.batches.GetBatch(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BatchDetail{Batch: batchToResponse(batch), Tags: tags})
}

// decodeJSON decodes a single JSON object from the request body.
// Unknown fields are rejected so client typos surface as 400s.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("malformed request body: %w", err)
		}
	}
	return nil
}
