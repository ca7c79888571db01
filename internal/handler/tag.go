package handler

import (
	"net/http"

	"github.com/pkordes/tagledger/internal/middleware"
)

// GetTag handles GET /tags/{tagId}.
func (s *Server) GetTag(w http.ResponseWriter, r *http.Request) {
	tagID, err := bindPathString(r, "tagId")
	if err != nil {
		requestError(w, err)
		return
	}

	tag, err := s.tags.GetTag(r.Context(), tagID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// ValidatePickup handles GET /tags/{tagId}/pickup?rider_id=.
// A rejected tag is a 200 with valid=false; only infrastructure failures
// produce an error status.
func (s *Server) ValidatePickup(w http.ResponseWriter, r *http.Request) {
	tagID, err := bindPathString(r, "tagId")
	if err != nil {
		requestError(w, err)
		return
	}
	params, err := bindValidatePickupParams(r)
	if err != nil {
		requestError(w, err)
		return
	}

	res, err := s.pickup.ValidateForPickup(r.Context(), tagID, derefString(params.RiderID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pickupToResponse(res))
}

// UseTag handles POST /tags/{tagId}/use.
func (s *Server) UseTag(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		missingActor(w)
		return
	}
	tagID, err := bindPathString(r, "tagId")
	if err != nil {
		requestError(w, err)
		return
	}

	tag, err := s.tags.UseTag(r.Context(), actor, tagID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// VoidTag handles POST /tags/{tagId}/void.
func (s *Server) VoidTag(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		missingActor(w)
		return
	}
	tagID, err := bindPathString(r, "tagId")
	if err != nil {
		requestError(w, err)
		return
	}
	var body VoidTagRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err)
		return
	}

	tag, err := s.tags.VoidTag(r.Context(), actor, tagID, body.Reason, body.Photo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// MarkLost handles POST /tags/lost, the supervisory sweep.
// The response lists every requested id as marked, skipped or not found.
func (s *Server) MarkLost(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	if actor == "" {
		missingActor(w)
		return
	}
	var body MarkLostRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err)
		return
	}

	res, err := s.tags.MarkLost(r.Context(), actor, body.TagIDs, body.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
