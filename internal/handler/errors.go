package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/tagledger/internal/domain"
)

// ErrorDetail is the machine-readable part of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type duplicateDetails struct {
	FromID   string   `json:"from_id"`
	ToID     string   `json:"to_id"`
	Existing []string `json:"existing"`
}

type transitionDetails struct {
	TagID  string        `json:"tag_id"`
	Status domain.Status `json:"status"`
	Op     domain.Op     `json:"op"`
}

// writeError maps a service error onto the status and code clients switch on.
// Typed domain errors are checked before the coarse sentinels they satisfy.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dup *domain.DuplicateTagError
		ite *domain.InvalidTransitionError
		nf  *domain.TagNotFoundError
	)
	switch {
	case errors.As(err, &dup):
		writeErrorBody(w, http.StatusConflict, "duplicate_tag", dup.Error(), duplicateDetails{
			FromID:   domain.FormatTagID(dup.FromID),
			ToID:     domain.FormatTagID(dup.ToID),
			Existing: dup.Existing,
		})
	case errors.As(err, &ite):
		writeErrorBody(w, http.StatusConflict, "invalid_transition", ite.Error(), transitionDetails{
			TagID: ite.TagID, Status: ite.From, Op: ite.Op,
		})
	case errors.As(err, &nf):
		writeErrorBody(w, http.StatusNotFound, "tag_not_found", nf.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err), nil)
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

// requestError reports a request rejected before reaching the service layer
// (malformed body or parameter).
func requestError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeErrorBody(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error(), nil)
		return
	}
	writeErrorBody(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
}

// validationError reports a well-formed request whose values are unacceptable.
func validationError(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", message, nil)
}

func missingActor(w http.ResponseWriter) {
	writeErrorBody(w, http.StatusBadRequest, "missing_actor", "X-Actor-ID header is required", nil)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the client has gone away if this fails; nothing to report to.
	json.NewEncoder(w).Encode(body)
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.BatchIssuer.IssueBatch: validation error: rider_id is required" → "rider_id is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return msg
}
