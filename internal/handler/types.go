package handler

import (
	"time"

	"github.com/pkordes/tagledger/internal/domain"
)

// IssueBatchRequest is the body of POST /batches. Pointers distinguish a
// missing bound from zero.
type IssueBatchRequest struct {
	RiderID string `json:"rider_id"`
	FromID  *int   `json:"from_id"`
	ToID    *int   `json:"to_id"`
}

// VoidTagRequest is the body of POST /tags/{tagId}/void.
type VoidTagRequest struct {
	Reason string `json:"reason"`
	// Photo is an opaque reference to evidence stored elsewhere.
	Photo string `json:"photo,omitempty"`
}

// MarkLostRequest is the body of POST /tags/lost.
type MarkLostRequest struct {
	TagIDs []string `json:"tag_ids"`
	Reason string   `json:"reason,omitempty"`
}

// Batch is the API representation of an issued batch. The printed first and
// last tag ids are included next to the numeric bounds.
type Batch struct {
	BatchID   string    `json:"batch_id"`
	RiderID   string    `json:"rider_id"`
	FromID    int       `json:"from_id"`
	ToID      int       `json:"to_id"`
	FirstTag  string    `json:"first_tag"`
	LastTag   string    `json:"last_tag"`
	Size      int       `json:"size"`
	IssuedBy  string    `json:"issued_by"`
	IssueDate time.Time `json:"issue_date"`
}

// BatchDetail is a batch together with the current state of its tags.
type BatchDetail struct {
	Batch
	Tags []domain.Tag `json:"tags"`
}

// PickupResponse is always returned with 200: a rejected pickup is an answer,
// not a failed request.
type PickupResponse struct {
	TagID string       `json:"tag_id"`
	Valid bool         `json:"valid"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// AuditPage is the body of GET /audit.
type AuditPage struct {
	Data       []domain.AuditEntry `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// batchToResponse converts a domain.Batch to the API representation.
func batchToResponse(b domain.Batch) Batch {
	return Batch{
		BatchID:   b.ID.String(),
		RiderID:   b.RiderID,
		FromID:    b.FromID,
		ToID:      b.ToID,
		FirstTag:  domain.FormatTagID(b.FromID),
		LastTag:   domain.FormatTagID(b.ToID),
		Size:      b.Size(),
		IssuedBy:  b.IssuedBy,
		IssueDate: b.IssueDate,
	}
}

// pickupToResponse converts a PickupResult, giving each rejection a stable code.
func pickupToResponse(res domain.PickupResult) PickupResponse {
	out := PickupResponse{TagID: res.TagID, Valid: res.Valid}
	if res.Err == nil {
		return out
	}
	detail := ErrorDetail{Code: "tag_rejected", Message: res.Err.Error()}
	switch e := res.Err.(type) {
	case *domain.TagNotFoundError:
		detail.Code = "tag_not_found"
	case *domain.TagNotUsableError:
		detail.Code = "tag_not_usable"
		detail.Details = map[string]domain.Status{"status": e.Status}
	case *domain.WrongRiderError:
		detail.Code = "wrong_rider"
		detail.Details = map[string]string{"issued_to": e.IssuedTo, "presented_by": e.Presenter}
	}
	out.Error = &detail
	return out
}
