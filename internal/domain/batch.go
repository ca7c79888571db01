package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Batch is a contiguous numeric range of tags issued to one rider in a
// single operation. Every tag in [FromID, ToID] references the batch and
// shares its RiderID and IssueDate.
type Batch struct {
	ID        uuid.UUID `json:"batch_id"`
	RiderID   string    `json:"rider_id"`
	FromID    int       `json:"from_id"`
	ToID      int       `json:"to_id"`
	IssuedBy  string    `json:"issued_by"`
	IssueDate time.Time `json:"issue_date"`
}

// Size returns the number of tags in the batch range.
func (b Batch) Size() int {
	return b.ToID - b.FromID + 1
}

// TagIDs returns every tag id in the batch range in ascending order.
func (b Batch) TagIDs() []string {
	ids := make([]string, 0, b.Size())
	for n := b.FromID; n <= b.ToID; n++ {
		ids = append(ids, FormatTagID(n))
	}
	return ids
}

// Tags materialises the tag records the batch creates.
func (b Batch) Tags() []Tag {
	tags := make([]Tag, 0, b.Size())
	for n := b.FromID; n <= b.ToID; n++ {
		tags = append(tags, Tag{
			ID:        FormatTagID(n),
			Status:    StatusIssued,
			BatchID:   b.ID,
			IssuedTo:  b.RiderID,
			IssueDate: b.IssueDate,
			UpdatedAt: b.IssueDate,
		})
	}
	return tags
}

// ValidateRange checks the issuance inputs. maxSize <= 0 means unbounded.
func ValidateRange(riderID string, fromID, toID, maxSize int) error {
	if strings.TrimSpace(riderID) == "" {
		return fmt.Errorf("%w: rider_id is required", ErrValidation)
	}
	if fromID < MinTagNumber || toID > MaxTagNumber {
		return fmt.Errorf("%w: range must lie within %d..%d", ErrValidation, MinTagNumber, MaxTagNumber)
	}
	if fromID > toID {
		return fmt.Errorf("%w: from_id must not exceed to_id", ErrValidation)
	}
	if maxSize > 0 && toID-fromID+1 > maxSize {
		return fmt.Errorf("%w: batch of %d tags exceeds limit of %d", ErrValidation, toID-fromID+1, maxSize)
	}
	return nil
}
