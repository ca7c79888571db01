// Package domain contains the core data types for the tag ledger.
// This package has no infrastructure dependencies and is imported by every
// other internal package (repo, service, handler).
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TagIDPrefix is printed on every physical label and encoded into the QR
// payload, so the format is fixed: "TT-" followed by six zero-padded digits.
const TagIDPrefix = "TT-"

// MinTagNumber and MaxTagNumber bound the numeric tag space.
const (
	MinTagNumber = 1
	MaxTagNumber = 999999
)

// Tag is one physical tamper-evident seal.
// ID, BatchID, IssuedTo and IssueDate never change after issuance.
// VoidReason and VoidPhoto are set only on the transition to VOID.
type Tag struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	BatchID    uuid.UUID `json:"batch_id"`
	IssuedTo   string    `json:"issued_to"`
	IssueDate  time.Time `json:"issue_date"`
	VoidReason string    `json:"void_reason,omitempty"`
	VoidPhoto  string    `json:"void_photo,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FormatTagID renders n as a tag id, e.g. 1001 -> "TT-001001".
func FormatTagID(n int) string {
	return fmt.Sprintf("%s%06d", TagIDPrefix, n)
}

// ParseTagID returns the numeric part of a tag id.
// Returns ErrValidation when s is not exactly "TT-" plus six digits inside the
// tag numbering space.
func ParseTagID(s string) (int, error) {
	digits, ok := strings.CutPrefix(s, TagIDPrefix)
	if !ok || len(digits) != 6 {
		return 0, fmt.Errorf("%w: malformed tag id %q", ErrValidation, s)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || strings.ContainsAny(digits, "+-") {
		return 0, fmt.Errorf("%w: malformed tag id %q", ErrValidation, s)
	}
	if n < MinTagNumber || n > MaxTagNumber {
		return 0, fmt.Errorf("%w: tag id %q outside numbering space", ErrValidation, s)
	}
	return n, nil
}

// NormalizeTagID accepts scanner input with stray whitespace or a lower-case
// prefix and returns the canonical id.
func NormalizeTagID(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	n, err := ParseTagID(s)
	if err != nil {
		return "", err
	}
	return FormatTagID(n), nil
}
