package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty rider id, inverted range, empty void reason).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is the coarse category for requests that contradict the current
// ledger state: duplicate issuance and illegal transitions.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// DuplicateTagError reports that an issuance range overlaps tags that already
// exist. Nothing from the range was created. The caller must pick a disjoint
// range rather than retry.
type DuplicateTagError struct {
	FromID   int
	ToID     int
	Existing []string
}

func (e *DuplicateTagError) Error() string {
	msg := fmt.Sprintf("range %s..%s overlaps existing tags", FormatTagID(e.FromID), FormatTagID(e.ToID))
	if len(e.Existing) == 0 {
		return msg
	}
	shown := e.Existing
	if len(shown) > 5 {
		shown = shown[:5]
	}
	msg += ": " + strings.Join(shown, ", ")
	if extra := len(e.Existing) - len(shown); extra > 0 {
		msg += fmt.Sprintf(" and %d more", extra)
	}
	return msg
}

func (e *DuplicateTagError) Is(target error) bool { return target == ErrConflict }

// TagNotFoundError reports a tag id with no ledger record, usually an
// operator typo.
type TagNotFoundError struct {
	TagID string
}

func (e *TagNotFoundError) Error() string {
	return fmt.Sprintf("tag %s not found", e.TagID)
}

func (e *TagNotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidTransitionError reports an operation that is not legal from the
// tag's current status. From is the status observed at the time of the
// attempt; for a lost compare-and-set race it is the winner's status.
type InvalidTransitionError struct {
	TagID string
	From  Status
	Op    Op
}

func (e *InvalidTransitionError) Error() string {
	if e.TagID == "" {
		return fmt.Sprintf("cannot %s a tag in status %s", e.Op, e.From)
	}
	return fmt.Sprintf("cannot %s tag %s: tag is %s", e.Op, e.TagID, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrConflict }

// WrongRiderError reports a tag presented by a rider it was not issued to.
type WrongRiderError struct {
	TagID     string
	IssuedTo  string
	Presenter string
}

func (e *WrongRiderError) Error() string {
	return fmt.Sprintf("tag %s is issued to %s, not %s", e.TagID, e.IssuedTo, e.Presenter)
}

// TagNotUsableError reports a tag that exists but is no longer
// ISSUED_TO_RIDER. A USED status here is the strongest duplicate or
// counterfeit signal the ledger can raise.
type TagNotUsableError struct {
	TagID  string
	Status Status
}

func (e *TagNotUsableError) Error() string {
	return fmt.Sprintf("Tag is %s", e.Status)
}
