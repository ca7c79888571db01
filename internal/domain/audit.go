package domain

import "time"

// AuditEntry is one immutable record of a successful status transition.
type AuditEntry struct {
	ID     int64     `json:"id"`
	TagID  string    `json:"tag_id"`
	From   Status    `json:"from_status"`
	To     Status    `json:"to_status"`
	Actor  string    `json:"actor"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	TagID   string
	Actor   string
	RiderID string
}

// TransitionRequest asks the store to move one tag from From to To and
// record the audit entry in the same atomic unit.
type TransitionRequest struct {
	TagID  string
	Op     Op
	From   Status
	To     Status
	Actor  string
	Reason string
	// Photo is stored only for VOID transitions.
	Photo string
	At    time.Time
}

// SweepResult reports the outcome of a MarkLost sweep.
// Every requested id lands in exactly one of the three lists.
type SweepResult struct {
	Marked   []string `json:"marked"`
	Skipped  []string `json:"skipped"`
	NotFound []string `json:"not_found"`
}
