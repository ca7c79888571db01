package domain

import "fmt"

// Status is the lifecycle state of a Tag.
type Status string

const (
	StatusIssued      Status = "ISSUED_TO_RIDER"
	StatusUsed        Status = "USED"
	StatusVoid        Status = "VOID"
	StatusLostSuspect Status = "LOST_SUSPECT"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusIssued, StatusUsed, StatusVoid, StatusLostSuspect}

// ParseStatus converts s into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusUsed || s == StatusVoid || s == StatusLostSuspect
}

// Op names an operation that moves a tag between states.
type Op string

const (
	OpUse      Op = "use"
	OpVoid     Op = "void"
	OpMarkLost Op = "mark_lost"
)

type transitionKey struct {
	from Status
	op   Op
}

// transitions is the complete table of legal moves. Any {from, op} pair
// absent here is an invalid transition.
var transitions = map[transitionKey]Status{
	{StatusIssued, OpUse}:      StatusUsed,
	{StatusIssued, OpVoid}:     StatusVoid,
	{StatusIssued, OpMarkLost}: StatusLostSuspect,
}

// Next returns the status reached by applying op to a tag in from.
// Returns an *InvalidTransitionError (without a tag id) when the move is not
// in the table.
func Next(from Status, op Op) (Status, error) {
	to, ok := transitions[transitionKey{from: from, op: op}]
	if !ok {
		return "", &InvalidTransitionError{From: from, Op: op}
	}
	return to, nil
}
