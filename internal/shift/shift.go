// Package shift holds the punch state machine: the shift state derived from
// an employee's most recent ledger event and the legal transitions out of it.
//
// Everything here is pure. Callers are responsible for evaluating Decide
// against a ledger snapshot taken inside the same transaction that appends
// the resulting event.
package shift

import "errors"

// State is the derived shift status of one employee.
type State string

const (
	// Closed means the employee is not on shift. It is also the initial state.
	Closed State = "closed"
	// Open means the most recent event was a clock-in.
	Open State = "open"
)

// Action is the transition requested at the kiosk.
type Action string

const (
	ActionIn  Action = "in"
	ActionOut Action = "out"
)

// EventKind identifies a ledger entry.
type EventKind string

const (
	ClockIn  EventKind = "clock_in"
	ClockOut EventKind = "clock_out"
)

var (
	// ErrInvalidAction is returned when the requested action is neither "in" nor "out".
	ErrInvalidAction = errors.New("invalid action")
	// ErrConflict is matched by every *ConflictError.
	ErrConflict = errors.New("shift state conflict")
)

// ConflictError reports a request that is well formed but illegal given the
// employee's current state.
type ConflictError struct {
	State  State
	Action Action
}

// Error names the conflicting state.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	if e.State == Open {
		return "already clocked in"
	}
	return "already clocked out"
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Decision is the outcome of an accepted transition.
type Decision struct {
	Kind EventKind
	Next State
}

// ParseAction accepts exactly "in" or "out".
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionIn:
		return ActionIn, nil
	case ActionOut:
		return ActionOut, nil
	default:
		return "", ErrInvalidAction
	}
}

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	return k == ClockIn || k == ClockOut
}

// StateAfter derives the shift state from the most recent event kind. The
// empty kind stands for "no event recorded" and yields Closed.
func StateAfter(latest EventKind) State {
	if latest == ClockIn {
		return Open
	}
	return Closed
}

// Decide applies the transition table:
//
//	Closed + in  -> clock_in,  Open
//	Open   + out -> clock_out, Closed
//
// Any other combination is a *ConflictError.
func Decide(current State, action Action) (Decision, error) {
	if current == "" {
		current = Closed
	}
	switch action {
	case ActionIn:
		if current != Closed {
			return Decision{}, &ConflictError{State: current, Action: action}
		}
		return Decision{Kind: ClockIn, Next: Open}, nil
	case ActionOut:
		if current != Open {
			return Decision{}, &ConflictError{State: current, Action: action}
		}
		return Decision{Kind: ClockOut, Next: Closed}, nil
	default:
		return Decision{}, ErrInvalidAction
	}
}
