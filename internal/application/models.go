package application

import (
	"time"

	"github.com/joscoffee/timeclock/internal/shift"
)

// Employee is a roster entry as exposed by the application services.
type Employee struct {
	ID        string
	FullName  string
	PINCode   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PunchEvent is one immutable ledger entry. Note is nil when no note was given.
type PunchEvent struct {
	ID         string
	EmployeeID string
	Seq        int64
	Kind       shift.EventKind
	OccurredAt time.Time
	Note       *string
}

// PunchParams captures a kiosk submission.
type PunchParams struct {
	PIN    string
	Action string
	Note   *string
}

// PunchResult describes an accepted punch.
type PunchResult struct {
	Employee Employee
	Event    PunchEvent
	State    shift.State
}

// UpdatePINParams wraps the data required to change an employee's PIN and active flag.
// Active defaults to true when nil.
type UpdatePINParams struct {
	Secret     string
	EmployeeID string
	PINCode    string
	Active     *bool
}

// CreateEmployeeParams wraps the data required to add an employee to the roster.
type CreateEmployeeParams struct {
	Secret   string
	FullName string
	PINCode  string
	Active   *bool
}

// ShiftHistoryParams selects the recent ledger entries of one employee.
// A nil Limit selects DefaultHistoryLimit.
type ShiftHistoryParams struct {
	Secret     string
	EmployeeID string
	Limit      *int
}

// ShiftHistory is the current derived state together with recent events, newest first.
type ShiftHistory struct {
	Employee Employee
	State    shift.State
	Events   []PunchEvent
}
