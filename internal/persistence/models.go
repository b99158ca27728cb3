package persistence

import "time"

// Employee is a roster row.
type Employee struct {
	ID        string
	FullName  string
	PINCode   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PunchEvent is an append-only ledger row. Seq is dense per employee and
// starts at 1.
type PunchEvent struct {
	ID         string
	EmployeeID string
	Seq        int64
	Kind       string
	OccurredAt time.Time
	Note       *string
}
