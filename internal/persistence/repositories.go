package persistence

import "context"

// RosterRepository stores employees and their credentials.
type RosterRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateCredentials(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	FindActiveByPIN(ctx context.Context, pin string) ([]Employee, error)
}

// LedgerTx exposes the reads and writes allowed inside one ledger transaction.
type LedgerTx interface {
	// LatestEvent returns ErrNotFound when the employee has no events yet.
	LatestEvent(ctx context.Context) (PunchEvent, error)
	AppendEvent(ctx context.Context, event PunchEvent) error
}

// LedgerRepository stores punch events.
type LedgerRepository interface {
	// Atomically runs fn inside a write transaction scoped to employeeID.
	// The transaction commits only when fn returns nil.
	Atomically(ctx context.Context, employeeID string, fn func(tx LedgerTx) error) error
	// RecentEvents returns at most limit events, newest first.
	RecentEvents(ctx context.Context, employeeID string, limit int) ([]PunchEvent, error)
}
