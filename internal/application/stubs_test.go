package application

import (
	"context"
	"strconv"
	"sync"
)

type rosterStub struct {
	mu        sync.Mutex
	employees []Employee
	findErr   error
	listErr   error
	getErr    error
	writeErr  error
	updates   []Employee
	created   []Employee
}

func newRosterStub(employees ...Employee) *rosterStub {
	return &rosterStub{employees: employees}
}

func (r *rosterStub) FindActiveByPIN(_ context.Context, pin string) ([]Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []Employee
	for _, e := range r.employees {
		if e.Active && e.PINCode == pin {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *rosterStub) ListEmployees(context.Context) ([]Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Employee, len(r.employees))
	copy(out, r.employees)
	return out, nil
}

func (r *rosterStub) GetEmployee(_ context.Context, id string) (Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return Employee{}, r.getErr
	}
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return Employee{}, ErrNotFound
}

func (r *rosterStub) CreateEmployee(_ context.Context, employee Employee) (Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return Employee{}, r.writeErr
	}
	r.employees = append(r.employees, employee)
	r.created = append(r.created, employee)
	return employee, nil
}

func (r *rosterStub) UpdateCredentials(_ context.Context, employee Employee) (Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return Employee{}, r.writeErr
	}
	for i, e := range r.employees {
		if e.ID == employee.ID {
			r.employees[i] = employee
			r.updates = append(r.updates, employee)
			return employee, nil
		}
	}
	return Employee{}, ErrNotFound
}

func (r *rosterStub) get(id string) Employee {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.ID == id {
			return e
		}
	}
	return Employee{}
}

// ledgerStub keeps events in memory. Atomically stages appends and commits
// them only when fn succeeds, mirroring a rolled back transaction.
type ledgerStub struct {
	mu          sync.Mutex
	events      map[string][]PunchEvent
	latestErr   error
	appendErr   error
	collisions  int
	atomicCalls int
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{events: make(map[string][]PunchEvent)}
}

func (l *ledgerStub) Atomically(ctx context.Context, employeeID string, fn func(tx LedgerTx) error) error {
	l.mu.Lock()
	l.atomicCalls++
	l.mu.Unlock()

	tx := &ledgerStubTx{ledger: l, employeeID: employeeID}
	if err := fn(tx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, staged := range tx.staged {
		existing := l.events[employeeID]
		if n := len(existing); n > 0 && existing[n-1].Seq >= staged.Seq {
			return ErrConcurrentAppend
		}
		l.events[employeeID] = append(existing, staged)
	}
	return nil
}

func (l *ledgerStub) RecentEvents(_ context.Context, employeeID string, limit int) ([]PunchEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := l.events[employeeID]
	out := make([]PunchEvent, 0, limit)
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, events[i])
	}
	return out, nil
}

func (l *ledgerStub) eventsFor(employeeID string) []PunchEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PunchEvent, len(l.events[employeeID]))
	copy(out, l.events[employeeID])
	return out
}

func (l *ledgerStub) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, events := range l.events {
		n += len(events)
	}
	return n
}

type ledgerStubTx struct {
	ledger     *ledgerStub
	employeeID string
	staged     []PunchEvent
}

func (tx *ledgerStubTx) Latest(context.Context) (PunchEvent, bool, error) {
	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()
	if tx.ledger.latestErr != nil {
		return PunchEvent{}, false, tx.ledger.latestErr
	}
	events := tx.ledger.events[tx.employeeID]
	if len(events) == 0 {
		return PunchEvent{}, false, nil
	}
	return events[len(events)-1], true, nil
}

func (tx *ledgerStubTx) Append(_ context.Context, event PunchEvent) (PunchEvent, error) {
	tx.ledger.mu.Lock()
	defer tx.ledger.mu.Unlock()
	if tx.ledger.appendErr != nil {
		return PunchEvent{}, tx.ledger.appendErr
	}
	if tx.ledger.collisions > 0 {
		tx.ledger.collisions--
		return PunchEvent{}, ErrConcurrentAppend
	}
	tx.staged = append(tx.staged, event)
	return event, nil
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func boolPtr(v bool) *bool { return &v }

func stringPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
