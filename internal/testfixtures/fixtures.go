package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joscoffee/timeclock/internal/application"
	"github.com/joscoffee/timeclock/internal/persistence"
	"github.com/joscoffee/timeclock/internal/shift"
)

var (
	employeeCounter uint64
	eventCounter    uint64
)

var referenceTime = time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Employee fixtures -----------------------------

// EmployeeFixture is a deterministic roster entry usable at either layer.
type EmployeeFixture struct {
	ID        string
	FullName  string
	PINCode   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmployeeOption configures the generated employee fixture.
type EmployeeOption func(*EmployeeFixture)

// NewEmployeeFixture returns an active employee with a unique id and PIN.
func NewEmployeeFixture(opts ...EmployeeOption) EmployeeFixture {
	idx := atomic.AddUint64(&employeeCounter, 1)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	fixture := EmployeeFixture{
		ID:        fmt.Sprintf("emp-%03d", idx),
		FullName:  fmt.Sprintf("Employee %03d", idx),
		PINCode:   fmt.Sprintf("%06d", 100000+idx%900000),
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// Alice is the employee used throughout the scenario tests: id 1, PIN 1234.
func Alice(opts ...EmployeeOption) EmployeeFixture {
	base := []EmployeeOption{WithEmployeeID("1"), WithFullName("Alice"), WithPIN("1234")}
	return NewEmployeeFixture(append(base, opts...)...)
}

// WithEmployeeID overrides the generated id.
func WithEmployeeID(id string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.ID = id
	}
}

// WithFullName overrides the generated name.
func WithFullName(name string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.FullName = name
	}
}

// WithPIN overrides the generated PIN.
func WithPIN(pin string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.PINCode = pin
	}
}

// Inactive marks the employee as disabled.
func Inactive() EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Active = false
	}
}

// Application returns the fixture as an application.Employee.
func (f EmployeeFixture) Application() application.Employee {
	return application.Employee{
		ID:        f.ID,
		FullName:  f.FullName,
		PINCode:   f.PINCode,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Employee.
func (f EmployeeFixture) Persistence() persistence.Employee {
	return persistence.Employee{
		ID:        f.ID,
		FullName:  f.FullName,
		PINCode:   f.PINCode,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Punch fixtures -----------------------------

// PunchEventFixture is a deterministic ledger entry.
type PunchEventFixture struct {
	ID         string
	EmployeeID string
	Seq        int64
	Kind       shift.EventKind
	OccurredAt time.Time
	Note       *string
}

// PunchEventOption configures the generated punch fixture.
type PunchEventOption func(*PunchEventFixture)

// NewPunchEventFixture returns the first clock-in of employeeID at ReferenceTime.
func NewPunchEventFixture(employeeID string, opts ...PunchEventOption) PunchEventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := PunchEventFixture{
		ID:         fmt.Sprintf("evt-%03d", idx),
		EmployeeID: employeeID,
		Seq:        1,
		Kind:       shift.ClockIn,
		OccurredAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSeq sets the ledger position. Kinds alternate starting with a clock-in,
// and the timestamp moves one hour per position.
func WithSeq(seq int64) PunchEventOption {
	return func(f *PunchEventFixture) {
		f.Seq = seq
		f.Kind = shift.ClockIn
		if seq%2 == 0 {
			f.Kind = shift.ClockOut
		}
		f.OccurredAt = referenceTime.Add(time.Duration(seq-1) * time.Hour)
	}
}

// WithKind overrides the event kind.
func WithKind(kind shift.EventKind) PunchEventOption {
	return func(f *PunchEventFixture) {
		f.Kind = kind
	}
}

// WithNote attaches a note.
func WithNote(note string) PunchEventOption {
	return func(f *PunchEventFixture) {
		value := note
		f.Note = &value
	}
}

// WithOccurredAt overrides the timestamp.
func WithOccurredAt(t time.Time) PunchEventOption {
	return func(f *PunchEventFixture) {
		f.OccurredAt = t
	}
}

// Application returns the fixture as an application.PunchEvent.
func (f PunchEventFixture) Application() application.PunchEvent {
	return application.PunchEvent{
		ID:         f.ID,
		EmployeeID: f.EmployeeID,
		Seq:        f.Seq,
		Kind:       f.Kind,
		OccurredAt: f.OccurredAt,
		Note:       copyStringPtr(f.Note),
	}
}

// Persistence returns the fixture as a persistence.PunchEvent.
func (f PunchEventFixture) Persistence() persistence.PunchEvent {
	return persistence.PunchEvent{
		ID:         f.ID,
		EmployeeID: f.EmployeeID,
		Seq:        f.Seq,
		Kind:       string(f.Kind),
		OccurredAt: f.OccurredAt,
		Note:       copyStringPtr(f.Note),
	}
}

func copyStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
