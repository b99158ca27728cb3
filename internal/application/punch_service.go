package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joscoffee/timeclock/internal/shift"
)

// MaxNoteLength bounds the free-text note attached to a punch, in characters.
const MaxNoteLength = 500

const defaultAppendRetries = 3

// LedgerTx is the view of the shift ledger available inside one atomic unit.
type LedgerTx interface {
	// Latest returns the most recent event of the employee, or ok=false when none exists.
	Latest(ctx context.Context) (event PunchEvent, ok bool, err error)
	// Append writes event. It returns ErrConcurrentAppend when event.Seq is already taken.
	Append(ctx context.Context, event PunchEvent) (PunchEvent, error)
}

// ShiftLedger runs fn as one indivisible read-decide-append unit for a single
// employee. Returning an error from fn rolls the unit back.
type ShiftLedger interface {
	Atomically(ctx context.Context, employeeID string, fn func(tx LedgerTx) error) error
}

// PunchService authenticates a PIN, decides the legal transition against the
// ledger and records the resulting event exactly once.
type PunchService struct {
	authenticator *PINAuthenticator
	ledger        ShiftLedger
	locks         *employeeLocks
	idGenerator   func() string
	now           func() time.Time
	retries       int
	logger        *slog.Logger
}

// NewPunchService constructs a PunchService with the provided dependencies.
func NewPunchService(roster RosterReader, ledger ShiftLedger, idGenerator func() string, now func() time.Time) *PunchService {
	return NewPunchServiceWithLogger(roster, ledger, idGenerator, now, nil)
}

// NewPunchServiceWithLogger constructs a PunchService with a specified logger.
func NewPunchServiceWithLogger(roster RosterReader, ledger ShiftLedger, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PunchService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &PunchService{
		authenticator: NewPINAuthenticator(roster, base),
		ledger:        ledger,
		locks:         newEmployeeLocks(),
		idGenerator:   idGenerator,
		now:           now,
		retries:       defaultAppendRetries,
		logger:        base,
	}
}

// SetAppendRetries overrides how often a punch is re-evaluated after an
// interleaved append was detected.
func (s *PunchService) SetAppendRetries(retries int) {
	if s == nil || retries < 0 {
		return
	}
	s.retries = retries
}

func (s *PunchService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PunchService", operation, attrs...)
}

// Punch records a clock-in or clock-out for the employee holding params.PIN.
//
// Expected rejections are ErrInvalidAction, ErrInvalidPin and a
// *shift.ConflictError (matching ErrStateConflict); none of them touch the
// ledger. A *StorageError means nothing was recorded.
func (s *PunchService) Punch(ctx context.Context, params PunchParams) (result PunchResult, err error) {
	if s == nil {
		err = fmt.Errorf("PunchService is nil")
		return
	}
	if s.ledger == nil {
		err = fmt.Errorf("%w: shift ledger not configured", ErrConfig)
		return
	}

	logger := s.loggerWith(ctx, "Punch", "action", params.Action)
	defer func() {
		if err != nil {
			if IsUserFacing(err) {
				logger.InfoContext(ctx, "punch rejected", "error", err, "error_kind", ErrorKind(err))
				return
			}
			logger.ErrorContext(ctx, "punch failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"employee_id", result.Employee.ID,
			"event_id", result.Event.ID,
			"event_kind", string(result.Event.Kind),
			"seq", result.Event.Seq,
		).InfoContext(ctx, "punch recorded")
	}()

	action, err := shift.ParseAction(params.Action)
	if err != nil {
		return
	}

	note, err := normalizeNote(params.Note)
	if err != nil {
		return
	}

	employee, err := s.authenticator.Authenticate(ctx, params.PIN)
	if err != nil {
		return
	}
	logger = logger.With("employee_id", employee.ID)

	release := s.locks.Lock(employee.ID)
	defer release()

	var event PunchEvent
	var decision shift.Decision
	for attempt := 0; ; attempt++ {
		event, decision, err = s.recordOnce(ctx, employee.ID, action, note)
		if !errors.Is(err, ErrConcurrentAppend) || attempt >= s.retries {
			break
		}
		logger.WarnContext(ctx, "ledger append interleaved, retrying", "attempt", attempt+1)
	}
	if err != nil {
		if !IsUserFacing(err) {
			err = storageError("record punch", err)
		}
		return
	}

	result = PunchResult{Employee: employee, Event: event, State: decision.Next}
	return
}

// recordOnce runs one read-decide-append unit.
func (s *PunchService) recordOnce(ctx context.Context, employeeID string, action shift.Action, note *string) (PunchEvent, shift.Decision, error) {
	var appended PunchEvent
	var decision shift.Decision

	err := s.ledger.Atomically(ctx, employeeID, func(tx LedgerTx) error {
		latest, ok, err := tx.Latest(ctx)
		if err != nil {
			return err
		}

		current := shift.Closed
		if ok {
			current = shift.StateAfter(latest.Kind)
		}

		decision, err = shift.Decide(current, action)
		if err != nil {
			return err
		}

		event := PunchEvent{
			ID:         s.idGenerator(),
			EmployeeID: employeeID,
			Seq:        1,
			Kind:       decision.Kind,
			OccurredAt: s.now().UTC(),
			Note:       note,
		}
		if ok {
			event.Seq = latest.Seq + 1
			event.OccurredAt = monotonicAfter(latest.OccurredAt, event.OccurredAt)
		}

		appended, err = tx.Append(ctx, event)
		return err
	})
	if err != nil {
		return PunchEvent{}, shift.Decision{}, err
	}
	return appended, decision, nil
}

// monotonicAfter keeps per-employee timestamps strictly increasing even when
// the wall clock steps backwards.
func monotonicAfter(previous, candidate time.Time) time.Time {
	if candidate.After(previous) {
		return candidate
	}
	return previous.Add(time.Microsecond)
}

// normalizeNote returns nil for an absent or blank note and the note verbatim otherwise.
func normalizeNote(note *string) (*string, error) {
	if note == nil || strings.TrimSpace(*note) == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(*note) > MaxNoteLength {
		vErr := &ValidationError{}
		vErr.add("note", fmt.Sprintf("note must be at most %d characters", MaxNoteLength))
		return nil, vErr
	}
	value := *note
	return &value, nil
}
