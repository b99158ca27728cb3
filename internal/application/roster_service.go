package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/joscoffee/timeclock/internal/shift"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
	maxFullNameLength   = 120
)

// RosterRepository captures the persistence operations needed by the roster service.
type RosterRepository interface {
	RosterReader
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	CreateEmployee(ctx context.Context, employee Employee) (Employee, error)
	UpdateCredentials(ctx context.Context, employee Employee) (Employee, error)
}

// PunchHistoryReader returns the most recent ledger entries of an employee, newest first.
type PunchHistoryReader interface {
	RecentEvents(ctx context.Context, employeeID string, limit int) ([]PunchEvent, error)
}

// RosterService implements the administrative roster operations. Every call
// is checked against the AccessGate before its payload is looked at.
type RosterService struct {
	gate        *AccessGate
	employees   RosterRepository
	history     PunchHistoryReader
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRosterService wires dependencies for the roster service.
func NewRosterService(gate *AccessGate, employees RosterRepository, history PunchHistoryReader, idGenerator func() string, now func() time.Time) *RosterService {
	return NewRosterServiceWithLogger(gate, employees, history, idGenerator, now, nil)
}

// NewRosterServiceWithLogger wires dependencies for the roster service with a specified logger.
func NewRosterServiceWithLogger(gate *AccessGate, employees RosterRepository, history PunchHistoryReader, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RosterService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RosterService{
		gate:        gate,
		employees:   employees,
		history:     history,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RosterService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RosterService", operation, attrs...)
}

// Authorize checks a presented admin secret without performing any operation.
// Handlers use it to report authorization ahead of payload decoding errors.
func (s *RosterService) Authorize(ctx context.Context, secret string) error {
	if s == nil {
		return fmt.Errorf("RosterService is nil")
	}
	if s.gate == nil {
		return fmt.Errorf("%w: access gate not configured", ErrConfig)
	}
	return s.gate.Authorize(ctx, secret)
}

// ListEmployees returns every employee, active or not, ordered by name.
func (s *RosterService) ListEmployees(ctx context.Context, secret string) (employees []Employee, err error) {
	if s == nil {
		return nil, fmt.Errorf("RosterService is nil")
	}

	logger := s.loggerWith(ctx, "ListEmployees")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "list employees", err)
		}
	}()

	if err = s.Authorize(ctx, secret); err != nil {
		return nil, err
	}
	if s.employees == nil {
		return nil, fmt.Errorf("%w: roster repository not configured", ErrConfig)
	}

	listed, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, storageError("list employees", err)
	}

	out := make([]Employee, len(listed))
	copy(out, listed)
	sortEmployees(out)

	logger.DebugContext(ctx, "employees listed", "count", len(out))
	return out, nil
}

// UpdatePIN assigns a new PIN and active flag to an existing employee.
func (s *RosterService) UpdatePIN(ctx context.Context, params UpdatePINParams) (employee Employee, err error) {
	if s == nil {
		return Employee{}, fmt.Errorf("RosterService is nil")
	}

	logger := s.loggerWith(ctx, "UpdatePIN", "employee_id", params.EmployeeID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "update pin", err)
			return
		}
		logger.InfoContext(ctx, "employee pin updated", "active", employee.Active)
	}()

	if err = s.Authorize(ctx, params.Secret); err != nil {
		return Employee{}, err
	}

	employeeID := strings.TrimSpace(params.EmployeeID)
	pin := strings.TrimSpace(params.PINCode)
	vErr := &ValidationError{}
	if employeeID == "" {
		vErr.add("id", "id is required")
	}
	validatePIN(vErr, pin)
	if vErr.HasErrors() {
		return Employee{}, vErr
	}

	if s.employees == nil {
		return Employee{}, fmt.Errorf("%w: roster repository not configured", ErrConfig)
	}

	existing, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return Employee{}, mapRosterError("get employee", err)
	}

	updated := existing
	updated.PINCode = pin
	updated.Active = activeOrDefault(params.Active)
	updated.UpdatedAt = s.now().UTC()

	if updated.Active {
		if err = s.ensurePINAvailable(ctx, pin, updated.ID); err != nil {
			return Employee{}, err
		}
	}

	persisted, err := s.employees.UpdateCredentials(ctx, updated)
	if err != nil {
		return Employee{}, mapRosterError("update employee", err)
	}
	return persisted, nil
}

// CreateEmployee adds a new employee to the roster.
func (s *RosterService) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (employee Employee, err error) {
	if s == nil {
		return Employee{}, fmt.Errorf("RosterService is nil")
	}

	logger := s.loggerWith(ctx, "CreateEmployee")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "create employee", err)
			return
		}
		logger.InfoContext(ctx, "employee created", "employee_id", employee.ID, "active", employee.Active)
	}()

	if err = s.Authorize(ctx, params.Secret); err != nil {
		return Employee{}, err
	}

	fullName := strings.TrimSpace(params.FullName)
	pin := strings.TrimSpace(params.PINCode)
	vErr := &ValidationError{}
	switch {
	case fullName == "":
		vErr.add("fullName", "fullName is required")
	case len([]rune(fullName)) > maxFullNameLength:
		vErr.add("fullName", fmt.Sprintf("fullName must be at most %d characters", maxFullNameLength))
	}
	validatePIN(vErr, pin)
	if vErr.HasErrors() {
		return Employee{}, vErr
	}

	if s.employees == nil {
		return Employee{}, fmt.Errorf("%w: roster repository not configured", ErrConfig)
	}

	now := s.now().UTC()
	candidate := Employee{
		ID:        s.idGenerator(),
		FullName:  fullName,
		PINCode:   pin,
		Active:    activeOrDefault(params.Active),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if candidate.Active {
		if err = s.ensurePINAvailable(ctx, pin, candidate.ID); err != nil {
			return Employee{}, err
		}
	}

	persisted, err := s.employees.CreateEmployee(ctx, candidate)
	if err != nil {
		return Employee{}, mapRosterError("create employee", err)
	}
	return persisted, nil
}

// ShiftHistory returns the derived shift state of one employee along with
// its most recent punches.
func (s *RosterService) ShiftHistory(ctx context.Context, params ShiftHistoryParams) (history ShiftHistory, err error) {
	if s == nil {
		return ShiftHistory{}, fmt.Errorf("RosterService is nil")
	}

	logger := s.loggerWith(ctx, "ShiftHistory", "employee_id", params.EmployeeID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, "shift history", err)
		}
	}()

	if err = s.Authorize(ctx, params.Secret); err != nil {
		return ShiftHistory{}, err
	}

	limit := DefaultHistoryLimit
	if params.Limit != nil {
		limit = *params.Limit
	}
	vErr := &ValidationError{}
	if limit < 1 || limit > MaxHistoryLimit {
		vErr.add("limit", fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit))
	}
	if strings.TrimSpace(params.EmployeeID) == "" {
		vErr.add("id", "id is required")
	}
	if vErr.HasErrors() {
		return ShiftHistory{}, vErr
	}

	if s.employees == nil || s.history == nil {
		return ShiftHistory{}, fmt.Errorf("%w: roster repository not configured", ErrConfig)
	}

	employee, err := s.employees.GetEmployee(ctx, strings.TrimSpace(params.EmployeeID))
	if err != nil {
		return ShiftHistory{}, mapRosterError("get employee", err)
	}

	events, err := s.history.RecentEvents(ctx, employee.ID, limit)
	if err != nil {
		return ShiftHistory{}, storageError("recent punches", err)
	}

	history = ShiftHistory{Employee: employee, State: shift.Closed, Events: events}
	if len(events) > 0 {
		history.State = shift.StateAfter(events[0].Kind)
	}
	return history, nil
}

// ensurePINAvailable rejects pin when another active employee already holds it.
func (s *RosterService) ensurePINAvailable(ctx context.Context, pin, employeeID string) error {
	holders, err := s.employees.FindActiveByPIN(ctx, pin)
	if err != nil {
		return storageError("find employee by pin", err)
	}
	for _, holder := range holders {
		if holder.ID != employeeID {
			return ErrDuplicatePin
		}
	}
	return nil
}

// ValidPIN reports whether pin is a 4 to 6 digit ASCII numeric string.
func ValidPIN(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func validatePIN(vErr *ValidationError, pin string) {
	switch {
	case pin == "":
		vErr.add("pinCode", "pinCode is required")
	case !ValidPIN(pin):
		vErr.add("pinCode", "pinCode must be 4 to 6 digits")
	}
}

func activeOrDefault(active *bool) bool {
	if active == nil {
		return true
	}
	return *active
}

func mapRosterError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrDuplicatePin):
		return ErrDuplicatePin
	default:
		return storageError(op, err)
	}
}

func sortEmployees(employees []Employee) {
	sort.SliceStable(employees, func(i, j int) bool {
		if strings.EqualFold(employees[i].FullName, employees[j].FullName) {
			return employees[i].ID < employees[j].ID
		}
		return strings.ToLower(employees[i].FullName) < strings.ToLower(employees[j].FullName)
	})
}

func logOutcome(ctx context.Context, logger *slog.Logger, action string, err error) {
	if IsUserFacing(err) {
		logger.InfoContext(ctx, action+" rejected", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.ErrorContext(ctx, action+" failed", "error", err, "error_kind", ErrorKind(err))
}
