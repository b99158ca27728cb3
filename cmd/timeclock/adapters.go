package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joscoffee/timeclock/internal/application"
	"github.com/joscoffee/timeclock/internal/persistence"
	"github.com/joscoffee/timeclock/internal/shift"
)

type rosterRepositoryAdapter struct {
	repo persistence.RosterRepository
}

func newRosterRepositoryAdapter(repo persistence.RosterRepository) *rosterRepositoryAdapter {
	return &rosterRepositoryAdapter{repo: repo}
}

func (a *rosterRepositoryAdapter) FindActiveByPIN(ctx context.Context, pin string) ([]application.Employee, error) {
	models, err := a.repo.FindActiveByPIN(ctx, pin)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	return toApplicationEmployees(models), nil
}

func (a *rosterRepositoryAdapter) ListEmployees(ctx context.Context) ([]application.Employee, error) {
	models, err := a.repo.ListEmployees(ctx)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	return toApplicationEmployees(models), nil
}

func (a *rosterRepositoryAdapter) GetEmployee(ctx context.Context, id string) (application.Employee, error) {
	model, err := a.repo.GetEmployee(ctx, id)
	if err != nil {
		return application.Employee{}, mapPersistenceError(err)
	}
	return toApplicationEmployee(model), nil
}

func (a *rosterRepositoryAdapter) CreateEmployee(ctx context.Context, employee application.Employee) (application.Employee, error) {
	if err := a.repo.CreateEmployee(ctx, toPersistenceEmployee(employee)); err != nil {
		return application.Employee{}, mapPersistenceError(err)
	}
	return a.GetEmployee(ctx, employee.ID)
}

func (a *rosterRepositoryAdapter) UpdateCredentials(ctx context.Context, employee application.Employee) (application.Employee, error) {
	if err := a.repo.UpdateCredentials(ctx, toPersistenceEmployee(employee)); err != nil {
		return application.Employee{}, mapPersistenceError(err)
	}
	return a.GetEmployee(ctx, employee.ID)
}

type shiftLedgerAdapter struct {
	repo persistence.LedgerRepository
}

func newShiftLedgerAdapter(repo persistence.LedgerRepository) *shiftLedgerAdapter {
	return &shiftLedgerAdapter{repo: repo}
}

func (a *shiftLedgerAdapter) Atomically(ctx context.Context, employeeID string, fn func(tx application.LedgerTx) error) error {
	return a.repo.Atomically(ctx, employeeID, func(tx persistence.LedgerTx) error {
		return fn(ledgerTxAdapter{tx: tx})
	})
}

func (a *shiftLedgerAdapter) RecentEvents(ctx context.Context, employeeID string, limit int) ([]application.PunchEvent, error) {
	models, err := a.repo.RecentEvents(ctx, employeeID, limit)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	events := make([]application.PunchEvent, 0, len(models))
	for _, model := range models {
		event, err := toApplicationPunchEvent(model)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

type ledgerTxAdapter struct {
	tx persistence.LedgerTx
}

func (a ledgerTxAdapter) Latest(ctx context.Context) (application.PunchEvent, bool, error) {
	model, err := a.tx.LatestEvent(ctx)
	if errors.Is(err, persistence.ErrNotFound) {
		return application.PunchEvent{}, false, nil
	}
	if err != nil {
		return application.PunchEvent{}, false, mapPersistenceError(err)
	}
	event, err := toApplicationPunchEvent(model)
	if err != nil {
		return application.PunchEvent{}, false, err
	}
	return event, true, nil
}

func (a ledgerTxAdapter) Append(ctx context.Context, event application.PunchEvent) (application.PunchEvent, error) {
	if err := a.tx.AppendEvent(ctx, toPersistencePunchEvent(event)); err != nil {
		return application.PunchEvent{}, mapPersistenceError(err)
	}
	return event, nil
}

// mapPersistenceError translates persistence sentinels into application
// sentinels. Anything else is left for the services to report as storage failure.
func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrSequenceTaken):
		return fmt.Errorf("%w: %v", application.ErrConcurrentAppend, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrDuplicatePin
	default:
		return err
	}
}

func toApplicationEmployees(models []persistence.Employee) []application.Employee {
	employees := make([]application.Employee, 0, len(models))
	for _, model := range models {
		employees = append(employees, toApplicationEmployee(model))
	}
	return employees
}

func toApplicationEmployee(model persistence.Employee) application.Employee {
	return application.Employee{
		ID:        model.ID,
		FullName:  model.FullName,
		PINCode:   model.PINCode,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceEmployee(employee application.Employee) persistence.Employee {
	return persistence.Employee{
		ID:        employee.ID,
		FullName:  employee.FullName,
		PINCode:   employee.PINCode,
		Active:    employee.Active,
		CreatedAt: employee.CreatedAt,
		UpdatedAt: employee.UpdatedAt,
	}
}

func toApplicationPunchEvent(model persistence.PunchEvent) (application.PunchEvent, error) {
	kind := shift.EventKind(model.Kind)
	if !kind.Valid() {
		return application.PunchEvent{}, fmt.Errorf("punch event %s has unknown kind %q", model.ID, model.Kind)
	}
	return application.PunchEvent{
		ID:         model.ID,
		EmployeeID: model.EmployeeID,
		Seq:        model.Seq,
		Kind:       kind,
		OccurredAt: model.OccurredAt,
		Note:       cloneString(model.Note),
	}, nil
}

func toPersistencePunchEvent(event application.PunchEvent) persistence.PunchEvent {
	return persistence.PunchEvent{
		ID:         event.ID,
		EmployeeID: event.EmployeeID,
		Seq:        event.Seq,
		Kind:       string(event.Kind),
		OccurredAt: event.OccurredAt,
		Note:       cloneString(event.Note),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
