package application

import (
	"context"
	"fmt"
	"log/slog"
)

// RosterReader resolves PINs against the roster store.
type RosterReader interface {
	FindActiveByPIN(ctx context.Context, pin string) ([]Employee, error)
}

// PINAuthenticator resolves a presented PIN to exactly one active employee.
type PINAuthenticator struct {
	roster RosterReader
	logger *slog.Logger
}

// NewPINAuthenticator wires the roster lookup used for punches.
func NewPINAuthenticator(roster RosterReader, logger *slog.Logger) *PINAuthenticator {
	return &PINAuthenticator{roster: roster, logger: defaultLogger(logger)}
}

// Authenticate returns the single active employee holding pin. Zero matches
// and multiple matches both yield ErrInvalidPin; the latter is also logged as
// a roster integrity breach.
func (a *PINAuthenticator) Authenticate(ctx context.Context, pin string) (Employee, error) {
	if a == nil || a.roster == nil {
		return Employee{}, fmt.Errorf("%w: roster not configured", ErrConfig)
	}
	if pin == "" {
		return Employee{}, ErrInvalidPin
	}

	matches, err := a.roster.FindActiveByPIN(ctx, pin)
	if err != nil {
		return Employee{}, storageError("find employee by pin", err)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Employee{}, ErrInvalidPin
	default:
		ids := make([]string, 0, len(matches))
		for _, match := range matches {
			ids = append(ids, match.ID)
		}
		serviceLogger(ctx, a.logger, "PINAuthenticator", "Authenticate", "employee_ids", ids).
			ErrorContext(ctx, "active employees share a pin", "error_kind", "integrity")
		return Employee{}, ErrInvalidPin
	}
}
