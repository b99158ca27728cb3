package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joscoffee/timeclock/internal/persistence"
)

const employeeColumns = `id, full_name, pin_code, active, created_at, updated_at`

// CreateEmployee inserts a new roster row. For an active employee the PIN is
// checked against the other active employees in the same transaction.
func (s *Storage) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" || employee.FullName == "" || employee.PINCode == "" {
		return persistence.ErrConstraintViolation
	}

	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if employee.Active {
				if err := ensureActivePINFree(ctx, tx, employee.PINCode, employee.ID); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO employees (id, full_name, pin_code, active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				employee.ID,
				employee.FullName,
				employee.PINCode,
				employee.Active,
				formatTimestamp(employee.CreatedAt),
				formatTimestamp(employee.UpdatedAt),
			)
			return err
		})
	})
}

// UpdateCredentials changes the PIN and active flag of an existing employee.
// The active-PIN check and the update share one transaction; the partial
// unique index on active PINs backs it up with ErrDuplicate.
func (s *Storage) UpdateCredentials(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" {
		return persistence.ErrNotFound
	}
	if employee.PINCode == "" {
		return persistence.ErrConstraintViolation
	}

	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if employee.Active {
				if err := ensureActivePINFree(ctx, tx, employee.PINCode, employee.ID); err != nil {
					return err
				}
			}

			result, err := tx.ExecContext(ctx, `
				UPDATE employees
				SET pin_code = ?, active = ?, updated_at = ?
				WHERE id = ?
			`,
				employee.PINCode,
				employee.Active,
				formatTimestamp(employee.UpdatedAt),
				employee.ID,
			)
			if err != nil {
				return err
			}

			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return persistence.ErrNotFound
			}
			return nil
		})
	})
}

func ensureActivePINFree(ctx context.Context, q querier, pin, employeeID string) error {
	var holders int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM employees
		WHERE pin_code = ? AND active = 1 AND id <> ?
	`, pin, employeeID).Scan(&holders)
	if err != nil {
		return err
	}
	if holders > 0 {
		return fmt.Errorf("%w: pin held by another active employee", persistence.ErrDuplicate)
	}
	return nil
}

// GetEmployee retrieves one employee by id.
func (s *Storage) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if id == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}

	var employee persistence.Employee
	err := s.retry.WithRetry(ctx, func() error {
		row := s.pool.DB().QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
		var err error
		employee, err = scanEmployee(row)
		return err
	})
	if err != nil {
		return persistence.Employee{}, err
	}
	return employee, nil
}

// ListEmployees returns the whole roster ordered by name then id.
func (s *Storage) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	var employees []persistence.Employee
	err := s.retry.WithRetry(ctx, func() error {
		var err error
		employees, err = queryEmployees(ctx, s.pool.DB(), `
			SELECT `+employeeColumns+`
			FROM employees
			ORDER BY full_name COLLATE NOCASE ASC, id ASC
		`)
		return err
	})
	return employees, err
}

// FindActiveByPIN returns every active employee holding pin. More than one
// row means the roster is corrupt; callers decide how to react.
func (s *Storage) FindActiveByPIN(ctx context.Context, pin string) ([]persistence.Employee, error) {
	if pin == "" {
		return nil, nil
	}

	var employees []persistence.Employee
	err := s.retry.WithRetry(ctx, func() error {
		var err error
		employees, err = queryEmployees(ctx, s.pool.DB(), `
			SELECT `+employeeColumns+`
			FROM employees
			WHERE pin_code = ? AND active = 1
			ORDER BY id ASC
		`, pin)
		return err
	})
	return employees, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (persistence.Employee, error) {
	var employee persistence.Employee
	var createdAt, updatedAt string

	err := row.Scan(
		&employee.ID,
		&employee.FullName,
		&employee.PINCode,
		&employee.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Employee{}, persistence.ErrNotFound
		}
		return persistence.Employee{}, err
	}

	if employee.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return persistence.Employee{}, err
	}
	if employee.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return persistence.Employee{}, err
	}
	return employee, nil
}

func queryEmployees(ctx context.Context, q querier, query string, args ...any) ([]persistence.Employee, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []persistence.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}
