package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joscoffee/timeclock/internal/persistence"
)

const punchEventColumns = `id, employee_id, seq, kind, occurred_at, note`

// Atomically runs fn in one IMMEDIATE transaction. Writers for any employee
// are serialized by the database lock, and UNIQUE(employee_id, seq) rejects an
// append based on a stale read. A busy database is retried from scratch after
// rollback, so fn may run more than once but commits at most once.
func (s *Storage) Atomically(ctx context.Context, employeeID string, fn func(tx persistence.LedgerTx) error) error {
	if employeeID == "" {
		return persistence.ErrNotFound
	}
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(&ledgerTx{tx: tx, employeeID: employeeID, mapper: s.mapper})
		})
	})
}

// RecentEvents returns at most limit events of employeeID, newest first.
func (s *Storage) RecentEvents(ctx context.Context, employeeID string, limit int) ([]persistence.PunchEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	var events []persistence.PunchEvent
	err := s.retry.WithRetry(ctx, func() error {
		var err error
		events, err = queryPunchEvents(ctx, s.pool.DB(), `
			SELECT `+punchEventColumns+`
			FROM punch_events
			WHERE employee_id = ?
			ORDER BY seq DESC
			LIMIT ?
		`, employeeID, limit)
		return err
	})
	return events, err
}

type ledgerTx struct {
	tx         *sql.Tx
	employeeID string
	mapper     *ErrorMapper
}

// LatestEvent returns persistence.ErrNotFound when no event exists yet.
func (l *ledgerTx) LatestEvent(ctx context.Context) (persistence.PunchEvent, error) {
	row := l.tx.QueryRowContext(ctx, `
		SELECT `+punchEventColumns+`
		FROM punch_events
		WHERE employee_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, l.employeeID)

	event, err := scanPunchEvent(row)
	if err != nil {
		return persistence.PunchEvent{}, l.mapper.MapError(err)
	}
	return event, nil
}

// AppendEvent inserts event. A reused sequence number yields persistence.ErrSequenceTaken.
func (l *ledgerTx) AppendEvent(ctx context.Context, event persistence.PunchEvent) error {
	if event.EmployeeID != l.employeeID {
		return persistence.ErrConstraintViolation
	}

	var note sql.NullString
	if event.Note != nil {
		note = sql.NullString{String: *event.Note, Valid: true}
	}

	_, err := l.tx.ExecContext(ctx, `
		INSERT INTO punch_events (id, employee_id, seq, kind, occurred_at, note)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.EmployeeID,
		event.Seq,
		event.Kind,
		formatTimestamp(event.OccurredAt),
		note,
	)
	return l.mapper.MapError(err)
}

func scanPunchEvent(row rowScanner) (persistence.PunchEvent, error) {
	var event persistence.PunchEvent
	var occurredAt string
	var note sql.NullString

	err := row.Scan(
		&event.ID,
		&event.EmployeeID,
		&event.Seq,
		&event.Kind,
		&occurredAt,
		&note,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.PunchEvent{}, persistence.ErrNotFound
		}
		return persistence.PunchEvent{}, err
	}

	if event.OccurredAt, err = parseTimestamp("occurred_at", occurredAt); err != nil {
		return persistence.PunchEvent{}, err
	}
	if note.Valid {
		value := note.String
		event.Note = &value
	}
	return event, nil
}

func queryPunchEvents(ctx context.Context, q querier, query string, args ...any) ([]persistence.PunchEvent, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []persistence.PunchEvent
	for rows.Next() {
		event, err := scanPunchEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
