package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/joscoffee/timeclock/internal/persistence"
)

func TestErrorMapper_MapError(t *testing.T) {
	t.Parallel()

	mapper := NewErrorMapper()
	if mapper.MapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if err := mapper.MapError(fmt.Errorf("scan: %w", sql.ErrNoRows)); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	plain := errors.New("something else")
	if err := mapper.MapError(plain); err != plain {
		t.Fatalf("expected unrelated errors to pass through, got %v", err)
	}
}

func TestRetryHelper_WithRetry(t *testing.T) {
	t.Parallel()

	fast := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	t.Run("retries busy errors until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := NewRetryHelper(fast).WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("begin: %w", ErrBusy)
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("expected success on third call, got %v after %d calls", err, calls)
		}
	})

	t.Run("gives up after the configured retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := NewRetryHelper(fast).WithRetry(context.Background(), func() error {
			calls++
			return ErrBusy
		})
		if !errors.Is(err, ErrBusy) || calls != 3 {
			t.Fatalf("expected ErrBusy after 3 calls, got %v after %d calls", err, calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := NewRetryHelper(fast).WithRetry(context.Background(), func() error {
			calls++
			return persistence.ErrDuplicate
		})
		if !errors.Is(err, persistence.ErrDuplicate) || calls != 1 {
			t.Fatalf("expected immediate ErrDuplicate, got %v after %d calls", err, calls)
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryConfig{MaxRetries: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 1}
		err := NewRetryHelper(slow).WithRetry(ctx, func() error {
			cancel()
			return ErrBusy
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestConnectionPool_WithTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	pool := storage.pool

	err := pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO employees (id, full_name, pin_code, active, created_at, updated_at) VALUES ('1', 'Alice', '1234', 1, 'x', 'x')`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM employees`); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int
	if err := pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected panic to roll back the delete, got %d rows", count)
	}
}
