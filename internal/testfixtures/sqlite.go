package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/joscoffee/timeclock/internal/persistence"
	"github.com/joscoffee/timeclock/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a migrated SQLite file
// in a temporary directory.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	Roster  persistence.RosterRepository
	Ledger  persistence.LedgerRepository
	Path    string

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a fresh database. Close is registered
// with tb.Cleanup; calling it earlier is allowed.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()
	return OpenSQLiteHarness(tb, filepath.Join(tb.TempDir(), "timeclock.db"))
}

// OpenSQLiteHarness opens path, which may already hold a database. Two
// harnesses on the same path behave like two server processes.
func OpenSQLiteHarness(tb testing.TB, path string) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage, err := sqlite.Open(ctx, sqlite.DefaultConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		Roster:  storage,
		Ledger:  storage,
		Path:    path,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedEmployees stores the given fixtures, failing the test on error.
func (h *SQLiteHarness) SeedEmployees(tb testing.TB, fixtures ...EmployeeFixture) {
	tb.Helper()
	for _, fixture := range fixtures {
		if err := h.Roster.CreateEmployee(context.Background(), fixture.Persistence()); err != nil {
			tb.Fatalf("failed to seed employee %s: %v", fixture.ID, err)
		}
	}
}
