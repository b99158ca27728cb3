package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joscoffee/timeclock/internal/shift"
)

const testSecret = "s3cret"

func newTestRosterService(roster *rosterStub, ledger *ledgerStub) *RosterService {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var history PunchHistoryReader
	if ledger != nil {
		history = ledger
	}
	return NewRosterService(NewAccessGate(testSecret), roster, history, sequentialIDs("emp"), func() time.Time { return now })
}

func TestRosterService_ListEmployees(t *testing.T) {
	t.Parallel()

	t.Run("requires the shared secret", func(t *testing.T) {
		t.Parallel()

		roster := newRosterStub(alice())
		roster.listErr = errors.New("must not be called")
		svc := newTestRosterService(roster, nil)

		for _, secret := range []string{"", "wrong"} {
			if _, err := svc.ListEmployees(context.Background(), secret); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized for %q, got %v", secret, err)
			}
		}
	})

	t.Run("reports missing configuration", func(t *testing.T) {
		t.Parallel()

		svc := NewRosterService(NewAccessGate(""), newRosterStub(alice()), nil, nil, nil)
		if _, err := svc.ListEmployees(context.Background(), testSecret); !errors.Is(err, ErrConfig) {
			t.Fatalf("expected ErrConfig, got %v", err)
		}
	})

	t.Run("returns employees ordered by name including inactive ones", func(t *testing.T) {
		t.Parallel()

		roster := newRosterStub(
			Employee{ID: "3", FullName: "carol", PINCode: "3333", Active: false},
			Employee{ID: "2", FullName: "Bob", PINCode: "2222", Active: true},
			alice(),
			Employee{ID: "0", FullName: "Bob", PINCode: "4444", Active: true},
		)
		svc := newTestRosterService(roster, nil)

		employees, err := svc.ListEmployees(context.Background(), testSecret)
		if err != nil {
			t.Fatalf("ListEmployees failed: %v", err)
		}

		want := []string{"1", "0", "2", "3"}
		if len(employees) != len(want) {
			t.Fatalf("expected %d employees, got %d", len(want), len(employees))
		}
		for i, id := range want {
			if employees[i].ID != id {
				t.Fatalf("position %d: expected id %s, got %s", i, id, employees[i].ID)
			}
		}
	})

	t.Run("wraps repository failures", func(t *testing.T) {
		t.Parallel()

		roster := newRosterStub()
		roster.listErr = errors.New("disk I/O error")
		svc := newTestRosterService(roster, nil)

		if _, err := svc.ListEmployees(context.Background(), testSecret); !errors.Is(err, ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestRosterService_UpdatePIN(t *testing.T) {
	t.Parallel()

	t.Run("checks the secret before validating the payload", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(alice()), nil)
		_, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: "wrong"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates id and pin", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(alice()), nil)
		cases := []struct {
			name   string
			params UpdatePINParams
			field  string
		}{
			{name: "missing id", params: UpdatePINParams{Secret: testSecret, PINCode: "1234"}, field: "id"},
			{name: "missing pin", params: UpdatePINParams{Secret: testSecret, EmployeeID: "1"}, field: "pinCode"},
			{name: "short pin", params: UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "12"}, field: "pinCode"},
			{name: "non numeric pin", params: UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "12a4"}, field: "pinCode"},
			{name: "long pin", params: UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "1234567"}, field: "pinCode"},
		}
		for _, tc := range cases {
			_, err := svc.UpdatePIN(context.Background(), tc.params)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors[tc.field] == "" {
				t.Fatalf("%s: expected validation error on %s, got %v", tc.name, tc.field, err)
			}
		}
	})

	t.Run("updates pin and defaults active to true", func(t *testing.T) {
		t.Parallel()

		inactive := alice()
		inactive.Active = false
		roster := newRosterStub(inactive)
		svc := newTestRosterService(roster, nil)

		updated, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: " 1 ", PINCode: "5678"})
		if err != nil {
			t.Fatalf("UpdatePIN failed: %v", err)
		}
		if updated.PINCode != "5678" || !updated.Active || updated.FullName != "Alice" {
			t.Fatalf("unexpected update result %#v", updated)
		}
		if stored := roster.get("1"); stored.PINCode != "5678" || !stored.Active {
			t.Fatalf("expected roster to be updated, got %#v", stored)
		}
	})

	t.Run("can deactivate an employee", func(t *testing.T) {
		t.Parallel()

		roster := newRosterStub(alice())
		svc := newTestRosterService(roster, nil)

		updated, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "1234", Active: boolPtr(false)})
		if err != nil {
			t.Fatalf("UpdatePIN failed: %v", err)
		}
		if updated.Active {
			t.Fatalf("expected employee to be inactive")
		}
	})

	t.Run("rejects a pin held by another active employee", func(t *testing.T) {
		t.Parallel()

		bob := Employee{ID: "2", FullName: "Bob", PINCode: "2222", Active: true}
		roster := newRosterStub(alice(), bob)
		svc := newTestRosterService(roster, nil)

		_, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: "2", PINCode: "1234"})
		if !errors.Is(err, ErrDuplicatePin) {
			t.Fatalf("expected ErrDuplicatePin, got %v", err)
		}
		if roster.get("1").PINCode != "1234" || roster.get("2").PINCode != "2222" {
			t.Fatalf("expected both records to be unchanged")
		}
		if len(roster.updates) != 0 {
			t.Fatalf("expected no writes, got %d", len(roster.updates))
		}
	})

	t.Run("allows a pin held only by inactive employees", func(t *testing.T) {
		t.Parallel()

		former := Employee{ID: "9", FullName: "Former", PINCode: "2222", Active: false}
		roster := newRosterStub(alice(), former)
		svc := newTestRosterService(roster, nil)

		if _, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "2222"}); err != nil {
			t.Fatalf("UpdatePIN failed: %v", err)
		}
	})

	t.Run("maps missing employees and write conflicts", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(alice()), nil)
		if _, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: "42", PINCode: "1234"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		roster := newRosterStub(alice())
		roster.writeErr = ErrDuplicatePin
		svc = newTestRosterService(roster, nil)
		if _, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "4321"}); !errors.Is(err, ErrDuplicatePin) {
			t.Fatalf("expected ErrDuplicatePin from write, got %v", err)
		}

		roster = newRosterStub(alice())
		roster.writeErr = errors.New("disk full")
		svc = newTestRosterService(roster, nil)
		if _, err := svc.UpdatePIN(context.Background(), UpdatePINParams{Secret: testSecret, EmployeeID: "1", PINCode: "4321"}); !errors.Is(err, ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
	})
}

func TestRosterService_CreateEmployee(t *testing.T) {
	t.Parallel()

	t.Run("creates active employees with generated ids", func(t *testing.T) {
		t.Parallel()

		roster := newRosterStub(alice())
		svc := newTestRosterService(roster, nil)

		created, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{Secret: testSecret, FullName: "  Dana  ", PINCode: "4242"})
		if err != nil {
			t.Fatalf("CreateEmployee failed: %v", err)
		}
		if created.ID != "emp-1" || created.FullName != "Dana" || !created.Active {
			t.Fatalf("unexpected employee %#v", created)
		}
		if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Fatalf("expected timestamps to be set")
		}
	})

	t.Run("validates name and pin", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(), nil)
		_, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{Secret: testSecret, FullName: " ", PINCode: "1"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if vErr.FieldErrors["fullName"] == "" || vErr.FieldErrors["pinCode"] == "" {
			t.Fatalf("expected both fields to be reported, got %#v", vErr.FieldErrors)
		}
	})

	t.Run("rejects duplicate active pins", func(t *testing.T) {
		t.Parallel()

		roster := newRosterStub(alice())
		svc := newTestRosterService(roster, nil)

		if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{Secret: testSecret, FullName: "Eve", PINCode: "1234"}); !errors.Is(err, ErrDuplicatePin) {
			t.Fatalf("expected ErrDuplicatePin, got %v", err)
		}

		if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{Secret: testSecret, FullName: "Eve", PINCode: "1234", Active: boolPtr(false)}); err != nil {
			t.Fatalf("expected inactive employee to share a pin, got %v", err)
		}
	})

	t.Run("requires the shared secret", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(), nil)
		if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{FullName: "Eve", PINCode: "1234"}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestRosterService_ShiftHistory(t *testing.T) {
	t.Parallel()

	t.Run("derives state from the newest event", func(t *testing.T) {
		t.Parallel()

		ledger := newLedgerStub()
		start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		ledger.events["1"] = []PunchEvent{
			{ID: "a", EmployeeID: "1", Seq: 1, Kind: shift.ClockIn, OccurredAt: start},
			{ID: "b", EmployeeID: "1", Seq: 2, Kind: shift.ClockOut, OccurredAt: start.Add(time.Hour)},
			{ID: "c", EmployeeID: "1", Seq: 3, Kind: shift.ClockIn, OccurredAt: start.Add(2 * time.Hour)},
		}
		svc := newTestRosterService(newRosterStub(alice()), ledger)

		history, err := svc.ShiftHistory(context.Background(), ShiftHistoryParams{Secret: testSecret, EmployeeID: "1", Limit: intPtr(2)})
		if err != nil {
			t.Fatalf("ShiftHistory failed: %v", err)
		}
		if history.State != shift.Open {
			t.Fatalf("expected open state, got %s", history.State)
		}
		if len(history.Events) != 2 || history.Events[0].ID != "c" || history.Events[1].ID != "b" {
			t.Fatalf("expected newest two events, got %#v", history.Events)
		}
	})

	t.Run("defaults to closed without events", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(alice()), newLedgerStub())
		history, err := svc.ShiftHistory(context.Background(), ShiftHistoryParams{Secret: testSecret, EmployeeID: "1"})
		if err != nil {
			t.Fatalf("ShiftHistory failed: %v", err)
		}
		if history.State != shift.Closed || len(history.Events) != 0 {
			t.Fatalf("unexpected history %#v", history)
		}
	})

	t.Run("validates limit and maps missing employees", func(t *testing.T) {
		t.Parallel()

		svc := newTestRosterService(newRosterStub(alice()), newLedgerStub())

		for _, limit := range []int{0, -1, MaxHistoryLimit + 1} {
			_, err := svc.ShiftHistory(context.Background(), ShiftHistoryParams{Secret: testSecret, EmployeeID: "1", Limit: intPtr(limit)})
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors["limit"] == "" {
				t.Fatalf("limit %d: expected limit validation error, got %v", limit, err)
			}
		}

		if _, err := svc.ShiftHistory(context.Background(), ShiftHistoryParams{Secret: testSecret, EmployeeID: "7"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestValidPIN(t *testing.T) {
	t.Parallel()

	valid := []string{"1234", "00000", "987654"}
	invalid := []string{"", "123", "1234567", "12a4", "１２３４", " 1234"}

	for _, pin := range valid {
		if !ValidPIN(pin) {
			t.Fatalf("expected %q to be valid", pin)
		}
	}
	for _, pin := range invalid {
		if ValidPIN(pin) {
			t.Fatalf("expected %q to be invalid", pin)
		}
	}
}
