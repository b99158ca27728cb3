package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/joscoffee/timeclock/internal/application"
)

const testSecret = "s3cret"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type punchServiceStub struct {
	calls  int
	params application.PunchParams
	result application.PunchResult
	err    error
}

func (s *punchServiceStub) Punch(_ context.Context, params application.PunchParams) (application.PunchResult, error) {
	s.calls++
	s.params = params
	return s.result, s.err
}

type rosterServiceStub struct {
	employees []application.Employee
	employee  application.Employee
	history   application.ShiftHistory
	err       error

	updateParams  application.UpdatePINParams
	createParams  application.CreateEmployeeParams
	historyParams application.ShiftHistoryParams
	calls         int
}

func (s *rosterServiceStub) Authorize(_ context.Context, secret string) error {
	if secret != testSecret {
		return application.ErrUnauthorized
	}
	return nil
}

func (s *rosterServiceStub) ListEmployees(ctx context.Context, secret string) ([]application.Employee, error) {
	s.calls++
	if err := s.Authorize(ctx, secret); err != nil {
		return nil, err
	}
	return s.employees, s.err
}

func (s *rosterServiceStub) UpdatePIN(ctx context.Context, params application.UpdatePINParams) (application.Employee, error) {
	s.calls++
	s.updateParams = params
	if err := s.Authorize(ctx, params.Secret); err != nil {
		return application.Employee{}, err
	}
	return s.employee, s.err
}

func (s *rosterServiceStub) CreateEmployee(ctx context.Context, params application.CreateEmployeeParams) (application.Employee, error) {
	s.calls++
	s.createParams = params
	if err := s.Authorize(ctx, params.Secret); err != nil {
		return application.Employee{}, err
	}
	return s.employee, s.err
}

func (s *rosterServiceStub) ShiftHistory(ctx context.Context, params application.ShiftHistoryParams) (application.ShiftHistory, error) {
	s.calls++
	s.historyParams = params
	if err := s.Authorize(ctx, params.Secret); err != nil {
		return application.ShiftHistory{}, err
	}
	return s.history, s.err
}

// decodeBody parses a JSON object response.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a JSON object: %q (%v)", rec.Body.String(), err)
	}
	return body
}

func alice() application.Employee {
	return application.Employee{ID: "1", FullName: "Alice", PINCode: "1234", Active: true}
}
