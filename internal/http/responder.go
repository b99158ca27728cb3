package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joscoffee/timeclock/internal/application"
	"github.com/joscoffee/timeclock/internal/shift"
)

const maxBodyBytes = 64 << 10

const (
	msgNotRecorded      = "not recorded"
	msgUnauthorized     = "Unauthorized"
	msgMethodNotAllowed = "Method not allowed"
	msgNotFound         = "Not found"
	msgBadRequestBody   = "request body must be a JSON object"
	msgInvalidAction    = `action must be "in" or "out"`
	msgDuplicatePin     = "pinCode is already assigned to another active employee"
	msgEmployeeNotFound = "employee not found"
	msgStorage          = "storage unavailable, nothing was recorded"
	msgConfig           = "server is not configured"
	msgInternal         = "internal server error"
)

var errBadRequestBody = errors.New(msgBadRequestBody)

// errorResponse is the body of every failed request.
type errorResponse struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	r.writeJSON(ctx, w, status, errorResponse{Error: message})
}

// handleServiceError maps an admin service error to its HTTP status.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	switch {
	case err == nil:
		r.writeMessage(ctx, w, http.StatusInternalServerError, msgInternal)
	case errors.Is(err, application.ErrUnauthorized):
		r.writeMessage(ctx, w, http.StatusUnauthorized, msgUnauthorized)
	case errors.As(err, &vErr):
		r.writeValidation(ctx, w, vErr, "id", "fullName", "pinCode", "limit")
	case errors.Is(err, application.ErrDuplicatePin):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			Error:  msgDuplicatePin,
			Errors: map[string]string{"pinCode": msgDuplicatePin},
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeMessage(ctx, w, http.StatusNotFound, msgEmployeeNotFound)
	default:
		r.writeFault(ctx, w, err)
	}
}

// handlePunchError maps a punch error. Expected rejections keep status 200.
func (r responder) handlePunchError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	var conflict *shift.ConflictError
	switch {
	case err == nil:
		r.writeMessage(ctx, w, http.StatusInternalServerError, msgInternal)
	case errors.Is(err, application.ErrInvalidPin):
		r.writeMessage(ctx, w, http.StatusOK, msgNotRecorded)
	case errors.As(err, &conflict):
		r.writeMessage(ctx, w, http.StatusOK, conflict.Error())
	case errors.Is(err, application.ErrInvalidAction):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Error:  msgInvalidAction,
			Errors: map[string]string{"action": msgInvalidAction},
		})
	case errors.As(err, &vErr):
		r.writeValidation(ctx, w, vErr, "pin", "action", "note")
	default:
		r.writeFault(ctx, w, err)
	}
}

func (r responder) writeValidation(ctx context.Context, w http.ResponseWriter, vErr *application.ValidationError, order ...string) {
	r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
		Error:  vErr.Message(order...),
		Errors: vErr.FieldErrors,
	})
}

// writeFault answers storage and configuration failures without leaking detail.
func (r responder) writeFault(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrStorage):
		w.Header().Set("Retry-After", "1")
		r.writeMessage(ctx, w, http.StatusServiceUnavailable, msgStorage)
	case errors.Is(err, application.ErrConfig):
		r.writeMessage(ctx, w, http.StatusInternalServerError, msgConfig)
	default:
		r.writeMessage(ctx, w, http.StatusInternalServerError, msgInternal)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// decodeJSON reads one JSON value from a size-limited body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errBadRequestBody
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return errors.Join(errBadRequestBody, err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	newResponder(nil).writeMessage(r.Context(), w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeMessage(r.Context(), w, http.StatusNotFound, msgNotFound)
}
