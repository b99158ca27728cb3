package application

import (
	"errors"
	"fmt"

	"github.com/joscoffee/timeclock/internal/shift"
)

var (
	// ErrUnauthorized is returned when an admin request does not present the shared secret.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrConfig is returned when a required server-side setting is absent.
	ErrConfig = errors.New("application: server configuration incomplete")
	// ErrNotFound is returned when the requested employee does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidPin is returned when a PIN resolves to zero or several active employees.
	ErrInvalidPin = errors.New("application: invalid pin")
	// ErrDuplicatePin is returned when a PIN is already held by another active employee.
	ErrDuplicatePin = errors.New("application: pin already assigned to another active employee")
	// ErrConcurrentAppend is returned by ledgers whose optimistic sequence guard
	// detected an interleaved punch. The punch is retried from a fresh read.
	ErrConcurrentAppend = errors.New("application: concurrent ledger append")
	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("application: storage failure")

	// ErrStateConflict is matched by *shift.ConflictError.
	ErrStateConflict = shift.ErrConflict
	// ErrInvalidAction is returned when a punch action is neither "in" nor "out".
	ErrInvalidAction = shift.ErrInvalidAction
)

// StorageError wraps a failure of the underlying data store. Nothing was
// written when it is returned.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("storage: %s failed", e.Op)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var sErr *StorageError
	if errors.As(err, &sErr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Message returns one human readable message, preferring the given field order.
func (v *ValidationError) Message(order ...string) string {
	if !v.HasErrors() {
		return v.Error()
	}
	for _, field := range order {
		if msg, ok := v.FieldErrors[field]; ok {
			return msg
		}
	}
	for _, msg := range v.FieldErrors {
		return msg
	}
	return v.Error()
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
