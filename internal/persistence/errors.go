package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint,
	// such as two active employees sharing a PIN.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrSequenceTaken is returned when a punch event is appended with a
	// sequence number another writer already used for the same employee.
	ErrSequenceTaken = errors.New("persistence: ledger sequence already taken")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned when a record fails a CHECK or NOT NULL constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
