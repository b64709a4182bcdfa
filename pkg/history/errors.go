package history

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("history: record not found")

	// ErrNilRecord is returned when saving a nil record.
	ErrNilRecord = errors.New("history: nil record")

	// ErrNoDSN is returned when the postgres backend has no connection string.
	ErrNoDSN = errors.New("history: postgres DSN not set")
)
