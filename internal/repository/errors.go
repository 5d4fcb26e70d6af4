package repository

import "errors"

var (
	// ErrEventNotFound is returned when an event id does not exist.
	ErrEventNotFound = errors.New("event not found")

	// ErrRowLocked is returned when FOR UPDATE NOWAIT cannot acquire a
	// row-level lock because another commit holds it. Transient: the caller
	// surfaces it as a conflict, it never auto-retries here.
	ErrRowLocked = errors.New("seat row locked by concurrent transaction")
)
