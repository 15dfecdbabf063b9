package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user or note does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a uniqueness constraint is violated,
	// such as registering a user name that is already taken.
	ErrConflict = errors.New("record already exists")
)
