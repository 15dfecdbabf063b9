package api

import "github.com/google/uuid"

// NewUserID generates a new user identifier (random UUID string).
func NewUserID() string {
	return uuid.NewString()
}

// NewNoteID generates a new note identifier (random UUID string).
func NewNoteID() string {
	return uuid.NewString()
}

// ValidateID checks whether the given string is a well-formed identifier.
// User and note IDs share the same UUID format; they are opaque to
// clients and only ever compared for equality.
func ValidateID(id string) bool {
	return uuid.Validate(id) == nil
}
