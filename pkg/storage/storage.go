package storage

import (
	"context"

	"github.com/rhuss/zettel/pkg/api"
)

// UserStore persists user accounts.
//
// Name uniqueness is enforced by the store: CreateUser and UpdateUser
// return ErrConflict when the name is already taken by another user.
type UserStore interface {
	// CreateUser persists a new user. The caller assigns the ID.
	CreateUser(ctx context.Context, user *api.User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if absent.
	GetUser(ctx context.Context, id string) (*api.User, error)

	// GetUserByName retrieves a user by unique name. Returns ErrNotFound
	// if absent.
	GetUserByName(ctx context.Context, name string) (*api.User, error)

	// UpdateUser replaces the stored record for user.ID. Returns
	// ErrNotFound if absent.
	UpdateUser(ctx context.Context, user *api.User) error

	// DeleteUser removes a user and all notes owned by it. Returns
	// ErrNotFound if absent.
	DeleteUser(ctx context.Context, id string) error

	// ListUsers returns all users ordered by creation time descending.
	ListUsers(ctx context.Context) ([]*api.User, error)
}

// NoteStore persists notes and answers similarity searches.
//
// An empty userID on the search operations means no owner filter; how an
// unscoped search behaves depends on the implementation (the memory
// store ranks every note it holds, the postgres store only serves
// unscoped searches through the native index and returns an empty result
// from the fallback path).
type NoteStore interface {
	// CreateNote persists a new note. The caller assigns the ID.
	CreateNote(ctx context.Context, note *api.Note) error

	// GetNote retrieves a note by ID. Returns ErrNotFound if absent.
	GetNote(ctx context.Context, id string) (*api.Note, error)

	// UpdateNote replaces the stored record for note.ID. Returns
	// ErrNotFound if absent.
	UpdateNote(ctx context.Context, note *api.Note) error

	// DeleteNote removes a note by ID. Returns ErrNotFound if absent.
	DeleteNote(ctx context.Context, id string) error

	// ListNotesByUser returns the user's notes ordered newest first,
	// windowed by skip and limit.
	ListNotesByUser(ctx context.Context, userID string, skip, limit int) ([]*api.Note, error)

	// SearchByVector returns up to limit notes ranked by similarity to
	// the query embedding, most similar first.
	SearchByVector(ctx context.Context, embedding []float32, userID string, limit int) ([]*api.Note, error)

	// SearchByContent embeds the query text and delegates to vector
	// search.
	SearchByContent(ctx context.Context, query string, userID string, limit int) ([]*api.Note, error)
}

// Store combines user and note persistence with lifecycle operations.
// Both adapters back the two contracts with shared state so that
// deleting a user can cascade to its notes.
type Store interface {
	UserStore
	NoteStore

	// HealthCheck verifies the store is functional.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}
