package transport

import (
	"context"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
)

// Pagination defaults applied by the HTTP adapter when the client omits
// the corresponding query parameters.
const (
	DefaultListLimit   = 100
	DefaultSearchLimit = 10
)

// NoteAPI is the contract between the HTTP adapter and the note
// service. Implementations enforce ownership: a note that exists but
// belongs to someone else behaves as if it were absent.
type NoteAPI interface {
	Create(ctx context.Context, req *api.CreateNoteRequest, caller *auth.Identity) (*api.Note, error)
	Get(ctx context.Context, id string, caller *auth.Identity) (*api.Note, error)
	Update(ctx context.Context, id string, req *api.UpdateNoteRequest, caller *auth.Identity) (*api.Note, error)
	Delete(ctx context.Context, id string, caller *auth.Identity) error

	// List returns the caller's notes newest first along with whether
	// more pages exist beyond the requested window.
	List(ctx context.Context, caller *auth.Identity, skip, limit int) ([]*api.Note, bool, error)

	// SearchByText returns up to limit notes ranked by semantic
	// similarity to the query, most similar first.
	SearchByText(ctx context.Context, caller *auth.Identity, query string, limit int) ([]*api.Note, error)
}

// UserAPI is the contract between the HTTP adapter and the user service.
type UserAPI interface {
	Register(ctx context.Context, req *api.RegisterRequest) (*api.User, error)
	Login(ctx context.Context, req *api.LoginRequest) (*api.TokenResponse, error)
	Get(ctx context.Context, id string, caller *auth.Identity) (*api.User, error)
	Update(ctx context.Context, id string, req *api.UpdateUserRequest, caller *auth.Identity) (*api.User, error)
	Delete(ctx context.Context, id string, caller *auth.Identity) error
	List(ctx context.Context, caller *auth.Identity) ([]*api.User, error)
}

// HealthChecker reports whether the backing store is reachable. The
// readiness endpoint delegates to it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ListOptions carries pagination parameters parsed from the query string.
type ListOptions struct {
	Skip  int // Number of items to skip from the newest end.
	Limit int // Maximum number of items to return.
}

// NoteList holds a paginated list of notes.
type NoteList struct {
	Object  string      `json:"object"`
	Data    []*api.Note `json:"data"`
	HasMore bool        `json:"has_more"`
}

// UserList holds a list of users.
type UserList struct {
	Object  string      `json:"object"`
	Data    []*api.User `json:"data"`
	HasMore bool        `json:"has_more"`
}

// NewNoteList wraps notes in the list envelope. A nil slice serializes
// as an empty data array.
func NewNoteList(notes []*api.Note, hasMore bool) *NoteList {
	if notes == nil {
		notes = []*api.Note{}
	}
	return &NoteList{Object: "list", Data: notes, HasMore: hasMore}
}

// NewUserList wraps users in the list envelope.
func NewUserList(users []*api.User) *UserList {
	if users == nil {
		users = []*api.User{}
	}
	return &UserList{Object: "list", Data: users, HasMore: false}
}
