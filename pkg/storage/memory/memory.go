// Package memory provides an in-memory implementation of storage.Store
// for testing and lightweight deployments. Users and notes are stored in
// memory and lost when the process restarts. Similarity search embeds
// note content on first use and caches the vector on the stored note.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/observability"
	"github.com/rhuss/zettel/pkg/storage"
	"github.com/rhuss/zettel/pkg/vector"
)

// Store is an in-memory user and note store with brute-force similarity
// search.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*api.User
	usersByName map[string]string // name -> user ID
	notes       map[string]*api.Note
	notesByUser map[string][]string // user ID -> note IDs, oldest first
	noteOrder   []string            // all note IDs, oldest first
	embedder    vector.Embedder
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store. The embedder is used to vectorize
// note content and search queries on demand.
func New(embedder vector.Embedder) *Store {
	return &Store{
		users:       make(map[string]*api.User),
		usersByName: make(map[string]string),
		notes:       make(map[string]*api.Note),
		notesByUser: make(map[string][]string),
		embedder:    embedder,
	}
}

// CreateUser persists a new user in memory.
func (s *Store) CreateUser(ctx context.Context, user *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return storage.ErrConflict
	}
	if _, taken := s.usersByName[user.Name]; taken {
		return storage.ErrConflict
	}

	s.users[user.ID] = user.Clone()
	s.usersByName[user.Name] = user.ID
	return nil
}

// GetUser retrieves a user by ID. Returns ErrNotFound if the user does
// not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u.Clone(), nil
}

// GetUserByName retrieves a user by unique name.
func (s *Store) GetUserByName(ctx context.Context, name string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.users[id].Clone(), nil
}

// UpdateUser replaces the stored record for user.ID. A name change is
// re-indexed and rejected with ErrConflict if another user holds the
// new name.
func (s *Store) UpdateUser(ctx context.Context, user *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}

	if user.Name != cur.Name {
		if other, taken := s.usersByName[user.Name]; taken && other != user.ID {
			return storage.ErrConflict
		}
		delete(s.usersByName, cur.Name)
		s.usersByName[user.Name] = user.ID
	}

	s.users[user.ID] = user.Clone()
	return nil
}

// DeleteUser removes a user and cascades to all notes the user owns.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(s.users, id)
	delete(s.usersByName, u.Name)

	for _, noteID := range s.notesByUser[id] {
		delete(s.notes, noteID)
	}
	delete(s.notesByUser, id)
	s.compactNoteOrder()

	return nil
}

// ListUsers returns all users ordered by creation time descending.
func (s *Store) ListUsers(ctx context.Context) ([]*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// CreateNote persists a new note in memory. The embedding is stored as
// given; a nil embedding is computed lazily on first search.
func (s *Store) CreateNote(ctx context.Context, note *api.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[note.ID]; exists {
		return storage.ErrConflict
	}

	s.notes[note.ID] = note.Clone()
	s.notesByUser[note.UserID] = append(s.notesByUser[note.UserID], note.ID)
	s.noteOrder = append(s.noteOrder, note.ID)
	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*api.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return n.Clone(), nil
}

// UpdateNote replaces the stored record for note.ID. The note keeps its
// original position in the insertion order.
func (s *Store) UpdateNote(ctx context.Context, note *api.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.notes[note.ID]
	if !ok {
		return storage.ErrNotFound
	}

	if note.UserID != cur.UserID {
		s.notesByUser[cur.UserID] = removeID(s.notesByUser[cur.UserID], note.ID)
		s.notesByUser[note.UserID] = append(s.notesByUser[note.UserID], note.ID)
	}

	s.notes[note.ID] = note.Clone()
	return nil
}

// DeleteNote removes a note by ID.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return storage.ErrNotFound
	}

	delete(s.notes, id)
	s.notesByUser[n.UserID] = removeID(s.notesByUser[n.UserID], id)
	s.noteOrder = removeID(s.noteOrder, id)
	return nil
}

// ListNotesByUser returns the user's notes newest first, windowed by
// skip and limit.
func (s *Store) ListNotesByUser(ctx context.Context, userID string, skip, limit int) ([]*api.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.notesByUser[userID]
	matches := make([]*api.Note, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, s.notes[id])
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(matches) {
		return []*api.Note{}, nil
	}
	matches = matches[skip:]
	if limit >= 0 && limit < len(matches) {
		matches = matches[:limit]
	}

	out := make([]*api.Note, len(matches))
	for i, n := range matches {
		out[i] = n.Clone()
	}
	return out, nil
}

// SearchByVector ranks notes by cosine similarity to the query embedding
// and returns the top limit matches. An empty userID ranks every note in
// the store. Notes without a cached embedding are vectorized during the
// search and the vector is written back onto the stored note, so this
// takes the write lock.
func (s *Store) SearchByVector(ctx context.Context, embedding []float32, userID string, limit int) ([]*api.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*api.Note
	if userID != "" {
		ids := s.notesByUser[userID]
		candidates = make([]*api.Note, 0, len(ids))
		for _, id := range ids {
			candidates = append(candidates, s.notes[id])
		}
	} else {
		candidates = make([]*api.Note, 0, len(s.noteOrder))
		for _, id := range s.noteOrder {
			candidates = append(candidates, s.notes[id])
		}
	}

	observability.SearchesTotal.WithLabelValues("memory").Inc()

	ranked := vector.Rank(ctx, s.embedder, candidates, embedding, limit)
	out := make([]*api.Note, len(ranked))
	for i, n := range ranked {
		out[i] = n.Clone()
	}
	return out, nil
}

// SearchByContent embeds the query text and delegates to SearchByVector.
// Unlike candidate embedding failures, a query embedding failure fails
// the whole search.
func (s *Store) SearchByContent(ctx context.Context, query string, userID string, limit int) ([]*api.Note, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return s.SearchByVector(ctx, vecs[0], userID, limit)
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// compactNoteOrder drops IDs that no longer resolve to a stored note.
// Must be called with s.mu held.
func (s *Store) compactNoteOrder() {
	kept := s.noteOrder[:0]
	for _, id := range s.noteOrder {
		if _, ok := s.notes[id]; ok {
			kept = append(kept, id)
		}
	}
	s.noteOrder = kept
}

// removeID removes the first occurrence of id from ids, preserving
// order.
func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
