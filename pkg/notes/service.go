// Package notes implements the note service: owner-scoped CRUD,
// paginated listing with a short-lived first-page cache, and semantic
// search over the configured store.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/cache"
	"github.com/rhuss/zettel/pkg/debug"
	"github.com/rhuss/zettel/pkg/observability"
	"github.com/rhuss/zettel/pkg/storage"
)

// Pagination and search defaults.
const (
	DefaultListLimit   = 100
	DefaultSearchLimit = 10
)

// DefaultCacheTTL is the lifetime of cached first-page listings.
const DefaultCacheTTL = 300 * time.Second

// Service orchestrates note operations between the transport layer and
// the note store.
type Service struct {
	store      storage.NoteStore
	cache      cache.Cache
	cacheTTL   time.Duration
	validation api.ValidationConfig
}

// New creates a note service. The store must not be nil. The cache is
// optional; without one every list hits the store.
func New(store storage.NoteStore, c cache.Cache, cacheTTL time.Duration, validation api.ValidationConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("notes: store must not be nil")
	}
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		store:      store,
		cache:      c,
		cacheTTL:   cacheTTL,
		validation: validation,
	}, nil
}

// Create stores a new note owned by the caller.
func (s *Service) Create(ctx context.Context, req *api.CreateNoteRequest, caller *auth.Identity) (*api.Note, error) {
	if caller == nil || caller.Subject == "" {
		return nil, api.NewUnauthorizedError("authentication required")
	}
	if apiErr := api.ValidateCreateNoteRequest(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	note := &api.Note{
		ID:        api.NewNoteID(),
		UserID:    caller.Subject,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		observability.NoteOperationsTotal.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("creating note: %w", err)
	}

	observability.NoteOperationsTotal.WithLabelValues("create", "ok").Inc()
	s.invalidateListCache(caller.Subject)
	slog.Debug("note created", "note_id", note.ID, "user_id", note.UserID)
	return note, nil
}

// Get retrieves a note. Notes belonging to other users look absent.
func (s *Service) Get(ctx context.Context, id string, caller *auth.Identity) (*api.Note, error) {
	note, err := s.ownedNote(ctx, id, caller)
	if err != nil {
		observability.NoteOperationsTotal.WithLabelValues("get", "error").Inc()
		return nil, err
	}
	observability.NoteOperationsTotal.WithLabelValues("get", "ok").Inc()
	return note, nil
}

// Update replaces a note's content. Any stored embedding is discarded
// so search never ranks against stale content.
func (s *Service) Update(ctx context.Context, id string, req *api.UpdateNoteRequest, caller *auth.Identity) (*api.Note, error) {
	if apiErr := api.ValidateUpdateNoteRequest(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	note, err := s.ownedNote(ctx, id, caller)
	if err != nil {
		observability.NoteOperationsTotal.WithLabelValues("update", "error").Inc()
		return nil, err
	}

	note.Content = req.Content
	note.Embedding = nil

	if err := s.store.UpdateNote(ctx, note); err != nil {
		observability.NoteOperationsTotal.WithLabelValues("update", "error").Inc()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("note not found")
		}
		return nil, fmt.Errorf("updating note: %w", err)
	}

	observability.NoteOperationsTotal.WithLabelValues("update", "ok").Inc()
	s.invalidateListCache(caller.Subject)
	return note, nil
}

// Delete removes a note. Notes belonging to other users look absent.
func (s *Service) Delete(ctx context.Context, id string, caller *auth.Identity) error {
	if _, err := s.ownedNote(ctx, id, caller); err != nil {
		observability.NoteOperationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}

	if err := s.store.DeleteNote(ctx, id); err != nil {
		observability.NoteOperationsTotal.WithLabelValues("delete", "error").Inc()
		if errors.Is(err, storage.ErrNotFound) {
			return api.NewNotFoundError("note not found")
		}
		return fmt.Errorf("deleting note: %w", err)
	}

	observability.NoteOperationsTotal.WithLabelValues("delete", "ok").Inc()
	s.invalidateListCache(caller.Subject)
	slog.Debug("note deleted", "note_id", id, "user_id", caller.Subject)
	return nil
}

// cachedList is the serialized form of a cached first page.
type cachedList struct {
	Notes   []*api.Note `json:"notes"`
	HasMore bool        `json:"has_more"`
}

// List returns the caller's notes, newest first. The first page with
// default pagination is served from the cache when fresh.
func (s *Service) List(ctx context.Context, caller *auth.Identity, skip, limit int) ([]*api.Note, bool, error) {
	if caller == nil || caller.Subject == "" {
		return nil, false, api.NewUnauthorizedError("authentication required")
	}
	if apiErr := api.ValidateListRange(skip, limit, s.validation); apiErr != nil {
		return nil, false, apiErr
	}

	cacheable := s.cache != nil && skip == 0 && limit == DefaultListLimit
	key := listCacheKey(caller.Subject)

	if cacheable {
		if data, ok := s.cache.Get(key); ok {
			var cached cachedList
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.CacheHitsTotal.Inc()
				debug.Log("cache", "list served from cache", "key", key, "notes", len(cached.Notes))
				return cached.Notes, cached.HasMore, nil
			}
			// Unreadable entry: drop it and fall through to the store.
			s.cache.Delete(key)
		}
		observability.CacheMissesTotal.Inc()
		debug.Log("cache", "list cache miss", "key", key)
	}

	// Fetch one extra row to learn whether another page exists.
	notes, err := s.store.ListNotesByUser(ctx, caller.Subject, skip, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("listing notes: %w", err)
	}

	hasMore := len(notes) > limit
	if hasMore {
		notes = notes[:limit]
	}

	if cacheable {
		if data, err := json.Marshal(cachedList{Notes: notes, HasMore: hasMore}); err == nil {
			s.cache.Set(key, data, s.cacheTTL)
		}
	}

	return notes, hasMore, nil
}

// SearchByText returns the caller's notes ranked by similarity to the
// query text, most similar first.
func (s *Service) SearchByText(ctx context.Context, caller *auth.Identity, query string, limit int) ([]*api.Note, error) {
	if caller == nil || caller.Subject == "" {
		return nil, api.NewUnauthorizedError("authentication required")
	}
	if apiErr := api.ValidateSearchQuery(query, limit, s.validation); apiErr != nil {
		return nil, apiErr
	}

	results, err := s.store.SearchByContent(ctx, query, caller.Subject, limit)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	return results, nil
}

// SearchByVector ranks the caller's notes against a caller-supplied
// query embedding.
func (s *Service) SearchByVector(ctx context.Context, caller *auth.Identity, embedding []float32, limit int) ([]*api.Note, error) {
	if caller == nil || caller.Subject == "" {
		return nil, api.NewUnauthorizedError("authentication required")
	}
	if len(embedding) == 0 {
		return nil, api.NewInvalidRequestError("embedding", "embedding is required")
	}
	if limit < 1 {
		return nil, api.NewInvalidRequestError("limit", "limit must be positive")
	}
	if s.validation.MaxSearchLimit > 0 && limit > s.validation.MaxSearchLimit {
		return nil, api.NewInvalidRequestError("limit",
			fmt.Sprintf("limit exceeds maximum of %d", s.validation.MaxSearchLimit))
	}

	results, err := s.store.SearchByVector(ctx, embedding, caller.Subject, limit)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	return results, nil
}

// ownedNote fetches a note and verifies the caller owns it. Malformed
// IDs, absent notes, and foreign notes are indistinguishable.
func (s *Service) ownedNote(ctx context.Context, id string, caller *auth.Identity) (*api.Note, error) {
	if caller == nil || caller.Subject == "" {
		return nil, api.NewUnauthorizedError("authentication required")
	}
	if !api.ValidateID(id) {
		return nil, api.NewNotFoundError("note not found")
	}

	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError("note not found")
		}
		return nil, fmt.Errorf("getting note: %w", err)
	}
	if note.UserID != caller.Subject {
		return nil, api.NewNotFoundError("note not found")
	}
	return note, nil
}

// invalidateListCache drops the cached first page for a user.
func (s *Service) invalidateListCache(userID string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(listCacheKey(userID))
}

func listCacheKey(userID string) string {
	return "user:" + userID + ":notes"
}
