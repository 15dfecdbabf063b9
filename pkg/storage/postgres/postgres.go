// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and, when the pgvector extension
// is available, serves similarity searches through a native cosine
// distance index. Without the extension it degrades to brute-force
// ranking over the owner's notes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/debug"
	"github.com/rhuss/zettel/pkg/observability"
	"github.com/rhuss/zettel/pkg/storage"
	"github.com/rhuss/zettel/pkg/vector"
)

// Store is a PostgreSQL-backed user and note store.
type Store struct {
	pool     *pgxpool.Pool
	embedder vector.Embedder
	native   bool
	dims     int
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
// Native vector support is probed once here and does not toggle for the
// lifetime of the store.
func New(ctx context.Context, cfg Config, embedder vector.Embedder) (*Store, error) {
	cfg.defaults()

	native := false
	if cfg.VectorEnabled {
		native = probeVector(ctx, cfg.DSN)
	}
	debug.Log("storage", "vector capability probe", "requested", cfg.VectorEnabled, "native", native)

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	if native {
		poolCfg.AfterConnect = pgxvector.RegisterTypes
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, embedder: embedder, native: native, dims: cfg.VectorDimensions}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		if s.native {
			if err := s.ensureVectorSchema(ctx, s.dims); err != nil {
				slog.Warn("vector schema unavailable, similarity search uses brute force", "error", err)
				s.native = false
			}
		}
	}

	if s.native {
		slog.Info("native vector search enabled", "dimensions", s.dims)
	}

	return s, nil
}

// probeVector reports whether the pgvector extension can be enabled on
// the target database. It runs on a short-lived connection so the pool
// only registers vector types once the extension exists.
func probeVector(ctx context.Context, dsn string) bool {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return false
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		slog.Warn("pgvector unavailable, similarity search uses brute force", "error", err)
		return false
	}
	return true
}

// Native reports whether similarity searches are served by the pgvector
// index.
func (s *Store) Native() bool {
	return s.native
}

// CreateUser persists a new user.
func (s *Store) CreateUser(ctx context.Context, user *api.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, password_hash, tier, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Name, user.PasswordHash, user.Tier, user.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*api.User, error) {
	return s.getUser(ctx, "id", id)
}

// GetUserByName retrieves a user by unique name.
func (s *Store) GetUserByName(ctx context.Context, name string) (*api.User, error) {
	return s.getUser(ctx, "name", name)
}

func (s *Store) getUser(ctx context.Context, column, value string) (*api.User, error) {
	var u api.User

	err := s.pool.QueryRow(ctx,
		"SELECT id, name, password_hash, tier, created_at FROM users WHERE "+column+" = $1",
		value,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Tier, &u.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return &u, nil
}

// UpdateUser replaces the stored record for user.ID. Renaming onto a
// taken name returns ErrConflict.
func (s *Store) UpdateUser(ctx context.Context, user *api.User) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE users SET name = $2, password_hash = $3, tier = $4 WHERE id = $1
	`, user.ID, user.Name, user.PasswordHash, user.Tier)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("updating user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteUser removes a user. Owned notes go with it through the foreign
// key cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListUsers returns all users ordered by creation time descending.
func (s *Store) ListUsers(ctx context.Context) ([]*api.User, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, password_hash, tier, created_at FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []*api.User{}
	for rows.Next() {
		var u api.User
		if err := rows.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Tier, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// CreateNote persists a new note. Under native vector support the
// embedding is computed eagerly; a failed embedding stores the note
// without a vector rather than rejecting the write.
func (s *Store) CreateNote(ctx context.Context, note *api.Note) error {
	s.embedEagerly(ctx, note)

	var err error
	if s.native {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO notes (id, user_id, content, created_at, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, note.ID, note.UserID, note.Content, note.CreatedAt, nullVector(note.Embedding))
	} else {
		_, err = s.pool.Exec(ctx, `
			INSERT INTO notes (id, user_id, content, created_at)
			VALUES ($1, $2, $3, $4)
		`, note.ID, note.UserID, note.Content, note.CreatedAt)
	}

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// GetNote retrieves a note by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*api.Note, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+s.noteColumns()+" FROM notes WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("querying note: %w", err)
	}

	notes, err := s.collectNotes(rows)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, storage.ErrNotFound
	}
	return notes[0], nil
}

// UpdateNote replaces the note's content. Under native vector support
// the embedding is regenerated so it tracks the new content. The owner
// does not change.
func (s *Store) UpdateNote(ctx context.Context, note *api.Note) error {
	s.embedEagerly(ctx, note)

	var result pgconn.CommandTag
	var err error
	if s.native {
		result, err = s.pool.Exec(ctx,
			"UPDATE notes SET content = $2, embedding = $3 WHERE id = $1",
			note.ID, note.Content, nullVector(note.Embedding))
	} else {
		result, err = s.pool.Exec(ctx,
			"UPDATE notes SET content = $2 WHERE id = $1",
			note.ID, note.Content)
	}

	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteNote removes a note by ID.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListNotesByUser returns the user's notes newest first, windowed by
// skip and limit. A negative limit returns all remaining notes.
func (s *Store) ListNotesByUser(ctx context.Context, userID string, skip, limit int) ([]*api.Note, error) {
	query := "SELECT " + s.noteColumns() + " FROM notes WHERE user_id = $1 ORDER BY created_at DESC, id DESC"
	args := []any{userID}
	argIdx := 2

	if limit >= 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
		argIdx++
	}
	if skip > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, skip)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	return s.collectNotes(rows)
}

// SearchByVector returns up to limit notes ranked by similarity to the
// query embedding. The native index is tried first; on failure the
// search degrades to brute-force ranking over the owner's notes instead
// of surfacing the error. Without an owner filter the brute-force path
// returns an empty result because unscoped full-table ranking is not
// offered.
func (s *Store) SearchByVector(ctx context.Context, embedding []float32, userID string, limit int) ([]*api.Note, error) {
	if limit <= 0 {
		return []*api.Note{}, nil
	}

	if s.native {
		notes, err := s.nativeSearch(ctx, embedding, userID, limit)
		if err == nil {
			observability.SearchesTotal.WithLabelValues("native").Inc()
			debug.Log("vector", "native search served", "user_id", userID, "results", len(notes))
			return notes, nil
		}
		observability.VectorFallbacksTotal.Inc()
		slog.Warn("native vector search failed, falling back to brute force", "error", err)
	}

	observability.SearchesTotal.WithLabelValues("fallback").Inc()
	debug.Log("vector", "brute-force search", "user_id", userID, "limit", limit)

	if userID == "" {
		return []*api.Note{}, nil
	}

	candidates, err := s.fallbackCandidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	ranked := vector.Rank(ctx, s.embedder, candidates, embedding, limit)
	if ranked == nil {
		ranked = []*api.Note{}
	}
	return ranked, nil
}

// SearchByContent embeds the query text and delegates to SearchByVector.
func (s *Store) SearchByContent(ctx context.Context, query string, userID string, limit int) ([]*api.Note, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.SearchByVector(ctx, vecs[0], userID, limit)
}

// nativeSearch orders notes by cosine distance on the pgvector index.
// Notes without a stored embedding sort last (NULL distance).
func (s *Store) nativeSearch(ctx context.Context, embedding []float32, userID string, limit int) ([]*api.Note, error) {
	query := "SELECT " + s.noteColumns() + " FROM notes"
	args := []any{pgvector.NewVector(embedding)}
	argIdx := 2

	if userID != "" {
		query += fmt.Sprintf(" WHERE user_id = $%d", argIdx)
		args = append(args, userID)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY embedding <=> $1 NULLS LAST LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying similar notes: %w", err)
	}
	return s.collectNotes(rows)
}

// fallbackCandidateLimit caps how many notes the brute-force path loads
// per search.
const fallbackCandidateLimit = 100

// fallbackCandidates loads the owner's notes oldest first so equal
// similarity scores keep insertion order in the ranking.
func (s *Store) fallbackCandidates(ctx context.Context, userID string) ([]*api.Note, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+s.noteColumns()+" FROM notes WHERE user_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2",
		userID, fallbackCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("loading notes for ranking: %w", err)
	}
	return s.collectNotes(rows)
}

// embedEagerly fills in a missing embedding when native vector support
// is active. Failures are logged and leave the embedding empty; the note
// is still written.
func (s *Store) embedEagerly(ctx context.Context, note *api.Note) {
	if !s.native || note.Embedding != nil {
		return
	}
	vecs, err := s.embedder.Embed(ctx, []string{note.Content})
	if err != nil || len(vecs) != 1 {
		observability.EmbeddingFailures.Inc()
		slog.Warn("embedding note failed, storing without vector", "note_id", note.ID, "error", err)
		return
	}
	note.Embedding = vecs[0]
	observability.EmbeddingsComputed.Inc()
}

// noteColumns returns the select list for note queries. The embedding
// column only exists once the vector schema has been applied.
func (s *Store) noteColumns() string {
	if s.native {
		return "id, user_id, content, created_at, embedding"
	}
	return "id, user_id, content, created_at"
}

// collectNotes drains rows into notes, scanning the embedding column
// when native vector support is active.
func (s *Store) collectNotes(rows pgx.Rows) ([]*api.Note, error) {
	defer rows.Close()

	notes := []*api.Note{}
	for rows.Next() {
		var n api.Note
		if s.native {
			var emb *pgvector.Vector
			if err := rows.Scan(&n.ID, &n.UserID, &n.Content, &n.CreatedAt, &emb); err != nil {
				return nil, fmt.Errorf("scanning note: %w", err)
			}
			if emb != nil {
				n.Embedding = emb.Slice()
			}
		} else {
			if err := rows.Scan(&n.ID, &n.UserID, &n.Content, &n.CreatedAt); err != nil {
				return nil, fmt.Errorf("scanning note: %w", err)
			}
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// nullVector converts a missing embedding to a NULL parameter.
func nullVector(v []float32) any {
	if v == nil {
		return nil
	}
	return pgvector.NewVector(v)
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
