package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrate applies pending schema migrations from the embedded SQL
// files. Applied versions are tracked in schema_migrations; files whose
// version is already recorded are skipped.
func (s *Store) migrate(ctx context.Context) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}

	// Filenames sort by their numeric version prefix.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		version, ok := migrationVersion(entry)
		if !ok {
			continue
		}

		var applied bool
		err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&applied)
		if err != nil {
			// Before the first migration runs, schema_migrations itself
			// does not exist yet; treat the version as unapplied.
			applied = false
		}
		if applied {
			continue
		}

		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		slog.Info("applying migration", "file", entry.Name(), "version", version)

		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", entry.Name(), err)
		}

		if _, err := s.pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING",
			version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// migrationVersion parses the numeric prefix of a migration filename,
// e.g. "001_create_users_notes.sql" yields 1. Directories and files
// without a parsable prefix are skipped.
func migrationVersion(entry fs.DirEntry) (int, bool) {
	name := entry.Name()
	if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
		return 0, false
	}
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		return 0, false
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ensureVectorSchema adds the embedding column and its similarity index.
// The column width comes from configuration, so this runs as DDL here
// rather than as a static migration file. All statements are idempotent.
func (s *Store) ensureVectorSchema(ctx context.Context, dims int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf("ALTER TABLE notes ADD COLUMN IF NOT EXISTS embedding vector(%d)", dims),
		"CREATE INDEX IF NOT EXISTS idx_notes_embedding ON notes USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)",
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("preparing vector schema: %w", err)
		}
	}
	return nil
}
