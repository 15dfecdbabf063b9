// Command mcp-server exposes zettel notes as MCP tools over streamable
// HTTP. Agents connect to /mcp and call search_notes, create_note, and
// list_notes; every call runs under a single service identity, so the
// server owns one shared notebook rather than impersonating users.
//
// Storage comes from the shared config surface (pkg/config), which lets
// this run against the same postgres database as the main server.
// MCP-specific settings are environment-only:
//
//	ZETTEL_MCP_PORT    - Listen port (default: 8090)
//	ZETTEL_MCP_SUBJECT - Identity owning the notes (default: "mcp-service")
//	ZETTEL_MCP_API_KEY - If set, requests must carry it in X-API-Key
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/cache"
	"github.com/rhuss/zettel/pkg/config"
	"github.com/rhuss/zettel/pkg/debug"
	"github.com/rhuss/zettel/pkg/mcp"
	"github.com/rhuss/zettel/pkg/notes"
	"github.com/rhuss/zettel/pkg/storage"
	"github.com/rhuss/zettel/pkg/storage/memory"
	"github.com/rhuss/zettel/pkg/storage/postgres"
	"github.com/rhuss/zettel/pkg/vector"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	port := envOrDefault("ZETTEL_MCP_PORT", "8090")
	subject := envOrDefault("ZETTEL_MCP_SUBJECT", "mcp-service")
	apiKey := os.Getenv("ZETTEL_MCP_API_KEY")

	ctx := context.Background()

	var embedder vector.Embedder
	if cfg.Vector.Provider == "http" {
		embedder = vector.NewHTTPEmbedder(cfg.Vector.HTTP.URL, cfg.Vector.HTTP.Model, cfg.Vector.HTTP.APIKey, cfg.Vector.Dimensions)
	} else {
		embedder = vector.NewHashEmbedder(cfg.Vector.Dimensions)
	}

	var store storage.Store
	if cfg.Storage.Type == "postgres" {
		store, err = postgres.New(ctx, postgres.Config{
			DSN:              cfg.Storage.Postgres.DSN,
			MaxConns:         cfg.Storage.Postgres.MaxConns,
			MinConns:         cfg.Storage.Postgres.MinConns,
			MaxConnLifetime:  cfg.Storage.Postgres.MaxConnLifetime,
			MigrateOnStart:   cfg.Storage.Postgres.MigrateOnStart,
			VectorEnabled:    cfg.Vector.Enabled,
			VectorDimensions: cfg.Vector.Dimensions,
		}, embedder)
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
	} else {
		store = memory.New(embedder)
	}
	defer store.Close()

	var listCache cache.Cache
	if cfg.Cache.Enabled {
		listCache = cache.NewMemory()
	}

	noteSvc, err := notes.New(store, listCache, cfg.Cache.TTL, api.DefaultValidationConfig())
	if err != nil {
		return fmt.Errorf("creating note service: %w", err)
	}

	mcpSrv, err := mcp.NewServer(noteSvc, &auth.Identity{
		Subject: subject,
		Scopes:  []string{auth.ScopeNotes},
	})
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpSrv.Handler(apiKey))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mcp server starting",
			"port", port,
			"subject", subject,
			"storage", cfg.Storage.Type,
			"api_key_required", apiKey != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		slog.Info("mcp server shutting down")
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(stopCtx)
	case err := <-errCh:
		return err
	}
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
