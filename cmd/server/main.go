// Command server runs the zettel notes backend.
//
// Configuration is layered: built-in defaults, an optional YAML config
// file (-config flag, ZETTEL_CONFIG, ./config.yaml, /etc/zettel/config.yaml),
// then ZETTEL_* environment variable overrides. See pkg/config for the
// full surface. The most common knobs:
//
//	ZETTEL_PORT          - Listen port (default: 8080)
//	ZETTEL_STORAGE       - Storage type: "memory" or "postgres" (default: "memory")
//	ZETTEL_POSTGRES_DSN  - PostgreSQL connection string
//	ZETTEL_AUTH_MODE     - "none" or "token" (default: "none")
//	ZETTEL_JWT_SECRET    - HMAC signing key for bearer tokens
//	ZETTEL_LOG_LEVEL     - trace, debug, info, warn, error (default: "info")
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/auth/apikey"
	"github.com/rhuss/zettel/pkg/auth/jwt"
	"github.com/rhuss/zettel/pkg/auth/noop"
	"github.com/rhuss/zettel/pkg/cache"
	"github.com/rhuss/zettel/pkg/config"
	"github.com/rhuss/zettel/pkg/debug"
	"github.com/rhuss/zettel/pkg/notes"
	"github.com/rhuss/zettel/pkg/storage"
	"github.com/rhuss/zettel/pkg/storage/memory"
	"github.com/rhuss/zettel/pkg/storage/postgres"
	"github.com/rhuss/zettel/pkg/transport"
	transporthttp "github.com/rhuss/zettel/pkg/transport/http"
	"github.com/rhuss/zettel/pkg/users"
	"github.com/rhuss/zettel/pkg/vector"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
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

	ctx := context.Background()

	embedder := buildEmbedder(cfg)

	store, err := buildStore(ctx, cfg, embedder)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	// Optional note list cache.
	var listCache cache.Cache
	if cfg.Cache.Enabled {
		listCache = cache.NewMemory()
	}

	// Token issuing needs a secret even in dev mode: /v1/users/login mints
	// tokens regardless of whether the auth middleware verifies them.
	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating jwt secret: %w", err)
		}
		slog.Warn("no jwt secret configured, using an ephemeral one; tokens do not survive restarts")
	}

	issuer, err := jwt.NewIssuer(jwt.Config{
		Secret:      secret,
		TokenExpiry: cfg.Auth.TokenExpiry,
	})
	if err != nil {
		return fmt.Errorf("creating token issuer: %w", err)
	}

	userSvc, err := users.New(store, issuer, api.DefaultValidationConfig())
	if err != nil {
		return fmt.Errorf("creating user service: %w", err)
	}

	noteSvc, err := notes.New(store, listCache, cfg.Cache.TTL, api.DefaultValidationConfig())
	if err != nil {
		return fmt.Errorf("creating note service: %w", err)
	}

	authMw, err := buildAuthMiddleware(cfg, secret)
	if err != nil {
		return fmt.Errorf("creating auth middleware: %w", err)
	}

	srv := transporthttp.NewServer(noteSvc, userSvc, store,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithAuthMiddleware(authMw),
	)

	slog.Info("zettel starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"vector_provider", cfg.Vector.Provider,
		"auth_mode", cfg.Auth.Mode)

	return srv.ListenAndServe()
}

// buildEmbedder selects the embedding provider. The hash embedder is the
// default: deterministic, offline, and dependency-free.
func buildEmbedder(cfg *config.Config) vector.Embedder {
	if cfg.Vector.Provider == "http" {
		slog.Info("using http embedder",
			"url", cfg.Vector.HTTP.URL,
			"model", cfg.Vector.HTTP.Model,
			"dimensions", cfg.Vector.Dimensions)
		return vector.NewHTTPEmbedder(cfg.Vector.HTTP.URL, cfg.Vector.HTTP.Model, cfg.Vector.HTTP.APIKey, cfg.Vector.Dimensions)
	}
	return vector.NewHashEmbedder(cfg.Vector.Dimensions)
}

func buildStore(ctx context.Context, cfg *config.Config, embedder vector.Embedder) (storage.Store, error) {
	if cfg.Storage.Type == "postgres" {
		store, err := postgres.New(ctx, postgres.Config{
			DSN:              cfg.Storage.Postgres.DSN,
			MaxConns:         cfg.Storage.Postgres.MaxConns,
			MinConns:         cfg.Storage.Postgres.MinConns,
			MaxConnLifetime:  cfg.Storage.Postgres.MaxConnLifetime,
			MigrateOnStart:   cfg.Storage.Postgres.MigrateOnStart,
			VectorEnabled:    cfg.Vector.Enabled,
			VectorDimensions: cfg.Vector.Dimensions,
		}, embedder)
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "postgres", "vector_native", store.Native())
		return store, nil
	}

	slog.Info("storage enabled", "type", "memory")
	return memory.New(embedder), nil
}

func buildAuthMiddleware(cfg *config.Config, secret []byte) (transport.Middleware, error) {
	var authenticators []auth.Authenticator

	verifier, err := jwt.New(jwt.Config{Secret: secret})
	if err != nil {
		return nil, err
	}
	authenticators = append(authenticators, verifier)

	if len(cfg.Auth.APIKeys) > 0 {
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
					Scopes:      k.Scopes,
				},
			})
		}
		authenticators = append(authenticators, apikey.New(entries))
		slog.Info("api key auth enabled", "keys", len(entries))
	}

	// Mode "none" appends an always-yes voter, so requests without a
	// credential run as anonymous. Presented credentials are still
	// verified first: a bad token is rejected even in this mode. Mode
	// "token" has no fallback and rejects such requests with 401.
	if cfg.Auth.Mode == "none" {
		authenticators = append(authenticators, &noop.Authenticator{})
	}

	chain := &auth.AuthChain{
		Authenticators:  authenticators,
		DefaultDecision: auth.No,
	}

	var limiter auth.RateLimiter
	if len(cfg.Auth.RateLimits) > 0 {
		tiers := make(map[string]auth.TierConfig, len(cfg.Auth.RateLimits))
		for tier, rpm := range cfg.Auth.RateLimits {
			tiers[tier] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, 0)
		slog.Info("rate limiting enabled", "tiers", len(tiers))
	}

	return auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints), nil
}
