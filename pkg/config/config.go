// Package config provides unified configuration for the zettel server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (ZETTEL_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the zettel server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Vector  VectorConfig  `yaml:"vector"`
	Auth    AuthConfig    `yaml:"auth"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	DSNFile         string        `yaml:"dsn_file"` // _file variant for dsn
	MaxConns        int32         `yaml:"max_conns"`         // default: 25
	MinConns        int32         `yaml:"min_conns"`         // default: 5
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"` // default: 5m
	MigrateOnStart  bool          `yaml:"migrate_on_start"`  // default: true
}

// VectorConfig holds embedding and similarity search settings.
type VectorConfig struct {
	// Enabled requests native pgvector search when the postgres store is
	// in use. The store still probes for the extension and falls back to
	// brute-force ranking when it is missing.
	Enabled    bool               `yaml:"enabled"`    // default: true
	Dimensions int                `yaml:"dimensions"` // default: 384
	Provider   string             `yaml:"provider"`   // "hash" or "http", default: "hash"
	HTTP       HTTPEmbedderConfig `yaml:"http"`
}

// HTTPEmbedderConfig holds settings for an OpenAI-compatible embeddings
// endpoint, used when vector.provider is "http".
type HTTPEmbedderConfig struct {
	URL        string `yaml:"url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Mode selects the authentication behavior: "none" grants every
	// request an anonymous identity (development), "token" requires a
	// bearer token or API key.
	Mode          string         `yaml:"mode"` // "none" or "token", default: "none"
	JWTSecret     string         `yaml:"jwt_secret"`
	JWTSecretFile string         `yaml:"jwt_secret_file"` // _file variant for jwt_secret
	TokenExpiry   time.Duration  `yaml:"token_expiry"`    // default: 30m
	APIKeys       []APIKeyConfig `yaml:"api_keys"`
	RateLimits    map[string]int `yaml:"rate_limits"` // tier -> requests per minute
}

// APIKeyConfig describes a single API key entry. The JSON tags cover the
// ZETTEL_API_KEYS environment variable, which carries the same entries as
// a JSON array.
type APIKeyConfig struct {
	Key         string   `yaml:"key" json:"key"`
	KeyFile     string   `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string   `yaml:"subject" json:"subject"`
	ServiceTier string   `yaml:"service_tier" json:"service_tier"`
	Scopes      []string `yaml:"scopes" json:"scopes"`
}

// CacheConfig holds note list cache settings.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"` // default: true
	TTL     time.Duration `yaml:"ttl"`     // default: 5m
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories, e.g. "storage,vector"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodySize:     1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:        25,
				MinConns:        5,
				MaxConnLifetime: 5 * time.Minute,
				MigrateOnStart:  true,
			},
		},
		Vector: VectorConfig{
			Enabled:    true,
			Dimensions: 384,
			Provider:   "hash",
		},
		Auth: AuthConfig{
			Mode:        "none",
			TokenExpiry: 30 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
