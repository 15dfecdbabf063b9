package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// All violations are reported together, each with a descriptive field path.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	// vector.provider must be a known value.
	switch c.Vector.Provider {
	case "hash", "http", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("vector.provider must be \"hash\" or \"http\", got %q", c.Vector.Provider))
	}
	if c.Vector.Provider == "http" && c.Vector.HTTP.URL == "" {
		errs = append(errs, fmt.Errorf("vector.http.url is required when vector.provider is \"http\""))
	}
	if c.Vector.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("vector.dimensions must be > 0, got %d", c.Vector.Dimensions))
	}

	// auth.mode must be a known value.
	switch c.Auth.Mode {
	case "none", "token":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be \"none\" or \"token\", got %q", c.Auth.Mode))
	}

	// Token mode needs a signing secret.
	if c.Auth.Mode == "token" {
		if c.Auth.JWTSecret == "" && c.Auth.JWTSecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.jwt_secret or auth.jwt_secret_file is required when auth.mode is \"token\""))
		}
	}
	if c.Auth.TokenExpiry < 0 {
		errs = append(errs, fmt.Errorf("auth.token_expiry must be >= 0, got %v", c.Auth.TokenExpiry))
	}

	// API key entries need a key and a subject.
	for i, key := range c.Auth.APIKeys {
		if key.Key == "" && key.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key or key_file is required", i))
		}
		if key.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
	}

	for tier, rpm := range c.Auth.RateLimits {
		if rpm < 0 {
			errs = append(errs, fmt.Errorf("auth.rate_limits[%q] must be >= 0, got %d", tier, rpm))
		}
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be >= 0, got %v", c.Cache.TTL))
	}

	// logging.level must be a known value.
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of \"trace\", \"debug\", \"info\", \"warn\", \"error\", got %q", c.Logging.Level))
	}

	// logging.format must be a known value.
	switch c.Logging.Format {
	case "", "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
