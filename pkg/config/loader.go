package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ZETTEL_CONFIG env, ./config.yaml, /etc/zettel/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. ZETTEL_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/zettel/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check ZETTEL_CONFIG env var.
	if envPath := os.Getenv("ZETTEL_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/zettel/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Env vars
// take precedence over both defaults and the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZETTEL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ZETTEL_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("ZETTEL_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("ZETTEL_VECTOR_PROVIDER"); v != "" {
		cfg.Vector.Provider = v
	}
	if v := os.Getenv("ZETTEL_VECTOR_DIMENSIONS"); v != "" {
		if dims, err := strconv.Atoi(v); err == nil {
			cfg.Vector.Dimensions = dims
		}
	}
	if v := os.Getenv("ZETTEL_EMBEDDER_URL"); v != "" {
		cfg.Vector.HTTP.URL = v
	}
	if v := os.Getenv("ZETTEL_EMBEDDER_MODEL"); v != "" {
		cfg.Vector.HTTP.Model = v
	}
	if v := os.Getenv("ZETTEL_EMBEDDER_API_KEY"); v != "" {
		cfg.Vector.HTTP.APIKey = v
	}
	if v := os.Getenv("ZETTEL_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("ZETTEL_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ZETTEL_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = ttl
		}
	}
	if v := os.Getenv("ZETTEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ZETTEL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// ZETTEL_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("ZETTEL_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	// vector.http.api_key_file -> vector.http.api_key
	if cfg.Vector.HTTP.APIKeyFile != "" && cfg.Vector.HTTP.APIKey == "" {
		val, err := readSecretFile(cfg.Vector.HTTP.APIKeyFile)
		if err != nil {
			return fmt.Errorf("vector.http.api_key_file: %w", err)
		}
		cfg.Vector.HTTP.APIKey = val
	}

	// auth.jwt_secret_file -> auth.jwt_secret
	if cfg.Auth.JWTSecretFile != "" && cfg.Auth.JWTSecret == "" {
		val, err := readSecretFile(cfg.Auth.JWTSecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt_secret_file: %w", err)
		}
		cfg.Auth.JWTSecret = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
