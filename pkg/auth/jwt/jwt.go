// Package jwt issues and validates HMAC-signed bearer tokens.
//
// The server is its own token authority: login mints an HS256 token
// carrying the user's id, name, tier, and scopes, and the authenticator
// validates those tokens on later requests with the same shared secret.
package jwt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
)

// Config holds the shared settings for issuing and validating tokens.
type Config struct {
	// Secret is the HMAC signing key. Required.
	Secret []byte

	// Issuer is the iss claim on minted tokens and the expected issuer
	// during validation. Default: "zettel".
	Issuer string

	// TokenExpiry is the lifetime of minted tokens. Default: 30 minutes.
	TokenExpiry time.Duration
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "zettel"
	}
	if c.TokenExpiry == 0 {
		c.TokenExpiry = 30 * time.Minute
	}
}

// Issuer mints tokens for authenticated users.
type Issuer struct {
	config Config
}

// NewIssuer creates a token issuer with the given configuration.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}
	cfg.applyDefaults()
	return &Issuer{config: cfg}, nil
}

// Issue mints a signed token for the user and returns it together with
// its lifetime in seconds.
func (i *Issuer) Issue(user *api.User) (string, int64, error) {
	now := time.Now()
	expiry := i.config.TokenExpiry

	claims := jwtlib.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"tier":  user.Tier,
		"scope": auth.ScopeNotes,
		"iss":   i.config.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.config.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("signing token: %w", err)
	}

	return signed, int64(expiry.Seconds()), nil
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	config Config
}

// New creates a JWT authenticator with the given configuration.
func New(cfg Config) (*Authenticator, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}
	cfg.applyDefaults()
	return &Authenticator{config: cfg}, nil
}

// Authenticate extracts a bearer token from the Authorization header,
// validates it, and returns an identity on success.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid (expired, wrong issuer, bad signature, etc.)
//   - Yes: valid token with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	// Must be Bearer token.
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("empty bearer token"),
		}
	}

	token, err := jwtlib.Parse(tokenStr, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.config.Secret, nil
	}, a.parserOptions()...)
	if err != nil {
		slog.Debug("JWT validation failed", "error", err)
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid JWT: %w", err),
		}
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("invalid JWT claims"),
		}
	}

	// Extract subject.
	subject := claimString(claims, "sub")
	if subject == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      fmt.Errorf("JWT missing sub claim"),
		}
	}

	identity := &auth.Identity{
		Subject:     subject,
		Name:        claimString(claims, "name"),
		ServiceTier: claimString(claims, "tier"),
		Scopes:      extractScopes(claims, "scope"),
	}

	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: identity,
	}
}

// parserOptions builds JWT parser options based on the configuration.
func (a *Authenticator) parserOptions() []jwtlib.ParserOption {
	return []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithIssuer(a.config.Issuer),
		jwtlib.WithExpirationRequired(),
	}
}

// claimString extracts a string value from JWT claims.
// Returns empty string if the claim is missing or not a string.
func claimString(claims jwtlib.MapClaims, key string) string {
	val, ok := claims[key]
	if !ok {
		return ""
	}
	s, ok := val.(string)
	if !ok {
		return ""
	}
	return s
}

// extractScopes extracts scopes from JWT claims.
// The scope claim can be either a space-separated string or a JSON array.
func extractScopes(claims jwtlib.MapClaims, key string) []string {
	val, ok := claims[key]
	if !ok {
		return nil
	}

	// Case 1: space-separated string (e.g., "notes admin")
	if s, ok := val.(string); ok {
		parts := strings.Fields(s)
		if len(parts) == 0 {
			return nil
		}
		return parts
	}

	// Case 2: JSON array (e.g., ["notes", "admin"])
	if arr, ok := val.([]interface{}); ok {
		var scopes []string
		for _, item := range arr {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		if len(scopes) == 0 {
			return nil
		}
		return scopes
	}

	return nil
}
