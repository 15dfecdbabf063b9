// Package apikey provides an API key authenticator that validates the
// X-API-Key header against a static key store using SHA-256 hashing
// and constant-time comparison.
//
// API keys use their own header so they can coexist with JWT bearer
// tokens in the same chain. They are intended for operator and service
// access, typically carrying the admin scope.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/rhuss/zettel/pkg/auth"
)

// HeaderName is the request header carrying the API key.
const HeaderName = "X-API-Key"

// RawKeyEntry is the configuration format for API keys: the plaintext
// key alongside the identity it authenticates as.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// KeyEntry is the stored form, holding only the key's hash.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// Authenticator validates API keys against a static key store.
type Authenticator struct {
	keys []KeyEntry
}

// New builds an authenticator from the configured entries. Keys are
// hashed immediately; the plaintext never leaves this constructor.
func New(entries []RawKeyEntry) *Authenticator {
	keys := make([]KeyEntry, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, KeyEntry{
			KeyHash:  sha256.Sum256([]byte(e.Key)),
			Identity: e.Identity,
		})
	}
	return &Authenticator{keys: keys}
}

// Authenticate checks the X-API-Key header. No header means Abstain so
// the next authenticator in the chain gets a turn; a header that
// matches no configured key is a hard No.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	key := r.Header.Get(HeaderName)
	if key == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	keyHash := sha256.Sum256([]byte(key))
	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(keyHash[:], entry.KeyHash[:]) == 1 {
			// Each request gets its own identity copy.
			id := entry.Identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}

	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
