// Package noop provides the open-mode authenticator: every request is
// accepted as an anonymous caller with full scopes. Meant for local
// development and single-user deployments without credentials.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/zettel/pkg/auth"
)

// Authenticator votes Yes on every request.
type Authenticator struct{}

// Authenticate grants the anonymous identity regardless of the request.
// Both the notes and admin scopes are included so every endpoint works
// without credentials.
func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.AuthResult {
	id := &auth.Identity{
		Subject:     "anonymous",
		ServiceTier: "default",
		Scopes:      []string{auth.ScopeNotes, auth.ScopeAdmin},
	}
	return auth.AuthResult{Decision: auth.Yes, Identity: id}
}
