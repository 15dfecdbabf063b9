package noop

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rhuss/zettel/pkg/auth"
)

func TestAuthenticateAlwaysYes(t *testing.T) {
	a := &Authenticator{}

	req := httptest.NewRequest("GET", "/v1/notes", nil)
	result := a.Authenticate(context.Background(), req)

	if result.Decision != auth.Yes {
		t.Errorf("decision = %v, want Yes", result.Decision)
	}
	if result.Identity == nil {
		t.Fatal("identity is nil")
	}
	if result.Identity.Subject != "anonymous" {
		t.Errorf("subject = %q, want anonymous", result.Identity.Subject)
	}
	if !result.Identity.HasScope(auth.ScopeNotes) || !result.Identity.HasScope(auth.ScopeAdmin) {
		t.Errorf("scopes = %v, want notes and admin", result.Identity.Scopes)
	}
}
