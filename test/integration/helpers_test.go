// Package integration provides integration tests for the zettel API.
//
// Tests run against a real zettel HTTP server in token auth mode,
// started in-process using net/http/httptest. Storage is the in-memory
// store with the deterministic hash embedder, so search results are
// reproducible without a database.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/auth/apikey"
	"github.com/rhuss/zettel/pkg/auth/jwt"
	"github.com/rhuss/zettel/pkg/cache"
	"github.com/rhuss/zettel/pkg/notes"
	"github.com/rhuss/zettel/pkg/storage/memory"
	transporthttp "github.com/rhuss/zettel/pkg/transport/http"
	"github.com/rhuss/zettel/pkg/users"
	"github.com/rhuss/zettel/pkg/vector"
)

const (
	integrationSecret = "integration-test-secret-32bytes!"
	testPassword      = "integration-pw-123"

	// API keys configured on the test server. notesKey carries the notes
	// scope only, adminKey additionally carries admin.
	notesAPIKey = "itest-notes-key"
	adminAPIKey = "itest-admin-key"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// userSeq makes registered user names unique across tests sharing the
// server.
var userSeq atomic.Int64

// TestEnvironment holds the zettel server under test.
type TestEnvironment struct {
	Server *httptest.Server
}

// TestMain starts the zettel server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment wires the production service stack onto an
// in-memory store and serves it through the full middleware chain.
func setupTestEnvironment() *TestEnvironment {
	embedder := vector.NewHashEmbedder(vector.DefaultDimensions)
	store := memory.New(embedder)

	issuer, err := jwt.NewIssuer(jwt.Config{Secret: []byte(integrationSecret)})
	if err != nil {
		panic(fmt.Sprintf("creating issuer: %v", err))
	}

	userSvc, err := users.New(store, issuer, api.DefaultValidationConfig())
	if err != nil {
		panic(fmt.Sprintf("creating user service: %v", err))
	}

	noteSvc, err := notes.New(store, cache.NewMemory(), 5*time.Minute, api.DefaultValidationConfig())
	if err != nil {
		panic(fmt.Sprintf("creating note service: %v", err))
	}

	verifier, err := jwt.New(jwt.Config{Secret: []byte(integrationSecret)})
	if err != nil {
		panic(fmt.Sprintf("creating jwt authenticator: %v", err))
	}

	keys := apikey.New([]apikey.RawKeyEntry{
		{
			Key: notesAPIKey,
			Identity: auth.Identity{
				Subject:     "svc-integration",
				ServiceTier: "premium",
				Scopes:      []string{auth.ScopeNotes},
			},
		},
		{
			Key: adminAPIKey,
			Identity: auth.Identity{
				Subject: "svc-admin",
				Scopes:  []string{auth.ScopeNotes, auth.ScopeAdmin},
			},
		},
	})

	// Token mode: requests without a valid credential are rejected.
	chain := &auth.AuthChain{
		Authenticators:  []auth.Authenticator{verifier, keys},
		DefaultDecision: auth.No,
	}

	srv := transporthttp.NewServer(noteSvc, userSvc, store,
		transporthttp.WithAuthMiddleware(auth.Middleware(chain, nil, auth.DefaultBypassEndpoints)),
	)

	return &TestEnvironment{Server: httptest.NewServer(srv.Handler())}
}

// Teardown stops the server.
func (env *TestEnvironment) Teardown() {
	if env.Server != nil {
		env.Server.Close()
	}
}

// BaseURL returns the zettel server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// --- HTTP helpers ---

// doJSON sends a request with an optional JSON body and optional bearer
// token and returns the response.
func doJSON(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("creating %s request: %v", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// doAPIKey sends a request authenticated with an API key header.
func doAPIKey(t *testing.T, method, url string, body any, key string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("creating %s request: %v", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(apikey.HeaderName, key)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// postJSON sends an unauthenticated POST with a JSON body.
func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, url, body, "")
}

// getURL sends an unauthenticated GET request.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodGet, url, nil, "")
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// --- Account helpers ---

// uniqueName returns a user name unused by any previous test.
func uniqueName() string {
	return fmt.Sprintf("ituser%d", userSeq.Add(1))
}

// registerUser creates an account through the API and returns it.
func registerUser(t *testing.T, name string) *api.User {
	t.Helper()

	resp := postJSON(t, testEnv.BaseURL()+"/v1/users/register", map[string]any{
		"name":     name,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", name, resp.StatusCode, readBody(t, resp))
	}

	var user api.User
	decodeJSON(t, resp, &user)
	return &user
}

// loginUser exchanges credentials for a bearer token.
func loginUser(t *testing.T, name string) string {
	t.Helper()

	resp := postJSON(t, testEnv.BaseURL()+"/v1/users/login", map[string]any{
		"name":     name,
		"password": testPassword,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", name, resp.StatusCode, readBody(t, resp))
	}

	var token api.TokenResponse
	decodeJSON(t, resp, &token)
	if token.AccessToken == "" {
		t.Fatal("login returned empty access_token")
	}
	return token.AccessToken
}

// newAccount registers a fresh user and logs it in.
func newAccount(t *testing.T) (*api.User, string) {
	t.Helper()
	name := uniqueName()
	user := registerUser(t, name)
	return user, loginUser(t, name)
}

// createNote creates a note as the token's user and returns it.
func createNote(t *testing.T, token, content string) *api.Note {
	t.Helper()

	resp := doJSON(t, http.MethodPost, testEnv.BaseURL()+"/v1/notes", map[string]any{
		"content": content,
	}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create note: expected 201, got %d: %s", resp.StatusCode, readBody(t, resp))
	}

	var note api.Note
	decodeJSON(t, resp, &note)
	return &note
}
