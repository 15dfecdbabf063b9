package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/cache"
	"github.com/rhuss/zettel/pkg/notes"
	"github.com/rhuss/zettel/pkg/storage/memory"
	"github.com/rhuss/zettel/pkg/vector"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.New(vector.NewHashEmbedder(vector.DefaultDimensions))
	svc, err := notes.New(store, cache.NewMemory(), notes.DefaultCacheTTL, api.DefaultValidationConfig())
	if err != nil {
		t.Fatalf("notes.New: %v", err)
	}

	identity := &auth.Identity{Subject: "mcp-service", Name: "agent", Scopes: []string{auth.ScopeNotes}}
	srv, err := NewServer(svc, identity)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func seedNotes(t *testing.T, srv *Server, contents ...string) {
	t.Helper()
	for _, content := range contents {
		if _, _, err := srv.createNote(context.Background(), nil, CreateInput{Content: content}); err != nil {
			t.Fatalf("seeding note %q: %v", content, err)
		}
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want *mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestNewServer_Validation(t *testing.T) {
	store := memory.New(vector.NewHashEmbedder(vector.DefaultDimensions))
	svc, err := notes.New(store, nil, 0, api.DefaultValidationConfig())
	if err != nil {
		t.Fatalf("notes.New: %v", err)
	}

	if _, err := NewServer(nil, &auth.Identity{Subject: "x"}); err == nil {
		t.Error("NewServer(nil service) should fail")
	}
	if _, err := NewServer(svc, nil); err == nil {
		t.Error("NewServer(nil identity) should fail")
	}
	if _, err := NewServer(svc, &auth.Identity{}); err == nil {
		t.Error("NewServer(empty subject) should fail")
	}
}

func TestCreateNoteTool(t *testing.T) {
	srv := newTestServer(t)

	res, _, err := srv.createNote(context.Background(), nil, CreateInput{Content: "remember the milk"})
	if err != nil {
		t.Fatalf("create_note: %v", err)
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "Created note ") {
		t.Errorf("result = %q, want creation confirmation", text)
	}

	// The note is visible through list_notes.
	res, _, err = srv.listNotes(context.Background(), nil, ListInput{})
	if err != nil {
		t.Fatalf("list_notes: %v", err)
	}
	if got := resultText(t, res); !strings.Contains(got, "remember the milk") {
		t.Errorf("list result = %q, want the created note", got)
	}
}

func TestCreateNoteTool_RejectsEmptyContent(t *testing.T) {
	srv := newTestServer(t)

	if _, _, err := srv.createNote(context.Background(), nil, CreateInput{}); err == nil {
		t.Error("create_note with empty content should fail")
	}
}

func TestSearchNotesTool(t *testing.T) {
	srv := newTestServer(t)
	seedNotes(t, srv, "meeting agenda", "grocery list", "travel plans")

	res, _, err := srv.searchNotes(context.Background(), nil, SearchInput{Query: "meeting agenda"})
	if err != nil {
		t.Fatalf("search_notes: %v", err)
	}

	text := resultText(t, res)
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		t.Fatalf("result lines = %d, want 3:\n%s", len(lines), text)
	}
	if !strings.Contains(lines[0], "meeting agenda") {
		t.Errorf("first line = %q, want the exact match ranked first", lines[0])
	}
}

func TestSearchNotesTool_Limit(t *testing.T) {
	srv := newTestServer(t)
	seedNotes(t, srv, "alpha", "beta", "gamma")

	res, _, err := srv.searchNotes(context.Background(), nil, SearchInput{Query: "alpha", Limit: 1})
	if err != nil {
		t.Fatalf("search_notes: %v", err)
	}
	text := resultText(t, res)
	if strings.Count(text, "\n") != 0 {
		t.Errorf("result = %q, want a single line", text)
	}
}

func TestSearchNotesTool_EmptyQueryFails(t *testing.T) {
	srv := newTestServer(t)

	if _, _, err := srv.searchNotes(context.Background(), nil, SearchInput{}); err == nil {
		t.Error("search_notes with empty query should fail")
	}
}

func TestListNotesTool_Empty(t *testing.T) {
	srv := newTestServer(t)

	res, _, err := srv.listNotes(context.Background(), nil, ListInput{})
	if err != nil {
		t.Fatalf("list_notes: %v", err)
	}
	if got := resultText(t, res); got != "No notes found." {
		t.Errorf("result = %q, want %q", got, "No notes found.")
	}
}

func TestListNotesTool_HasMoreMarker(t *testing.T) {
	srv := newTestServer(t)
	seedNotes(t, srv, "one", "two", "three")

	res, _, err := srv.listNotes(context.Background(), nil, ListInput{Limit: 2})
	if err != nil {
		t.Fatalf("list_notes: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "(more notes exist)") {
		t.Errorf("result = %q, want the has-more marker", text)
	}
}

func TestHandlerAPIKeyGate(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler("zk-mcp-secret")

	// Missing key is rejected.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/mcp", strings.NewReader("{}")))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}

	// Wrong key is rejected.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader("{}"))
	req.Header.Set("X-API-Key", "wrong")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}

	// Correct key reaches the MCP handler.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/mcp", strings.NewReader("{}"))
	req.Header.Set("X-API-Key", "zk-mcp-secret")
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusUnauthorized {
		t.Error("correct key should pass the gate")
	}
}

func TestHandlerWithoutKeyIsOpen(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler("")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/mcp", strings.NewReader("{}")))
	if rec.Code == http.StatusUnauthorized {
		t.Error("handler without configured key should not require one")
	}
}
