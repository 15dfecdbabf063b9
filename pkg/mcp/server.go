// Package mcp exposes the note service as Model Context Protocol tools.
//
// The server speaks streamable HTTP and runs every tool call as a single
// configured identity. It is meant for personal agent integrations, not
// multi-tenant access; the HTTP handler can optionally be gated on a
// static API key.
package mcp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/auth/apikey"
	"github.com/rhuss/zettel/pkg/debug"
)

// Default windows for tools that omit a limit.
const (
	DefaultSearchLimit = 10
	DefaultListLimit   = 100
)

// NoteAPI is the slice of the note service the tools call.
type NoteAPI interface {
	Create(ctx context.Context, req *api.CreateNoteRequest, caller *auth.Identity) (*api.Note, error)
	List(ctx context.Context, caller *auth.Identity, skip, limit int) ([]*api.Note, bool, error)
	SearchByText(ctx context.Context, caller *auth.Identity, query string, limit int) ([]*api.Note, error)
}

// SearchInput is the argument schema for the search_notes tool.
type SearchInput struct {
	Query string `json:"query" jsonschema_description:"Free-text query matched against note content by meaning"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results (default 10, max 50)"`
}

// CreateInput is the argument schema for the create_note tool.
type CreateInput struct {
	Content string `json:"content" jsonschema_description:"The note text to store"`
}

// ListInput is the argument schema for the list_notes tool.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Maximum number of notes to return, newest first (default 100)"`
}

// Server exposes note tools over MCP, acting as one fixed identity.
type Server struct {
	notes    NoteAPI
	identity *auth.Identity
	mcp      *mcp.Server
}

// NewServer creates an MCP server whose tools operate the given note
// service as the given identity.
func NewServer(notes NoteAPI, identity *auth.Identity) (*Server, error) {
	if notes == nil {
		return nil, fmt.Errorf("note service is required")
	}
	if identity == nil || identity.Subject == "" {
		return nil, fmt.Errorf("service identity is required")
	}

	s := &Server{notes: notes, identity: identity}

	srv := mcp.NewServer(
		&mcp.Implementation{Name: "zettel-mcp", Version: "v1.0.0"},
		nil,
	)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_notes",
		Description: "Searches the user's notes by meaning and returns the closest matches, best first",
	}, s.searchNotes)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_note",
		Description: "Stores a new note",
	}, s.createNote)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_notes",
		Description: "Lists the user's notes, newest first",
	}, s.listNotes)

	s.mcp = srv
	return s, nil
}

// Handler returns the streamable HTTP handler for the server. A non-empty
// apiKey gates every request on the X-API-Key header.
func (s *Server) Handler(apiKey string) http.Handler {
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	if apiKey == "" {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(apikey.HeaderName)
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			http.Error(w, `{"error":{"type":"unauthorized","message":"invalid API key"}}`, http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (s *Server) searchNotes(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, struct{}, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	debug.Log("mcp", "search_notes", "query", debug.Truncate(in.Query, 80), "limit", limit)

	results, err := s.notes.SearchByText(ctx, s.identity, in.Query, limit)
	if err != nil {
		return nil, struct{}{}, err
	}
	return textResult(formatNotes(results)), struct{}{}, nil
}

func (s *Server) createNote(ctx context.Context, _ *mcp.CallToolRequest, in CreateInput) (*mcp.CallToolResult, struct{}, error) {
	debug.Log("mcp", "create_note", "content", debug.Truncate(in.Content, 80))

	note, err := s.notes.Create(ctx, &api.CreateNoteRequest{Content: in.Content}, s.identity)
	if err != nil {
		return nil, struct{}{}, err
	}
	return textResult(fmt.Sprintf("Created note %s.", note.ID)), struct{}{}, nil
}

func (s *Server) listNotes(ctx context.Context, _ *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, struct{}, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	debug.Log("mcp", "list_notes", "limit", limit)

	notes, hasMore, err := s.notes.List(ctx, s.identity, 0, limit)
	if err != nil {
		return nil, struct{}{}, err
	}

	text := formatNotes(notes)
	if hasMore {
		text += "\n(more notes exist)"
	}
	return textResult(text), struct{}{}, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// formatNotes renders notes one per line, numbered in the given order.
func formatNotes(notes []*api.Note) string {
	if len(notes) == 0 {
		return "No notes found."
	}
	var b strings.Builder
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, n.ID, n.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
