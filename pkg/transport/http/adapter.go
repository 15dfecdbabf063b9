package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/zettel/pkg/api"
	"github.com/rhuss/zettel/pkg/auth"
	"github.com/rhuss/zettel/pkg/transport"
)

// Adapter serves the zettel API over HTTP. It routes requests to the
// note and user services and serializes results.
type Adapter struct {
	notes  transport.NoteAPI
	users  transport.UserAPI
	health transport.HealthChecker // nil disables the readiness probe
	mux    *http.ServeMux
	config Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr        string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		MaxBodySize: 1 << 20, // 1 MiB
	}
}

// NewAdapter creates an HTTP adapter for the given services. The health
// checker is optional; when nil, readyz always reports ready.
func NewAdapter(notes transport.NoteAPI, users transport.UserAPI, health transport.HealthChecker, cfg Config) *Adapter {
	a := &Adapter{
		notes:  notes,
		users:  users,
		health: health,
		mux:    http.NewServeMux(),
		config: cfg,
	}

	a.mux.HandleFunc("POST /v1/users/register", a.handleRegister)
	a.mux.HandleFunc("POST /v1/users/login", a.handleLogin)
	a.mux.HandleFunc("GET /v1/users/me", a.handleMe)
	a.mux.HandleFunc("GET /v1/users", a.handleListUsers)
	a.mux.HandleFunc("GET /v1/users/{id}", a.handleGetUser)
	a.mux.HandleFunc("PUT /v1/users/{id}", a.handleUpdateUser)
	a.mux.HandleFunc("DELETE /v1/users/{id}", a.handleDeleteUser)

	a.mux.HandleFunc("POST /v1/notes", a.handleCreateNote)
	a.mux.HandleFunc("GET /v1/notes", a.handleListNotes)
	a.mux.HandleFunc("GET /v1/notes/search", a.handleSearchNotes)
	a.mux.HandleFunc("GET /v1/notes/{id}", a.handleGetNote)
	a.mux.HandleFunc("PUT /v1/notes/{id}", a.handleUpdateNote)
	a.mux.HandleFunc("DELETE /v1/notes/{id}", a.handleDeleteNote)

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	return a
}

// Handler returns the http.Handler for this adapter. Use this to
// integrate with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// decodeBody validates the content type, caps the body size, and
// decodes JSON into dst. On failure it writes the error response and
// returns false.
func (a *Adapter) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}

	return true
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleRegister handles POST /v1/users/register.
func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	user, err := a.users.Register(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleLogin handles POST /v1/users/login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	token, err := a.users.Login(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// handleMe handles GET /v1/users/me.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFromContext(r.Context())
	if caller == nil {
		transport.WriteAPIError(w, api.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := a.users.Get(r.Context(), caller.Subject, caller)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleListUsers handles GET /v1/users.
func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transport.NewUserList(users))
}

// handleGetUser handles GET /v1/users/{id}.
func (a *Adapter) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.Get(r.Context(), r.PathValue("id"), auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser handles PUT /v1/users/{id}.
func (a *Adapter) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateUserRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	user, err := a.users.Update(r.Context(), r.PathValue("id"), &req, auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser handles DELETE /v1/users/{id}.
func (a *Adapter) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Delete(r.Context(), r.PathValue("id"), auth.IdentityFromContext(r.Context())); err != nil {
		transport.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateNote handles POST /v1/notes.
func (a *Adapter) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req api.CreateNoteRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	note, err := a.notes.Create(r.Context(), &req, auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// handleListNotes handles GET /v1/notes.
func (a *Adapter) handleListNotes(w http.ResponseWriter, r *http.Request) {
	opts, apiErr := parseListOptions(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	notes, hasMore, err := a.notes.List(r.Context(), auth.IdentityFromContext(r.Context()), opts.Skip, opts.Limit)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transport.NewNoteList(notes, hasMore))
}

// handleSearchNotes handles GET /v1/notes/search.
func (a *Adapter) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")

	limit := transport.DefaultSearchLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			transport.WriteAPIError(w, api.NewInvalidRequestError("limit", "limit must be an integer"))
			return
		}
		limit = n
	}

	notes, err := a.notes.SearchByText(r.Context(), auth.IdentityFromContext(r.Context()), query, limit)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transport.NewNoteList(notes, false))
}

// handleGetNote handles GET /v1/notes/{id}.
func (a *Adapter) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := a.notes.Get(r.Context(), r.PathValue("id"), auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// handleUpdateNote handles PUT /v1/notes/{id}.
func (a *Adapter) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateNoteRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	note, err := a.notes.Update(r.Context(), r.PathValue("id"), &req, auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// handleDeleteNote handles DELETE /v1/notes/{id}.
func (a *Adapter) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := a.notes.Delete(r.Context(), r.PathValue("id"), auth.IdentityFromContext(r.Context())); err != nil {
		transport.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealthz handles GET /healthz (liveness).
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// handleReadyz handles GET /readyz (readiness). Ready means the backing
// store answers its health check.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.HealthCheck(r.Context()); err != nil {
			transport.WriteErrorResponse(w,
				api.NewServerError("store not ready: "+err.Error()),
				http.StatusServiceUnavailable,
			)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// parseListOptions extracts pagination parameters from the query string,
// applying defaults for absent values. Range validation happens in the
// service layer.
func parseListOptions(r *http.Request) (transport.ListOptions, *api.APIError) {
	q := r.URL.Query()
	opts := transport.ListOptions{Skip: 0, Limit: transport.DefaultListLimit}

	if skipStr := q.Get("skip"); skipStr != "" {
		skip, err := strconv.Atoi(skipStr)
		if err != nil {
			return opts, api.NewInvalidRequestError("skip", "skip must be an integer")
		}
		opts.Skip = skip
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return opts, api.NewInvalidRequestError("limit", "limit must be an integer")
		}
		opts.Limit = limit
	}

	return opts, nil
}
