// Package transport defines the handler contracts and HTTP middleware
// chain for the zettel API surface.
//
// The transport layer bridges external clients and the note and user
// services. It deserializes incoming requests into the types defined in
// pkg/api, dispatches them to a service implementation behind the
// NoteAPI and UserAPI interfaces, and serializes results and errors back
// to the client as JSON.
//
// # Handler Interfaces
//
//   - NoteAPI covers note CRUD, listing, and semantic search.
//   - UserAPI covers registration, login, and account administration.
//
// Both take the caller identity explicitly so that implementations stay
// testable without HTTP machinery.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting concerns: panic
// recovery, request ID assignment (X-Request-Id), and structured access
// logging via log/slog. Authentication and metrics middleware live in
// pkg/auth and pkg/observability and compose through the same
// func(http.Handler) http.Handler shape.
package transport
