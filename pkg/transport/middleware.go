package transport

import (
	"context"
	"net/http"
)

// Middleware wraps an http.Handler with cross-cutting behavior such as
// recovery, request IDs, logging, metrics, or authentication.
type Middleware func(http.Handler) http.Handler

// Chain folds several middleware into one. The first argument becomes
// the outermost wrapper: Chain(a, b, c) produces a(b(c(handler))), so a
// runs first on the way in and last on the way out.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// requestIDKey is the unexported context key type for request IDs.
type requestIDKey struct{}

// ContextWithRequestID returns a context carrying the request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID assigned by the RequestID
// middleware, or the empty string when none was assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
