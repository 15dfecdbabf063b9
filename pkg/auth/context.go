package auth

import "context"

// ctxKey is the unexported context key type for the caller identity.
type ctxKey struct{}

// SetIdentity returns a context carrying the authenticated identity.
// The middleware calls this once per request after the chain decides.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the caller identity, or nil when the
// request never passed through the auth middleware.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
