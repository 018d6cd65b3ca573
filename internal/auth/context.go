package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the resolved identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity resolved by the auth middleware.
// A request that never passed through the middleware is anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Anonymous()
	}
	if id, ok := ctx.Value(identityContextKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}

// UserIDFromContext returns the authenticated account id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id := IdentityFromContext(ctx)
	if id.IsAnonymous() {
		return "", false
	}
	return id.User().ID, true
}
