// Package contexthelpers carries request-scoped values between middleware, handlers and services.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey int

const (
	userIDKey contextKey = iota
	currentPathKey
	cspNonceKey
)

func value[T any](ctx context.Context, key contextKey) T {
	v, _ := ctx.Value(key).(T)
	return v
}

func withValue(r *http.Request, key contextKey, v any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, v))
}

// WithAuthenticatedUser scopes ctx to userID. Services read the user from the context, so tests call this directly
// instead of going through a session.
func WithAuthenticatedUser(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func AuthenticateContext(r *http.Request, userID int) *http.Request {
	return r.WithContext(WithAuthenticatedUser(r.Context(), userID))
}

func IsAuthenticated(ctx context.Context) bool {
	_, ok := ctx.Value(userIDKey).(int)
	return ok
}

// AuthenticatedUserID returns 0 for anonymous requests.
func AuthenticatedUserID(ctx context.Context) int {
	return value[int](ctx, userIDKey)
}

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	return withValue(r, currentPathKey, currentPath)
}

func CurrentPath(ctx context.Context) string {
	return value[string](ctx, currentPathKey)
}

func SetCSPNonce(r *http.Request, nonce string) *http.Request {
	return withValue(r, cspNonceKey, nonce)
}

func CSPNonce(ctx context.Context) string {
	return value[string](ctx, cspNonceKey)
}
