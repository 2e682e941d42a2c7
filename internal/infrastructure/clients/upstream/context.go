package upstream

import (
	"context"
)

type contextKey string

const authTokenKey contextKey = "upstream-auth-token"

// WithAuthToken stashes the caller's raw bearer token for propagation to
// upstream services
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey, token)
}

// AuthTokenFromContext returns the bearer token stored on the context
func AuthTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(authTokenKey).(string); ok {
		return token
	}
	return ""
}
