package llm

import "context"

// Provider credentials travel on the context rather than on request structs
// so transport-agnostic code never carries them.
type authTokenKey struct{}

// WithAuthToken attaches the upstream Authorization header value to ctx.
// Empty values are dropped so callers can pass config fields unconditionally.
func WithAuthToken(ctx context.Context, authHeader string) context.Context {
	if authHeader == "" {
		return ctx
	}
	return context.WithValue(ctx, authTokenKey{}, authHeader)
}

// AuthToken returns the Authorization header value attached to ctx, or "".
func AuthToken(ctx context.Context) string {
	token, _ := ctx.Value(authTokenKey{}).(string)
	return token
}
