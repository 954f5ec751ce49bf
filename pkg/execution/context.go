package execution

import "context"

type scopeKey struct{}

// WithScope sets the session or dialog scope suspensions are stored under.
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the suspension scope set with WithScope.
func ScopeFromContext(ctx context.Context) string {
	s, _ := ctx.Value(scopeKey{}).(string)
	return s
}
