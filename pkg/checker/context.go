package checker

import "context"

type treeKey struct{}

// WithTree selects the live component tree for checker lookups made with ctx.
func WithTree(ctx context.Context, rootID string) context.Context {
	return context.WithValue(ctx, treeKey{}, rootID)
}

// TreeFromContext returns the root id selected with WithTree.
func TreeFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(treeKey{}).(string)
	return id, ok && id != ""
}
