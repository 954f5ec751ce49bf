package rbac

import (
	"context"
	"sync"
)

// RequestCache memoizes permission decisions and effective roles for the
// lifetime of one request. A nil *RequestCache is valid and caches nothing.
type RequestCache struct {
	mu        sync.Mutex
	decisions map[string]bool
	held      map[string][]string
	released  bool
}

type requestCacheCtxKey struct{}

// WithRequestCache installs a request cache in the context. The returned
// release func must be called when the request ends; after release the cache
// answers nothing. If the context already carries a live cache it is reused
// and release is a no-op.
func WithRequestCache(ctx context.Context) (context.Context, func()) {
	if existing := requestCacheFrom(ctx); existing != nil {
		return ctx, func() {}
	}
	c := &RequestCache{
		decisions: make(map[string]bool),
		held:      make(map[string][]string),
	}
	return context.WithValue(ctx, requestCacheCtxKey{}, c), c.release
}

// RunWithRequestCache runs fn with a request cache installed and releases it
// afterwards, also when fn panics.
func RunWithRequestCache(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, release := WithRequestCache(ctx)
	defer release()
	return fn(ctx)
}

// HasRequestCache reports whether a live request cache is installed.
func HasRequestCache(ctx context.Context) bool {
	return requestCacheFrom(ctx) != nil
}

func requestCacheFrom(ctx context.Context) *RequestCache {
	c, ok := ctx.Value(requestCacheCtxKey{}).(*RequestCache)
	if !ok || c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	return c
}

func (c *RequestCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	c.decisions = nil
	c.held = nil
}

func (c *RequestCache) decision(key string) (bool, bool) {
	if c == nil {
		return false, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.decisions[key]
	return v, ok
}

func (c *RequestCache) storeDecision(key string, allowed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.released {
		c.decisions[key] = allowed
	}
}

func (c *RequestCache) roles(key string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.held[key]
	return v, ok
}

func (c *RequestCache) storeRoles(key string, roles []string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.released {
		c.held[key] = roles
	}
}
