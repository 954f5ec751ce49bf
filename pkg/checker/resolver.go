package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/boundsec/pkg/cache"
	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// DefaultCacheSize bounds the number of (type, group) entries cached per root.
const DefaultCacheSize = 1024

// installed is one live tree with its default-checker cache. A new value is
// created whenever the tree is installed or invalidated.
type installed struct {
	tree  *Tree
	gen   uint64
	cache *cache.LRUCache[string, []string]
}

// Resolver finds the default checkers for objects and types.
// It is safe for concurrent use.
type Resolver struct {
	types     *TypeGraph
	static    *StaticRegistry
	logger    *slog.Logger
	cacheSize int

	mu    sync.RWMutex
	trees map[string]*installed
	gen   uint64
	fill  singleflight.Group
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStatic sets the registry used when no live tree is selected.
func WithStatic(s *StaticRegistry) ResolverOption {
	return func(r *Resolver) { r.static = s }
}

// WithCacheSize sets the per-root cache capacity.
func WithCacheSize(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.cacheSize = n
		}
	}
}

// WithLogger sets the logger for ambiguity warnings and dangling references.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver over the type graph. A nil graph is
// replaced by an empty one.
func NewResolver(types *TypeGraph, opts ...ResolverOption) *Resolver {
	if types == nil {
		types = NewTypeGraph()
	}
	r := &Resolver{
		types:     types,
		logger:    slog.Default(),
		cacheSize: DefaultCacheSize,
		trees:     make(map[string]*installed),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.static == nil {
		r.static = NewStaticRegistry(r.logger)
	}
	return r
}

// Types returns the resolver's type graph.
func (r *Resolver) Types() *TypeGraph { return r.types }

// Static returns the fallback registry.
func (r *Resolver) Static() *StaticRegistry { return r.static }

// Install makes tree the live tree for its id, replacing any previous tree
// and its cached results.
func (r *Resolver) Install(tree *Tree) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.trees[tree.ID()] = &installed{
		tree:  tree,
		gen:   r.gen,
		cache: cache.NewLRUCache[string, []string](r.cacheSize),
	}
}

// Invalidate drops all cached results for rootID.
func (r *Resolver) Invalidate(rootID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.trees[rootID]
	if !ok {
		return
	}
	r.gen++
	r.trees[rootID] = &installed{
		tree:  cur.tree,
		gen:   r.gen,
		cache: cache.NewLRUCache[string, []string](r.cacheSize),
	}
}

// Uninstall removes the live tree for rootID.
func (r *Resolver) Uninstall(rootID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trees, rootID)
}

// Tree returns the live tree installed for rootID.
func (r *Resolver) Tree(rootID string) (*Tree, bool) {
	e, ok := r.entry(rootID)
	if !ok {
		return nil, false
	}
	return e.tree, true
}

func (r *Resolver) entry(rootID string) (*installed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.trees[rootID]
	return e, ok
}

// CandidateTypes returns the checker type names tried for subject, most
// specific first.
func (r *Resolver) CandidateTypes(subject any) []string {
	return r.types.Candidates(subject)
}

// CheckersFor returns the default checkers of the most specific candidate
// type that has any. The live tree selected with WithTree is walked;
// without one the static registry is used.
func (r *Resolver) CheckersFor(ctx context.Context, subject any, group rbac.CommandGroup) []Checker {
	candidates := r.types.Candidates(subject)
	if len(candidates) == 0 {
		return nil
	}

	rootID, ok := TreeFromContext(ctx)
	if !ok {
		return r.static.Lookup(candidates, group)
	}
	e, ok := r.entry(rootID)
	if !ok {
		return r.static.Lookup(candidates, group)
	}

	for _, typeName := range candidates {
		names := r.defaultNames(ctx, e, typeName, group)
		if len(names) == 0 {
			continue
		}
		out := make([]Checker, 0, len(names))
		for _, name := range names {
			c, ok := e.tree.Lookup(name)
			if !ok {
				r.logger.WarnContext(ctx, "default checker does not resolve",
					logger.Root(rootID),
					logger.Checker(name),
					logger.ObjectType(typeName),
				)
				continue
			}
			out = append(out, c)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// defaultNames returns the cached checker names for typeName, walking the
// tree on a miss. Concurrent misses for the same key share one walk and
// the first stored value wins.
func (r *Resolver) defaultNames(ctx context.Context, e *installed, typeName string, group rbac.CommandGroup) []string {
	key := cacheKey(typeName, group)
	if names, ok := e.cache.Get(key); ok {
		return names
	}

	v, _, _ := r.fill.Do(fmt.Sprintf("%s/%d/%s", e.tree.ID(), e.gen, key), func() (any, error) {
		if names, ok := e.cache.Get(key); ok {
			return names, nil
		}
		names := e.tree.DefaultsFor(ctx, typeName, group)
		if len(names) > 1 {
			r.logger.WarnContext(ctx, "ambiguous default checker, using the first one",
				logger.Root(e.tree.ID()),
				logger.ObjectType(typeName),
				logger.CommandGroup(group.String()),
				logger.Checkers(names),
			)
		}
		actual, _ := e.cache.PutIfAbsent(key, names)
		return actual, nil
	})
	names, _ := v.([]string)
	return names
}

// DefaultChecker returns the first default checker for obj.
func (r *Resolver) DefaultChecker(ctx context.Context, obj any, group rbac.CommandGroup) (Checker, bool) {
	checkers := r.CheckersFor(ctx, obj, group)
	if len(checkers) == 0 {
		return nil, false
	}
	return checkers[0], true
}

// DefaultAllowing returns the first default checker that allows u to use
// group on obj. When none allows, the last candidate is returned with false.
func (r *Resolver) DefaultAllowing(ctx context.Context, u *rbac.User, obj rbac.Object, group rbac.CommandGroup) (Checker, bool) {
	var last Checker
	for _, c := range r.CheckersFor(ctx, obj, group) {
		if c.Allow(ctx, u, obj, group) {
			return c, true
		}
		last = c
	}
	return last, false
}

// AllowCommandGroup reports whether any default checker of obj allows u to
// use group on it. Objects without a default checker are denied.
func (r *Resolver) AllowCommandGroup(ctx context.Context, u *rbac.User, obj rbac.Object, group rbac.CommandGroup) bool {
	if rbac.IsNil(obj) {
		return true
	}
	_, ok := r.DefaultAllowing(ctx, u, obj, group)
	return ok
}

func cacheKey(typeName string, group rbac.CommandGroup) string {
	return typeName + ":" + group.String()
}
