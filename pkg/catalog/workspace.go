package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/boundsec/pkg/cache"
	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/dialog"
	"github.com/dmitrymomot/boundsec/pkg/execution"
)

// Component is a live instance of a declared component holding the model
// and selection of one session. It owns the dialogs it declares.
type Component struct {
	*checker.Component
	*dialog.Set

	mu        sync.RWMutex
	model     any
	selection any
	parent    *Component
}

func (c *Component) Model() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *Component) Selection() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selection
}

// DialogParent returns the component declaring this one as a dialog.
func (c *Component) DialogParent() command.Component {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

// SetModel replaces the model.
func (c *Component) SetModel(m any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = m
}

// SetSelection replaces the selection.
func (c *Component) SetSelection(s any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = s
}

// Workspace is the set of live components of one session.
type Workspace struct {
	components map[string]*Component
	order      []string
}

// NewWorkspace instantiates every declared component. Checkers are shared
// with the catalog; models, selections and open dialogs are not.
func (c *Catalog) NewWorkspace() *Workspace {
	w := &Workspace{
		components: make(map[string]*Component, len(c.components)),
		order:      slices.Clone(c.order),
	}
	for _, name := range c.order {
		cc := c.components[name]
		var dialogs []string
		for d, owner := range c.owners {
			if owner == name {
				dialogs = append(dialogs, d)
			}
		}
		w.components[name] = &Component{Component: cc, Set: dialog.NewSet(dialogs...)}
	}
	for d, owner := range c.owners {
		if comp, ok := w.components[d]; ok {
			comp.parent = w.components[owner]
		}
	}
	return w
}

// Component returns the live component by name.
func (w *Workspace) Component(name string) (*Component, bool) {
	comp, ok := w.components[name]
	return comp, ok
}

// Names returns the component names in declaration order.
func (w *Workspace) Names() []string { return slices.Clone(w.order) }

// Defaults of Sessions.
const (
	DefaultSessionCapacity = 1024
	DefaultSessionTTL      = 30 * time.Minute
)

// Sessions keeps one workspace per suspension scope and resolves
// components for the execution engine. Workspaces expire after the TTL and
// the least recently used ones are evicted beyond capacity.
type Sessions struct {
	catalog *Catalog
	spaces  *cache.LRUCache[string, *Workspace]
}

// NewSessions creates a session store. Non-positive arguments take the
// defaults.
func NewSessions(c *Catalog, capacity int, ttl time.Duration) *Sessions {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	spaces := cache.NewLRUCache[string, *Workspace](capacity)
	spaces.SetTTL(ttl)
	return &Sessions{catalog: c, spaces: spaces}
}

// Workspace returns the workspace of a scope, creating it on first use.
func (s *Sessions) Workspace(scope string) *Workspace {
	w, _ := s.spaces.GetOrCompute(scope, func() (*Workspace, error) {
		return s.catalog.NewWorkspace(), nil
	})
	return w
}

// Component resolves a component of the workspace selected by the scope
// in ctx.
func (s *Sessions) Component(ctx context.Context, name string) (command.Component, error) {
	comp, ok := s.Workspace(execution.ScopeFromContext(ctx)).Component(name)
	if !ok {
		return nil, errors.Join(execution.ErrObjectNotFound, ErrUnknownComponent, fmt.Errorf("component %q", name))
	}
	return comp, nil
}

// Close drops the workspace of a scope.
func (s *Sessions) Close(scope string) {
	s.spaces.Remove(scope)
}
