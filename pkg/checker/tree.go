package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

const wildcard = "*"

// Tree is one live component tree: checkers indexed by name plus the root
// where default lookups start. A Tree is immutable after NewTree.
type Tree struct {
	id       string
	root     string
	checkers map[string]Checker
	order    []string
	logger   *slog.Logger
}

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithTreeLogger sets the logger used for dangling references found during walks.
func WithTreeLogger(l *slog.Logger) TreeOption {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTree indexes checkers by name and binds proxies to the tree.
func NewTree(id, root string, checkers []Checker, opts ...TreeOption) (*Tree, error) {
	t := &Tree{
		id:       id,
		root:     root,
		checkers: make(map[string]Checker, len(checkers)),
		order:    make([]string, 0, len(checkers)),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, c := range checkers {
		if c == nil {
			continue
		}
		if _, dup := t.checkers[c.Name()]; dup {
			return nil, errors.Join(ErrDuplicateChecker, fmt.Errorf("checker %q", c.Name()))
		}
		t.checkers[c.Name()] = c
		t.order = append(t.order, c.Name())
	}
	if _, ok := t.checkers[root]; !ok {
		return nil, errors.Join(ErrRootNotFound, fmt.Errorf("root %q in tree %q", root, id))
	}
	for _, c := range t.checkers {
		if b, ok := c.(binder); ok {
			b.bind(t)
		}
	}
	return t, nil
}

// ID returns the root identifier the tree is installed under.
func (t *Tree) ID() string { return t.id }

// Root returns the root checker name.
func (t *Tree) Root() string { return t.root }

// Lookup finds a checker by name.
func (t *Tree) Lookup(name string) (Checker, bool) {
	c, ok := t.checkers[name]
	return c, ok
}

// Names returns checker names in registration order.
func (t *Tree) Names() []string {
	return append([]string(nil), t.order...)
}

// Follow resolves name through any chain of proxies.
func (t *Tree) Follow(name string) (Checker, error) {
	seen := make(map[string]struct{})
	for {
		if _, loop := seen[name]; loop {
			return nil, errors.Join(ErrProxyCycle, fmt.Errorf("checker %q", name))
		}
		seen[name] = struct{}{}
		c, ok := t.checkers[name]
		if !ok {
			return nil, errors.Join(ErrDanglingChecker, fmt.Errorf("checker %q", name))
		}
		p, ok := c.(*Proxy)
		if !ok {
			return c, nil
		}
		name = p.Target()
	}
}

// Walk visits the tree depth first from the root in declaration order.
// Every checker is visited once. Names that resolve to nothing are logged
// and skipped. Returning false from visit stops descent below that checker.
func (t *Tree) Walk(ctx context.Context, visit func(Checker) bool) {
	seen := make(map[string]struct{})
	var walk func(name, parent string)
	walk = func(name, parent string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		c, ok := t.checkers[name]
		if !ok {
			t.logger.WarnContext(ctx, "checker reference does not resolve",
				logger.Root(t.id),
				logger.Checker(name),
				slog.String("parent", parent),
			)
			return
		}
		if !visit(c) {
			return
		}
		for _, child := range c.Children() {
			walk(child, name)
		}
	}
	walk(t.root, "")
}

// DefaultsFor collects, in walk order, the names of checkers declaring
// themselves default for typeName and group.
func (t *Tree) DefaultsFor(ctx context.Context, typeName string, group rbac.CommandGroup) []string {
	var names []string
	t.Walk(ctx, func(c Checker) bool {
		if c.IsDefaultFor(typeName, group) {
			names = append(names, c.Name())
		}
		return true
	})
	return names
}

// Validate reports dangling references, proxy cycles and ambiguous default
// declarations among checkers reachable from the root.
func (t *Tree) Validate() []error {
	var errs []error

	for _, name := range t.order {
		for _, child := range t.checkers[name].Children() {
			if _, ok := t.checkers[child]; !ok {
				errs = append(errs, errors.Join(ErrDanglingChecker,
					fmt.Errorf("checker %q references %q", name, child)))
			}
		}
	}

	for _, name := range t.order {
		if _, ok := t.checkers[name].(*Proxy); !ok {
			continue
		}
		if _, err := t.Follow(name); errors.Is(err, ErrProxyCycle) {
			errs = append(errs, err)
		}
	}

	claims := make(map[string][]string)
	t.Walk(context.Background(), func(c Checker) bool {
		d, ok := c.(Declarer)
		if !ok {
			return true
		}
		for _, def := range d.Defaults() {
			group := def.Group
			if group == "" {
				group = wildcard
			}
			key := def.Type + ":" + group
			claims[key] = append(claims[key], c.Name())
		}
		return true
	})
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if names := claims[k]; len(names) > 1 {
			errs = append(errs, errors.Join(ErrAmbiguousDefault,
				fmt.Errorf("%s claimed by %v", k, names)))
		}
	}
	return errs
}
