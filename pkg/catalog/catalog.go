package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/config"
	"github.com/dmitrymomot/boundsec/pkg/dialog"
	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/secobject"
)

// Catalog is the built, immutable configuration of a deployment.
type Catalog struct {
	groups   *rbac.GroupRegistry
	cliques  *command.Catalog
	commands *command.Registry
	checkers *checker.Resolver
	trees    []*checker.Tree

	components map[string]*checker.Component
	order      []string
	// owners maps a dialog to the component declaring it.
	owners   map[string]string
	problems []error
}

// Option configures Build.
type Option func(*options)

type options struct {
	perms     checker.PermissionResolver
	factories *command.Factories
	rules     *command.RuleRegistry
	providers *secobject.Registry
	cacheSize int
	logger    *slog.Logger
}

// WithPermissions sets the resolver components check permissions with.
// Without it every component only allows objectless invocations.
func WithPermissions(p checker.PermissionResolver) Option {
	return func(o *options) { o.perms = p }
}

// WithFactories sets the handler kinds commands may use. The dialog kinds
// are added to it.
func WithFactories(f *command.Factories) Option {
	return func(o *options) { o.factories = f }
}

// WithRules sets the named executability rules. The dialog rules are
// added to it.
func WithRules(r *command.RuleRegistry) Option {
	return func(o *options) { o.rules = r }
}

func WithProviders(p *secobject.Registry) Option {
	return func(o *options) { o.providers = p }
}

// WithCheckerCacheSize bounds the default-checker cache of every tree.
func WithCheckerCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Load reads a YAML catalog file and builds it.
func Load(ctx context.Context, path string, opts ...Option) (*Catalog, error) {
	var spec Spec
	if err := config.LoadYAML(path, &spec); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return Build(ctx, spec, opts...)
}

// Parse builds a catalog from YAML.
func Parse(ctx context.Context, data []byte, opts ...Option) (*Catalog, error) {
	var spec Spec
	if err := config.DecodeYAML(data, &spec); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return Build(ctx, spec, opts...)
}

// Build resolves spec. Malformed entries, unknown references and rejected
// commands fail the build. Clique clashes, undeclared cliques, unknown
// rules and tree inconsistencies are logged and reported by Problems.
func Build(ctx context.Context, spec Spec, opts ...Option) (*Catalog, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.factories == nil {
		o.factories = command.NewFactories()
	}
	if o.rules == nil {
		o.rules = command.NewRuleRegistry()
	}
	dialog.Register(o.factories)
	dialog.RegisterRules(o.rules)

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(spec); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}

	c := &Catalog{
		groups:     rbac.NewGroupRegistry(),
		cliques:    command.NewCatalog(),
		components: make(map[string]*checker.Component),
		owners:     make(map[string]string),
	}
	soft := func(err error) {
		o.logger.WarnContext(ctx, "catalog configuration error", logger.Error(err))
		c.problems = append(c.problems, err)
	}

	for _, g := range spec.Groups {
		t, err := rbac.ParseGroupType(g.Type)
		if err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}
		if _, err := c.groups.Register(g.Name, t); err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}
	}
	c.groups.Freeze()

	for _, cl := range spec.Cliques {
		var err error
		if len(cl.Cliques) > 0 {
			err = c.cliques.AddGroup(cliqueGroup(cl))
		} else {
			err = c.cliques.AddClique(clique(cl))
		}
		if err != nil {
			soft(err)
		}
	}

	types := checker.NewTypeGraph()
	for _, t := range spec.Types {
		types.Declare(t.Name, t.Supertypes...)
		if t.CheckerType != "" {
			types.Alias(t.Name, t.CheckerType)
		}
	}

	checkers, err := c.buildCheckers(spec, o.perms)
	if err != nil {
		return nil, err
	}

	static := checker.NewStaticRegistry(o.logger)
	c.checkers = checker.NewResolver(types,
		checker.WithStatic(static),
		checker.WithCacheSize(o.cacheSize),
		checker.WithLogger(o.logger),
	)
	for _, ts := range spec.Trees {
		tree, err := checker.NewTree(ts.ID, ts.Root, checkers, checker.WithTreeLogger(o.logger))
		if err != nil {
			return nil, errors.Join(ErrInvalidCatalog, err)
		}
		for _, err := range tree.Validate() {
			soft(err)
		}
		static.Seed(ctx, tree)
		c.checkers.Install(tree)
		c.trees = append(c.trees, tree)
	}

	byName := make(map[string]checker.Checker, len(checkers))
	for _, ch := range checkers {
		byName[ch.Name()] = ch
	}
	for _, s := range spec.Static {
		ch, ok := byName[s.Checker]
		if !ok {
			return nil, errors.Join(ErrInvalidCatalog, ErrUnknownComponent, fmt.Errorf("static checker %q", s.Checker))
		}
		static.Register(s.Root, s.Type, ch)
	}

	c.commands = command.NewRegistry(c.cliques,
		command.WithGroups(c.groups),
		command.WithRules(o.rules),
		command.WithFactories(o.factories),
		command.WithProviders(o.providers),
		command.WithDefaults(spec.Defaults),
		command.WithLogger(o.logger),
	)
	var errs []error
	for _, cfg := range spec.Commands {
		if _, err := c.commands.Register(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrInvalidCatalog}, errs...)...)
	}
	c.problems = append(c.problems, c.commands.ConfigErrors()...)
	return c, nil
}

func (c *Catalog) buildCheckers(spec Spec, perms checker.PermissionResolver) ([]checker.Checker, error) {
	out := make([]checker.Checker, 0, len(spec.Components)+len(spec.Proxies))
	seen := make(map[string]struct{})
	claim := func(name string) error {
		if _, dup := seen[name]; dup {
			return errors.Join(ErrInvalidCatalog, ErrDuplicateComponent, fmt.Errorf("checker %q", name))
		}
		seen[name] = struct{}{}
		return nil
	}

	for _, cs := range spec.Components {
		if err := claim(cs.Name); err != nil {
			return nil, err
		}
		opts := []checker.ComponentOption{
			checker.WithChildren(cs.Children...),
			checker.WithDialogs(cs.Dialogs...),
		}
		for _, d := range cs.Defaults {
			opts = append(opts, checker.DefaultFor(d.Type, d.Groups...))
		}
		for _, group := range sortedKeys(cs.Roles) {
			opts = append(opts, checker.WithRoles(group, cs.Roles[group]...))
		}
		comp := checker.NewComponent(cs.Name, perms, opts...)
		c.components[cs.Name] = comp
		c.order = append(c.order, cs.Name)
		for _, d := range cs.Dialogs {
			c.owners[d] = cs.Name
		}
		out = append(out, comp)
	}

	for _, ps := range spec.Proxies {
		if err := claim(ps.Name); err != nil {
			return nil, err
		}
		var defaults []checker.Default
		for _, d := range ps.Defaults {
			if len(d.Groups) == 0 {
				defaults = append(defaults, checker.Default{Type: d.Type})
			}
			for _, g := range d.Groups {
				defaults = append(defaults, checker.Default{Type: d.Type, Group: g})
			}
		}
		out = append(out, checker.NewProxy(ps.Name, ps.Target, defaults...))
	}
	return out, nil
}

// Commands returns the command registry.
func (c *Catalog) Commands() *command.Registry { return c.commands }

// Groups returns the command group registry.
func (c *Catalog) Groups() *rbac.GroupRegistry { return c.groups }

// Checkers returns the default-checker resolver with every tree installed.
func (c *Catalog) Checkers() *checker.Resolver { return c.checkers }

// Trees returns the checker trees in declaration order.
func (c *Catalog) Trees() []*checker.Tree { return slices.Clone(c.trees) }

// ComponentNames returns the declared components in declaration order.
func (c *Catalog) ComponentNames() []string { return slices.Clone(c.order) }

// Problems returns the configuration errors that did not fail the build.
func (c *Catalog) Problems() []error { return slices.Clone(c.problems) }

func clique(s CliqueSpec) command.Clique {
	return command.Clique{
		Name:          s.Name,
		Display:       command.Display(s.Display),
		Image:         s.Image,
		DisabledImage: s.DisabledImage,
		CSSClasses:    s.CSSClasses,
	}
}

func cliqueGroup(s CliqueSpec) command.CliqueGroup {
	g := command.CliqueGroup{
		Name:          s.Name,
		Display:       command.Display(s.Display),
		Image:         s.Image,
		DisabledImage: s.DisabledImage,
		CSSClasses:    s.CSSClasses,
	}
	for _, cl := range s.Cliques {
		g.Cliques = append(g.Cliques, clique(cl))
	}
	return g
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
