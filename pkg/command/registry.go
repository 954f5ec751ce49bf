package command

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/boundsec/pkg/logger"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
	"github.com/dmitrymomot/boundsec/pkg/secobject"
)

// Registry resolves command configurations into commands.
// It is safe for concurrent use.
type Registry struct {
	catalog   *Catalog
	groups    *rbac.GroupRegistry
	rules     *RuleRegistry
	factories *Factories
	providers *secobject.Registry
	defaults  Defaults
	validate  *validator.Validate
	logger    *slog.Logger

	mu         sync.RWMutex
	commands   map[string]*Command
	order      []*Command
	configErrs []error
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithGroups sets the command group registry.
func WithGroups(g *rbac.GroupRegistry) RegistryOption {
	return func(r *Registry) { r.groups = g }
}

// WithRules sets the executability rule registry.
func WithRules(rules *RuleRegistry) RegistryOption {
	return func(r *Registry) { r.rules = rules }
}

// WithFactories sets the handler factory registry.
func WithFactories(f *Factories) RegistryOption {
	return func(r *Registry) { r.factories = f }
}

// WithProviders sets the security object provider registry.
func WithProviders(p *secobject.Registry) RegistryOption {
	return func(r *Registry) { r.providers = p }
}

// WithDefaults sets the global display defaults.
func WithDefaults(d Defaults) RegistryOption {
	return func(r *Registry) { r.defaults = d }
}

// WithLogger sets the logger for configuration errors.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry over the clique catalog. The default
// clique is declared when the catalog lacks it.
func NewRegistry(catalog *Catalog, opts ...RegistryOption) *Registry {
	if catalog == nil {
		catalog = NewCatalog()
	}
	r := &Registry{
		catalog:  catalog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
		commands: make(map[string]*Command),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.groups == nil {
		r.groups = rbac.NewGroupRegistry()
	}
	if r.rules == nil {
		r.rules = NewRuleRegistry()
	}
	if r.factories == nil {
		r.factories = NewFactories()
	}
	if r.providers == nil {
		r.providers = secobject.NewRegistry()
	}
	if !catalog.Has(DefaultClique) {
		_ = catalog.AddClique(Clique{Name: DefaultClique})
	}
	return r
}

// Catalog returns the clique catalog.
func (r *Registry) Catalog() *Catalog { return r.catalog }

// Factories returns the handler factory registry.
func (r *Registry) Factories() *Factories { return r.factories }

// Register resolves cfg into a command. Invalid configuration, duplicate
// ids, unknown groups, kinds and targets are rejected. Undeclared cliques,
// unknown rules and unknown security object providers are logged and
// collected in ConfigErrors, and the command falls back to defaults.
func (r *Registry) Register(cfg Config) (*Command, error) {
	if err := r.validate.Struct(cfg); err != nil {
		return nil, NewConfigurationError(cfg.ID, errors.Join(ErrInvalidConfig, err))
	}

	group, err := r.groups.Lookup(cfg.Group)
	if err != nil {
		return nil, NewConfigurationError(cfg.ID, err)
	}
	target, err := ParseTarget(cfg.Target)
	if err != nil {
		return nil, NewConfigurationError(cfg.ID, err)
	}

	s := Settings{
		ID:         cfg.ID,
		Kind:       cfg.Kind,
		Group:      group,
		Clique:     cfg.Clique,
		Confirm:    cfg.Confirm,
		ConfirmKey: ConfirmKey(cfg.ID, cfg.ConfirmMessage),
		Target:     target,
		Params:     cfg.Params,
	}
	if s.Clique == "" {
		s.Clique = DefaultClique
	}
	clique, ok := r.catalog.Lookup(s.Clique)
	if !ok {
		r.configError(cfg.ID, errors.Join(ErrUnknownClique, fmt.Errorf("clique %q", s.Clique)))
		s.Clique = DefaultClique
		clique, _ = r.catalog.Lookup(DefaultClique)
	}
	mergeSettings(&s, cfg, clique, r.defaults)
	s = s.clone()

	handler, err := r.factories.Build(s)
	if err != nil {
		return nil, NewConfigurationError(cfg.ID, err)
	}
	if c, ok := handler.(Confirmer); ok {
		s.Confirm = c.NeedsConfirm(s)
	}

	rules := make([]Rule, 0, len(cfg.Executability)+len(cfg.Rules)+1)
	if hr, ok := handler.(Rule); ok {
		rules = append(rules, hr)
	}
	for _, name := range cfg.Executability {
		rule, err := r.rules.Lookup(name)
		if err != nil {
			r.configError(cfg.ID, err)
			continue
		}
		rules = append(rules, rule)
	}
	rules = append(rules, cfg.Rules...)

	provider, err := r.providers.Lookup(cfg.SecurityObject)
	if err != nil {
		r.configError(cfg.ID, err)
		provider = secobject.Default
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[cfg.ID]; dup {
		return nil, NewConfigurationError(cfg.ID, ErrDuplicateCommand)
	}
	cmd := &Command{
		settings: s,
		handler:  handler,
		rule:     And(rules...),
		provider: provider,
		seq:      len(r.order),
	}
	r.commands[cfg.ID] = cmd
	r.order = append(r.order, cmd)
	return cmd, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(cfg Config) *Command {
	cmd, err := r.Register(cfg)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Resolve returns the command registered under id.
func (r *Registry) Resolve(id string) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	if !ok {
		return nil, errors.Join(ErrCommandNotFound, fmt.Errorf("command %q", id))
	}
	return cmd, nil
}

// Commands returns all commands in declaration order.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// ConfigErrors returns the configuration errors collected so far.
func (r *Registry) ConfigErrors() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.configErrs)
}

func (r *Registry) configError(id string, err error) {
	cerr := NewConfigurationError(id, err)
	r.logger.Warn("command configuration error",
		logger.Command(id),
		logger.Error(cerr),
	)
	r.mu.Lock()
	r.configErrs = append(r.configErrs, cerr)
	r.mu.Unlock()
}

// Order compares commands by declaration order.
func (r *Registry) Order() func(a, b *Command) int {
	return func(a, b *Command) int {
		return cmp.Compare(a.seq, b.seq)
	}
}

// ToolbarOrder compares commands by clique index, then declaration order.
func (r *Registry) ToolbarOrder() func(a, b *Command) int {
	return func(a, b *Command) int {
		ai, _ := r.catalog.position(a.Clique())
		bi, _ := r.catalog.position(b.Clique())
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	}
}

// ButtonBarOrder compares commands by clique group index descending, so
// important groups render last, then by clique index and declaration order.
// Commands in undeclared cliques sort last.
func (r *Registry) ButtonBarOrder() func(a, b *Command) int {
	return func(a, b *Command) int {
		ai, ag := r.catalog.position(a.Clique())
		bi, bg := r.catalog.position(b.Clique())
		if au, bu := ai == undeclared, bi == undeclared; au != bu {
			if au {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(bg, ag); c != 0 {
			return c
		}
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	}
}
