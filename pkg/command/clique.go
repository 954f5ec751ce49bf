package command

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
)

// DefaultClique receives commands that name no clique or an undeclared one.
const DefaultClique = "additional"

// Display is the rendering strategy of a clique.
type Display string

const (
	DisplayCommands    Display = "commands"
	DisplayToolbar     Display = "toolbar"
	DisplayMenu        Display = "menu"
	DisplayContextMenu Display = "context-menu"
	DisplayHidden      Display = "hidden"
)

// ParseDisplay converts a configuration string into a Display. An empty
// string means DisplayCommands.
func ParseDisplay(s string) (Display, error) {
	switch d := Display(s); d {
	case "":
		return DisplayCommands, nil
	case DisplayCommands, DisplayToolbar, DisplayMenu, DisplayContextMenu, DisplayHidden:
		return d, nil
	default:
		return "", errors.Join(ErrInvalidConfig, fmt.Errorf("unknown display %q", s))
	}
}

// Clique is a flat group of commands sharing display defaults.
type Clique struct {
	Name          string
	Display       Display
	Image         string
	DisabledImage string
	CSSClasses    []string
}

// CliqueGroup is an ordered group of cliques sharing a display strategy.
type CliqueGroup struct {
	Name          string
	Display       Display
	Image         string
	DisabledImage string
	CSSClasses    []string
	Cliques       []Clique
}

// CliqueInfo is the resolved position and defaults of a declared clique.
type CliqueInfo struct {
	Clique
	// Group is empty for standalone cliques.
	Group string
	// Index is the clique's position in the catalog.
	Index int
	// GroupIndex is the position of the clique's group, or Index for a
	// standalone clique.
	GroupIndex int

	groupImage         string
	groupDisabledImage string
	groupCSS           []string
}

// Catalog holds declared cliques in declaration order.
type Catalog struct {
	mu      sync.RWMutex
	cliques map[string]CliqueInfo
	next    int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{cliques: make(map[string]CliqueInfo)}
}

// AddClique declares a standalone clique. It takes one catalog index.
func (c *Catalog) AddClique(cl Clique) error {
	if cl.Name == "" {
		return errors.Join(ErrInvalidConfig, errors.New("clique without name"))
	}
	display, err := ParseDisplay(string(cl.Display))
	if err != nil {
		return NewConfigurationError(cl.Name, err)
	}
	cl.Display = display

	c.mu.Lock()
	defer c.mu.Unlock()
	index := c.next
	c.next++
	if existing, ok := c.cliques[cl.Name]; ok {
		return NewConfigurationError(cl.Name, errors.Join(ErrCliqueClash,
			fmt.Errorf("clique already declared at index %d", existing.Index)))
	}
	c.cliques[cl.Name] = CliqueInfo{Clique: cl, Index: index, GroupIndex: index}
	return nil
}

// AddGroup declares a clique group. The group takes one index and its
// cliques take consecutive indices after it. A clique already declared
// elsewhere keeps its first declaration and is reported.
func (c *Catalog) AddGroup(g CliqueGroup) error {
	if g.Name == "" {
		return errors.Join(ErrInvalidConfig, errors.New("clique group without name"))
	}
	display, err := ParseDisplay(string(g.Display))
	if err != nil {
		return NewConfigurationError(g.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	groupIndex := c.next
	c.next++

	var errs []error
	for _, cl := range g.Cliques {
		index := c.next
		c.next++
		if cl.Name == "" {
			errs = append(errs, NewConfigurationError(g.Name, errors.Join(ErrInvalidConfig, errors.New("clique without name"))))
			continue
		}
		if existing, ok := c.cliques[cl.Name]; ok {
			errs = append(errs, NewConfigurationError(cl.Name, errors.Join(ErrCliqueClash,
				fmt.Errorf("declared in group %q and in %q", g.Name, existing.groupName()))))
			continue
		}
		cl.Display = display
		c.cliques[cl.Name] = CliqueInfo{
			Clique:             cl,
			Group:              g.Name,
			Index:              index,
			GroupIndex:         groupIndex,
			groupImage:         g.Image,
			groupDisabledImage: g.DisabledImage,
			groupCSS:           slices.Clone(g.CSSClasses),
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the declared clique.
func (c *Catalog) Lookup(name string) (CliqueInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.cliques[name]
	return info, ok
}

// Has reports whether the clique is declared.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

const undeclared = math.MaxInt

// position returns the clique's sort keys; undeclared cliques sort last.
func (c *Catalog) position(name string) (index, groupIndex int) {
	info, ok := c.Lookup(name)
	if !ok {
		return undeclared, undeclared
	}
	return info.Index, info.GroupIndex
}

func (i CliqueInfo) groupName() string {
	if i.Group == "" {
		return "standalone"
	}
	return i.Group
}
