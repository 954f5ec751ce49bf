package command

import (
	"errors"
	"fmt"
	"slices"
)

// Bar is a command bar layout.
type Bar string

const (
	BarToolbar Bar = "toolbar"
	BarButtons Bar = "buttonbar"
)

// ParseBar converts a query value into a Bar; empty means BarToolbar.
func ParseBar(s string) (Bar, error) {
	switch b := Bar(s); b {
	case "":
		return BarToolbar, nil
	case BarToolbar, BarButtons:
		return b, nil
	default:
		return "", errors.Join(ErrInvalidConfig, fmt.Errorf("unknown bar %q", s))
	}
}

// Bucket is the commands of one clique in a laid out bar.
type Bucket struct {
	Clique   string
	Group    string
	Display  Display
	Commands []*Command
}

// Layout sorts cmds for bar and groups them by clique. Commands keep
// declaration order within a clique and hidden cliques are left out.
func (r *Registry) Layout(cmds []*Command, bar Bar) []Bucket {
	order := r.ToolbarOrder()
	if bar == BarButtons {
		order = r.ButtonBarOrder()
	}
	sorted := slices.Clone(cmds)
	slices.SortStableFunc(sorted, order)

	var buckets []Bucket
	for _, cmd := range sorted {
		info, ok := r.catalog.Lookup(cmd.Clique())
		if !ok {
			info = CliqueInfo{Clique: Clique{Name: cmd.Clique(), Display: DisplayCommands}}
		}
		if info.Display == DisplayHidden {
			continue
		}
		if n := len(buckets); n > 0 && buckets[n-1].Clique == info.Name {
			buckets[n-1].Commands = append(buckets[n-1].Commands, cmd)
			continue
		}
		buckets = append(buckets, Bucket{
			Clique:   info.Name,
			Group:    info.Group,
			Display:  info.Display,
			Commands: []*Command{cmd},
		})
	}
	return buckets
}
