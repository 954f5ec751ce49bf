package command

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// ConfirmKeyDefault is the confirmation message key of commands without id.
const ConfirmKeyDefault = "command.confirm.default"

// Config is the declarative configuration of one command.
type Config struct {
	ID             string            `yaml:"id" validate:"required"`
	Kind           string            `yaml:"kind" validate:"required"`
	Group          string            `yaml:"group" validate:"required"`
	Clique         string            `yaml:"clique"`
	Image          string            `yaml:"image"`
	DisabledImage  string            `yaml:"disabled_image"`
	CSSClasses     []string          `yaml:"css_classes"`
	Executability  []string          `yaml:"executability" validate:"dive,required"`
	Confirm        bool              `yaml:"confirm"`
	ConfirmMessage string            `yaml:"confirm_message"`
	Target         string            `yaml:"target"`
	SecurityObject string            `yaml:"security_object"`
	Params         map[string]string `yaml:"params"`

	// Rules are inline executability rules evaluated after the named ones.
	Rules []Rule `yaml:"-" validate:"-"`
}

// Defaults are the global display defaults applied below clique groups.
type Defaults struct {
	Image         string   `yaml:"image"`
	DisabledImage string   `yaml:"disabled_image"`
	CSSClasses    []string `yaml:"css_classes"`
}

// Settings are the resolved, immutable settings of a registered command.
type Settings struct {
	ID            string
	Kind          string
	Group         rbac.CommandGroup
	Clique        string
	Image         string
	DisabledImage string
	CSSClasses    []string
	Confirm       bool
	ConfirmKey    string
	Target        Target
	Params        map[string]string
}

// Param returns a handler parameter.
func (s Settings) Param(name string) string {
	return s.Params[name]
}

func (s Settings) clone() Settings {
	s.CSSClasses = slices.Clone(s.CSSClasses)
	s.Params = maps.Clone(s.Params)
	return s
}

// ConfirmKey returns the confirmation message key: the configured message,
// else "<id>.confirm", else ConfirmKeyDefault.
func ConfirmKey(id, message string) string {
	switch {
	case message != "":
		return message
	case id != "":
		return id + ".confirm"
	default:
		return ConfirmKeyDefault
	}
}

// mergeSettings resolves display settings from the command, its clique,
// the clique group and the global defaults, first non-empty value wins.
func mergeSettings(s *Settings, cfg Config, clique CliqueInfo, defaults Defaults) {
	s.Image = firstNonEmpty(cfg.Image, clique.Image, clique.groupImage, defaults.Image)
	s.DisabledImage = firstNonEmpty(cfg.DisabledImage, clique.DisabledImage, clique.groupDisabledImage, defaults.DisabledImage)
	switch {
	case len(cfg.CSSClasses) > 0:
		s.CSSClasses = slices.Clone(cfg.CSSClasses)
	case len(clique.CSSClasses) > 0:
		s.CSSClasses = slices.Clone(clique.CSSClasses)
	case len(clique.groupCSS) > 0:
		s.CSSClasses = slices.Clone(clique.groupCSS)
	default:
		s.CSSClasses = slices.Clone(defaults.CSSClasses)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
