package command_test

import (
	"github.com/dmitrymomot/boundsec/pkg/checker"
	"github.com/dmitrymomot/boundsec/pkg/command"
)

type component struct {
	*checker.Component
	model     any
	selection any
	parent    command.Component
}

func newComponent(name string, model any) *component {
	return &component{Component: checker.NewComponent(name, nil), model: model}
}

func (c *component) Model() any                      { return c.model }
func (c *component) Selection() any                  { return c.selection }
func (c *component) DialogParent() command.Component { return c.parent }
