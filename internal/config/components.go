package config

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/async"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
)

// Definitions builds the component graph and returns the root definition.
// Every name referenced by a route, default or dependency must be declared.
func (c *Config) Definitions() (*domain.Definition, error) {
	set := dsl.NewSet()

	names := make([]string, 0, len(c.Components))
	for name := range c.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cc := c.Components[name]
		b := set.Add(name)
		if cc.Path != "" {
			b.Path(cc.Path)
		}
		if len(cc.Viewports) > 0 {
			b.Viewports(cc.Viewports...)
		}
		for _, child := range cc.Children {
			if child.Component == "" {
				return nil, fmt.Errorf("component %q: child without component", name)
			}
			ref := set.Ref(child.Component)
			switch {
			case child.Path != "":
				b.RouteIn(child.Path, child.Viewport, ref)
			case child.Viewport != "":
				return nil, fmt.Errorf("component %q: child %q sets a viewport without a path", name, child.Component)
			default:
				b.Children(ref)
			}
		}
		if cc.Default != "" {
			b.Default(set.Ref(cc.Default))
		}
		for _, dep := range cc.Dependencies {
			b.Dependencies(set.Ref(dep))
		}
		if cc.Refuse != "" || cc.LoadDelay > 0 {
			b.Hooks(cc.hooks)
		}
	}
	return set.Build(c.Root)
}

func (cc ComponentConfig) hooks() *domain.Hooks {
	h := &domain.Hooks{}
	if reason := cc.Refuse; reason != "" {
		h.OnCanLoad = func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.Rejected(async.Refuse(reason))
		}
	}
	if d := cc.LoadDelay; d > 0 {
		h.OnLoad = func(context.Context, *domain.NavigationInstruction) domain.Awaitable {
			return async.Delay(d)
		}
	}
	return h
}
