package dsl

import "github.com/aretw0/arbor/pkg/domain"

// ComponentBuilder provides a fluent API for configuring a component definition.
type ComponentBuilder struct {
	def *domain.Definition
}

// Component starts a definition for the named component.
func Component(name string) *ComponentBuilder {
	return &ComponentBuilder{def: &domain.Definition{Name: name}}
}

func (c *ComponentBuilder) route() *domain.RouteConfig {
	if c.def.Route == nil {
		c.def.Route = &domain.RouteConfig{}
	}
	return c.def.Route
}

// Path sets the component's own route path. It is only matchable where an
// ancestor lists the component as a child.
func (c *ComponentBuilder) Path(path string) *ComponentBuilder {
	c.route().Path = path
	return c
}

// Route adds a configured child reachable at path.
func (c *ComponentBuilder) Route(path string, child *ComponentBuilder) *ComponentBuilder {
	c.route().Children = append(c.route().Children, domain.Child{Path: path, Component: child.def})
	return c
}

// RouteIn adds a configured child reachable at path, loaded into the named viewport.
func (c *ComponentBuilder) RouteIn(path, viewport string, child *ComponentBuilder) *ComponentBuilder {
	c.route().Children = append(c.route().Children, domain.Child{Path: path, Component: child.def, Viewport: viewport})
	return c
}

// Children adds bare children, matched by their own path or else by their name.
func (c *ComponentBuilder) Children(children ...*ComponentBuilder) *ComponentBuilder {
	for _, child := range children {
		c.route().Children = append(c.route().Children, domain.Child{Component: child.def})
	}
	return c
}

// Default sets the child loaded when a navigation ends at this component.
func (c *ComponentBuilder) Default(child *ComponentBuilder) *ComponentBuilder {
	c.route().Children = append(c.route().Children, domain.Child{Component: child.def, Default: true})
	return c
}

// Dependencies registers components with this one. Those without a path of
// their own are reachable by name under configured-first routing.
func (c *ComponentBuilder) Dependencies(deps ...*ComponentBuilder) *ComponentBuilder {
	for _, d := range deps {
		c.def.Dependencies = append(c.def.Dependencies, d.def)
	}
	return c
}

// Viewports declares the named slots children load into.
func (c *ComponentBuilder) Viewports(names ...string) *ComponentBuilder {
	c.def.Viewports = append(c.def.Viewports, names...)
	return c
}

// New sets the instance factory.
func (c *ComponentBuilder) New(factory func() any) *ComponentBuilder {
	c.def.New = factory
	return c
}

// Hooks sets a factory producing a fresh domain.Hooks per instance.
func (c *ComponentBuilder) Hooks(factory func() *domain.Hooks) *ComponentBuilder {
	c.def.New = func() any { return factory() }
	return c
}

// Definition returns the underlying definition. Later builder calls keep mutating it.
func (c *ComponentBuilder) Definition() *domain.Definition {
	return c.def
}
