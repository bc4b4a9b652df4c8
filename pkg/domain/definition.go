package domain

// DefaultViewport is the viewport name used when a component does not declare any.
const DefaultViewport = "default"

// Definition describes a routable component: its static route metadata,
// the components it depends on and how to create an instance of it.
// Definitions are configured once (see package dsl) and treated as immutable afterwards.
type Definition struct {
	// Name identifies the component. Under configured-first routing, dependencies
	// without route metadata are reachable by this name.
	Name string

	// Route holds the declared route metadata. Nil means the component has none.
	Route *RouteConfig

	// Dependencies lists the components registered with this one.
	Dependencies []*Definition

	// Viewports lists the named slots this component renders children into.
	// Empty means a single DefaultViewport.
	Viewports []string

	// New creates a component instance. The instance may implement any of the
	// lifecycle hook interfaces (CanLoader, Loader, BeforeBinder, ...).
	// A nil factory produces instances without hooks.
	New func() any
}

// RouteConfig is the declarative route metadata of a component.
type RouteConfig struct {
	// Path is the component's own path. A component with a path is matchable by it
	// only when an ancestor lists the component as a child.
	Path string

	// Children lists the routes configured below the component, in priority order.
	Children []Child
}

// Child is one entry of a component's children list: either an explicit
// path-to-component mapping or a bare component reference (empty Path).
type Child struct {
	Path      string
	Component *Definition
	Viewport  string
	// Default marks the route loaded when a navigation ends at the parent. Path is ignored.
	Default bool
}

// OwnPath returns the component's own route path and whether it declares one.
func (d *Definition) OwnPath() (string, bool) {
	if d.Route == nil || d.Route.Path == "" {
		return "", false
	}
	return d.Route.Path, true
}

// ViewportNames returns the declared viewports, defaulting to DefaultViewport.
func (d *Definition) ViewportNames() []string {
	if len(d.Viewports) == 0 {
		return []string{DefaultViewport}
	}
	return d.Viewports
}

// HasViewport reports whether the component declares the named viewport.
func (d *Definition) HasViewport(name string) bool {
	for _, v := range d.ViewportNames() {
		if v == name {
			return true
		}
	}
	return false
}

// Instantiate creates a new instance using the factory, or an empty struct when none is set.
func (d *Definition) Instantiate() any {
	if d.New == nil {
		return struct{}{}
	}
	return d.New()
}
