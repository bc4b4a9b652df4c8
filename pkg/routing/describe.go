package routing

import "github.com/aretw0/arbor/pkg/domain"

// RouteInfo describes one reachable route for listings.
type RouteInfo struct {
	Path       string `json:"path"`
	Component  string `json:"component"`
	Configured bool   `json:"configured"`
	Viewport   string `json:"viewport,omitempty"`
	Depth      int    `json:"depth"`
	// Recursive is set when the component already appears above this route;
	// its children are not listed again.
	Recursive bool `json:"recursive,omitempty"`
}

// Describe lists the routes reachable under mode, depth first in match order.
func (t *Tree) Describe(mode domain.RoutingMode) []RouteInfo {
	var out []RouteInfo
	var walk func(def *domain.Definition, prefix string, stack []*domain.Definition)
	walk = func(def *domain.Definition, prefix string, stack []*domain.Definition) {
		for _, n := range t.Children(def) {
			if !n.Configured && mode == domain.RoutingConfiguredOnly {
				continue
			}
			path := n.Path
			if prefix != "" && path != "" {
				path = prefix + "/" + path
			} else if path == "" {
				path = prefix
			}
			info := RouteInfo{
				Path:       path,
				Component:  n.Name(),
				Configured: n.Configured,
				Viewport:   n.Viewport,
				Depth:      len(stack) - 1,
				Recursive:  onStack(stack, n.Component),
			}
			out = append(out, info)
			if !info.Recursive {
				walk(n.Component, path, push(stack, n.Component))
			}
		}
	}
	walk(t.Root.Component, "", []*domain.Definition{t.Root.Component})
	return out
}

// Edge is a parent-to-child link of the route table.
type Edge struct {
	From *domain.Definition
	To   *Node
}

// Edges returns every parent-to-child link, parents in breadth-first order.
func (t *Tree) Edges() []Edge {
	var edges []Edge
	for _, def := range t.order {
		for _, n := range t.table[def] {
			edges = append(edges, Edge{From: def, To: n})
		}
	}
	return edges
}
