// Package routing builds the route tree of a component hierarchy and resolves
// navigation paths against it.
package routing

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Node is a routable child of a component. Nodes are immutable once built.
type Node struct {
	// Path is the configured path, possibly multi-segment ("users/:id").
	// Unconfigured nodes use the component name; "" marks a default route.
	Path string
	// Component is the definition loaded when the node matches.
	Component *domain.Definition
	// Configured is true for explicit route configuration and false for nodes
	// derived from a bare dependency.
	Configured bool
	// Viewport is the viewport the child prefers, empty for the first free one.
	Viewport string

	segments []string
	tree     *Tree
}

// Name returns the component name.
func (n *Node) Name() string {
	return n.Component.Name
}

// Segments returns the path split on "/".
func (n *Node) Segments() []string {
	return n.segments
}

// Children returns the nodes routable below this node's component.
func (n *Node) Children() []*Node {
	return n.tree.Children(n.Component)
}

// Tree is the route tree of a root component. Components may reference each
// other cyclically, so child lists are kept per definition rather than per node.
type Tree struct {
	Root  *Node
	table map[*domain.Definition][]*Node
	order []*domain.Definition
}

// Build derives the route tree reachable from root.
//
// Per component the children are, in order: configured children (explicit
// paths, or bare components under their own path or name), then dependencies
// that are neither configured children nor carry a path of their own.
// Two configured children sharing a path fail with domain.ErrAmbiguousRoute.
func Build(root *domain.Definition) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("build route tree: nil root component")
	}
	t := &Tree{table: make(map[*domain.Definition][]*Node)}
	t.Root = &Node{Component: root, Configured: true, tree: t}

	queue := []*domain.Definition{root}
	for len(queue) > 0 {
		def := queue[0]
		queue = queue[1:]
		if _, seen := t.table[def]; seen {
			continue
		}
		nodes, err := t.childrenOf(def)
		if err != nil {
			return nil, err
		}
		t.table[def] = nodes
		t.order = append(t.order, def)
		for _, n := range nodes {
			if _, seen := t.table[n.Component]; !seen {
				queue = append(queue, n.Component)
			}
		}
	}
	return t, nil
}

func (t *Tree) childrenOf(def *domain.Definition) ([]*Node, error) {
	var nodes []*Node
	configured := make(map[*domain.Definition]bool)
	paths := make(map[string]bool)

	add := func(n *Node) error {
		if n.Configured {
			if paths[n.Path] {
				return fmt.Errorf("%w: component '%s' configures path '%s' more than once", domain.ErrAmbiguousRoute, def.Name, n.Path)
			}
			paths[n.Path] = true
			configured[n.Component] = true
		}
		n.segments = splitPath(n.Path)
		n.tree = t
		nodes = append(nodes, n)
		return nil
	}

	if def.Route != nil {
		for _, child := range def.Route.Children {
			if child.Component == nil {
				return nil, fmt.Errorf("component '%s' has a child route '%s' without component", def.Name, child.Path)
			}
			path := child.Path
			if child.Default {
				path = ""
			} else if path == "" {
				if own, ok := child.Component.OwnPath(); ok {
					path = own
				} else {
					path = child.Component.Name
				}
			}
			if err := add(&Node{Path: normalize(path), Component: child.Component, Configured: true, Viewport: child.Viewport}); err != nil {
				return nil, err
			}
		}
	}

	for _, dep := range def.Dependencies {
		if dep == nil || configured[dep] {
			continue
		}
		if _, ok := dep.OwnPath(); ok {
			continue
		}
		if err := add(&Node{Path: dep.Name, Component: dep}); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Children returns the nodes routable below def, nil for components outside the tree.
func (t *Tree) Children(def *domain.Definition) []*Node {
	return t.table[def]
}

// Definitions returns every component reachable from the root, breadth first.
func (t *Tree) Definitions() []*domain.Definition {
	return append([]*domain.Definition(nil), t.order...)
}

// Lookup finds a reachable component by name.
func (t *Tree) Lookup(name string) (*domain.Definition, bool) {
	for _, def := range t.order {
		if def.Name == name {
			return def, true
		}
	}
	return nil, false
}
