package routing

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Resolve parses path and matches it against the tree, returning one
// instruction per component loaded directly into the root's viewports, each
// carrying the instructions of its own viewports.
//
// Errors are *domain.RouteMatchError for unmatched, misdirected or circular
// segments, or wrap domain.ErrInvalidPath for malformed paths.
func (t *Tree) Resolve(path string, mode domain.RoutingMode) ([]*domain.NavigationInstruction, error) {
	branches, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return t.ResolveBranches(branches, mode)
}

// ResolveBranches is Resolve for an already parsed path.
func (t *Tree) ResolveBranches(branches []*Branch, mode domain.RoutingMode) ([]*domain.NavigationInstruction, error) {
	r := &resolver{tree: t, mode: mode}
	return r.level(t.Root.Component, branches, []*domain.Definition{t.Root.Component})
}

// Match finds the node under parent that the leading segments select, and
// reports how many segments it consumed along with any captured params.
// It fails with *domain.RouteMatchError when no node matches.
func (t *Tree) Match(parent *domain.Definition, segments []string, mode domain.RoutingMode) (*Node, int, map[string]string, error) {
	if len(segments) == 0 {
		return nil, 0, nil, fmt.Errorf("%w: no segment to match", domain.ErrInvalidPath)
	}
	chain := make([]*Branch, len(segments))
	for i, seg := range segments {
		chain[i] = &Branch{Name: seg}
	}
	r := &resolver{tree: t, mode: mode}
	found := r.candidates(parent, chain)
	if len(found) == 0 {
		return nil, 0, nil, matchError(segments[0], []*domain.Definition{parent}, "")
	}
	return found[0].node, found[0].consumed, found[0].params, nil
}

type resolver struct {
	tree *Tree
	mode domain.RoutingMode
}

func (r *resolver) level(parent *domain.Definition, branches []*Branch, stack []*domain.Definition) ([]*domain.NavigationInstruction, error) {
	if len(branches) == 0 {
		return r.defaults(parent, stack)
	}

	used := make(map[string]bool)
	out := make([]*domain.NavigationInstruction, 0, len(branches))
	for _, br := range branches {
		in, err := r.branch(parent, chainOf(br), stack, used)
		if err != nil {
			return nil, err
		}
		used[in.Viewport] = true
		out = append(out, in)
	}
	return out, nil
}

// branch resolves one sibling branch. Every candidate matching its head is
// tried in match order until one resolves completely; otherwise the first
// candidate's error is returned.
func (r *resolver) branch(parent *domain.Definition, chain []*Branch, stack []*domain.Definition, used map[string]bool) (*domain.NavigationInstruction, error) {
	var firstErr error
	for _, c := range r.candidates(parent, chain) {
		in, err := r.attempt(parent, c, chain, stack, used)
		if err == nil {
			return in, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		return nil, matchError(chain[0].Name, stack, "")
	}
	return nil, firstErr
}

func (r *resolver) attempt(parent *domain.Definition, c candidate, chain []*Branch, stack []*domain.Definition, used map[string]bool) (*domain.NavigationInstruction, error) {
	node, consumed := c.node, c.consumed
	if onStack(stack, node.Component) {
		return nil, matchError(chain[0].Name, stack, fmt.Sprintf("component '%s' is already part of this path", node.Name()))
	}

	requested := ""
	for _, b := range chain[:consumed] {
		if b.Viewport != "" {
			requested = b.Viewport
			break
		}
	}
	viewport, reason := pickViewport(parent, node, requested, used)
	if reason != "" {
		return nil, matchError(chain[0].Name, stack, reason)
	}

	names := make([]string, consumed)
	for i, b := range chain[:consumed] {
		names[i] = b.Name
	}
	children, err := r.level(node.Component, chain[consumed-1].Next, push(stack, node.Component))
	if err != nil {
		return nil, err
	}
	return &domain.NavigationInstruction{
		Path:       strings.Join(names, "/"),
		Component:  node.Name(),
		Viewport:   viewport,
		Params:     c.params,
		Definition: node.Component,
		Children:   children,
	}, nil
}

// defaults appends the default route of parent, and of the default's component, recursively.
func (r *resolver) defaults(parent *domain.Definition, stack []*domain.Definition) ([]*domain.NavigationInstruction, error) {
	for _, n := range r.tree.Children(parent) {
		if !n.Configured || n.Path != "" {
			continue
		}
		if onStack(stack, n.Component) {
			return nil, matchError("", stack, fmt.Sprintf("default route '%s' is already part of this path", n.Name()))
		}
		viewport, reason := pickViewport(parent, n, "", map[string]bool{})
		if reason != "" {
			return nil, matchError("", stack, reason)
		}
		children, err := r.defaults(n.Component, push(stack, n.Component))
		if err != nil {
			return nil, err
		}
		return []*domain.NavigationInstruction{{
			Component:  n.Name(),
			Viewport:   viewport,
			Children:   children,
			Definition: n.Component,
		}}, nil
	}
	return nil, nil
}

type candidate struct {
	node     *Node
	consumed int
	params   map[string]string
}

// candidates lists the nodes under parent matching the head of chain, in
// match order. Configured nodes match by path in declaration order; then
// unconfigured ones by name, and only under configured-first.
func (r *resolver) candidates(parent *domain.Definition, chain []*Branch) []candidate {
	var out []candidate
	nodes := r.tree.Children(parent)
	for _, n := range nodes {
		if !n.Configured || len(n.segments) == 0 || len(n.segments) > len(chain) {
			continue
		}
		if params, ok := matchSegments(n.segments, chain); ok {
			out = append(out, candidate{node: n, consumed: len(n.segments), params: params})
		}
	}
	if r.mode == domain.RoutingConfiguredOnly {
		return out
	}
	for _, n := range nodes {
		if !n.Configured && n.Name() == chain[0].Name {
			out = append(out, candidate{node: n, consumed: 1})
		}
	}
	return out
}

func matchSegments(segments []string, chain []*Branch) (map[string]string, bool) {
	var params map[string]string
	for i, seg := range segments {
		name := chain[i].Name
		if strings.HasPrefix(seg, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = name
			continue
		}
		if seg != name {
			return nil, false
		}
	}
	return params, true
}

// chainOf follows single-child continuations, the run a multi-segment path may consume.
func chainOf(b *Branch) []*Branch {
	chain := []*Branch{b}
	for cur := b; len(cur.Next) == 1; {
		cur = cur.Next[0]
		chain = append(chain, cur)
	}
	return chain
}

func pickViewport(parent *domain.Definition, n *Node, requested string, used map[string]bool) (string, string) {
	if requested == "" {
		requested = n.Viewport
	}
	if requested != "" {
		if !parent.HasViewport(requested) {
			return "", fmt.Sprintf("component '%s' has no viewport '%s'", parent.Name, requested)
		}
		if used[requested] {
			return "", fmt.Sprintf("viewport '%s' is targeted more than once", requested)
		}
		return requested, ""
	}
	for _, vp := range parent.ViewportNames() {
		if !used[vp] {
			return vp, ""
		}
	}
	return "", fmt.Sprintf("component '%s' has no free viewport", parent.Name)
}

func matchError(segment string, stack []*domain.Definition, reason string) *domain.RouteMatchError {
	return &domain.RouteMatchError{Segment: segment, Ancestors: names(stack), Reason: reason}
}

func names(stack []*domain.Definition) []string {
	out := make([]string, len(stack))
	for i, d := range stack {
		out[i] = d.Name
	}
	return out
}

func onStack(stack []*domain.Definition, def *domain.Definition) bool {
	for _, d := range stack {
		if d == def {
			return true
		}
	}
	return false
}

func push(stack []*domain.Definition, def *domain.Definition) []*domain.Definition {
	next := make([]*domain.Definition, len(stack), len(stack)+1)
	copy(next, stack)
	return append(next, def)
}
