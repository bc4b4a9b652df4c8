package routing

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Branch is one parsed segment of a navigation path with the segments that
// continue below it. Siblings (a+b) share a level; a/b nests b under a.
type Branch struct {
	Name     string
	Viewport string
	Next     []*Branch
}

// ParsePath parses a navigation path.
//
//	path     = branch *( "+" branch )
//	branch   = segment [ "/" branch... ] | "(" path ")"
//	segment  = name [ "@" viewport ]
//
// Leading, trailing and repeated slashes are ignored. An empty path yields no branches.
func ParsePath(path string) ([]*Branch, error) {
	p := &pathParser{input: normalize(path)}
	if p.input == "" {
		return nil, nil
	}
	branches, err := p.parseSiblings()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected %q", p.input[p.pos])
	}
	return branches, nil
}

func normalize(path string) string {
	parts := strings.Split(strings.TrimSpace(path), "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "/")
}

type pathParser struct {
	input string
	pos   int
}

func (p *pathParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w %q at %d: %s", domain.ErrInvalidPath, p.input, p.pos, fmt.Sprintf(format, args...))
}

func (p *pathParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *pathParser) parseSiblings() ([]*Branch, error) {
	var out []*Branch
	for {
		group, err := p.parseBranch()
		if err != nil {
			return nil, err
		}
		out = append(out, group...)
		if p.peek() != '+' {
			return out, nil
		}
		p.pos++
	}
}

func (p *pathParser) parseBranch() ([]*Branch, error) {
	if p.peek() == '(' {
		p.pos++
		group, err := p.parseSiblings()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("missing ')'")
		}
		p.pos++
		return group, nil
	}

	b := &Branch{Name: p.readName()}
	if b.Name == "" {
		return nil, p.errorf("empty segment")
	}
	if p.peek() == '@' {
		p.pos++
		b.Viewport = p.readName()
		if b.Viewport == "" {
			return nil, p.errorf("empty viewport name")
		}
	}
	if p.peek() == '/' {
		p.pos++
		next, err := p.parseBranch()
		if err != nil {
			return nil, err
		}
		b.Next = next
	}
	return []*Branch{b}, nil
}

func (p *pathParser) readName() string {
	start := p.pos
	for p.pos < len(p.input) && !strings.ContainsRune("/+()@", rune(p.input[p.pos])) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// Format renders resolved instructions back into a canonical path that
// ParsePath and Resolve accept.
func Format(instructions []*domain.NavigationInstruction) string {
	return strings.Join(formatParts(instructions), "+")
}

func formatParts(instructions []*domain.NavigationInstruction) []string {
	var parts []string
	for _, in := range instructions {
		if s := formatOne(in); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func formatOne(in *domain.NavigationInstruction) string {
	if in.Path == "" {
		// default routes are implied
		return ""
	}
	s := in.Path
	if in.Viewport != "" && in.Viewport != domain.DefaultViewport {
		s += "@" + in.Viewport
	}
	children := formatParts(in.Children)
	switch len(children) {
	case 0:
		return s
	case 1:
		return s + "/" + children[0]
	default:
		return s + "/(" + strings.Join(children, "+") + ")"
	}
}
