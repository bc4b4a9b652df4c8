package dsl

import (
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/domain"
)

// Set manages a group of named components whose definitions may refer to each
// other, in any order and cyclically.
type Set struct {
	components map[string]*ComponentBuilder
	declared   map[string]bool
}

// NewSet creates an empty component set.
func NewSet() *Set {
	return &Set{
		components: make(map[string]*ComponentBuilder),
		declared:   make(map[string]bool),
	}
}

// Add declares a component. If the component already exists (declared or
// referenced), it returns the existing builder.
func (s *Set) Add(name string) *ComponentBuilder {
	s.declared[name] = true
	return s.Ref(name)
}

// Ref returns the builder of a component without declaring it, so that it can
// be referenced before its declaration.
func (s *Set) Ref(name string) *ComponentBuilder {
	if cb, ok := s.components[name]; ok {
		return cb
	}
	cb := Component(name)
	s.components[name] = cb
	return cb
}

// Names returns the declared component names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.declared))
	for name := range s.declared {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the definition of root after checking that every referenced
// component was declared.
func (s *Set) Build(root string) (*domain.Definition, error) {
	var missing []string
	for name := range s.components {
		if !s.declared[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("undeclared components: %v", missing)
	}
	cb, ok := s.components[root]
	if !ok {
		return nil, fmt.Errorf("root component %q not declared", root)
	}
	return cb.Definition(), nil
}
