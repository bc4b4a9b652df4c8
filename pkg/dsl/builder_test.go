package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

func TestComponentBuilder(t *testing.T) {
	home := Component("home")
	user := Component("user").Path("u")
	widget := Component("widget")

	shell := Component("shell").
		Viewports("main", "side").
		Default(home).
		RouteIn("users/:id", "main", user).
		Children(user).
		Dependencies(widget)

	def := shell.Definition()
	assert.Equal(t, "shell", def.Name)
	assert.Equal(t, []string{"main", "side"}, def.ViewportNames())
	require.NotNil(t, def.Route)
	require.Len(t, def.Route.Children, 3)

	assert.True(t, def.Route.Children[0].Default)
	assert.Same(t, home.Definition(), def.Route.Children[0].Component)

	assert.Equal(t, "users/:id", def.Route.Children[1].Path)
	assert.Equal(t, "main", def.Route.Children[1].Viewport)

	assert.Empty(t, def.Route.Children[2].Path)
	path, ok := def.Route.Children[2].Component.OwnPath()
	assert.True(t, ok)
	assert.Equal(t, "u", path)

	require.Len(t, def.Dependencies, 1)
	assert.Same(t, widget.Definition(), def.Dependencies[0])
	assert.Nil(t, widget.Definition().Route)
}

func TestComponentBuilder_Hooks(t *testing.T) {
	calls := 0
	c := Component("counter").Hooks(func() *domain.Hooks {
		calls++
		return &domain.Hooks{}
	})

	first := c.Definition().Instantiate()
	second := c.Definition().Instantiate()
	assert.Equal(t, 2, calls)
	assert.NotSame(t, first, second)
	_, ok := first.(domain.Loader)
	assert.True(t, ok)
}

func TestSet_ForwardAndCyclicReferences(t *testing.T) {
	s := NewSet()
	s.Add("a").Route("b", s.Ref("b"))
	s.Add("b").Dependencies(s.Ref("a"))

	root, err := s.Build("a")
	require.NoError(t, err)
	b := root.Route.Children[0].Component
	assert.Equal(t, "b", b.Name)
	assert.Same(t, root, b.Dependencies[0])
	assert.Equal(t, []string{"a", "b"}, s.Names())
}

func TestSet_Build_Errors(t *testing.T) {
	s := NewSet()
	s.Add("a").Route("ghost", s.Ref("ghost"))

	_, err := s.Build("a")
	assert.ErrorContains(t, err, "ghost")

	s.Add("ghost")
	_, err = s.Build("missing")
	assert.ErrorContains(t, err, "missing")
}
