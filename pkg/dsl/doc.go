/*
Package dsl provides a fluent builder for component definitions.

It is the programmatic counterpart of the YAML application config: route
metadata, dependencies, viewports and lifecycle hooks are declared in Go,
with IDE completion and type checking.

Example usage:

	package main

	import (
		"context"

		"github.com/aretw0/arbor/pkg/domain"
		"github.com/aretw0/arbor/pkg/dsl"
	)

	func main() {
		set := dsl.NewSet()

		set.Add("shell").
			Viewports("main", "side").
			Default(set.Ref("home")).
			Route("users/:id", set.Ref("user"))

		set.Add("home")
		set.Add("user").Hooks(func() *domain.Hooks {
			return &domain.Hooks{
				OnLoad: func(ctx context.Context, nav *domain.NavigationInstruction) domain.Awaitable {
					// fetch nav.Params["id"]
					return nil
				},
			}
		})

		root, err := set.Build("shell")
		// ... pass root to arbor.New(root)
	}
*/
package dsl
