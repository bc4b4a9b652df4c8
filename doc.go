/*
Package arbor is a component-tree router with a two-way data binding engine.

A navigation path such as "users/42+help@side" is resolved against the route
metadata of a tree of components, and the router drives the lifecycle hooks
of every component it loads and removes in a deterministic, configurable
order. A failing guard or load hook rolls the navigation back, leaving the
committed tree as it was.

# Concept

Components are described once with package dsl (or a YAML application file)
and never mutated afterwards. Each session gets its own router over the shared
route tree; the committed outcome of every navigation is a domain.Snapshot
that is persisted through a ports.SnapshotStore (memory, Redis or bolt) and
restored when the session comes back.

The binding side lives in packages expr, observation, binding and taskqueue:
expressions are evaluated against observable scopes and changes are flushed
on a microtask and render queue.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/dsl"
	)

	func main() {
		root := dsl.Component("app").
			Default(dsl.Component("home")).
			Route("users/:id", dsl.Component("user")).
			Definition()

		eng, err := arbor.New(root)
		if err != nil {
			log.Fatal(err)
		}

		snap, err := eng.Navigate(context.Background(), "tab-1", "users/42")
		if err != nil {
			log.Fatal(err)
		}
		log.Println(snap.Path, snap.Viewports[0].Params["id"])
	}

# Errors

Navigate fails with *domain.RouteMatchError before any hook runs when the
path cannot be resolved, and with *domain.HookRejection when a lifecycle hook
refuses or fails. Use errors.As to tell them apart.
*/
package arbor
