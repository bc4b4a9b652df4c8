// Package validator checks a component configuration before it is served.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/routing"
)

// Validate builds the route tree described by cfg and reports, all at once,
// every declared component that no route reaches under the configured mode
// and a default route chain that does not resolve.
func Validate(cfg *config.Config) error {
	if _, err := cfg.RouterOptions(); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	mode, _ := domain.ParseRoutingMode(cfg.Router.Mode)

	root, err := cfg.Definitions()
	if err != nil {
		return err
	}
	tree, err := routing.Build(root)
	if err != nil {
		return err
	}

	var errs []string
	reached := reachable(tree, mode)
	for _, name := range declared(cfg) {
		if !reached[name] {
			errs = append(errs, fmt.Sprintf("Unreachable component: '%s'", name))
		}
	}
	if _, err := tree.Resolve("", mode); err != nil {
		errs = append(errs, fmt.Sprintf("Default route does not resolve: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}

// reachable crawls the route tree from the root, skipping derived routes
// in configured-only mode.
func reachable(tree *routing.Tree, mode domain.RoutingMode) map[string]bool {
	visited := make(map[string]bool)
	queue := []*domain.Definition{tree.Root.Component}
	for len(queue) > 0 {
		def := queue[0]
		queue = queue[1:]
		if visited[def.Name] {
			continue
		}
		visited[def.Name] = true

		for _, n := range tree.Children(def) {
			if !n.Configured && mode == domain.RoutingConfiguredOnly {
				continue
			}
			if !visited[n.Name()] {
				queue = append(queue, n.Component)
			}
		}
	}
	return visited
}

func declared(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Components))
	for name := range cfg.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
