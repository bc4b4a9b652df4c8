package domain

import "fmt"

// RoutingMode governs whether components registered only as dependencies are
// reachable by name.
type RoutingMode string

const (
	// RoutingConfiguredFirst tries configured routes first and then falls back to
	// dependency component names.
	RoutingConfiguredFirst RoutingMode = "configured-first"
	// RoutingConfiguredOnly only matches configured routes.
	RoutingConfiguredOnly RoutingMode = "configured-only"
)

// DeferUntil is the deferral juncture: how far guard and load hooks are hoisted
// ahead of the swap.
type DeferUntil string

const (
	// DeferNone runs guard and load hooks inline, per node, while swapping.
	DeferNone DeferUntil = "none"
	// DeferGuardHooks runs every guard hook before the swap; load hooks stay inline.
	DeferGuardHooks DeferUntil = "guard-hooks"
	// DeferLoadHooks runs every guard hook and then every load hook before the swap.
	DeferLoadHooks DeferUntil = "load-hooks"
)

// SwapStrategy orders the removal of outgoing components against the addition of incoming ones.
type SwapStrategy string

const (
	SwapSequentialAddFirst    SwapStrategy = "sequential-add-first"
	SwapSequentialRemoveFirst SwapStrategy = "sequential-remove-first"
	SwapParallelRemoveFirst   SwapStrategy = "parallel-remove-first"
)

// ParseRoutingMode validates a routing mode name. Empty selects configured-first.
func ParseRoutingMode(s string) (RoutingMode, error) {
	switch RoutingMode(s) {
	case "":
		return RoutingConfiguredFirst, nil
	case RoutingConfiguredFirst, RoutingConfiguredOnly:
		return RoutingMode(s), nil
	}
	return "", fmt.Errorf("unknown routing mode %q", s)
}

// ParseDeferUntil validates a deferral juncture name. Empty selects none.
func ParseDeferUntil(s string) (DeferUntil, error) {
	switch DeferUntil(s) {
	case "":
		return DeferNone, nil
	case DeferNone, DeferGuardHooks, DeferLoadHooks:
		return DeferUntil(s), nil
	}
	return "", fmt.Errorf("unknown deferral juncture %q", s)
}

// ParseSwapStrategy validates a swap strategy name. Empty selects sequential-remove-first.
func ParseSwapStrategy(s string) (SwapStrategy, error) {
	switch SwapStrategy(s) {
	case "":
		return SwapSequentialRemoveFirst, nil
	case SwapSequentialAddFirst, SwapSequentialRemoveFirst, SwapParallelRemoveFirst:
		return SwapStrategy(s), nil
	}
	return "", fmt.Errorf("unknown swap strategy %q", s)
}
