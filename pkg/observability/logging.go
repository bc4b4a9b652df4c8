package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingHooks logs navigations at info level and hook invocations at debug level.
func LoggingHooks(logger *slog.Logger) domain.RouterHooks {
	return domain.RouterHooks{
		OnNavigationStart: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.DebugContext(ctx, "navigation_start", "router", e.RouterID, "path", e.Path)
		},
		OnNavigationEnd: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.InfoContext(ctx, "navigation_end",
				"router", e.RouterID,
				"path", e.Path,
				"duration", e.Duration,
			)
		},
		OnNavigationError: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.WarnContext(ctx, "navigation_error",
				"router", e.RouterID,
				"path", e.Path,
				"result", Outcome(e.Err),
				"error", e.Err,
			)
		},
		OnHook: func(ctx context.Context, e *domain.HookEvent) {
			logger.DebugContext(ctx, "hook",
				"component", e.Component,
				"instance", e.InstanceID,
				"hook", e.Hook,
			)
		},
	}
}
