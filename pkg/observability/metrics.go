package observability

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the router collectors.
type Metrics struct {
	navigations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	hooks       *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_navigations_total",
				Help: "Navigations by outcome (ok, no_match, rejected, error).",
			},
			[]string{"router", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_navigation_duration_seconds",
				Help:    "Duration of completed and failed navigations.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"router"},
		),
		hooks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_hook_invocations_total",
				Help: "Lifecycle hook invocations per component.",
			},
			[]string{"component", "hook"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_hook_rejections_total",
				Help: "Navigations aborted by a lifecycle hook.",
			},
			[]string{"component", "hook"},
		),
	}
	for _, c := range []prometheus.Collector{m.navigations, m.duration, m.hooks, m.rejections} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns router hooks that record into m.
func (m *Metrics) Hooks() domain.RouterHooks {
	return domain.RouterHooks{
		OnNavigationEnd: func(_ context.Context, e *domain.NavigationEvent) {
			m.navigations.WithLabelValues(e.RouterID, "ok").Inc()
			m.duration.WithLabelValues(e.RouterID).Observe(e.Duration.Seconds())
		},
		OnNavigationError: func(_ context.Context, e *domain.NavigationEvent) {
			m.navigations.WithLabelValues(e.RouterID, Outcome(e.Err)).Inc()
			m.duration.WithLabelValues(e.RouterID).Observe(e.Duration.Seconds())

			var rejection *domain.HookRejection
			if errors.As(e.Err, &rejection) {
				m.rejections.WithLabelValues(rejection.Component, string(rejection.Hook)).Inc()
			}
		},
		OnHook: func(_ context.Context, e *domain.HookEvent) {
			m.hooks.WithLabelValues(e.Component, string(e.Hook)).Inc()
		},
	}
}

// Outcome classifies a navigation error for the result label.
func Outcome(err error) string {
	var matchErr *domain.RouteMatchError
	var rejection *domain.HookRejection
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &matchErr), errors.Is(err, domain.ErrInvalidPath):
		return "no_match"
	case errors.As(err, &rejection):
		return "rejected"
	}
	return "error"
}
