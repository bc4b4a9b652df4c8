/*
Package observability turns router events into Prometheus metrics and
structured log records.

Both are plain domain.RouterHooks values, so they compose with
arbor.WithRouterHooks and with each other through domain.RouterHooks.Merge.
*/
package observability
