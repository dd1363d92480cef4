/*
Package observability turns engine lifecycle events into Prometheus metrics.

Metrics.Hooks returns domain.LifecycleHooks that can be passed to stepgrid.WithLifecycleHooks or
session.WithLifecycleHooks; Handler exposes the registry for scraping.
*/
package observability
