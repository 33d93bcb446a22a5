/*
Package observability exposes the engine's lifecycle as Prometheus
metrics: iterations, steps, terminal loop decisions and set-once commits.

Wire Metrics.Hooks into an engine and serve the registry with promhttp.
*/
package observability
