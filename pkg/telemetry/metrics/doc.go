// Package metrics exposes Prometheus metrics for the engine: scope
// derivations, decision cache traffic, approval gate lifecycle, and
// governor verdicts. All metrics register against a private registry
// owned by the Collector so tests never collide on the global one.
package metrics
