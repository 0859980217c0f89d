// Package metric provides Prometheus metrics for the pipeline: a registry
// wrapper that owns the core pipeline metrics plus runtime collectors, and
// a standalone HTTP server exposing them.
package metric
