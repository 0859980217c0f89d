// Package gateway exposes the pipeline's HTTP control surface.
//
// The gateway wraps a monitor service with a small JSON API: status and
// progress queries, pause/resume controls, on-demand batch runs, and a
// WebSocket stream of pipeline events. On-demand runs are rate limited
// so a misbehaving caller cannot flood the graph store.
package gateway
