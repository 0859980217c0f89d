// Package health tracks the health of pipeline components with three
// states: healthy, degraded, and unhealthy. A Monitor aggregates component
// statuses into a system status following hierarchical rules: any unhealthy
// component makes the system unhealthy; otherwise any degraded component
// makes it degraded.
package health
