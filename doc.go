// Package lawgraph incrementally mirrors a case-law document index into a
// knowledge graph.
//
// # Pipeline
//
// The pipeline is a poll-extract-commit-mark loop over a search index of
// judgment documents:
//
//	┌────────────┐     ┌───────────┐     ┌────────────┐     ┌──────────┐
//	│  docindex  │ ──► │  extract  │ ──► │ graphstore │ ──► │ tracker  │
//	│  (fetch)   │     │ (dedupe)  │     │  (commit)  │     │  (mark)  │
//	└────────────┘     └───────────┘     └────────────┘     └──────────┘
//
//  1. docindex fetches documents whose completion flags are unset, using
//     the index's scroll API.
//  2. extract detects typed entities in each document, deduplicates them
//     across the batch by hashed natural key, and assembles one upsert
//     transaction.
//  3. graphstore commits the whole batch atomically with a find-or-create
//     mutation: entities that already exist in the graph are linked, new
//     ones are created.
//  4. tracker merges per-entity-type completion flags back onto each
//     document, but only after the commit succeeds. A failed commit moves
//     no flags, so the batch stays eligible for the next cycle.
//
// The loop is driven by the monitor service, which owns scheduling,
// pause/resume, and the single-batch-in-flight guarantee. The gateway
// package exposes the service over HTTP, including a WebSocket stream of
// cycle events.
//
// # Packages
//
// Domain:
//   - entity: document model, entity types, presence detection
//   - extract: per-type extractors, natural-key hashing, batch assembly
//   - mutation: upsert transaction building and serialization
//
// Clients:
//   - docindex: document source client (search, scroll, flag updates)
//   - graphstore: graph store client (schema, mutations, snapshots)
//
// Orchestration:
//   - monitor: polling service and cycle execution
//   - tracker: post-commit flag updates
//   - gateway: HTTP control surface and event stream
//
// Infrastructure:
//   - config: file plus environment configuration
//   - errors: structured error classification
//   - health: component health aggregation
//   - metric: Prometheus metrics
//   - pkg/retry: retry policies
//   - pkg/timestamp: millisecond timestamps
//
// # Binary
//
// Build and run the pipeline:
//
//	go build -o bin/lawgraph ./cmd/lawgraph
//
//	# Run against local Elasticsearch and Dgraph
//	./bin/lawgraph --config configs/local.yaml
//
//	# Preview the next batch without committing
//	./bin/lawgraph --dry-run
//
// All configuration can also be supplied through LAWGRAPH_* environment
// variables; see the config package.
package lawgraph
