// Package graphstore is the client for the Dgraph-compatible graph store.
// It applies the case-law schema and posts batch upsert transactions with
// commit-now semantics, so a batch either lands whole or not at all.
package graphstore
