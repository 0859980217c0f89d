// Package monitor runs the polling pipeline: fetch unprocessed documents
// from the source, extract entities into one batch transaction, commit it
// to the graph store, and merge completion flags back. At most one batch
// is in flight at a time; manual runs and the polling loop share that
// exclusion.
package monitor
