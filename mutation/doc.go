// Package mutation builds atomic find-or-create transactions for the graph
// store. A transaction pairs an upsert query of var blocks, one per distinct
// natural key in the batch, with a set list of node maps that reference those
// vars, so existing nodes are reused and missing ones created in one commit.
package mutation
