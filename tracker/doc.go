// Package tracker merges completion flags back to the document source after
// a batch commit succeeds. Flags only ever move forward: a type marked true
// stays true, and a failed flag update leaves the document eligible for the
// next cycle, where the store-side upsert makes recommitting a no-op.
package tracker
