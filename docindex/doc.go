// Package docindex is the client for the Elasticsearch-compatible document
// source. It fetches unprocessed case-law documents with scroll pagination
// and merges per-entity completion flags back via scripted updates.
package docindex
