// Package extract turns detected documents into graph transaction parts.
// Each extractor handles one relation-bearing entity type: it derives the
// entity's natural key, resolves a batch-stable identifier through the
// Registry, declares one lookup and one node fragment per distinct key,
// and hangs the edge off the document's root judgment node.
package extract
