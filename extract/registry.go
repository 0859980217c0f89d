package extract

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/mutation"
)

// KeyOptions controls natural-key normalization. Normalization is trim-only
// unless FoldCase is set; folding merges keys that differ only in case, at
// the cost of losing the original casing as the dedup identity.
type KeyOptions struct {
	FoldCase bool
}

// Normalize applies the configured normalization to a raw key.
func (o KeyOptions) Normalize(raw string) string {
	key := strings.TrimSpace(raw)
	if o.FoldCase {
		key = strings.ToLower(key)
	}
	return key
}

// varPrefixes maps each relation-bearing type to its var name prefix. The
// prefixes are part of the store contract: id fields persisted on nodes
// carry them, so they must not change.
var varPrefixes = map[entity.Type]string{
	entity.TypeJudgment:     "main",
	entity.TypeCitation:     "cite",
	entity.TypeJudge:        "judge",
	entity.TypeAdvocate:     "adv",
	entity.TypeOutcome:      "outcome",
	entity.TypeCaseDuration: "duration",
	entity.TypeCourt:        "court",
	entity.TypeAct:          "act",
}

// StableID derives the batch-stable identifier for a natural key:
// the type's var prefix joined to the first 12 hex characters of
// md5("<type>:<key>"). The same (type, key) pair yields the same id in
// every batch, regardless of document order, so the id doubles as both
// the upsert var name and the persisted id field value.
func StableID(t entity.Type, key string) string {
	sum := md5.Sum([]byte(string(t) + ":" + key))
	return varPrefixes[t] + "_" + hex.EncodeToString(sum[:])[:12]
}

// Registry tracks the natural keys seen in one batch and the transaction
// parts declared for them. It is created per batch and passed explicitly;
// there is no shared state between batches.
type Registry struct {
	opts    KeyOptions
	builder *mutation.Builder
}

// NewRegistry returns an empty per-batch registry.
func NewRegistry(opts KeyOptions) *Registry {
	return &Registry{opts: opts, builder: mutation.NewBuilder()}
}

// Resolve normalizes the key and returns its StableID along with whether
// this is the first time the batch has seen it. Callers declare the lookup
// and node only when isNew is true.
func (r *Registry) Resolve(t entity.Type, key string) (id string, isNew bool) {
	id = StableID(t, r.opts.Normalize(key))
	return id, !r.builder.Declared(id)
}

// Declare records the lookup and node fragment for an id. Declaring an id
// twice merges fields and edges rather than duplicating.
func (r *Registry) Declare(id string, lookup mutation.Lookup, node *mutation.Node) {
	lookup.Var = id
	node.Var = id
	r.builder.Declare(lookup, node)
}

// Node returns the node fragment declared under id, or nil.
func (r *Registry) Node(id string) *mutation.Node {
	return r.builder.Node(id)
}

// Transaction assembles everything declared so far, in declaration order.
func (r *Registry) Transaction() *mutation.Transaction {
	return r.builder.Build()
}
