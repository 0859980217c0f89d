package mutation

import (
	"encoding/json"
	"strings"
)

// Transaction is one atomic find-or-create request covering a whole batch.
// Lookups and Set preserve insertion order; a batch assembled from the same
// documents in the same order serializes identically.
type Transaction struct {
	Lookups []Lookup
	Set     []*Node
}

// Empty reports whether the transaction would change nothing and can be
// skipped without a store round trip.
func (t *Transaction) Empty() bool {
	return len(t.Set) == 0
}

// Query renders the upsert query holding every var block.
func (t *Transaction) Query() string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, l := range t.Lookups {
		b.WriteString("  ")
		b.WriteString(l.Render())
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// MarshalJSON renders the request body posted to the store's mutate
// endpoint.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Query string  `json:"query"`
		Set   []*Node `json:"set"`
	}{
		Query: t.Query(),
		Set:   t.Set,
	})
}

// Payload serializes the transaction for posting or for dry-run snapshots.
func (t *Transaction) Payload() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Builder accumulates lookups and nodes while a batch is extracted,
// collapsing repeated natural keys. Var names double as the dedup keys;
// the first declaration of a var wins and later ones merge their fields
// and edges into the existing node.
type Builder struct {
	lookups []Lookup
	nodes   []*Node
	byVar   map[string]*Node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byVar: make(map[string]*Node)}
}

// Declared reports whether a var has already been declared in this batch.
func (b *Builder) Declared(varName string) bool {
	_, ok := b.byVar[varName]
	return ok
}

// Declare registers a lookup and its node. Redeclaring a var is a no-op
// for the lookup and merges node fields and edges, so a batch contributes
// at most one lookup and one set node per natural key.
func (b *Builder) Declare(lookup Lookup, node *Node) {
	existing, ok := b.byVar[lookup.Var]
	if !ok {
		b.lookups = append(b.lookups, lookup)
		b.byVar[lookup.Var] = node
		b.nodes = append(b.nodes, node)
		return
	}
	mergeNode(existing, node)
}

// Node returns the node declared under varName, or nil.
func (b *Builder) Node(varName string) *Node {
	return b.byVar[varName]
}

// Build returns the assembled transaction.
func (b *Builder) Build() *Transaction {
	return &Transaction{Lookups: b.lookups, Set: b.nodes}
}

func mergeNode(dst, src *Node) {
	for field, value := range src.Fields {
		if _, ok := dst.Fields[field]; !ok {
			if dst.Fields == nil {
				dst.Fields = make(map[string]any)
			}
			dst.Fields[field] = value
		}
	}
	for predicate, edge := range src.Edges {
		if dst.Edges == nil {
			dst.Edges = make(map[string]Edge)
		}
		existing, ok := dst.Edges[predicate]
		if !ok || edge.Single {
			dst.Edges[predicate] = edge
			continue
		}
		for _, v := range edge.Vars {
			if !containsVar(existing.Vars, v) {
				existing.Vars = append(existing.Vars, v)
			}
		}
		dst.Edges[predicate] = existing
	}
}

func containsVar(vars []string, v string) bool {
	for _, have := range vars {
		if have == v {
			return true
		}
	}
	return false
}
