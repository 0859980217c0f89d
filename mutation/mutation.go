package mutation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EscapeString escapes a field value for embedding inside a quoted DQL
// function argument.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Lookup is one var block of the upsert query. It binds Var to the uid of
// an existing node whose Field equals Value, optionally narrowed by filter
// conditions which are AND-joined.
type Lookup struct {
	Var    string
	Field  string
	Value  string
	Filter []string
}

// Render produces the var block line, e.g.
//
//	judge_1a2b3c4d5e6f as var(func: eq(name, "D.Y. Chandrachud")) @filter(type(Judge))
func (l Lookup) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s as var(func: eq(%s, \"%s\"))", l.Var, l.Field, EscapeString(l.Value))
	if len(l.Filter) > 0 {
		fmt.Fprintf(&b, " @filter(%s)", strings.Join(l.Filter, " AND "))
	}
	return b.String()
}

// TypeFilter builds the common filter condition matching a node type.
func TypeFilter(nodeType string) string {
	return "type(" + nodeType + ")"
}

// EqFilter builds a filter condition matching a string predicate value.
func EqFilter(field, value string) string {
	return fmt.Sprintf("eq(%s, \"%s\")", field, EscapeString(value))
}

// Edge is an outgoing uid reference from a node. Single edges render as one
// uid object; list edges render as a uid array even when they hold one var.
type Edge struct {
	Vars   []string
	Single bool
}

// ListEdge builds a list-valued edge.
func ListEdge(vars ...string) Edge {
	return Edge{Vars: vars}
}

// SingleEdge builds a single-valued edge.
func SingleEdge(v string) Edge {
	return Edge{Vars: []string{v}, Single: true}
}

// Node is one member of the transaction's set list. Its uid references the
// lookup var of the same natural key, so the store updates the node when
// the lookup matched and creates it when it did not.
type Node struct {
	// Var names the lookup binding this node resolves through.
	Var string

	// Type is the node type recorded on creation.
	Type string

	// Fields holds the scalar predicates written on the node.
	Fields map[string]any

	// Edges holds the outgoing uid references, keyed by predicate.
	Edges map[string]Edge
}

type uidRef struct {
	UID string `json:"uid"`
}

// MarshalJSON renders the node as the store's JSON set format. Map keys
// marshal in sorted order, so output is byte-stable for identical input.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Var == "" {
		return nil, fmt.Errorf("mutation.Node: marshal failed: node without a var binding")
	}

	m := make(map[string]any, len(n.Fields)+len(n.Edges)+2)
	m["uid"] = "uid(" + n.Var + ")"
	if n.Type != "" {
		m["dgraph.type"] = n.Type
	}
	for field, value := range n.Fields {
		m[field] = value
	}
	for predicate, edge := range n.Edges {
		if len(edge.Vars) == 0 {
			continue
		}
		if edge.Single {
			m[predicate] = uidRef{UID: "uid(" + edge.Vars[0] + ")"}
			continue
		}
		refs := make([]uidRef, len(edge.Vars))
		for i, v := range edge.Vars {
			refs[i] = uidRef{UID: "uid(" + v + ")"}
		}
		m[predicate] = refs
	}
	return json.Marshal(m)
}
