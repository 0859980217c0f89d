package mutation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgeDecl(hash, name string) (Lookup, *Node) {
	v := "judge_" + hash
	return Lookup{Var: v, Field: "name", Value: name, Filter: []string{TypeFilter("Judge")}},
		&Node{Var: v, Type: "Judge", Fields: map[string]any{"name": name, "judge_id": "JU_" + hash}}
}

func TestBuilder_DeduplicatesByVar(t *testing.T) {
	b := NewBuilder()

	l, n := judgeDecl("aaa", "A. Bose")
	b.Declare(l, n)
	l2, n2 := judgeDecl("aaa", "A. Bose")
	b.Declare(l2, n2)
	l3, n3 := judgeDecl("bbb", "B. Rao")
	b.Declare(l3, n3)

	tx := b.Build()
	assert.Len(t, tx.Lookups, 2, "repeated natural keys collapse to one lookup")
	assert.Len(t, tx.Set, 2, "repeated natural keys collapse to one set node")
	assert.True(t, b.Declared("judge_aaa"))
	assert.False(t, b.Declared("judge_ccc"))
}

func TestBuilder_MergesEdges(t *testing.T) {
	b := NewBuilder()

	v := "main_abc"
	b.Declare(
		Lookup{Var: v, Field: "title", Value: "A v. B", Filter: []string{TypeFilter("Judgment")}},
		&Node{Var: v, Type: "Judgment",
			Fields: map[string]any{"title": "A v. B"},
			Edges:  map[string]Edge{"judged_by": ListEdge("judge_1")}},
	)
	b.Declare(
		Lookup{Var: v, Field: "title", Value: "A v. B", Filter: []string{TypeFilter("Judgment")}},
		&Node{Var: v,
			Fields: map[string]any{"year": 2019},
			Edges: map[string]Edge{
				"judged_by":   ListEdge("judge_1", "judge_2"),
				"has_outcome": SingleEdge("outcome_1"),
			}},
	)

	node := b.Node(v)
	require.NotNil(t, node)
	assert.Equal(t, 2019, node.Fields["year"])
	assert.Equal(t, []string{"judge_1", "judge_2"}, node.Edges["judged_by"].Vars,
		"list edge vars merge without duplicates")
	assert.True(t, node.Edges["has_outcome"].Single)
}

func TestTransaction_Query(t *testing.T) {
	b := NewBuilder()
	b.Declare(judgeDecl("aaa", "A. Bose"))
	b.Declare(judgeDecl("bbb", "B. Rao"))

	q := b.Build().Query()
	assert.True(t, strings.HasPrefix(q, "{\n"))
	assert.True(t, strings.HasSuffix(q, "\n}"))
	assert.Contains(t, q, `  judge_aaa as var(func: eq(name, "A. Bose")) @filter(type(Judge))`)

	// Declaration order is preserved in the rendered query.
	assert.Less(t, strings.Index(q, "judge_aaa"), strings.Index(q, "judge_bbb"))
}

func TestTransaction_MarshalJSON(t *testing.T) {
	b := NewBuilder()
	b.Declare(judgeDecl("aaa", "A. Bose"))
	tx := b.Build()

	raw, err := json.Marshal(tx)
	require.NoError(t, err)

	var body struct {
		Query string           `json:"query"`
		Set   []map[string]any `json:"set"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Contains(t, body.Query, "judge_aaa as var")
	require.Len(t, body.Set, 1)
	assert.Equal(t, "uid(judge_aaa)", body.Set[0]["uid"])
	assert.Equal(t, "Judge", body.Set[0]["dgraph.type"])
}

func TestTransaction_Empty(t *testing.T) {
	assert.True(t, NewBuilder().Build().Empty())

	b := NewBuilder()
	b.Declare(judgeDecl("aaa", "A. Bose"))
	assert.False(t, b.Build().Empty())
}

func TestTransaction_PayloadStable(t *testing.T) {
	build := func() *Transaction {
		b := NewBuilder()
		b.Declare(judgeDecl("aaa", "A. Bose"))
		b.Declare(judgeDecl("bbb", "B. Rao"))
		return b.Build()
	}

	first, err := build().Payload()
	require.NoError(t, err)
	second, err := build().Payload()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
