package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_String(t *testing.T) {
	doc := &Document{ID: "d", Source: map[string]any{
		"title":  "  A v. B  ",
		"year":   float64(2020),
		"absent": nil,
	}}

	assert.Equal(t, "A v. B", doc.String("title"))
	assert.Equal(t, "", doc.String("absent"))
	assert.Equal(t, "", doc.String("missing"))
	assert.Equal(t, "", doc.String("year"), "non-string values read as empty")
}

func TestDocument_Strings(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", "  b  ", ""}, []string{"a", "b"}},
		{"bare string", "only", []string{"only"}},
		{"json encoded list", `["x", "y"]`, []string{"x", "y"}},
		{"empty slice", []any{}, nil},
		{"nil", nil, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := &Document{ID: "d", Source: map[string]any{"field": test.value}}
			assert.Equal(t, test.want, doc.Strings("field"))
		})
	}
}

func TestDocument_Int(t *testing.T) {
	doc := &Document{ID: "d", Source: map[string]any{
		"year":    float64(2019),
		"year_s":  "2019",
		"garbage": "nineteen",
	}}

	n, ok := doc.Int("year")
	require.True(t, ok)
	assert.Equal(t, 2019, n)

	n, ok = doc.Int("year_s")
	require.True(t, ok)
	assert.Equal(t, 2019, n)

	_, ok = doc.Int("garbage")
	assert.False(t, ok)
	_, ok = doc.Int("missing")
	assert.False(t, ok)
}

func TestDocument_DocID(t *testing.T) {
	tests := []struct {
		name   string
		doc    *Document
		expect string
	}{
		{
			"doc_id field wins",
			&Document{ID: "es-internal", Source: map[string]any{"doc_id": "doc_1042"}},
			"1042",
		},
		{
			"falls back to index id",
			&Document{ID: "doc_77", Source: map[string]any{}},
			"77",
		},
		{
			"no prefix to strip",
			&Document{ID: "plain", Source: map[string]any{}},
			"plain",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expect, test.doc.DocID())
		})
	}
}

func TestProcessingState(t *testing.T) {
	doc := &Document{ID: "d", Source: map[string]any{
		"processed_entities": map[string]any{
			"judgment": true,
			"judges":   true,
			"court":    false,
		},
		"last_graph_update": "2024-06-01T10:00:00Z",
	}}

	state := doc.ProcessingState()
	assert.True(t, state.Committed(TypeJudgment))
	assert.True(t, state.Committed(TypeJudge))
	assert.False(t, state.Committed(TypeCourt), "a false flag is not committed")
	assert.False(t, state.Committed(TypeOutcome))
	assert.NotZero(t, state.LastUpdate)
}

func TestProcessingState_Pending(t *testing.T) {
	doc := &Document{ID: "d", Source: map[string]any{
		"processed_entities": map[string]any{"judgment": true},
	}}
	state := doc.ProcessingState()

	present := []Type{TypeJudgment, TypeJudge, TypeCourt}
	pending := state.Pending(present)
	assert.Equal(t, []Type{TypeJudge, TypeCourt}, pending)
	assert.False(t, state.Complete(present))

	state.Entities[TypeJudge] = true
	state.Entities[TypeCourt] = true
	assert.True(t, state.Complete(present))
	assert.Empty(t, state.Pending(present))
}

func TestProcessingState_EmptyPresent(t *testing.T) {
	state := ProcessingState{Entities: map[Type]bool{}}
	assert.False(t, state.Complete(nil), "a document with no detected types is never complete")
}

func TestProcessingState_NoFlags(t *testing.T) {
	doc := &Document{ID: "d", Source: map[string]any{"title": "A v. B"}}
	state := doc.ProcessingState()
	assert.False(t, state.Committed(TypeJudgment))
	assert.Zero(t, state.LastUpdate)
}
