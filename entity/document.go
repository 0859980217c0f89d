package entity

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/c360/lawgraph/pkg/timestamp"
)

// Document is a read-only case-law record fetched from the document source.
// The core never mutates a Document; completion flags are merged back onto
// the source-side record by the tracker, not onto this struct.
type Document struct {
	// ID is the stable external identifier assigned by the source.
	ID string `json:"_id"`

	// Source is the raw field mapping. Values are strings, numbers, or
	// lists of strings, exactly as the source returned them.
	Source map[string]any `json:"_source"`
}

// String returns the named field as a trimmed string. Missing fields and
// non-string values yield "".
func (d *Document) String(field string) string {
	if d.Source == nil {
		return ""
	}
	if s, ok := d.Source[field].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Strings returns the named field as a cleaned list of non-empty trimmed
// strings. It tolerates the shapes the upstream scraper produces: a real
// JSON array, a single bare string, or a string holding a JSON-encoded list.
func (d *Document) Strings(field string) []string {
	if d.Source == nil {
		return nil
	}

	var raw []string
	switch v := d.Source[field].(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		// Some records carry the list JSON-encoded inside a string field.
		if strings.HasPrefix(trimmed, "[") {
			var decoded []string
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				raw = decoded
				break
			}
		}
		raw = []string{trimmed}
	default:
		return nil
	}

	cleaned := make([]string, 0, len(raw))
	for _, s := range raw {
		if t := strings.TrimSpace(s); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// Int returns the named field as an int. The second result reports whether
// the field was present and numeric.
func (d *Document) Int(field string) (int, bool) {
	if d.Source == nil {
		return 0, false
	}
	switch v := d.Source[field].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Timestamp returns the named field normalized to Unix milliseconds, or 0.
func (d *Document) Timestamp(field string) int64 {
	if d.Source == nil {
		return 0
	}
	return timestamp.Parse(d.Source[field])
}

// DocID returns the document's logical identifier: the doc_id source field
// with any legacy "doc_" prefix stripped, falling back to the external ID.
func (d *Document) DocID() string {
	id := d.String(FieldDocID)
	if id == "" {
		id = d.ID
	}
	return strings.TrimPrefix(id, "doc_")
}

// ProcessingState is the per-document completion record persisted inside
// the source document. Entities maps entity type to committed; LastUpdate
// is the most recent successful commit in Unix milliseconds.
type ProcessingState struct {
	Entities   map[Type]bool
	LastUpdate int64
}

// ProcessingState parses the tracking sub-object out of the document.
// A document that has never been committed returns an empty state.
func (d *Document) ProcessingState() ProcessingState {
	state := ProcessingState{Entities: make(map[Type]bool)}
	if d.Source == nil {
		return state
	}

	if m, ok := d.Source[FieldProcessedEntities].(map[string]any); ok {
		for key, val := range m {
			if b, ok := val.(bool); ok {
				state.Entities[Type(key)] = b
			}
		}
	}
	state.LastUpdate = timestamp.Parse(d.Source[FieldLastGraphUpdate])
	return state
}

// Committed reports whether the given entity type has been committed for
// this document.
func (ps ProcessingState) Committed(t Type) bool {
	return ps.Entities[t]
}

// Pending returns the subset of present (detected) types not yet committed,
// preserving the order of present.
func (ps ProcessingState) Pending(present []Type) []Type {
	var pending []Type
	for _, t := range present {
		if !ps.Entities[t] {
			pending = append(pending, t)
		}
	}
	return pending
}

// Complete reports whether every detected type has been committed. A
// document with no detected types is never complete.
func (ps ProcessingState) Complete(present []Type) bool {
	if len(present) == 0 {
		return false
	}
	return len(ps.Pending(present)) == 0
}
