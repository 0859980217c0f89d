// Package entity defines the typed entities of the case-law graph and the
// presence detection that decides which of them a document carries.
package entity

import (
	"fmt"
)

// Type is a fixed, enumerable entity tag. The string values double as the
// per-document completion flag keys persisted on the source side, so they
// must never change once documents have been marked.
type Type string

const (
	// TypeJudgment is the root entity. Every processable document carries it.
	TypeJudgment Type = "judgment"

	// Relation-bearing entity types, each materialized as its own node kind.
	TypeCitation     Type = "citations"
	TypeJudge        Type = "judges"
	TypeAdvocate     Type = "advocates"
	TypeOutcome      Type = "outcome"
	TypeCaseDuration Type = "case_duration"
	TypeCourt        Type = "court"
	TypeAct          Type = "acts"

	// Scalar types tracked for completion but stored as attributes on the
	// root judgment node rather than as separate nodes.
	TypeDecisionDate    Type = "decision_date"
	TypeFilingDate      Type = "filing_date"
	TypePetitionerParty Type = "petitioner_party"
	TypeRespondantParty Type = "respondant_party"
	TypeCaseNumber      Type = "case_number"
	TypeSummary         Type = "summary"
	TypeCaseType        Type = "case_type"
	TypeNeutralCitation Type = "neutral_citation"
)

// Source document field names.
const (
	FieldTitle                = "title"
	FieldDocID                = "doc_id"
	FieldYear                 = "year"
	FieldCitations            = "citations"
	FieldJudges               = "judges"
	FieldPetitionerAdvocates  = "petitioner_advocates"
	FieldRespondantAdvocates  = "respondant_advocates"
	FieldOutcome              = "outcome"
	FieldCaseDuration         = "case_duration"
	FieldCourt                = "court"
	FieldCourtLocation        = "court_location"
	FieldCourtBench           = "court_bench"
	FieldActs                 = "acts"
	FieldDecisionDate         = "decision_date"
	FieldFilingDate           = "filing_date"
	FieldPetitionerParty      = "petitioner_party"
	FieldRespondantParty      = "respondant_party"
	FieldCaseNumber           = "case_number"
	FieldSummary              = "summary"
	FieldCaseType             = "case_type"
	FieldNeutralCitation      = "neutral_citation"
	FieldProcessedTimestamp   = "processed_timestamp"
	FieldProcessedEntities    = "processed_entities"
	FieldProcessedToGraph     = "processed_to_graph"
	FieldLastGraphUpdate      = "last_graph_update"
	FieldGraphProcessedAt     = "graph_processed_at"
)

// all lists every tracked type in the fixed documented order: the root
// first, then relation entities in extractor order, then scalar types.
// Detection output and extractor iteration both follow this order so
// transaction output is reproducible for dry-run diffing.
var all = []Type{
	TypeJudgment,
	TypeCitation,
	TypeJudge,
	TypeAdvocate,
	TypeOutcome,
	TypeCaseDuration,
	TypeCourt,
	TypeAct,
	TypeDecisionDate,
	TypeFilingDate,
	TypePetitionerParty,
	TypeRespondantParty,
	TypeCaseNumber,
	TypeSummary,
	TypeCaseType,
	TypeNeutralCitation,
}

// relational lists the types materialized as their own graph nodes.
var relational = []Type{
	TypeJudgment,
	TypeCitation,
	TypeJudge,
	TypeAdvocate,
	TypeOutcome,
	TypeCaseDuration,
	TypeCourt,
	TypeAct,
}

// All returns every tracked entity type in the fixed documented order.
// The returned slice is a copy and safe to modify.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)
	return out
}

// Relational returns the types materialized as their own graph nodes,
// in extractor order. The returned slice is a copy.
func Relational() []Type {
	out := make([]Type, len(relational))
	copy(out, relational)
	return out
}

// IsScalar reports whether t is tracked for completion but stored as an
// attribute on the root node rather than as a separate node.
func (t Type) IsScalar() bool {
	for _, rt := range relational {
		if t == rt {
			return false
		}
	}
	return true
}

// String returns the wire/flag-key form of the type.
func (t Type) String() string {
	return string(t)
}

// ParseType validates a type name from a CLI flag or query parameter.
func ParseType(s string) (Type, error) {
	for _, t := range all {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}
