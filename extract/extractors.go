package extract

import (
	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/mutation"
)

// scalarFields maps the document fields the judgment extractor copies onto
// the root node to the entity type tracking their completion.
var scalarFields = map[string]entity.Type{
	entity.FieldDecisionDate:    entity.TypeDecisionDate,
	entity.FieldFilingDate:      entity.TypeFilingDate,
	entity.FieldPetitionerParty: entity.TypePetitionerParty,
	entity.FieldRespondantParty: entity.TypeRespondantParty,
	entity.FieldCaseNumber:      entity.TypeCaseNumber,
	entity.FieldSummary:         entity.TypeSummary,
	entity.FieldCaseType:        entity.TypeCaseType,
	entity.FieldNeutralCitation: entity.TypeNeutralCitation,
}

// judgmentExtractor declares the root node. Its natural key is the
// judgment id derived from the document id, so re-processing the same
// document always resolves to the same node.
type judgmentExtractor struct{}

func (judgmentExtractor) Type() entity.Type { return entity.TypeJudgment }

func (judgmentExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	judgmentID := judgmentKey(doc)

	fields := map[string]any{
		"judgment_id": judgmentID,
		"title":       doc.String(entity.FieldTitle),
		"doc_id":      doc.DocID(),
	}
	if year, ok := doc.Int(entity.FieldYear); ok {
		fields["year"] = year
	}
	if ts := doc.String(entity.FieldProcessedTimestamp); ts != "" {
		fields["processed_timestamp"] = ts
	}
	for field, t := range scalarFields {
		if entity.Present(doc, t) {
			fields[field] = doc.String(field)
		}
	}

	reg.Declare(rootID,
		mutation.Lookup{Field: "judgment_id", Value: judgmentID},
		&mutation.Node{Type: "Judgment", Fields: fields})
}

// citationExtractor links the root to the judgments it cites. Cited
// judgments are looked up by title alone, without a type filter, so a
// citation matches the full node when the cited judgment has already been
// processed and a title-only stub when it has not.
type citationExtractor struct{}

func (citationExtractor) Type() entity.Type { return entity.TypeCitation }

func (citationExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	var vars []string
	for _, title := range doc.Strings(entity.FieldCitations) {
		id, isNew := reg.Resolve(entity.TypeCitation, title)
		if isNew {
			reg.Declare(id,
				mutation.Lookup{Field: "title", Value: title},
				&mutation.Node{Type: "Judgment", Fields: map[string]any{"title": title}})
		}
		vars = append(vars, id)
	}
	attachList(reg, rootID, "cites", vars)
}

type judgeExtractor struct{}

func (judgeExtractor) Type() entity.Type { return entity.TypeJudge }

func (judgeExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	var vars []string
	for _, name := range doc.Strings(entity.FieldJudges) {
		id, isNew := reg.Resolve(entity.TypeJudge, name)
		if isNew {
			reg.Declare(id,
				mutation.Lookup{Field: "name", Value: name,
					Filter: []string{mutation.TypeFilter("Judge")}},
				&mutation.Node{Type: "Judge",
					Fields: map[string]any{"judge_id": id, "name": name}})
		}
		vars = append(vars, id)
	}
	attachList(reg, rootID, "judged_by", vars)
}

// advocateExtractor handles both party sides. The same person appearing
// for petitioner and respondant is two distinct nodes; the respondant key
// is suffixed so the two sides never collapse.
type advocateExtractor struct{}

func (advocateExtractor) Type() entity.Type { return entity.TypeAdvocate }

func (advocateExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	petitioners := advocateSide(reg,
		doc.Strings(entity.FieldPetitionerAdvocates), "petitioner", "")
	respondants := advocateSide(reg,
		doc.Strings(entity.FieldRespondantAdvocates), "respondant", "_respondant")

	attachList(reg, rootID, "petitioner_represented_by", petitioners)
	attachList(reg, rootID, "respondant_represented_by", respondants)
}

func advocateSide(reg *Registry, names []string, side, keySuffix string) []string {
	var vars []string
	for _, name := range names {
		id, isNew := reg.Resolve(entity.TypeAdvocate, name+keySuffix)
		if isNew {
			reg.Declare(id,
				mutation.Lookup{Field: "name", Value: name, Filter: []string{
					mutation.TypeFilter("Advocate"),
					mutation.EqFilter("advocate_type", side),
				}},
				&mutation.Node{Type: "Advocate", Fields: map[string]any{
					"advocate_id":   id,
					"name":          name,
					"advocate_type": side,
				}})
		}
		vars = append(vars, id)
	}
	return vars
}

type outcomeExtractor struct{}

func (outcomeExtractor) Type() entity.Type { return entity.TypeOutcome }

func (outcomeExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	name := doc.String(entity.FieldOutcome)
	id, isNew := reg.Resolve(entity.TypeOutcome, name)
	if isNew {
		reg.Declare(id,
			mutation.Lookup{Field: "name", Value: name,
				Filter: []string{mutation.TypeFilter("Outcome")}},
			&mutation.Node{Type: "Outcome",
				Fields: map[string]any{"outcome_id": id, "name": name}})
	}
	attachSingle(reg, rootID, "has_outcome", id)
}

type durationExtractor struct{}

func (durationExtractor) Type() entity.Type { return entity.TypeCaseDuration }

func (durationExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	duration := doc.String(entity.FieldCaseDuration)
	id, isNew := reg.Resolve(entity.TypeCaseDuration, duration)
	if isNew {
		reg.Declare(id,
			mutation.Lookup{Field: "duration", Value: duration,
				Filter: []string{mutation.TypeFilter("CaseDuration")}},
			&mutation.Node{Type: "CaseDuration",
				Fields: map[string]any{"case_duration_id": id, "duration": duration}})
	}
	attachSingle(reg, rootID, "has_case_duration", id)
}

// courtExtractor keys courts on name plus location so same-named benches in
// different cities stay distinct. The optional bench type merges into the
// court's node fragment instead of creating a second node.
type courtExtractor struct{}

func (courtExtractor) Type() entity.Type { return entity.TypeCourt }

func (courtExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	name := doc.String(entity.FieldCourt)
	location := doc.String(entity.FieldCourtLocation)
	bench := doc.String(entity.FieldCourtBench)

	id, isNew := reg.Resolve(entity.TypeCourt, name+"|"+location)
	if isNew {
		filter := []string{mutation.TypeFilter("Court")}
		if location != "" {
			filter = append(filter, mutation.EqFilter("location", location))
		}

		fields := map[string]any{"court_id": id, "name": name}
		if location != "" {
			fields["location"] = location
		}
		if bench != "" {
			fields["bench_type"] = bench
		}

		reg.Declare(id,
			mutation.Lookup{Field: "name", Value: name, Filter: filter},
			&mutation.Node{Type: "Court", Fields: fields})
	} else if bench != "" {
		// Merge the bench type onto the already-declared fragment.
		if node := reg.Node(id); node != nil {
			if _, ok := node.Fields["bench_type"]; !ok {
				node.Fields["bench_type"] = bench
			}
		}
	}
	attachSingle(reg, rootID, "court_heard_in", id)
}

type actExtractor struct{}

func (actExtractor) Type() entity.Type { return entity.TypeAct }

func (actExtractor) Extract(doc *entity.Document, rootID string, reg *Registry) {
	var vars []string
	for _, name := range doc.Strings(entity.FieldActs) {
		id, isNew := reg.Resolve(entity.TypeAct, name)
		if isNew {
			reg.Declare(id,
				mutation.Lookup{Field: "act_name", Value: name,
					Filter: []string{mutation.TypeFilter("Act")}},
				&mutation.Node{Type: "Act",
					Fields: map[string]any{"act_id": id, "act_name": name}})
		}
		vars = append(vars, id)
	}
	attachList(reg, rootID, "cites_act", vars)
}
