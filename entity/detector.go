package entity

// presence holds the per-type presence predicate: field exists and, for
// list-valued fields, has at least one non-empty element; for scalar
// fields, is non-empty after trimming.
var presence = map[Type]func(*Document) bool{
	TypeJudgment: func(d *Document) bool { return d.String(FieldTitle) != "" },
	TypeCitation: func(d *Document) bool { return len(d.Strings(FieldCitations)) > 0 },
	TypeJudge:    func(d *Document) bool { return len(d.Strings(FieldJudges)) > 0 },
	TypeAdvocate: func(d *Document) bool {
		return len(d.Strings(FieldPetitionerAdvocates)) > 0 ||
			len(d.Strings(FieldRespondantAdvocates)) > 0
	},
	TypeOutcome:         func(d *Document) bool { return d.String(FieldOutcome) != "" },
	TypeCaseDuration:    func(d *Document) bool { return d.String(FieldCaseDuration) != "" },
	TypeCourt:           func(d *Document) bool { return d.String(FieldCourt) != "" },
	TypeAct:             func(d *Document) bool { return len(d.Strings(FieldActs)) > 0 },
	TypeDecisionDate:    func(d *Document) bool { return d.String(FieldDecisionDate) != "" },
	TypeFilingDate:      func(d *Document) bool { return d.String(FieldFilingDate) != "" },
	TypePetitionerParty: func(d *Document) bool { return d.String(FieldPetitionerParty) != "" },
	TypeRespondantParty: func(d *Document) bool { return d.String(FieldRespondantParty) != "" },
	TypeCaseNumber:      func(d *Document) bool { return d.String(FieldCaseNumber) != "" },
	TypeSummary:         func(d *Document) bool { return d.String(FieldSummary) != "" },
	TypeCaseType:        func(d *Document) bool { return d.String(FieldCaseType) != "" },
	TypeNeutralCitation: func(d *Document) bool { return d.String(FieldNeutralCitation) != "" },
}

// sourceFields maps each type to the document fields whose presence makes
// it detectable. Targeted fetch queries use this to select only documents
// that actually carry data for the type.
var sourceFields = map[Type][]string{
	TypeJudgment:        {FieldTitle},
	TypeCitation:        {FieldCitations},
	TypeJudge:           {FieldJudges},
	TypeAdvocate:        {FieldPetitionerAdvocates, FieldRespondantAdvocates},
	TypeOutcome:         {FieldOutcome},
	TypeCaseDuration:    {FieldCaseDuration},
	TypeCourt:           {FieldCourt},
	TypeAct:             {FieldActs},
	TypeDecisionDate:    {FieldDecisionDate},
	TypeFilingDate:      {FieldFilingDate},
	TypePetitionerParty: {FieldPetitionerParty},
	TypeRespondantParty: {FieldRespondantParty},
	TypeCaseNumber:      {FieldCaseNumber},
	TypeSummary:         {FieldSummary},
	TypeCaseType:        {FieldCaseType},
	TypeNeutralCitation: {FieldNeutralCitation},
}

// SourceFields returns the document fields backing a type. More than one
// field means the type is present when any of them is.
func SourceFields(t Type) []string {
	fields, ok := sourceFields[t]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Detect evaluates every presence predicate against the document and
// returns the types it carries, in the fixed documented order. A document
// without the mandatory root title field returns nil and must be excluded
// from the batch; that is a skip, not an error.
func Detect(doc *Document) []Type {
	if !Present(doc, TypeJudgment) {
		return nil
	}

	var found []Type
	for _, t := range all {
		if Present(doc, t) {
			found = append(found, t)
		}
	}
	return found
}

// Present evaluates the presence predicate for a single type.
func Present(doc *Document, t Type) bool {
	pred, ok := presence[t]
	if !ok {
		return false
	}
	return pred(doc)
}

// DetectBatch runs detection across a batch, keyed by document ID.
// Documents that fail the root predicate are omitted entirely.
func DetectBatch(docs []*Document) map[string][]Type {
	found := make(map[string][]Type, len(docs))
	for _, doc := range docs {
		if types := Detect(doc); types != nil {
			found[doc.ID] = types
		}
	}
	return found
}
