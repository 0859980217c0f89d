package extract

import (
	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/mutation"
)

// Extractor handles one relation-bearing entity type. Extract reads the
// type's fields out of the document, declares transaction parts through the
// registry, and attaches edges to the root node declared under rootID.
type Extractor interface {
	Type() entity.Type
	Extract(doc *entity.Document, rootID string, reg *Registry)
}

// Extractors returns every extractor in the fixed iteration order. The
// judgment extractor runs first so the root node exists before the others
// attach edges to it.
func Extractors() []Extractor {
	return []Extractor{
		judgmentExtractor{},
		citationExtractor{},
		judgeExtractor{},
		advocateExtractor{},
		outcomeExtractor{},
		durationExtractor{},
		courtExtractor{},
		actExtractor{},
	}
}

// Result records one document's contribution to the batch transaction.
type Result struct {
	Doc     *entity.Document
	Types   []entity.Type
	RootVar string
}

// Batch is the assembled output of extraction over one fetch of documents.
type Batch struct {
	Transaction *mutation.Transaction
	Results     []Result

	// Skipped lists documents excluded for missing the mandatory title.
	Skipped []string
}

// Extract runs detection and every applicable extractor over the batch,
// producing one transaction covering all documents. Extraction is pure:
// running it twice over the same documents yields an identical transaction.
func Extract(docs []*entity.Document, opts KeyOptions) *Batch {
	reg := NewRegistry(opts)
	extractors := Extractors()
	batch := &Batch{}

	for _, doc := range docs {
		types := entity.Detect(doc)
		if types == nil {
			batch.Skipped = append(batch.Skipped, doc.ID)
			continue
		}

		present := make(map[entity.Type]bool, len(types))
		for _, t := range types {
			present[t] = true
		}

		rootID, _ := reg.Resolve(entity.TypeJudgment, judgmentKey(doc))
		for _, ex := range extractors {
			if !present[ex.Type()] {
				continue
			}
			ex.Extract(doc, rootID, reg)
		}

		batch.Results = append(batch.Results, Result{Doc: doc, Types: types, RootVar: rootID})
	}

	batch.Transaction = reg.Transaction()
	return batch
}

func judgmentKey(doc *entity.Document) string {
	return "J_" + doc.DocID()
}

// attachList appends edge targets to a list-valued predicate on the root
// node, skipping vars already present.
func attachList(reg *Registry, rootID, predicate string, vars []string) {
	if len(vars) == 0 {
		return
	}
	root := reg.Node(rootID)
	if root == nil {
		return
	}
	if root.Edges == nil {
		root.Edges = make(map[string]mutation.Edge)
	}
	edge := root.Edges[predicate]
	for _, v := range vars {
		if !hasVar(edge.Vars, v) {
			edge.Vars = append(edge.Vars, v)
		}
	}
	root.Edges[predicate] = edge
}

// attachSingle sets a single-valued predicate on the root node.
func attachSingle(reg *Registry, rootID, predicate, v string) {
	root := reg.Node(rootID)
	if root == nil {
		return
	}
	if root.Edges == nil {
		root.Edges = make(map[string]mutation.Edge)
	}
	root.Edges[predicate] = mutation.SingleEdge(v)
}

func hasVar(vars []string, v string) bool {
	for _, have := range vars {
		if have == v {
			return true
		}
	}
	return false
}
