package graphstore

// Schema is the DQL schema for the case-law graph. Every id predicate is
// exact-indexed with @upsert so concurrent find-or-create transactions
// conflict instead of duplicating nodes. Scalar case facts live as string
// predicates on the Judgment node.
const Schema = `
type Judgment {
  judgment_id
  title
  doc_id
  year
  processed_timestamp
  decision_date
  filing_date
  petitioner_party
  respondant_party
  case_number
  summary
  case_type
  neutral_citation
  cites
  judged_by
  petitioner_represented_by
  respondant_represented_by
  has_outcome
  has_case_duration
  court_heard_in
  cites_act
}

type Judge {
  judge_id
  name
}

type Advocate {
  advocate_id
  name
  advocate_type
}

type Outcome {
  outcome_id
  name
}

type CaseDuration {
  case_duration_id
  duration
}

type Court {
  court_id
  name
  location
  bench_type
}

type Act {
  act_id
  act_name
}

judgment_id: string @index(exact) @upsert .
title: string @index(exact, term, fulltext) @upsert .
doc_id: string @index(exact) @upsert .
year: int @index(int) .
processed_timestamp: datetime @index(hour) .
decision_date: string @index(exact) .
filing_date: string @index(exact) .
petitioner_party: string @index(term) .
respondant_party: string @index(term) .
case_number: string @index(exact, term) .
summary: string @index(fulltext) .
case_type: string @index(exact, term) .
neutral_citation: string @index(exact, term) .
cites: [uid] @reverse .
judged_by: [uid] @reverse .
petitioner_represented_by: [uid] @reverse .
respondant_represented_by: [uid] @reverse .
has_outcome: uid @reverse .
has_case_duration: uid @reverse .
court_heard_in: uid @reverse .
cites_act: [uid] @reverse .

judge_id: string @index(exact) @upsert .

advocate_id: string @index(exact) @upsert .
advocate_type: string @index(exact) .

outcome_id: string @index(exact) @upsert .

case_duration_id: string @index(exact) @upsert .
duration: string @index(exact, term) .

court_id: string @index(exact) @upsert .
location: string @index(term) .
bench_type: string @index(exact, term) .

act_id: string @index(exact) @upsert .
act_name: string @index(exact, term, fulltext) @upsert .

name: string @index(exact, term, fulltext) @upsert .
`
