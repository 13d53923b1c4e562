// Package match provides the name and shape heuristics shared by the schema
// normalizer, the similarity scorer and the taxonomy categorizer.
//
// Key functions:
//   - NormalizeIdent / TokenizeIdent: identifier folding and CamelCase splitting
//   - IsIdentifierName: detects id-like field names (id, userId, order_id)
//   - Levenshtein / NearMatch: edit distance for near-duplicate names
//   - ScoreShape: compares the structural position of two matched fields
//   - CandidateList: deterministic ordering of candidate schema pairs
//   - SplitPath / CrudRelated: URL template heuristics for CRUD pairing
package match
