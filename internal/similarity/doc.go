// Package similarity scores and classifies pairs of normalized schemas.
//
// The score is a weighted Jaccard similarity over field signatures plus a
// bounded structural bonus for matched fields that keep the same nesting
// position. Classification applies the relationship kinds in priority order:
// similar_schema, common_fields, data_flow, crud_pair.
package similarity
