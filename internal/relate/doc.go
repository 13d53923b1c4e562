// Package relate builds the relationship graph of a schema corpus.
//
// A run normalizes every input, indexes the field signatures once and then
// scores only the candidate pairs the index yields, in parallel. Inputs that
// fail normalization are skipped with a reason; pairs that fail to score are
// logged and treated as unrelated. A cancelled run returns the pairs scored
// so far with the Truncated flag set.
//
// The builder keeps no state between runs.
package relate
