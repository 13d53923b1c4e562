// Package diagnostic collects the non-fatal problems found during a run:
// schemas that could not be normalized, pairs that failed to score,
// taxonomy lookups that fell back to a default.
//
// A run never aborts on a single bad input. Problems are recorded here
// and reported alongside the results.
package diagnostic
