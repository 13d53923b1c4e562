// Package fingerprint aggregates field signatures across a set of normalized
// schemas so that "which other schemas share this field" is a map lookup.
//
// The index is built once per analysis run, sequentially, and is read-only
// afterwards; concurrent readers need no locking.
package fingerprint
