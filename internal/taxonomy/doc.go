// Package taxonomy holds the model categorization tree and the
// auto-categorizer that suggests where a model belongs in it.
//
// The tree is an arena: nodes are addressed by id and store their parent
// id, children are found through an index on parent id. A parent id of 0
// marks a root. Roots are the role buckets ("Request Models", ...), their
// children the resource buckets.
//
// The categorizer never mutates a tree. Callers apply a suggestion with
// Tree.Commit.
package taxonomy
