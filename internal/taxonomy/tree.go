package taxonomy

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"schema-atlas/internal/common"
)

// Node is one taxonomy entry.
type Node struct {
	ID          int64  `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	ParentID    int64  `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Depth       int    `yaml:"depth" json:"depth"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == 0
}

// Tree is an arena of taxonomy nodes. It is not safe for concurrent mutation.
type Tree struct {
	nodes    map[int64]*Node
	children map[int64][]int64
	nextID   int64
}

// NewTree builds a tree from a snapshot of nodes and checks every invariant.
// A violation returns an *InvalidStateError.
func NewTree(nodes []Node) (*Tree, error) {
	t := &Tree{
		nodes:    make(map[int64]*Node, len(nodes)),
		children: make(map[int64][]int64),
		nextID:   1,
	}

	for i := range nodes {
		n := nodes[i]

		if n.ID <= 0 {
			return nil, &InvalidStateError{NodeID: n.ID, Reason: "id must be positive"}
		}

		if _, dup := t.nodes[n.ID]; dup {
			return nil, &InvalidStateError{NodeID: n.ID, Reason: "duplicate id"}
		}

		t.nodes[n.ID] = &n
		t.nextID = max(t.nextID, n.ID+1)
	}

	for _, id := range common.SortedKeys(t.nodes) {
		parent := t.nodes[id].ParentID
		t.children[parent] = append(t.children[parent], id)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks the tree invariants.
func (t *Tree) Validate() error {
	for _, id := range common.SortedKeys(t.nodes) {
		n := t.nodes[id]

		if strings.TrimSpace(n.Name) == "" {
			return &InvalidStateError{NodeID: id, Reason: "empty name"}
		}

		if n.ParentID == id {
			return &InvalidStateError{NodeID: id, Reason: "node is its own parent"}
		}

		if n.IsRoot() {
			if n.Depth != 0 {
				return &InvalidStateError{NodeID: id, Reason: fmt.Sprintf("root depth is %d, want 0", n.Depth)}
			}

			continue
		}

		parent, ok := t.nodes[n.ParentID]
		if !ok {
			return &InvalidStateError{NodeID: id, Reason: fmt.Sprintf("parent %d does not exist", n.ParentID)}
		}

		if n.Depth != parent.Depth+1 {
			return &InvalidStateError{
				NodeID: id,
				Reason: fmt.Sprintf("depth is %d, want %d", n.Depth, parent.Depth+1),
			}
		}
	}

	// Consistent depths already rule out cycles through roots; this catches
	// parent chains that never reach a root.
	for _, id := range common.SortedKeys(t.nodes) {
		steps := 0
		for cur := t.nodes[id]; !cur.IsRoot(); cur = t.nodes[cur.ParentID] {
			steps++
			if steps > len(t.nodes) {
				return &InvalidStateError{NodeID: id, Reason: "node is its own ancestor"}
			}
		}
	}

	for parent, ids := range t.children {
		names := make(map[string]int64, len(ids))

		for _, id := range ids {
			key := nameKey(t.nodes[id].Name)
			if other, dup := names[key]; dup {
				return &InvalidStateError{
					NodeID: id,
					Reason: fmt.Sprintf("name %q under parent %d duplicates node %d", t.nodes[id].Name, parent, other),
				}
			}

			names[key] = id
		}
	}

	return nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id.
func (t *Tree) Node(id int64) (Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}

	return *n, true
}

// Nodes returns a snapshot of all nodes ordered by id.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.nodes))
	for _, id := range common.SortedKeys(t.nodes) {
		out = append(out, *t.nodes[id])
	}

	return out
}

// Roots returns the top-level nodes ordered by name.
func (t *Tree) Roots() []Node {
	return t.Children(0)
}

// Children returns the direct children of parent ordered by name.
// A parent of 0 returns the roots.
func (t *Tree) Children(parent int64) []Node {
	ids := t.children[parent]

	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, *t.nodes[id])
	}

	sort.Slice(out, func(i, j int) bool {
		ki, kj := nameKey(out[i].Name), nameKey(out[j].Name)
		if ki != kj {
			return ki < kj
		}

		return out[i].ID < out[j].ID
	})

	return out
}

// ChildByName finds a child of parent by case-insensitive name.
func (t *Tree) ChildByName(parent int64, name string) (Node, bool) {
	key := nameKey(name)

	for _, id := range t.children[parent] {
		if nameKey(t.nodes[id].Name) == key {
			return *t.nodes[id], true
		}
	}

	return Node{}, false
}

// Lookup resolves a path of names from the roots, case-insensitively.
func (t *Tree) Lookup(path []string) (Node, bool) {
	var (
		cur   Node
		found bool
	)

	for _, name := range path {
		cur, found = t.ChildByName(cur.ID, name)
		if !found {
			return Node{}, false
		}
	}

	return cur, found
}

// PathOf returns the names from the root down to the node.
func (t *Tree) PathOf(id int64) ([]string, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	path := make([]string, n.Depth+1)
	for cur := n; ; cur = t.nodes[cur.ParentID] {
		path[cur.Depth] = cur.Name
		if cur.IsRoot() {
			break
		}
	}

	return path, nil
}

// PathString returns the node path joined with "/".
func (t *Tree) PathString(id int64) string {
	path, err := t.PathOf(id)
	if err != nil {
		return ""
	}

	return strings.Join(path, "/")
}

// Descendants returns every node below id, depth first in name order.
func (t *Tree) Descendants(id int64) []Node {
	var out []Node

	for _, child := range t.Children(id) {
		out = append(out, child)
		out = append(out, t.Descendants(child.ID)...)
	}

	return out
}

// Add creates a child under parent (0 for a root).
func (t *Tree) Add(parent int64, name, description string) (Node, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Node{}, ErrEmptyName
	}

	depth := 0

	if parent != 0 {
		p, ok := t.nodes[parent]
		if !ok {
			return Node{}, fmt.Errorf("%w: parent %d", ErrNotFound, parent)
		}

		depth = p.Depth + 1
	}

	if existing, ok := t.ChildByName(parent, name); ok {
		return Node{}, fmt.Errorf("%w: %q (node %d)", ErrDuplicateName, name, existing.ID)
	}

	n := &Node{ID: t.nextID, Name: name, ParentID: parent, Depth: depth, Description: description}
	t.nextID++

	t.nodes[n.ID] = n
	t.children[parent] = append(t.children[parent], n.ID)

	return *n, nil
}

// Commit makes sure every node on path exists, reusing siblings whose names
// match case-insensitively. It returns the leaf node and the nodes it created.
func (t *Tree) Commit(path []string) (Node, []Node, error) {
	if len(path) == 0 {
		return Node{}, nil, fmt.Errorf("%w: empty path", ErrEmptyName)
	}

	var (
		cur     Node
		created []Node
	)

	for _, name := range path {
		if strings.TrimSpace(name) == "" {
			return Node{}, created, ErrEmptyName
		}

		if existing, ok := t.ChildByName(cur.ID, name); ok {
			cur = existing
			continue
		}

		n, err := t.Add(cur.ID, name, "")
		if err != nil {
			return Node{}, created, err
		}

		created = append(created, n)
		cur = n
	}

	return cur, created, nil
}

// Reparent moves id and its subtree under newParent (0 for a root).
func (t *Tree) Reparent(id, newParent int64) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	depth := 0

	if newParent != 0 {
		p, ok := t.nodes[newParent]
		if !ok {
			return fmt.Errorf("%w: parent %d", ErrNotFound, newParent)
		}

		if t.isAncestor(id, newParent) {
			return fmt.Errorf("%w: %d under %d", ErrCycle, id, newParent)
		}

		depth = p.Depth + 1
	}

	if n.ParentID == newParent {
		return nil
	}

	if existing, ok := t.ChildByName(newParent, n.Name); ok {
		return fmt.Errorf("%w: %q (node %d)", ErrDuplicateName, n.Name, existing.ID)
	}

	t.detach(n)
	n.ParentID = newParent
	t.children[newParent] = append(t.children[newParent], id)
	t.setDepth(n, depth)

	return nil
}

// isAncestor reports whether ancestor is node or one of its ancestors.
func (t *Tree) isAncestor(ancestor, node int64) bool {
	for cur := node; cur != 0; cur = t.nodes[cur].ParentID {
		if cur == ancestor {
			return true
		}
	}

	return false
}

func (t *Tree) setDepth(n *Node, depth int) {
	n.Depth = depth
	for _, child := range t.children[n.ID] {
		t.setDepth(t.nodes[child], depth+1)
	}
}

func (t *Tree) detach(n *Node) {
	siblings := t.children[n.ParentID]
	for i, id := range siblings {
		if id == n.ID {
			t.children[n.ParentID] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
}

// Remove deletes id and its subtree and returns the removed ids, ascending.
func (t *Tree) Remove(id int64) ([]int64, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	removed := []int64{id}
	for _, d := range t.Descendants(id) {
		removed = append(removed, d.ID)
	}

	t.detach(n)

	for _, r := range removed {
		delete(t.nodes, r)
		delete(t.children, r)
	}

	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	return removed, nil
}

// Clone returns an independent copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:    make(map[int64]*Node, len(t.nodes)),
		children: make(map[int64][]int64, len(t.children)),
		nextID:   t.nextID,
	}

	for id, n := range t.nodes {
		cp := *n
		c.nodes[id] = &cp
	}

	for parent, ids := range t.children {
		c.children[parent] = append([]int64(nil), ids...)
	}

	return c
}

// Render writes the tree as an indented outline, two spaces per level.
func (t *Tree) Render(w io.Writer) error {
	for _, root := range t.Roots() {
		if err := t.render(w, root); err != nil {
			return err
		}
	}

	return nil
}

func (t *Tree) render(w io.Writer, n Node) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", n.Depth), n.Name); err != nil {
		return err
	}

	for _, child := range t.Children(n.ID) {
		if err := t.render(w, child); err != nil {
			return err
		}
	}

	return nil
}

// String returns the rendered outline.
func (t *Tree) String() string {
	var sb strings.Builder

	_ = t.Render(&sb)

	return sb.String()
}
