package doctree

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// Tree is an ordered tree of nodes with a single root, plus the selection
// resolved against it. A Tree is not safe for concurrent use.
type Tree struct {
	// reg resolves classes for creation and text handling.
	reg *Registry

	// root is the key of the root node.
	root common.Key

	// nodes maps keys to the nodes owned by the tree.
	nodes map[common.Key]*Node

	// retired holds keys removed from the tree. They can never come back.
	retired map[common.Key]struct{}

	// sel is the current selection.
	sel Selection
}

// New creates a tree holding a single fresh root node.
func New(reg *Registry) (*Tree, error) {
	root, err := reg.Create(TypeRoot, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create root")
	}
	return FromFragment(reg, NewFragment(root))
}

// FromFragment creates a tree whose root is the fragment root.
func FromFragment(reg *Registry, f *Fragment) (*Tree, error) {
	t := &Tree{
		reg:     reg,
		nodes:   make(map[common.Key]*Node),
		retired: make(map[common.Key]struct{}),
	}
	if err := t.checkFragment(f); err != nil {
		return nil, err
	}
	if !f.Node.IsStructural() {
		return nil, common.ErrNotAStructuralNode{Key: f.Node.key, Type: f.Node.typ}
	}
	t.root = t.attach(f, common.NilKey)
	return t, nil
}

// Registry returns the registry the tree creates nodes with.
func (t *Tree) Registry() *Registry {
	return t.reg
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.nodes[t.root]
}

// RootKey returns the key of the root node.
func (t *Tree) RootKey() common.Key {
	return t.root
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Has reports whether key names a node of the tree.
func (t *Tree) Has(key common.Key) bool {
	_, ok := t.nodes[key]
	return ok
}

// Node returns the node with the given key.
// The returned node must be treated as read-only.
func (t *Tree) Node(key common.Key) (*Node, error) {
	n, ok := t.nodes[key]
	if !ok {
		return nil, common.ErrNodeNotFound{Key: key}
	}
	return n, nil
}

// Parent returns the parent of key, or nil for the root.
func (t *Tree) Parent(key common.Key) (*Node, error) {
	n, err := t.Node(key)
	if err != nil {
		return nil, err
	}
	if n.parent.IsZero() {
		return nil, nil
	}
	return t.nodes[n.parent], nil
}

// Children returns the children of key in document order.
func (t *Tree) Children(key common.Key) ([]*Node, error) {
	n, err := t.Node(key)
	if err != nil {
		return nil, err
	}
	res := make([]*Node, len(n.children))
	for i, c := range n.children {
		res[i] = t.nodes[c]
	}
	return res, nil
}

// IndexOf returns the position of key within its parent.
func (t *Tree) IndexOf(key common.Key) (int, error) {
	n, err := t.Node(key)
	if err != nil {
		return 0, err
	}
	if n.parent.IsZero() {
		return 0, nil
	}
	return indexOf(t.nodes[n.parent].children, key), nil
}

// Path returns the child indexes leading from the root to key.
func (t *Tree) Path(key common.Key) ([]int, error) {
	if _, err := t.Node(key); err != nil {
		return nil, err
	}
	var path []int
	for k := key; k != t.root; {
		n := t.nodes[k]
		path = append(path, indexOf(t.nodes[n.parent].children, k))
		k = n.parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Walk visits every node in document order. Returning false from fn skips
// the children of that node.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	t.walkFrom(t.root, 0, fn)
}

// WalkFrom is Walk restricted to the subtree at key.
func (t *Tree) WalkFrom(key common.Key, fn func(n *Node, depth int) bool) error {
	if !t.Has(key) {
		return common.ErrNodeNotFound{Key: key}
	}
	t.walkFrom(key, 0, fn)
	return nil
}

func (t *Tree) walkFrom(key common.Key, depth int, fn func(n *Node, depth int) bool) {
	n := t.nodes[key]
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		t.walkFrom(c, depth+1, fn)
	}
}

// TextContent returns the text of the subtree at key. Line breaks become
// newlines and sibling blocks are separated by blank lines.
func (t *Tree) TextContent(key common.Key) (string, error) {
	n, err := t.Node(key)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	t.writeText(&sb, n)
	return sb.String(), nil
}

func (t *Tree) writeText(sb *strings.Builder, n *Node) {
	if n.IsLeaf() {
		if tf := t.reg.textField(n); tf != "" {
			sb.WriteString(n.fields.String(tf))
		} else if n.typ == TypeLineBreak {
			sb.WriteByte('\n')
		}
		return
	}
	for i, c := range n.children {
		child := t.nodes[c]
		if i > 0 && child.IsStructural() && !t.reg.isInline(child.typ) {
			sb.WriteString("\n\n")
		}
		t.writeText(sb, child)
	}
}

// known reports whether key is or was part of the tree.
func (t *Tree) known(key common.Key) bool {
	if _, ok := t.nodes[key]; ok {
		return true
	}
	_, ok := t.retired[key]
	return ok
}

// Insert adds a detached node as the child of parentKey at index.
// Index len(children) appends. The tree keeps its own copy of n.
func (t *Tree) Insert(parentKey common.Key, index int, n *Node) error {
	if n == nil {
		return common.ErrInvalidPosition{Message: "nil node"}
	}
	if !n.parent.IsZero() || len(n.children) > 0 {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("node %s is attached to a tree, insert a fragment instead", n.key)}
	}
	return t.InsertFragment(parentKey, index, NewFragment(n))
}

// InsertFragment adds a detached subtree as the child of parentKey at index.
func (t *Tree) InsertFragment(parentKey common.Key, index int, f *Fragment) error {
	if err := t.checkInsertPosition(parentKey, index); err != nil {
		return err
	}
	if err := t.checkFragment(f); err != nil {
		return err
	}
	t.insertChecked(parentKey, index, f)
	return nil
}

func (t *Tree) checkInsertPosition(parentKey common.Key, index int) error {
	parent, ok := t.nodes[parentKey]
	if !ok {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("parent %s does not exist", parentKey)}
	}
	if parent.IsLeaf() {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("parent %s is a %s leaf", parentKey, parent.typ)}
	}
	if index < 0 || index > len(parent.children) {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("index %d outside [0, %d]", index, len(parent.children))}
	}
	return nil
}

func (t *Tree) insertChecked(parentKey common.Key, index int, f *Fragment) common.Key {
	parent := t.nodes[parentKey]
	key := t.attach(f, parentKey)
	parent.children = insertAt(parent.children, index, key)
	t.shiftSelection(parentKey, index, 1)
	return key
}

// Remove deletes the node at key and its whole subtree. Removed keys are
// retired. Selection endpoints inside the subtree move to the position the
// subtree used to occupy.
func (t *Tree) Remove(key common.Key) error {
	n, ok := t.nodes[key]
	if !ok {
		return common.ErrNodeNotFound{Key: key}
	}
	if key == t.root {
		return common.ErrInvalidPosition{Message: "cannot remove the root"}
	}
	t.removeChecked(n)
	return nil
}

func (t *Tree) removeChecked(n *Node) (parent common.Key, index int) {
	parent = n.parent
	p := t.nodes[parent]
	index = indexOf(p.children, n.key)

	removed := make(map[common.Key]struct{})
	t.walkFrom(n.key, 0, func(d *Node, _ int) bool {
		removed[d.key] = struct{}{}
		return true
	})
	for k := range removed {
		delete(t.nodes, k)
		t.retired[k] = struct{}{}
	}
	p.children = removeAt(p.children, index)
	t.renormalizeSelection(removed, parent, index)
	return parent, index
}

// Move detaches the subtree at key and inserts it under newParent at index.
// Index is interpreted after the subtree has been detached.
func (t *Tree) Move(key, newParent common.Key, index int) error {
	n, ok := t.nodes[key]
	if !ok {
		return common.ErrNodeNotFound{Key: key}
	}
	if key == t.root {
		return common.ErrInvalidPosition{Message: "cannot move the root"}
	}
	target, ok := t.nodes[newParent]
	if !ok {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("parent %s does not exist", newParent)}
	}
	if target.IsLeaf() {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("parent %s is a %s leaf", newParent, target.typ)}
	}
	for k := newParent; !k.IsZero(); k = t.nodes[k].parent {
		if k == key {
			return common.ErrInvalidPosition{Message: "cannot move a node below itself"}
		}
	}
	limit := len(target.children)
	if n.parent == newParent {
		limit--
	}
	if index < 0 || index > limit {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("index %d outside [0, %d]", index, limit)}
	}

	old := t.nodes[n.parent]
	oldIndex := indexOf(old.children, key)
	old.children = removeAt(old.children, oldIndex)
	t.shiftSelection(old.key, oldIndex, -1)

	n.parent = newParent
	target.children = insertAt(target.children, index, key)
	t.shiftSelection(newParent, index, 1)
	return nil
}

// Replace swaps the subtree at key for f, at the same position.
func (t *Tree) Replace(key common.Key, f *Fragment) error {
	n, ok := t.nodes[key]
	if !ok {
		return common.ErrNodeNotFound{Key: key}
	}
	if key == t.root {
		return common.ErrInvalidPosition{Message: "cannot replace the root"}
	}
	if err := t.checkFragment(f); err != nil {
		return err
	}
	parent, index := t.removeChecked(n)
	t.insertChecked(parent, index, f)
	return nil
}

// FieldMapper derives the fields of a replacement block from the fields of
// the block it replaces.
type FieldMapper func(old common.Fields) common.Fields

// ReplaceBlockType swaps the structural node at key for a new node of type
// newType at the same position. The children move to the new node and keep
// their keys. The new node gets a fresh key, which is returned; selection
// endpoints on the old node follow it.
func (t *Tree) ReplaceBlockType(key common.Key, newType string, mapper FieldMapper) (common.Key, error) {
	old, ok := t.nodes[key]
	if !ok {
		return common.NilKey, common.ErrNodeNotFound{Key: key}
	}
	if old.IsLeaf() {
		return common.NilKey, common.ErrNotAStructuralNode{Key: key, Type: old.typ}
	}
	if key == t.root {
		return common.NilKey, common.ErrInvalidPosition{Message: "cannot replace the root"}
	}
	class, ok := t.reg.Class(newType)
	if !ok {
		return common.NilKey, common.ErrUnknownNodeType{Type: newType}
	}
	if class.Kind != common.KindElement {
		return common.NilKey, common.ErrNotAStructuralNode{Key: key, Type: newType}
	}

	var fields common.Fields
	if mapper != nil {
		fields = mapper(old.Fields())
	}
	repl, err := t.reg.Create(newType, fields)
	if err != nil {
		return common.NilKey, err
	}

	repl.parent = old.parent
	repl.children = old.children
	for _, c := range repl.children {
		t.nodes[c].parent = repl.key
	}
	p := t.nodes[old.parent]
	p.children[indexOf(p.children, key)] = repl.key

	delete(t.nodes, key)
	t.retired[key] = struct{}{}
	t.nodes[repl.key] = repl
	t.remapSelection(key, repl.key)
	return repl.key, nil
}

// SetFields merges update into the payload of the node at key. A nil value
// deletes the field. The result is validated by the node class; on failure
// the node is left untouched.
func (t *Tree) SetFields(key common.Key, update common.Fields) error {
	n, ok := t.nodes[key]
	if !ok {
		return common.ErrNodeNotFound{Key: key}
	}
	merged := n.fields.Clone()
	for k, v := range update {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	f, err := t.reg.construct(n.typ, merged)
	if err != nil {
		return err
	}
	n.fields = f
	t.clampSelection(key)
	return nil
}

// Copy returns a deep copy of the tree that keeps every key.
func (t *Tree) Copy() *Tree {
	c := &Tree{
		reg:     t.reg,
		root:    t.root,
		nodes:   make(map[common.Key]*Node, len(t.nodes)),
		retired: make(map[common.Key]struct{}, len(t.retired)),
		sel:     t.sel,
	}
	for k, n := range t.nodes {
		c.nodes[k] = n.copyNode()
	}
	for k := range t.retired {
		c.retired[k] = struct{}{}
	}
	return c
}

// RetireFrom marks as retired every key prev has used that t does not hold:
// the keys prev retired and the live nodes of prev missing from t.
// Restoring an older version of a document through it keeps keys that left
// the document from being reused.
func (t *Tree) RetireFrom(prev *Tree) {
	for k := range prev.retired {
		if _, live := t.nodes[k]; !live {
			t.retired[k] = struct{}{}
		}
	}
	for k := range prev.nodes {
		if _, live := t.nodes[k]; !live {
			t.retired[k] = struct{}{}
		}
	}
}

// Fragment returns a detached copy of the subtree at key that keeps keys.
func (t *Tree) Fragment(key common.Key) (*Fragment, error) {
	if !t.Has(key) {
		return nil, common.ErrNodeNotFound{Key: key}
	}
	return t.fragment(key, false), nil
}

// CloneSubtree returns a detached copy of the subtree at key in which every
// node has a fresh key.
func (t *Tree) CloneSubtree(key common.Key) (*Fragment, error) {
	if !t.Has(key) {
		return nil, common.ErrNodeNotFound{Key: key}
	}
	return t.fragment(key, true), nil
}

func (t *Tree) fragment(key common.Key, fresh bool) *Fragment {
	n := t.nodes[key]
	f := &Fragment{Node: n.detached()}
	if fresh {
		f.Node = Clone(n)
	}
	for _, c := range n.children {
		f.Children = append(f.Children, t.fragment(c, fresh))
	}
	return f
}

func indexOf(keys []common.Key, key common.Key) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func insertAt(keys []common.Key, index int, key common.Key) []common.Key {
	keys = append(keys, common.NilKey)
	copy(keys[index+1:], keys[index:])
	keys[index] = key
	return keys
}

func removeAt(keys []common.Key, index int) []common.Key {
	res := make([]common.Key, 0, len(keys)-1)
	res = append(res, keys[:index]...)
	return append(res, keys[index+1:]...)
}
