package doctree

import (
	"github.com/RamRamez/test-editors/richdoc/common"
)

// Node is a single addressable unit of a document.
// Nodes are created by a Registry and mutated only through a Tree, so every
// exported method is a read.
type Node struct {
	// key is assigned at creation and never reused.
	key common.Key

	// typ is the registered type tag. It never changes.
	typ string

	// kind is copied from the class at creation.
	kind common.Kind

	// fields is the normalized, type-specific payload.
	fields common.Fields

	// parent is a lookup relation only. It is the zero key for the root and
	// for detached nodes.
	parent common.Key

	// children holds child keys in document order. Always empty for leaves.
	children []common.Key
}

// Key returns the unique identifier of the node.
func (n *Node) Key() common.Key {
	return n.key
}

// Type returns the type tag of the node.
func (n *Node) Type() string {
	return n.typ
}

// Kind returns whether the node is structural or a leaf.
func (n *Node) Kind() common.Kind {
	return n.kind
}

// IsLeaf reports whether the node carries an opaque payload and no children.
func (n *Node) IsLeaf() bool {
	return n.kind == common.KindLeaf
}

// IsStructural reports whether the node may own children.
func (n *Node) IsStructural() bool {
	return n.kind == common.KindElement
}

// Parent returns the key of the owning node, or the zero key.
func (n *Node) Parent() common.Key {
	return n.parent
}

// Children returns a copy of the child keys.
func (n *Node) Children() []common.Key {
	res := make([]common.Key, len(n.children))
	copy(res, n.children)
	return res
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Fields returns a deep copy of the node payload.
func (n *Node) Fields() common.Fields {
	return n.fields.Clone()
}

// Field returns a single payload value. Nested maps and slices are copied.
func (n *Node) Field(name string) (any, bool) {
	v, ok := n.fields[name]
	if !ok {
		return nil, false
	}
	return common.Fields{name: v}.Clone()[name], true
}

// copyNode returns a deep copy that keeps the key.
func (n *Node) copyNode() *Node {
	return &Node{
		key:      n.key,
		typ:      n.typ,
		kind:     n.kind,
		fields:   n.fields.Clone(),
		parent:   n.parent,
		children: n.Children(),
	}
}

// detached returns a copy with the key and payload of n but no tree links.
func (n *Node) detached() *Node {
	return &Node{
		key:    n.key,
		typ:    n.typ,
		kind:   n.kind,
		fields: n.fields.Clone(),
	}
}

// Clone returns a new detached node of the same type with a fresh key and a
// deep copy of the payload. Children are not cloned, see Tree.CloneSubtree.
func Clone(n *Node) *Node {
	c := n.detached()
	c.key = common.NextKey()
	return c
}
