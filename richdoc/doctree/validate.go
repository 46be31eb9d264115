package doctree

import (
	"fmt"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// Validate checks the tree invariants: a single parentless root, every other
// node listed exactly once by its parent, unique keys, leaves without
// children, and a selection that only references live nodes.
func (t *Tree) Validate() error {
	root, ok := t.nodes[t.root]
	if !ok {
		return violation("root %s is missing", t.root)
	}
	if !root.parent.IsZero() {
		return violation("root %s has parent %s", t.root, root.parent)
	}

	for key, n := range t.nodes {
		if n.key != key {
			return violation("node %s stored under key %s", n.key, key)
		}
		if n.IsLeaf() && len(n.children) > 0 {
			return violation("leaf %s (%s) has %d children", key, n.typ, len(n.children))
		}
		if key == t.root {
			continue
		}
		p, ok := t.nodes[n.parent]
		if !ok {
			return violation("node %s has missing parent %s", key, n.parent)
		}
		count := 0
		for _, c := range p.children {
			if c == key {
				count++
			}
		}
		if count != 1 {
			return violation("node %s appears %d times in parent %s", key, count, n.parent)
		}
	}

	seen := make(map[common.Key]struct{}, len(t.nodes))
	var walkErr error
	var visit func(key common.Key)
	visit = func(key common.Key) {
		if walkErr != nil {
			return
		}
		if _, dup := seen[key]; dup {
			walkErr = violation("node %s is reachable twice", key)
			return
		}
		seen[key] = struct{}{}
		n, ok := t.nodes[key]
		if !ok {
			walkErr = violation("child %s is missing", key)
			return
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(t.root)
	if walkErr != nil {
		return walkErr
	}
	if len(seen) != len(t.nodes) {
		return violation("%d nodes are not reachable from the root", len(t.nodes)-len(seen))
	}

	if !t.sel.IsEmpty() {
		if err := t.checkPoint(t.sel.Anchor); err != nil {
			return violation("selection anchor: %v", err)
		}
		if err := t.checkPoint(t.sel.Focus); err != nil {
			return violation("selection focus: %v", err)
		}
	}
	return nil
}

func violation(format string, args ...any) error {
	return common.ErrInvariantViolation{Message: fmt.Sprintf(format, args...)}
}

// Equal reports whether a and b hold the same nodes with the same keys,
// links and fields. The selection is not compared.
func Equal(a, b *Tree) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.root != b.root || len(a.nodes) != len(b.nodes) {
		return false
	}
	for k, na := range a.nodes {
		nb, ok := b.nodes[k]
		if !ok || !sameNode(na, nb) || na.parent != nb.parent {
			return false
		}
		if len(na.children) != len(nb.children) {
			return false
		}
		for i := range na.children {
			if na.children[i] != nb.children[i] {
				return false
			}
		}
	}
	return true
}

// Isomorphic reports whether a and b have the same shape, types and fields,
// ignoring keys.
func Isomorphic(a, b *Tree) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.isomorphic(a.root, b, b.root)
}

func (t *Tree) isomorphic(ka common.Key, o *Tree, kb common.Key) bool {
	na, nb := t.nodes[ka], o.nodes[kb]
	if !sameNode(na, nb) || len(na.children) != len(nb.children) {
		return false
	}
	for i := range na.children {
		if !t.isomorphic(na.children[i], o, nb.children[i]) {
			return false
		}
	}
	return true
}

// FragmentIsomorphic is Isomorphic for detached subtrees.
func FragmentIsomorphic(a, b *Fragment) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !sameNode(a.Node, b.Node) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !FragmentIsomorphic(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func sameNode(a, b *Node) bool {
	return a.typ == b.typ && a.kind == b.kind && a.fields.Equal(b.fields)
}
