package doctree

import (
	"github.com/RamRamez/test-editors/richdoc/common"
)

// Fragment is a detached subtree: a node plus its children in order.
// Fragments are produced by import and by CloneSubtree, and inserted with
// Tree.InsertFragment.
type Fragment struct {
	Node     *Node
	Children []*Fragment
}

// NewFragment builds a fragment from a node and child fragments.
func NewFragment(n *Node, children ...*Fragment) *Fragment {
	return &Fragment{Node: n, Children: children}
}

// Len returns the number of nodes in the fragment.
func (f *Fragment) Len() int {
	if f == nil {
		return 0
	}
	n := 1
	for _, c := range f.Children {
		n += c.Len()
	}
	return n
}

// Walk visits the fragment in document order.
func (f *Fragment) Walk(fn func(f *Fragment, depth int)) {
	f.walk(fn, 0)
}

func (f *Fragment) walk(fn func(f *Fragment, depth int), depth int) {
	fn(f, depth)
	if f == nil {
		return
	}
	for _, c := range f.Children {
		c.walk(fn, depth+1)
	}
}

// checkFragment validates the fragment shape and that none of its keys are known to t.
func (t *Tree) checkFragment(f *Fragment) error {
	if f == nil || f.Node == nil {
		return common.ErrInvalidPosition{Message: "empty fragment"}
	}
	seen := make(map[common.Key]struct{}, f.Len())
	var err error
	f.Walk(func(fr *Fragment, _ int) {
		if err != nil {
			return
		}
		if fr == nil || fr.Node == nil {
			err = common.ErrInvalidPosition{Message: "fragment contains an empty node"}
			return
		}
		n := fr.Node
		if n.IsLeaf() && len(fr.Children) > 0 {
			err = common.ErrInvalidPosition{Message: "leaf " + n.typ + " cannot own children"}
			return
		}
		if _, dup := seen[n.key]; dup || t.known(n.key) {
			err = common.ErrDuplicateKey{Key: n.key}
			return
		}
		seen[n.key] = struct{}{}
	})
	return err
}

// attach stores copies of the fragment nodes below parent and returns the
// key of the fragment root. The fragment must have passed checkFragment.
func (t *Tree) attach(f *Fragment, parent common.Key) common.Key {
	n := f.Node.detached()
	n.parent = parent
	t.nodes[n.key] = n
	for _, c := range f.Children {
		n.children = append(n.children, t.attach(c, n.key))
	}
	return n.key
}
