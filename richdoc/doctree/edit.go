package doctree

import (
	"fmt"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// SplitText splits the text-like leaf at key so that the first offset runes
// stay in key and the rest move to a new sibling right after it. It returns
// the key of the new sibling. Offset must lie strictly inside the text.
func (t *Tree) SplitText(key common.Key, offset int) (common.Key, error) {
	n, ok := t.nodes[key]
	if !ok {
		return common.NilKey, common.ErrNodeNotFound{Key: key}
	}
	tf := t.reg.textField(n)
	if tf == "" {
		return common.NilKey, common.ErrInvalidPosition{Message: fmt.Sprintf("%s is not a text node", n.typ)}
	}
	runes := []rune(n.fields.String(tf))
	if offset <= 0 || offset >= len(runes) {
		return common.NilKey, common.ErrInvalidPosition{Message: fmt.Sprintf("split offset %d outside (0, %d)", offset, len(runes))}
	}

	restFields := n.fields.Clone()
	restFields[tf] = string(runes[offset:])
	rest, err := t.reg.Create(n.typ, restFields)
	if err != nil {
		return common.NilKey, err
	}

	parent := t.nodes[n.parent]
	index := indexOf(parent.children, key)
	n.fields[tf] = string(runes[:offset])
	t.insertChecked(n.parent, index+1, NewFragment(rest))

	move := func(p *Point) {
		if p.Key == key && p.Offset > offset {
			*p = Point{Key: rest.key, Offset: p.Offset - offset}
		}
	}
	move(&t.sel.Anchor)
	move(&t.sel.Focus)
	return rest.key, nil
}

// InsertAtSelection inserts n at the start of the selection and collapses
// the selection to just after it. With an empty selection the tree is left
// unchanged and ErrNoActiveSelection is returned.
func (t *Tree) InsertAtSelection(n *Node) error {
	if n == nil {
		return common.ErrInvalidPosition{Message: "nil node"}
	}
	return t.InsertFragmentAtSelection(NewFragment(n))
}

// InsertFragmentAtSelection is InsertAtSelection for a subtree.
// A text leaf under the insertion point is split. An inline fragment
// inserted directly under the root is wrapped in a new paragraph.
func (t *Tree) InsertFragmentAtSelection(f *Fragment) error {
	if t.sel.IsEmpty() {
		return common.ErrNoActiveSelection{Op: "insert"}
	}
	if err := t.checkFragment(f); err != nil {
		return err
	}
	start, _, err := t.SelectionBounds()
	if err != nil {
		return err
	}

	parent, index, err := t.resolveInsertPoint(start)
	if err != nil {
		return err
	}

	if parent == t.root && t.reg.isInline(f.Node.typ) {
		if _, ok := t.reg.Class(TypeParagraph); ok {
			p, err := t.reg.Create(TypeParagraph, nil)
			if err != nil {
				return err
			}
			t.insertChecked(parent, index, NewFragment(p, f))
			t.sel = Caret(Point{Key: p.key, Offset: 1})
			return nil
		}
	}

	t.insertChecked(parent, index, f)
	t.sel = Caret(Point{Key: parent, Offset: index + 1})
	return nil
}

// resolveInsertPoint turns a point into a child position, splitting a text
// leaf when the point lies inside it.
func (t *Tree) resolveInsertPoint(p Point) (parent common.Key, index int, err error) {
	n, ok := t.nodes[p.Key]
	if !ok {
		return common.NilKey, 0, common.ErrNodeNotFound{Key: p.Key}
	}
	if n.IsStructural() {
		return n.key, p.Offset, nil
	}

	index = indexOf(t.nodes[n.parent].children, n.key)
	switch {
	case p.Offset <= 0:
		return n.parent, index, nil
	case p.Offset >= t.maxOffset(n):
		return n.parent, index + 1, nil
	}
	if _, err := t.SplitText(n.key, p.Offset); err != nil {
		return common.NilKey, 0, err
	}
	return n.parent, index + 1, nil
}
