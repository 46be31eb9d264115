package docedit

import (
	"fmt"

	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// Command is a discrete edit resolved against the current selection and
// applied as one transaction by Session.Dispatch.
type Command interface {
	Name() string
	Apply(tx *Tx) error
}

// Text format bits stored in the format field of text nodes.
const (
	FormatBold = 1 << iota
	FormatItalic
	FormatStrikethrough
	FormatUnderline
	FormatCode
	FormatSubscript
	FormatSuperscript
	FormatHighlight
)

var formatBits = map[string]int64{
	"bold":          FormatBold,
	"italic":        FormatItalic,
	"strikethrough": FormatStrikethrough,
	"underline":     FormatUnderline,
	"code":          FormatCode,
	"subscript":     FormatSubscript,
	"superscript":   FormatSuperscript,
	"highlight":     FormatHighlight,
}

// FormatBit returns the format bit of a mark name.
func FormatBit(mark string) (int64, bool) {
	b, ok := formatBits[mark]
	return b, ok
}

// HasFormat reports whether the text node n carries mark.
func HasFormat(n *doctree.Node, mark string) bool {
	bit, ok := FormatBit(mark)
	if !ok {
		return false
	}
	f, _ := n.Fields().Int("format")
	return f&bit != 0
}

// FormatText toggles a mark over the selected text. Text nodes are split at
// the range boundaries so only the selected characters change. If every
// selected text node already has the mark it is removed, otherwise it is
// added. A collapsed selection changes nothing.
type FormatText struct {
	Mark string
}

func (c FormatText) Name() string { return "formatText" }

func (c FormatText) Apply(tx *Tx) error {
	bit, ok := FormatBit(c.Mark)
	if !ok {
		return common.ErrInvalidFields{Type: doctree.TypeText, Message: fmt.Sprintf("unknown format %q", c.Mark)}
	}
	tree := tx.Tree()
	sel := tree.Selection()
	if sel.IsEmpty() {
		return common.ErrNoActiveSelection{Op: c.Name()}
	}
	if sel.IsCollapsed() {
		return nil
	}
	start, end, err := tree.SelectionBounds()
	if err != nil {
		return err
	}

	if inside(tree, end) {
		if _, err := tx.SplitText(end.Key, end.Offset); err != nil {
			return err
		}
	}
	if inside(tree, start) {
		rest, err := tx.SplitText(start.Key, start.Offset)
		if err != nil {
			return err
		}
		if end.Key == start.Key {
			end = doctree.Point{Key: rest, Offset: end.Offset - start.Offset}
		}
		start = doctree.Point{Key: rest, Offset: 0}
	}

	texts, err := selectedText(tree, start, end)
	if err != nil || len(texts) == 0 {
		return err
	}

	all := true
	for _, n := range texts {
		if f, _ := n.Fields().Int("format"); f&bit == 0 {
			all = false
			break
		}
	}
	for _, n := range texts {
		f, _ := n.Fields().Int("format")
		if all {
			f &^= bit
		} else {
			f |= bit
		}
		if err := tx.SetFields(n.Key(), common.Fields{"format": f}); err != nil {
			return err
		}
	}
	return nil
}

// inside reports whether p lies strictly inside a text node.
func inside(tree *doctree.Tree, p doctree.Point) bool {
	n, err := tree.Node(p.Key)
	if err != nil || n.Type() != doctree.TypeText {
		return false
	}
	limit, _ := tree.MaxOffset(p.Key)
	return p.Offset > 0 && p.Offset < limit
}

// selectedText returns the non-empty text nodes overlapping [start, end].
func selectedText(tree *doctree.Tree, start, end doctree.Point) ([]*doctree.Node, error) {
	var res []*doctree.Node
	var walkErr error
	tree.Walk(func(n *doctree.Node, _ int) bool {
		if walkErr != nil || n.Type() != doctree.TypeText {
			return walkErr == nil
		}
		limit, _ := tree.MaxOffset(n.Key())
		if limit == 0 {
			return true
		}
		before, err := tree.ComparePoints(doctree.Point{Key: n.Key(), Offset: 0}, end)
		if err != nil {
			walkErr = err
			return false
		}
		after, err := tree.ComparePoints(doctree.Point{Key: n.Key(), Offset: limit}, start)
		if err != nil {
			walkErr = err
			return false
		}
		if before < 0 && after > 0 {
			res = append(res, n)
		}
		return true
	})
	return res, walkErr
}

// SetBlockType replaces every block touched by the selection with a block of
// Type, keeping the children. Fields are applied to each new block.
type SetBlockType struct {
	Type   string
	Fields common.Fields
}

func (c SetBlockType) Name() string { return "setBlockType" }

func (c SetBlockType) Apply(tx *Tx) error {
	blocks, err := selectedBlocks(tx.Tree(), c.Name())
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if _, err := tx.ReplaceBlockType(b.Key(), c.Type, func(common.Fields) common.Fields {
			return c.Fields.Clone()
		}); err != nil {
			return err
		}
	}
	return nil
}

// InsertList turns the selected blocks into items of a new list. Runs of
// adjacent blocks under the same parent share one list. Selected items of an
// existing list switch that list to the requested type instead.
type InsertList struct {
	Ordered bool
}

func (c InsertList) Name() string { return "insertList" }

func (c InsertList) listType() string {
	if c.Ordered {
		return doctree.ListNumber
	}
	return doctree.ListBullet
}

func (c InsertList) Apply(tx *Tx) error {
	tree := tx.Tree()
	blocks, err := selectedBlocks(tree, c.Name())
	if err != nil {
		return err
	}

	switched := make(map[common.Key]bool)
	var run []*doctree.Node
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		err := c.wrap(tx, run)
		run = nil
		return err
	}

	for _, b := range blocks {
		if b.Type() == doctree.TypeListItem {
			if err := flush(); err != nil {
				return err
			}
			list := b.Parent()
			if !switched[list] {
				switched[list] = true
				if err := tx.SetFields(list, common.Fields{"listType": c.listType()}); err != nil {
					return err
				}
			}
			continue
		}
		if len(run) > 0 && !adjacent(tree, run[len(run)-1], b) {
			if err := flush(); err != nil {
				return err
			}
		}
		run = append(run, b)
	}
	return flush()
}

func adjacent(tree *doctree.Tree, a, b *doctree.Node) bool {
	if a.Parent() != b.Parent() {
		return false
	}
	ia, _ := tree.IndexOf(a.Key())
	ib, _ := tree.IndexOf(b.Key())
	return ib == ia+1
}

// wrap replaces a run of sibling blocks with one list holding an item per block.
func (c InsertList) wrap(tx *Tx, run []*doctree.Node) error {
	tree := tx.Tree()
	parent := run[0].Parent()
	index, err := tree.IndexOf(run[0].Key())
	if err != nil {
		return err
	}
	list, err := tx.Create(doctree.TypeList, common.Fields{"listType": c.listType()})
	if err != nil {
		return err
	}
	if err := tx.Insert(parent, index, list); err != nil {
		return err
	}
	for i, b := range run {
		item, err := tx.Create(doctree.TypeListItem, common.Fields{"value": i + 1})
		if err != nil {
			return err
		}
		if err := tx.Insert(list.Key(), i, item); err != nil {
			return err
		}
		if err := moveChildren(tx, b.Key(), item.Key()); err != nil {
			return err
		}
		if err := tx.Remove(b.Key()); err != nil {
			return err
		}
	}
	return nil
}

// RemoveList turns the items of every list touched by the selection into
// paragraphs placed where the list was.
type RemoveList struct{}

func (c RemoveList) Name() string { return "removeList" }

func (c RemoveList) Apply(tx *Tx) error {
	tree := tx.Tree()
	blocks, err := selectedBlocks(tree, c.Name())
	if err != nil {
		return err
	}

	var lists []common.Key
	seen := make(map[common.Key]bool)
	for _, b := range blocks {
		if b.Type() != doctree.TypeListItem || seen[b.Parent()] {
			continue
		}
		seen[b.Parent()] = true
		lists = append(lists, b.Parent())
	}

	for _, key := range lists {
		list, err := tree.Node(key)
		if err != nil {
			return err
		}
		index, err := tree.IndexOf(key)
		if err != nil {
			return err
		}
		for i, item := range list.Children() {
			p, err := tx.Create(doctree.TypeParagraph, nil)
			if err != nil {
				return err
			}
			if err := tx.Insert(list.Parent(), index+i, p); err != nil {
				return err
			}
			if err := moveChildren(tx, item, p.Key()); err != nil {
				return err
			}
		}
		if err := tx.Remove(key); err != nil {
			return err
		}
	}
	return nil
}

// InsertNode inserts a detached subtree at the selection and puts the caret
// after it. A fragment can be inserted once: its keys belong to the document
// afterwards.
type InsertNode struct {
	Fragment *doctree.Fragment
}

func (c InsertNode) Name() string { return "insertNode" }

func (c InsertNode) Apply(tx *Tx) error {
	return tx.InsertFragmentAtSelection(c.Fragment)
}

func moveChildren(tx *Tx, from, to common.Key) error {
	n, err := tx.Tree().Node(from)
	if err != nil {
		return err
	}
	for i, c := range n.Children() {
		if err := tx.Move(c, to, i); err != nil {
			return err
		}
	}
	return nil
}

// blockOf returns the nearest block ancestor of key: a structural node that
// is not inline and not the root.
func blockOf(tree *doctree.Tree, key common.Key) (*doctree.Node, bool) {
	for k := key; k != tree.RootKey(); {
		n, err := tree.Node(k)
		if err != nil {
			return nil, false
		}
		if isBlock(tree, n) {
			return n, true
		}
		k = n.Parent()
	}
	return nil, false
}

func isBlock(tree *doctree.Tree, n *doctree.Node) bool {
	if !n.IsStructural() {
		return false
	}
	c, ok := tree.Registry().Class(n.Type())
	return !ok || !c.Inline
}

// isTextBlock reports whether n is a block holding no other blocks.
func isTextBlock(tree *doctree.Tree, n *doctree.Node) bool {
	if !isBlock(tree, n) {
		return false
	}
	children, _ := tree.Children(n.Key())
	for _, c := range children {
		if isBlock(tree, c) {
			return false
		}
	}
	return true
}

// selectedBlocks returns, in document order, the innermost blocks that
// overlap the selection.
func selectedBlocks(tree *doctree.Tree, op string) ([]*doctree.Node, error) {
	if tree.Selection().IsEmpty() {
		return nil, common.ErrNoActiveSelection{Op: op}
	}
	start, end, err := tree.SelectionBounds()
	if err != nil {
		return nil, err
	}

	var res []*doctree.Node
	var walkErr error
	tree.Walk(func(n *doctree.Node, _ int) bool {
		if walkErr != nil {
			return false
		}
		if n.Key() == tree.RootKey() {
			return true
		}
		if !isTextBlock(tree, n) {
			return true
		}
		first, err := tree.ComparePoints(doctree.Point{Key: n.Key(), Offset: 0}, end)
		if err != nil {
			walkErr = err
			return false
		}
		last, err := tree.ComparePoints(doctree.Point{Key: n.Key(), Offset: n.ChildCount()}, start)
		if err != nil {
			walkErr = err
			return false
		}
		if first <= 0 && last >= 0 {
			res = append(res, n)
		}
		return false
	})
	if walkErr != nil {
		return nil, walkErr
	}

	// a caret between blocks addresses the block after it
	if len(res) == 0 && start == end && start.Key == tree.RootKey() {
		children := tree.Root().Children()
		if i := start.Offset; i < len(children) {
			if b, ok := blockOf(tree, children[i]); ok {
				res = append(res, b)
			}
		}
	}
	return res, nil
}
