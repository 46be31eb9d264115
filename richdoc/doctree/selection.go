package doctree

import (
	"fmt"
	"unicode/utf8"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// Point addresses a position inside a node.
// For text-like leaves Offset counts runes of the text field, for other
// leaves it is 0 (before) or 1 (after), and for structural nodes it is a
// child index in [0, len(children)].
type Point struct {
	Key    common.Key
	Offset int
}

func (p Point) String() string {
	return fmt.Sprintf("%s:%d", p.Key, p.Offset)
}

// Selection is empty, a caret (anchor equals focus) or a range.
type Selection struct {
	Anchor Point
	Focus  Point
}

// Caret returns a collapsed selection at p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

// Range returns a selection from anchor to focus.
func Range(anchor, focus Point) Selection {
	return Selection{Anchor: anchor, Focus: focus}
}

// IsEmpty reports whether the selection addresses nothing.
func (s Selection) IsEmpty() bool {
	return s.Anchor.Key.IsZero()
}

// IsCollapsed reports whether the selection is a caret.
func (s Selection) IsCollapsed() bool {
	return !s.IsEmpty() && s.Anchor == s.Focus
}

// Selection returns the current selection.
func (t *Tree) Selection() Selection {
	return t.sel
}

// SetSelection validates both endpoints and replaces the selection.
func (t *Tree) SetSelection(s Selection) error {
	if s.IsEmpty() {
		t.sel = Selection{}
		return nil
	}
	if err := t.checkPoint(s.Anchor); err != nil {
		return err
	}
	if err := t.checkPoint(s.Focus); err != nil {
		return err
	}
	t.sel = s
	return nil
}

// CollapseTo sets both anchor and focus to (key, offset).
func (t *Tree) CollapseTo(key common.Key, offset int) error {
	return t.SetSelection(Caret(Point{Key: key, Offset: offset}))
}

// ClearSelection empties the selection.
func (t *Tree) ClearSelection() {
	t.sel = Selection{}
}

// SelectionBounds returns the selection endpoints in document order.
func (t *Tree) SelectionBounds() (start, end Point, err error) {
	if t.sel.IsEmpty() {
		return Point{}, Point{}, common.ErrNoActiveSelection{}
	}
	c, err := t.ComparePoints(t.sel.Anchor, t.sel.Focus)
	if err != nil {
		return Point{}, Point{}, err
	}
	if c <= 0 {
		return t.sel.Anchor, t.sel.Focus, nil
	}
	return t.sel.Focus, t.sel.Anchor, nil
}

// ComparePoints orders two points in document order.
func (t *Tree) ComparePoints(a, b Point) (int, error) {
	pa, err := t.Path(a.Key)
	if err != nil {
		return 0, err
	}
	pb, err := t.Path(b.Key)
	if err != nil {
		return 0, err
	}
	return compareInts(append(pa, a.Offset), append(pb, b.Offset)), nil
}

// compareInts compares lexicographically; a proper prefix sorts first.
func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// MaxOffset returns the largest valid offset inside the node at key.
func (t *Tree) MaxOffset(key common.Key) (int, error) {
	n, err := t.Node(key)
	if err != nil {
		return 0, err
	}
	return t.maxOffset(n), nil
}

func (t *Tree) maxOffset(n *Node) int {
	if n.IsStructural() {
		return len(n.children)
	}
	if tf := t.reg.textField(n); tf != "" {
		return utf8.RuneCountInString(n.fields.String(tf))
	}
	return 1
}

func (t *Tree) checkPoint(p Point) error {
	n, ok := t.nodes[p.Key]
	if !ok {
		return common.ErrNodeNotFound{Key: p.Key}
	}
	if limit := t.maxOffset(n); p.Offset < 0 || p.Offset > limit {
		return common.ErrInvalidPosition{Message: fmt.Sprintf("offset %d outside [0, %d] in %s", p.Offset, limit, n.typ)}
	}
	return nil
}

// shiftSelection moves element points of parent that lie after index by delta.
func (t *Tree) shiftSelection(parent common.Key, index, delta int) {
	if t.sel.IsEmpty() {
		return
	}
	shift := func(p *Point) {
		if p.Key == parent && p.Offset > index {
			p.Offset += delta
		}
	}
	shift(&t.sel.Anchor)
	shift(&t.sel.Focus)
}

// renormalizeSelection handles the removal of a subtree that sat at index
// below parent.
func (t *Tree) renormalizeSelection(removed map[common.Key]struct{}, parent common.Key, index int) {
	if t.sel.IsEmpty() {
		return
	}
	fix := func(p *Point) {
		if _, gone := removed[p.Key]; gone {
			*p = Point{Key: parent, Offset: index}
			return
		}
		if p.Key == parent && p.Offset > index {
			p.Offset--
		}
	}
	fix(&t.sel.Anchor)
	fix(&t.sel.Focus)
}

// remapSelection moves endpoints from one node to its replacement.
func (t *Tree) remapSelection(from, to common.Key) {
	if t.sel.Anchor.Key == from {
		t.sel.Anchor.Key = to
	}
	if t.sel.Focus.Key == from {
		t.sel.Focus.Key = to
	}
}

// clampSelection keeps endpoints on key within the node bounds.
func (t *Tree) clampSelection(key common.Key) {
	limit := t.maxOffset(t.nodes[key])
	clamp := func(p *Point) {
		if p.Key == key && p.Offset > limit {
			p.Offset = limit
		}
	}
	clamp(&t.sel.Anchor)
	clamp(&t.sel.Focus)
}
