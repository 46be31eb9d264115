package doctree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RamRamez/test-editors/richdoc/common"
)

func TestSetSelectionValidatesEndpoints(t *testing.T) {
	tree, _ := newTestTree(t)
	para, txt := paragraph(t, tree, "héllo")

	require.NoError(t, tree.CollapseTo(txt, 5))
	assert.True(t, tree.Selection().IsCollapsed())

	err := tree.CollapseTo(txt, 6)
	assert.True(t, errors.Is(err, common.ErrInvalidPosition{}))

	err = tree.CollapseTo(para, 2)
	assert.True(t, errors.Is(err, common.ErrInvalidPosition{}))

	err = tree.CollapseTo(common.NextKey(), 0)
	assert.True(t, errors.Is(err, common.ErrNodeNotFound{}))

	// failed calls keep the previous selection
	assert.Equal(t, Point{Key: txt, Offset: 5}, tree.Selection().Anchor)

	tree.ClearSelection()
	assert.True(t, tree.Selection().IsEmpty())
	assert.False(t, tree.Selection().IsCollapsed())
}

func TestComparePoints(t *testing.T) {
	tree, _ := newTestTree(t)
	p1, t1 := paragraph(t, tree, "one")
	_, t2 := paragraph(t, tree, "two")
	root := tree.RootKey()

	tests := []struct {
		name string
		a, b Point
		want int
	}{
		{"same text", Point{t1, 1}, Point{t1, 2}, -1},
		{"across blocks", Point{t2, 0}, Point{t1, 3}, 1},
		{"element before child", Point{p1, 0}, Point{t1, 0}, -1},
		{"element after child", Point{p1, 1}, Point{t1, 3}, 1},
		{"root between blocks", Point{root, 1}, Point{t2, 0}, -1},
		{"equal", Point{t2, 2}, Point{t2, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tree.ComparePoints(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectionBoundsOrdersBackwardRanges(t *testing.T) {
	tree, _ := newTestTree(t)
	_, t1 := paragraph(t, tree, "one")
	_, t2 := paragraph(t, tree, "two")

	require.NoError(t, tree.SetSelection(Range(Point{t2, 1}, Point{t1, 2})))
	start, end, err := tree.SelectionBounds()
	require.NoError(t, err)
	assert.Equal(t, Point{t1, 2}, start)
	assert.Equal(t, Point{t2, 1}, end)

	tree.ClearSelection()
	_, _, err = tree.SelectionBounds()
	assert.True(t, errors.Is(err, common.ErrNoActiveSelection{}))
}

func TestSplitText(t *testing.T) {
	tree, _ := newTestTree(t)
	para, txt := paragraph(t, tree, "hello")
	require.NoError(t, tree.SetSelection(Range(Point{txt, 1}, Point{txt, 4})))

	rest, err := tree.SplitText(txt, 2)
	require.NoError(t, err)

	left, _ := tree.Node(txt)
	right, _ := tree.Node(rest)
	assert.Equal(t, "he", left.Fields().String("text"))
	assert.Equal(t, "llo", right.Fields().String("text"))
	assert.Equal(t, []common.Key{txt, rest}, mustNode(t, tree, para).Children())

	sel := tree.Selection()
	assert.Equal(t, Point{txt, 1}, sel.Anchor)
	assert.Equal(t, Point{rest, 2}, sel.Focus)

	_, err = tree.SplitText(txt, 0)
	assert.True(t, errors.Is(err, common.ErrInvalidPosition{}))
	_, err = tree.SplitText(para, 1)
	assert.True(t, errors.Is(err, common.ErrInvalidPosition{}))
	assert.NoError(t, tree.Validate())
}

func TestInsertAtSelectionWithoutSelectionIsNoop(t *testing.T) {
	tree, reg := newTestTree(t)
	_, _ = paragraph(t, tree, "hello")
	before := tree.Copy()

	err := tree.InsertAtSelection(reg.MustCreate(TypeImage, common.Fields{"src": "x.png"}))
	assert.True(t, errors.Is(err, common.ErrNoActiveSelection{}))
	assert.True(t, Equal(before, tree))
	assert.True(t, tree.Selection().IsEmpty())
}

func TestInsertAtSelectionSplitsText(t *testing.T) {
	tree, reg := newTestTree(t)
	para, txt := paragraph(t, tree, "hello")
	require.NoError(t, tree.CollapseTo(txt, 2))

	img := reg.MustCreate(TypeImage, common.Fields{"src": "data:image/png;base64,AAAA"})
	require.NoError(t, tree.InsertAtSelection(img))

	children := mustNode(t, tree, para).Children()
	require.Len(t, children, 3)
	assert.Equal(t, txt, children[0])
	assert.Equal(t, img.Key(), children[1])
	assert.Equal(t, "llo", mustNode(t, tree, children[2]).Fields().String("text"))
	assert.Equal(t, Caret(Point{para, 2}), tree.Selection())
	assert.NoError(t, tree.Validate())
}

func TestInsertAtSelectionTextEdges(t *testing.T) {
	tree, reg := newTestTree(t)
	para, txt := paragraph(t, tree, "hi")

	require.NoError(t, tree.CollapseTo(txt, 0))
	first := reg.MustCreate(TypeLineBreak, nil)
	require.NoError(t, tree.InsertAtSelection(first))
	assert.Equal(t, []common.Key{first.Key(), txt}, mustNode(t, tree, para).Children())

	require.NoError(t, tree.CollapseTo(txt, 2))
	last := reg.MustCreate(TypeLineBreak, nil)
	require.NoError(t, tree.InsertAtSelection(last))
	assert.Equal(t, []common.Key{first.Key(), txt, last.Key()}, mustNode(t, tree, para).Children())
	assert.Equal(t, Caret(Point{para, 3}), tree.Selection())
}

func TestInsertAtSelectionCollapsesRangeToStart(t *testing.T) {
	tree, reg := newTestTree(t)
	p1, t1 := paragraph(t, tree, "one")
	_, t2 := paragraph(t, tree, "two")
	require.NoError(t, tree.SetSelection(Range(Point{t2, 1}, Point{t1, 3})))

	br := reg.MustCreate(TypeLineBreak, nil)
	require.NoError(t, tree.InsertAtSelection(br))

	assert.Equal(t, []common.Key{t1, br.Key()}, mustNode(t, tree, p1).Children())
	assert.True(t, tree.Has(t2))
	assert.Equal(t, Caret(Point{p1, 2}), tree.Selection())
}

func TestInsertInlineUnderRootIsWrapped(t *testing.T) {
	tree, reg := newTestTree(t)
	_, _ = paragraph(t, tree, "one")
	require.NoError(t, tree.CollapseTo(tree.RootKey(), 1))

	img := reg.MustCreate(TypeImage, common.Fields{"src": "x.png", "alt": "cat", "width": 400, "height": 300})
	require.NoError(t, tree.InsertAtSelection(img))

	children := tree.Root().Children()
	require.Len(t, children, 2)
	wrapper := mustNode(t, tree, children[1])
	assert.Equal(t, TypeParagraph, wrapper.Type())
	assert.Equal(t, []common.Key{img.Key()}, wrapper.Children())
	assert.Equal(t, Caret(Point{wrapper.Key(), 1}), tree.Selection())
}

func TestInsertBlockUnderRoot(t *testing.T) {
	tree, reg := newTestTree(t)
	_, _ = paragraph(t, tree, "one")
	require.NoError(t, tree.CollapseTo(tree.RootKey(), 0))

	q := reg.MustCreate(TypeQuote, nil)
	require.NoError(t, tree.InsertAtSelection(q))
	assert.Equal(t, q.Key(), tree.Root().Children()[0])
	assert.Equal(t, Caret(Point{tree.RootKey(), 1}), tree.Selection())
}

func TestInsertAtSelectionDuplicateLeavesTreeUnchanged(t *testing.T) {
	tree, _ := newTestTree(t)
	para, txt := paragraph(t, tree, "hello")
	require.NoError(t, tree.CollapseTo(txt, 2))
	before := tree.Copy()

	err := tree.InsertAtSelection(mustNode(t, tree, para))
	assert.Error(t, err)
	assert.True(t, Equal(before, tree))
}

func mustNode(t *testing.T, tree *Tree, key common.Key) *Node {
	t.Helper()
	n, err := tree.Node(key)
	require.NoError(t, err)
	return n
}
