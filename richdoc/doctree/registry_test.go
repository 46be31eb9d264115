package doctree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RamRamez/test-editors/richdoc/common"
)

func TestRegistryUnknownType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Create("heading", nil)
	assert.True(t, errors.Is(err, common.ErrUnknownNodeType{}))

	_, err = reg.Reconstruct("heading", 1, nil)
	assert.True(t, errors.Is(err, common.ErrUnknownNodeType{}))
}

func TestRegistryRejectsBadClasses(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(NodeClass{Kind: common.KindElement}))
	assert.Error(t, reg.Register(NodeClass{Type: "x"}))
	assert.Error(t, reg.Register(NodeClass{Type: "x", Kind: common.KindElement, TextField: "text"}))
}

func TestRegistryLastWriteWins(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	c, ok := reg.Class(TypeHeading)
	require.True(t, ok)
	assert.Equal(t, common.KindElement, c.Kind)

	require.NoError(t, reg.Register(NodeClass{Type: TypeHeading, Kind: common.KindLeaf}))
	c, ok = reg.Class(TypeHeading)
	require.True(t, ok)
	assert.Equal(t, common.KindLeaf, c.Kind)
	assert.Equal(t, 1, c.Version)

	n, err := reg.Create(TypeHeading, common.Fields{"level": 1, "text": "Title"})
	require.NoError(t, err)
	assert.True(t, n.IsLeaf())
	assert.Equal(t, common.Fields{"level": int64(1), "text": "Title"}, n.Fields())
}

func TestRegistryRejectsReservedFields(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	_, err := reg.Create(TypeParagraph, common.Fields{"children": []any{}})
	assert.True(t, errors.Is(err, common.ErrInvalidFields{}))
}

func TestRegistryTypes(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)
	assert.Equal(t, []string{
		"code", "heading", "image", "linebreak", "link", "list",
		"listitem", "paragraph", "quote", "root", "text",
	}, reg.Types())
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}

func TestBuiltinDefaults(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	h := reg.MustCreate(TypeHeading, nil)
	assert.Equal(t, "h1", h.Fields().String("tag"))

	_, err := reg.Create(TypeHeading, common.Fields{"tag": "h7"})
	assert.True(t, errors.Is(err, common.ErrInvalidFields{}))

	l := reg.MustCreate(TypeList, nil)
	assert.Equal(t, common.Fields{"listType": ListBullet, "start": int64(1)}, l.Fields())

	_, err = reg.Create(TypeList, common.Fields{"listType": "check"})
	assert.Error(t, err)

	txt := reg.MustCreate(TypeText, common.Fields{"text": "hi"})
	assert.Equal(t, common.Fields{"text": "hi", "format": int64(0), "style": ""}, txt.Fields())

	_, err = reg.Create(TypeLink, nil)
	assert.Error(t, err)

	_, err = reg.Create(TypeLineBreak, common.Fields{"x": 1})
	assert.Error(t, err)
}

func TestHeadingImportUpgradesLevel(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	n, err := reg.Reconstruct(TypeHeading, 0, common.Fields{"level": 2})
	require.NoError(t, err)
	assert.Equal(t, common.Fields{"tag": "h2"}, n.Fields())

	n, err = reg.Reconstruct(TypeHeading, 1, common.Fields{"tag": "h3"})
	require.NoError(t, err)
	assert.Equal(t, common.Fields{"tag": "h3"}, n.Fields())
}

func TestBlockHeader(t *testing.T) {
	reg := NewBlockRegistry()
	assert.NotSame(t, DefaultRegistry(), reg)
	_, ok := DefaultRegistry().Class(TypeHeader)
	assert.False(t, ok)

	h, err := reg.Create(TypeHeader, nil)
	require.NoError(t, err)
	assert.Equal(t, common.Fields{"level": int64(2)}, h.Fields())
	assert.True(t, h.IsStructural())

	h, err = reg.Create(TypeHeader, common.Fields{"level": 4.0})
	require.NoError(t, err)
	assert.Equal(t, common.Fields{"level": int64(4)}, h.Fields())

	for _, level := range []any{0, 5, 1.5, "2"} {
		_, err := reg.Create(TypeHeader, common.Fields{"level": level})
		assert.True(t, errors.Is(err, common.ErrInvalidFields{}), "level %v", level)
	}

	// the tag based heading stays available
	_, err = reg.Create(TypeHeading, common.Fields{"tag": "h6"})
	assert.NoError(t, err)
}

func TestImageNode(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	_, err := reg.Create(TypeImage, common.Fields{"alt": "cat"})
	assert.True(t, errors.Is(err, common.ErrInvalidFields{}))

	_, err = reg.Create(TypeImage, common.Fields{"src": "x.png", "width": -1})
	assert.Error(t, err)

	img := reg.MustCreate(TypeImage, common.Fields{"src": "data:image/png;base64,AAAA", "alt": nil})
	assert.True(t, img.IsLeaf())
	assert.Equal(t, common.Fields{"src": "data:image/png;base64,AAAA"}, img.Fields())

	w, h := ImageDisplaySize(img)
	assert.Equal(t, float64(DefaultImageWidth), w)
	assert.Equal(t, float64(DefaultImageHeight), h)

	sized := reg.MustCreate(TypeImage, common.Fields{"src": "a", "width": 120, "height": 80.5})
	w, h = ImageDisplaySize(sized)
	assert.Equal(t, 120.0, w)
	assert.Equal(t, 80.5, h)
}

func TestCloneGivesFreshKeyAndCopiedFields(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg)

	orig := reg.MustCreate(TypeCode, common.Fields{"language": "go", "meta": map[string]any{"a": 1}})
	c := Clone(orig)

	assert.NotEqual(t, orig.Key(), c.Key())
	assert.Equal(t, orig.Type(), c.Type())
	assert.Equal(t, orig.Fields(), c.Fields())

	meta, _ := c.Field("meta")
	meta.(map[string]any)["a"] = int64(9)
	again, _ := orig.Field("meta")
	assert.Equal(t, int64(1), again.(map[string]any)["a"])
}
