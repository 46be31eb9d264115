package doctree

import (
	"fmt"
	"strings"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// Built-in node types.
const (
	TypeRoot      = "root"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeQuote     = "quote"
	TypeList      = "list"
	TypeListItem  = "listitem"
	TypeCode      = "code"
	TypeLink      = "link"
	TypeText      = "text"
	TypeLineBreak = "linebreak"
	TypeImage     = "image"
)

// TypeHeader is the heading block of block editors, see HeaderClass.
const TypeHeader = "header"

// Header levels of the block editor node set.
const (
	BlockHeaderMaxLevel     = 4
	BlockHeaderDefaultLevel = 2
)

// List types stored in the listType field of a list.
const (
	ListBullet = "bullet"
	ListNumber = "number"
)

// Image rendering defaults used when width or height is absent.
const (
	DefaultImageWidth  = 400
	DefaultImageHeight = 300
)

// RegisterBuiltins registers the built-in node kinds into r, overwriting any
// class already registered under the same type.
func RegisterBuiltins(r *Registry) {
	for _, c := range BuiltinClasses() {
		r.MustRegister(c)
	}
}

// BuiltinClasses returns the classes of the built-in node kinds.
func BuiltinClasses() []NodeClass {
	return []NodeClass{
		{Type: TypeRoot, Kind: common.KindElement},
		{Type: TypeParagraph, Kind: common.KindElement},
		{
			Type:      TypeHeading,
			Kind:      common.KindElement,
			Construct: constructHeading,
			Import:    importHeading,
		},
		{Type: TypeQuote, Kind: common.KindElement},
		{Type: TypeList, Kind: common.KindElement, Construct: constructList},
		{Type: TypeListItem, Kind: common.KindElement, Construct: constructListItem},
		{Type: TypeCode, Kind: common.KindElement, Construct: optionalString("language")},
		{Type: TypeLink, Kind: common.KindElement, Inline: true, Construct: constructLink},
		{
			Type:      TypeText,
			Kind:      common.KindLeaf,
			Inline:    true,
			TextField: "text",
			Construct: constructText,
		},
		{Type: TypeLineBreak, Kind: common.KindLeaf, Inline: true, Construct: noFields},
		{Type: TypeImage, Kind: common.KindLeaf, Inline: true, Construct: constructImage},
	}
}

// NewBlockRegistry returns a registry holding the built-in kinds plus a
// header block with levels 1 to 4 defaulting to 2.
func NewBlockRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	r.MustRegister(HeaderClass(BlockHeaderMaxLevel, BlockHeaderDefaultLevel))
	return r
}

// HeaderClass returns the class of a heading block storing a numeric level
// in [1, maxLevel]. A missing level becomes defaultLevel.
func HeaderClass(maxLevel, defaultLevel int) NodeClass {
	return NodeClass{
		Type: TypeHeader,
		Kind: common.KindElement,
		Construct: func(f common.Fields) (common.Fields, error) {
			v, ok := f["level"]
			if !ok || v == nil {
				f["level"] = int64(defaultLevel)
				return f, nil
			}
			level, ok := f.Int("level")
			if !ok || level < 1 || level > int64(maxLevel) {
				return nil, fmt.Errorf("level must be an integer in [1, %d], got %v", maxLevel, v)
			}
			f["level"] = level
			return f, nil
		},
	}
}

func constructHeading(f common.Fields) (common.Fields, error) {
	tag, ok := f["tag"]
	if !ok {
		f["tag"] = "h1"
		return f, nil
	}
	s, _ := tag.(string)
	if len(s) != 2 || s[0] != 'h' || s[1] < '1' || s[1] > '6' {
		return nil, fmt.Errorf("tag must be h1..h6, got %v", tag)
	}
	return f, nil
}

// importHeading upgrades version 0 headings, which stored a numeric level.
func importHeading(version int, f common.Fields) (common.Fields, error) {
	if version == 0 {
		if level, ok := f.Int("level"); ok {
			delete(f, "level")
			f["tag"] = fmt.Sprintf("h%d", level)
		}
	}
	return constructHeading(f)
}

func constructList(f common.Fields) (common.Fields, error) {
	switch lt := f.String("listType"); lt {
	case "":
		f["listType"] = ListBullet
	case ListBullet, ListNumber:
	default:
		return nil, fmt.Errorf("unknown listType %q", lt)
	}
	if _, ok := f["start"]; !ok {
		f["start"] = int64(1)
	} else if _, ok := f.Int("start"); !ok {
		return nil, fmt.Errorf("start must be an integer")
	}
	return f, nil
}

func constructListItem(f common.Fields) (common.Fields, error) {
	if _, ok := f["value"]; !ok {
		f["value"] = int64(1)
	} else if _, ok := f.Int("value"); !ok {
		return nil, fmt.Errorf("value must be an integer")
	}
	return f, nil
}

func constructLink(f common.Fields) (common.Fields, error) {
	if strings.TrimSpace(f.String("url")) == "" {
		return nil, fmt.Errorf("url is required")
	}
	return f, nil
}

func constructText(f common.Fields) (common.Fields, error) {
	if _, ok := f["text"]; !ok {
		f["text"] = ""
	} else if _, ok := f["text"].(string); !ok {
		return nil, fmt.Errorf("text must be a string")
	}
	if _, ok := f["format"]; !ok {
		f["format"] = int64(0)
	} else if v, ok := f.Int("format"); !ok || v < 0 {
		return nil, fmt.Errorf("format must be a non-negative integer")
	}
	if _, ok := f["style"]; !ok {
		f["style"] = ""
	}
	return f, nil
}

func constructImage(f common.Fields) (common.Fields, error) {
	if f.String("src") == "" {
		return nil, fmt.Errorf("src is required")
	}
	if v, ok := f["alt"]; ok {
		if v == nil {
			delete(f, "alt")
		} else if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("alt must be a string")
		}
	}
	for _, name := range []string{"width", "height"} {
		v, ok := f[name]
		if !ok || v == nil {
			delete(f, name)
			continue
		}
		if !positiveNumber(v) {
			return nil, fmt.Errorf("%s must be a positive number", name)
		}
	}
	return f, nil
}

func positiveNumber(v any) bool {
	switch x := v.(type) {
	case int64:
		return x > 0
	case float64:
		return x > 0
	}
	return false
}

func optionalString(name string) ConstructFunc {
	return func(f common.Fields) (common.Fields, error) {
		if v, ok := f[name]; ok && v != nil {
			if _, ok := v.(string); !ok {
				return nil, fmt.Errorf("%s must be a string", name)
			}
		}
		return f, nil
	}
}

func noFields(f common.Fields) (common.Fields, error) {
	if len(f) > 0 {
		return nil, fmt.Errorf("takes no fields")
	}
	return f, nil
}

// ImageDisplaySize returns the rendering size of an image node, falling back
// to DefaultImageWidth and DefaultImageHeight.
func ImageDisplaySize(n *Node) (width, height float64) {
	width, height = DefaultImageWidth, DefaultImageHeight
	if v, ok := number(n.fields["width"]); ok {
		width = v
	}
	if v, ok := number(n.fields["height"]); ok {
		height = v
	}
	return width, height
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
