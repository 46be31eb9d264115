package docedit

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/RamRamez/test-editors/richdoc/common"
	"github.com/RamRamez/test-editors/richdoc/doccodec"
	"github.com/RamRamez/test-editors/richdoc/doctree"
)

// ErrUnknownCommand is returned by DecodeCommand for unknown command names.
type ErrUnknownCommand struct {
	Name string
}

func (e ErrUnknownCommand) Error() string {
	return fmt.Sprintf("unknown command: %q", e.Name)
}

func (e ErrUnknownCommand) Is(target error) bool {
	_, ok := target.(ErrUnknownCommand)
	return ok
}

// DecodeCommand builds a command from a JSON payload sent by an editor
// surface, for example
//
//	{"command": "formatText", "mark": "bold"}
//	{"command": "setBlockType", "type": "heading", "fields": {"tag": "h1"}}
//	{"command": "insertList", "ordered": true}
//	{"command": "removeList"}
//	{"command": "insertNode", "node": {"type": "image", "version": 1, "src": "..."}}
//	{"command": "insertImage", "src": "data:...", "alt": "cat"}
//
// Nodes carried by the payload are imported with reg.
func DecodeCommand(reg *doctree.Registry, data []byte) (Command, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("command payload is not valid JSON")
	}
	payload := gjson.ParseBytes(data)
	if !payload.IsObject() {
		return nil, errors.New("command payload must be an object")
	}

	name := payload.Get("command").String()
	switch name {
	case "formatText":
		mark := payload.Get("mark").String()
		if _, ok := FormatBit(mark); !ok {
			return nil, common.ErrInvalidFields{Type: doctree.TypeText, Message: fmt.Sprintf("unknown format %q", mark)}
		}
		return FormatText{Mark: mark}, nil

	case "setBlockType":
		typ := payload.Get("type").String()
		if typ == "" {
			return nil, errors.New("setBlockType: missing type")
		}
		fields, err := objectFields(payload.Get("fields"))
		if err != nil {
			return nil, errors.Wrap(err, "setBlockType")
		}
		return SetBlockType{Type: typ, Fields: fields}, nil

	case "insertList":
		return InsertList{Ordered: payload.Get("ordered").Bool()}, nil

	case "removeList":
		return RemoveList{}, nil

	case "insertNode":
		node := payload.Get("node")
		if !node.IsObject() {
			return nil, errors.New("insertNode: node must be an object")
		}
		sn, err := doccodec.Unmarshal([]byte(node.Raw))
		if err != nil {
			return nil, errors.Wrap(err, "insertNode")
		}
		frag, err := doccodec.Import(reg, sn)
		if err != nil {
			return nil, errors.Wrap(err, "insertNode")
		}
		return InsertNode{Fragment: frag}, nil

	case "insertImage":
		fields := common.Fields{"src": payload.Get("src").String()}
		for _, field := range []string{"alt", "width", "height"} {
			if v := payload.Get(field); v.Exists() {
				fields[field] = v.Value()
			}
		}
		img, err := reg.Create(doctree.TypeImage, fields)
		if err != nil {
			return nil, errors.Wrap(err, "insertImage")
		}
		return InsertNode{Fragment: doctree.NewFragment(img)}, nil
	}
	return nil, ErrUnknownCommand{Name: name}
}

func objectFields(r gjson.Result) (common.Fields, error) {
	if !r.Exists() {
		return nil, nil
	}
	m, ok := r.Value().(map[string]any)
	if !ok {
		return nil, errors.New("fields must be an object")
	}
	return common.NormalizeFields(m)
}
