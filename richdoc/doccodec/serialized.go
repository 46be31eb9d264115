// Package doccodec converts document trees to and from their serialized form:
// {"type", "version", ...fields, "children"?}.
package doccodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/RamRamez/test-editors/richdoc/common"
)

// SerializedNode is the versioned, self-describing form of a node.
// Children is nil for leaves and non-nil (possibly empty) for structural
// nodes.
type SerializedNode struct {
	Type     string
	Version  int
	Fields   common.Fields
	Children []*SerializedNode
}

// IsStructural reports whether the node carries a children sequence.
func (sn *SerializedNode) IsStructural() bool {
	return sn.Children != nil
}

// MarshalJSON writes type, version, the fields sorted by name and, for
// structural nodes, children. The output is deterministic.
func (sn *SerializedNode) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := sn.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (sn *SerializedNode) encode(buf *bytes.Buffer) error {
	typ, err := json.Marshal(sn.Type)
	if err != nil {
		return err
	}
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	fmt.Fprintf(buf, `,"version":%d`, sn.Version)

	names := make([]string, 0, len(sn.Fields))
	for name := range sn.Fields {
		if common.IsReservedField(name) {
			return common.ErrInvalidFields{Type: sn.Type, Message: "reserved field name " + name}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		v, err := json.Marshal(sn.Fields[name])
		if err != nil {
			return errors.Wrapf(err, "failed to encode field %s of %s", name, sn.Type)
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	if sn.Children != nil {
		buf.WriteString(`,"children":[`)
		for i, c := range sn.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			if c == nil {
				return common.ErrMalformedNode{Message: "nil child"}
			}
			if err := c.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON reads a serialized node. Numbers are kept exact: integral
// values decode as int64. A missing version decodes as 0.
func (sn *SerializedNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return common.ErrMalformedNode{Message: err.Error()}
	}
	if raw == nil {
		return common.ErrMalformedNode{Message: "node must be an object"}
	}

	res := SerializedNode{Fields: common.Fields{}}
	typ, ok := raw[common.FieldType]
	if !ok {
		return common.ErrMalformedNode{Message: "missing type"}
	}
	if err := json.Unmarshal(typ, &res.Type); err != nil || res.Type == "" {
		return common.ErrMalformedNode{Message: "type must be a non-empty string"}
	}

	if v, ok := raw[common.FieldVersion]; ok {
		if err := json.Unmarshal(v, &res.Version); err != nil {
			return common.ErrMalformedNode{Message: fmt.Sprintf("%s: version must be an integer", res.Type)}
		}
	}

	if c, ok := raw[common.FieldChildren]; ok {
		var children []json.RawMessage
		if err := json.Unmarshal(c, &children); err != nil || children == nil {
			return common.ErrMalformedNode{Message: fmt.Sprintf("%s: children must be an array", res.Type)}
		}
		res.Children = make([]*SerializedNode, len(children))
		for i, cd := range children {
			child := &SerializedNode{}
			if err := child.UnmarshalJSON(cd); err != nil {
				return errors.Wrapf(err, "%s: child %d", res.Type, i)
			}
			res.Children[i] = child
		}
	}

	for name, v := range raw {
		if common.IsReservedField(name) {
			continue
		}
		value, err := decodeValue(v)
		if err != nil {
			return common.ErrMalformedNode{Message: fmt.Sprintf("%s: field %s: %v", res.Type, name, err)}
		}
		res.Fields[name] = value
	}

	*sn = res
	return nil
}

func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return common.NormalizeValue(v)
}

// Marshal encodes sn as JSON.
func Marshal(sn *SerializedNode) ([]byte, error) {
	return sn.MarshalJSON()
}

// MarshalIndent encodes sn as indented JSON for display.
func MarshalIndent(sn *SerializedNode) ([]byte, error) {
	data, err := sn.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a serialized node from JSON.
func Unmarshal(data []byte) (*SerializedNode, error) {
	sn := &SerializedNode{}
	if err := sn.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return sn, nil
}
