package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/jinzhu/copier"
)

// Kind tells whether a node holds children or an opaque payload.
type Kind int

const (
	// KindElement nodes own an ordered sequence of children.
	KindElement Kind = iota + 1
	// KindLeaf nodes own a payload and never have children.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// Reserved field names. They carry the envelope of a serialized node and
// cannot be used as node fields.
const (
	FieldType     = "type"
	FieldVersion  = "version"
	FieldChildren = "children"
)

// IsReservedField reports whether name belongs to the serialized envelope.
func IsReservedField(name string) bool {
	return name == FieldType || name == FieldVersion || name == FieldChildren
}

// Fields is the type-specific payload of a node.
// Values are kept in canonical JSON-like form, see NormalizeFields.
type Fields map[string]any

// NormalizeFields returns a canonical deep copy of f: integral numbers within
// the int64 range become int64, other numbers float64, objects map[string]any
// and arrays []any. Values of any other Go type are converted through their
// JSON encoding. Strings and names must be valid UTF-8.
func NormalizeFields(f Fields) (Fields, error) {
	res := make(Fields, len(f))
	for k, v := range f {
		if !utf8.ValidString(k) {
			return nil, fmt.Errorf("field name %q is not valid UTF-8", k)
		}
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		res[k] = nv
	}
	return res, nil
}

// NormalizeValue converts a single value into canonical form.
func NormalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, int64:
		return x, nil
	case string:
		if !utf8.ValidString(x) {
			return nil, fmt.Errorf("string %q is not valid UTF-8", x)
		}
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return normalizeUint(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return normalizeFloat(f)
	case Fields:
		m, err := NormalizeFields(x)
		if err != nil {
			return nil, err
		}
		return map[string]any(m), nil
	case map[string]any:
		m, err := NormalizeFields(Fields(x))
		if err != nil {
			return nil, err
		}
		return map[string]any(m), nil
	case []any:
		res := make([]any, len(x))
		for i, e := range x {
			ne, err := NormalizeValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			res[i] = ne
		}
		return res, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, err
	}
	return NormalizeValue(decoded)
}

func normalizeUint(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return float64(u), nil
	}
	return int64(u), nil
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported number %v", f)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	return f, nil
}

// Clone returns a deep copy of f. The copy shares no maps or slices with f.
func (f Fields) Clone() Fields {
	res := make(Fields, len(f))
	if len(f) == 0 {
		return res
	}
	if err := copier.CopyWithOption(&res, f, copier.Option{DeepCopy: true}); err != nil {
		// if the copy failed keep the original values
		for k, v := range f {
			res[k] = v
		}
	}
	return res
}

// Equal reports whether f and other hold the same normalized values.
// A nil Fields equals an empty one.
func (f Fields) Equal(other Fields) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		ov, ok := other[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// String returns the field named name, or "" when absent or not a string.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Int returns the integral field named name.
func (f Fields) Int(name string) (int64, bool) {
	switch x := f[name].(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if x == math.Trunc(x) {
			return int64(x), true
		}
	}
	return 0, false
}
