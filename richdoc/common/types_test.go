package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextKeyIsUnique(t *testing.T) {
	seen := make(map[Key]bool)
	for i := 0; i < 1000; i++ {
		k := NextKey()
		require.False(t, k.IsZero())
		require.False(t, seen[k], "key %s handed out twice", k)
		seen[k] = true
	}
}

func TestKeyCompare(t *testing.T) {
	a := NextKey()
	b := NextKey()
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, "<nil>", NilKey.String())
	assert.Contains(t, a.String(), "@")
}

func TestNormalizeFields(t *testing.T) {
	type dims struct {
		W int `json:"w"`
	}
	f, err := NormalizeFields(Fields{
		"int":    3,
		"uint8":  uint8(7),
		"float":  2.0,
		"frac":   2.5,
		"nested": map[string]any{"n": int32(1)},
		"list":   []any{1, "a", true},
		"struct": dims{W: 4},
		"nil":    nil,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), f["int"])
	assert.Equal(t, int64(7), f["uint8"])
	assert.Equal(t, int64(2), f["float"])
	assert.Equal(t, 2.5, f["frac"])
	assert.Equal(t, map[string]any{"n": int64(1)}, f["nested"])
	assert.Equal(t, []any{int64(1), "a", true}, f["list"])
	assert.Equal(t, map[string]any{"w": int64(4)}, f["struct"])
	assert.Nil(t, f["nil"])
}

func TestNormalizeFieldsRejectsUnencodable(t *testing.T) {
	_, err := NormalizeFields(Fields{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestNormalizeNumbersMatchJSONDecoding(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"small integral float", 42.0, int64(42)},
		{"integral float past 2^53", 1e16, int64(10000000000000000)},
		{"negative integral float", -1e18, int64(-1000000000000000000)},
		{"min int64", float64(math.MinInt64), int64(math.MinInt64)},
		{"2^63 stays a float", float64(1 << 63), float64(1 << 63)},
		{"huge float", 1e20, 1e20},
		{"fraction", 0.1, 0.1},
		{"number literal", json.Number("10000000000000000"), int64(10000000000000000)},
		{"exponent literal", json.Number("1e16"), int64(10000000000000000)},
		{"overflowing literal", json.Number("100000000000000000000"), 1e20},
		{"large uint", uint64(math.MaxUint64), float64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// encoding and decoding again yields the same value
			data, err := json.Marshal(got)
			require.NoError(t, err)
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			var raw any
			require.NoError(t, dec.Decode(&raw))
			again, err := NormalizeValue(raw)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}

	_, err := NormalizeValue(math.NaN())
	assert.Error(t, err)
	_, err = NormalizeValue(math.Inf(1))
	assert.Error(t, err)
}

func TestNormalizeRejectsInvalidUTF8(t *testing.T) {
	_, err := NormalizeValue("a\xffb")
	assert.Error(t, err)

	_, err = NormalizeFields(Fields{"nested": map[string]any{"list": []any{"ok", "bad\xfe"}}})
	assert.Error(t, err)

	_, err = NormalizeFields(Fields{"bad\xff": "x"})
	assert.Error(t, err)

	f, err := NormalizeFields(Fields{"text": "héllo wörld ✓ 日本"})
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld ✓ 日本", f["text"])
}

func TestFieldsCloneDoesNotAlias(t *testing.T) {
	orig := Fields{"m": map[string]any{"a": int64(1)}, "l": []any{int64(1)}}
	c := orig.Clone()
	c["m"].(map[string]any)["a"] = int64(2)
	c["l"].([]any)[0] = int64(2)

	assert.Equal(t, int64(1), orig["m"].(map[string]any)["a"])
	assert.Equal(t, int64(1), orig["l"].([]any)[0])
	assert.True(t, Fields(nil).Equal(Fields{}))
	assert.False(t, orig.Equal(c))

	deep := Fields{"a": map[string]any{"b": []any{int64(1), map[string]any{"c": "x"}}}, "s": "x", "n": 2.5}
	d := deep.Clone()
	require.True(t, deep.Equal(d))
	deep["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"] = "y"
	deep["a"].(map[string]any)["b"].([]any)[0] = int64(9)
	assert.Equal(t, "x", d["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"])
	assert.Equal(t, int64(1), d["a"].(map[string]any)["b"].([]any)[0])
	assert.Equal(t, 2.5, d["n"])
	assert.Empty(t, Fields(nil).Clone())
}

func TestFieldsAccessors(t *testing.T) {
	f := Fields{"s": "x", "i": int64(4), "f": 3.0}
	assert.Equal(t, "x", f.String("s"))
	assert.Equal(t, "", f.String("i"))

	i, ok := f.Int("i")
	assert.True(t, ok)
	assert.Equal(t, int64(4), i)
	_, ok = f.Int("s")
	assert.False(t, ok)
	i, ok = f.Int("f")
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)
}

func TestReservedFields(t *testing.T) {
	assert.True(t, IsReservedField("type"))
	assert.True(t, IsReservedField("version"))
	assert.True(t, IsReservedField("children"))
	assert.False(t, IsReservedField("text"))
}

func TestErrorKindsMatchThroughWrapping(t *testing.T) {
	err := pkgerrors.Wrap(ErrNodeNotFound{Key: NextKey()}, "remove")
	assert.True(t, errors.Is(err, ErrNodeNotFound{}))
	assert.False(t, errors.Is(err, ErrDuplicateKey{}))

	var nf ErrNodeNotFound
	require.True(t, errors.As(err, &nf))
	assert.False(t, nf.Key.IsZero())

	assert.True(t, errors.Is(pkgerrors.WithStack(ErrNestedTransaction{}), ErrNestedTransaction{}))
	assert.Equal(t, "insert: no active selection", ErrNoActiveSelection{Op: "insert"}.Error())
}
