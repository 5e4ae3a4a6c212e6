package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGoFoldsIntegralFloats(t *testing.T) {
	a, err := FromGo(30)
	require.NoError(t, err)
	b, err := FromGo(30.0)
	require.NoError(t, err)

	assert.Equal(t, IRInt(30), a)
	assert.Equal(t, a, b)
}

func TestFromGoUnsignedBeyondInt64(t *testing.T) {
	small, err := FromGo(uint64(42))
	require.NoError(t, err)
	assert.Equal(t, IRInt(42), small)

	big, err := FromGo(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, IRFloat(math.MaxUint64), big)

	neg, err := MarshalCanonical(-1)
	require.NoError(t, err)
	enc, err := MarshalCanonical(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.NotEqual(t, neg, enc)
}

func TestFromGoNested(t *testing.T) {
	v, err := FromGo(map[string]any{
		"list": []any{"a", 1, nil},
		"ok":   true,
	})
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"list": IRArray{IRString("a"), IRInt(1), IRNull{}},
		"ok":   IRBool(true),
	}, v)
}

func TestUnmarshalIRValueKeepsIntegers(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"big":9007199254740993,"f":1.5}`))
	require.NoError(t, err)

	obj := v.(IRObject)
	assert.Equal(t, IRInt(9007199254740993), obj["big"])
	assert.Equal(t, IRFloat(1.5), obj["f"])
}

func TestToGoRoundTrip(t *testing.T) {
	in := IRObject{
		"n":    IRInt(3),
		"s":    IRString("x"),
		"list": IRArray{IRBool(false), IRNull{}},
	}

	assert.Equal(t, map[string]any{
		"n":    int64(3),
		"s":    "x",
		"list": []any{false, nil},
	}, ToGo(in))
}

func TestSortedKeys(t *testing.T) {
	obj := IRObject{"zebra": IRInt(1), "alpha": IRInt(2), "beta": IRInt(3)}
	assert.Equal(t, []string{"alpha", "beta", "zebra"}, obj.SortedKeys())
}

func TestIRObjectUnmarshalJSON(t *testing.T) {
	var obj IRObject
	require.NoError(t, json.Unmarshal([]byte(`{"P0":9007199254740993,"name":"Ada"}`), &obj))
	assert.Equal(t, IRObject{"P0": IRInt(9007199254740993), "name": IRString("Ada")}, obj)

	require.NoError(t, json.Unmarshal([]byte(`null`), &obj))
	assert.Nil(t, obj)

	require.Error(t, json.Unmarshal([]byte(`[1]`), &obj))
}
