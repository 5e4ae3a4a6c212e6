package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", 42, "42"},
		{"negative int", IRInt(-100), "-100"},
		{"int32", int32(7), "7"},
		{"uint", uint(9), "9"},
		{"integral float", 30.0, "30"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"nil pointer", (*int)(nil), "null"},
		{"empty array", IRArray{}, "[]"},
		{"typed slice", []int{1, 2, 3}, "[1,2,3]"},
		{"empty object", IRObject{}, "{}"},
		{"string map", map[string]int{"b": 2, "a": 1}, `{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalStructUsesJSONTags(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
		Tags []string
	}

	result, err := MarshalCanonical(person{Name: "Ada", Age: 36, Tags: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"Tags":["x"],"age":36,"name":"Ada"}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 sorts after the surrogate pair of U+10000 in UTF-16
	// but before it in UTF-8.
	obj := IRObject{
		"\uE000":     IRInt(1),
		"\U00010000": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical(IRString("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))

	// a literal backslash followed by the text u2028 stays escaped
	result, err = MarshalCanonical(IRString(`x\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	composed := "caf\u00E9"
	decomposed := "cafe\u0301"

	a, err := MarshalCanonical(IRObject{composed: IRString(composed)})
	require.NoError(t, err)
	b, err := MarshalCanonical(IRObject{decomposed: IRString(decomposed)})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMarshalCanonicalRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"channel", make(chan int)},
		{"func", func() {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
		})
	}
}
