package ir

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRFloat(1.5)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestIRObjectSortedKeysSurrogates(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...), which sorts before
	// U+FB01 (0xFB01) in UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\U0001F600": IRInt(1),
		"\ufb01":     IRInt(2),
	}

	assert.Equal(t, []string{"\U0001F600", "\ufb01"}, obj.SortedKeys())
}

func TestArrayHelpers(t *testing.T) {
	assert.Equal(t, IRArray{IRInt(1), IRInt(2)}, Ints(1, 2))
	assert.Equal(t, IRArray{IRString("a"), IRString("b")}, Strings("a", "b"))
	assert.Equal(t, IRArray{IRBool(true)}, NewIRArray(IRBool(true)))
}

func TestKind(t *testing.T) {
	tests := []struct {
		value IRValue
		want  string
	}{
		{IRNull{}, "null"},
		{IRString("x"), "string"},
		{IRInt(1), "int"},
		{IRFloat(1), "float"},
		{IRBool(false), "bool"},
		{IRArray{}, "array"},
		{IRObject{}, "object"},
		{nil, "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.value))
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value IRValue
		want  string
	}{
		{"null", IRNull{}, "null"},
		{"string", IRString(`say "hi"`), `"say \"hi\""`},
		{"int", IRInt(-7), "-7"},
		{"integral float", IRFloat(10), "10.0"},
		{"float", IRFloat(2.5), "2.5"},
		{"bool", IRBool(true), "true"},
		{"array", Ints(1, 2, 3), "[1, 2, 3]"},
		{"object", IRObject{"b": IRInt(2), "a": IRInt(1)}, `{"a": 1, "b": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.value))
		})
	}
}

func TestUnmarshalIRValue(t *testing.T) {
	tests := []struct {
		name string
		json string
		want IRValue
	}{
		{"string", `"hello"`, IRString("hello")},
		{"int", `42`, IRInt(42)},
		{"negative int", `-3`, IRInt(-3)},
		{"float", `2.5`, IRFloat(2.5)},
		{"exponent is float", `1e3`, IRFloat(1000)},
		{"trailing zero is float", `10.0`, IRFloat(10)},
		{"bool", `true`, IRBool(true)},
		{"null", `null`, IRNull{}},
		{"array", `[1, "a"]`, IRArray{IRInt(1), IRString("a")}},
		{"object", `{"k": [true]}`, IRObject{"k": IRArray{IRBool(true)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalIRValue([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalIRValueRejectsOverflow(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`99999999999999999999`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of int64 range")
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{
		"name":  IRString("alice"),
		"age":   IRInt(30),
		"score": IRFloat(0.75),
		"tags":  Strings("a", "b"),
		"gone":  IRNull{},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"age":30,"gone":null,"name":"alice","score":0.75,"tags":["a","b"]}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, obj, decoded)
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  IRValue
	}{
		{"nil", nil, IRNull{}},
		{"passthrough", IRInt(3), IRInt(3)},
		{"int", 5, IRInt(5)},
		{"int32", int32(5), IRInt(5)},
		{"uint64", uint64(5), IRInt(5)},
		{"float64", 1.25, IRFloat(1.25)},
		{"json number int", json.Number("12"), IRInt(12)},
		{"json number float", json.Number("1.5"), IRFloat(1.5)},
		{"big int", big.NewInt(77), IRInt(77)},
		{"slice", []any{1, "x"}, IRArray{IRInt(1), IRString("x")}},
		{"string map", map[string]any{"a": true}, IRObject{"a": IRBool(true)}},
		{"any map", map[any]any{"a": 1}, IRObject{"a": IRInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
		msg   string
	}{
		{"struct", struct{}{}, "unsupported type"},
		{"non-string key", map[any]any{1: "x"}, "keys must be strings"},
		{"huge uint", uint64(1 << 63), "out of int64 range"},
		{"nested failure", []any{struct{}{}}, "array[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAny(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestToAny(t *testing.T) {
	v := IRObject{
		"n":    IRInt(1),
		"f":    IRFloat(0.5),
		"s":    IRString("x"),
		"list": IRArray{IRBool(true), IRNull{}},
	}

	assert.Equal(t, map[string]any{
		"n":    int64(1),
		"f":    0.5,
		"s":    "x",
		"list": []any{true, nil},
	}, ToAny(v))

	back, err := FromAny(ToAny(v))
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestMarshalIRValueKeepsFloatsFloat(t *testing.T) {
	data, err := MarshalIRValue(IRArray{IRFloat(10), IRFloat(1e21), IRInt(10)})
	require.NoError(t, err)
	assert.Equal(t, `[10.0,1e+21,10]`, string(data))

	back, err := UnmarshalIRValue(data)
	require.NoError(t, err)
	assert.Equal(t, IRArray{IRFloat(10), IRFloat(1e21), IRInt(10)}, back)
}
