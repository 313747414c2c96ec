package codec

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestDecodeJSON(t *testing.T) {
	in := `{"z": 1, "a": [true, null, "s", 1.5, 18446744073709551615], "n": {"k": -2}}`

	v, err := DecodeJSON(strings.NewReader(in), types.JSONMapType)
	require.NoError(t, err)

	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Same(t, types.JSONMapType, obj.Type())
	assert.Equal(t, []types.Key{types.StringKey("z"), types.StringKey("a"), types.StringKey("n")}, obj.Keys())

	want := map[string]any{
		"z": int64(1),
		"a": []any{true, nil, "s", 1.5, uint64(math.MaxUint64)},
		"n": map[string]any{"k": int64(-2)},
	}
	if diff := cmp.Diff(want, v.Interface()); diff != "" {
		t.Fatalf("decoded value mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeJSONDuplicateKeysKeepLast(t *testing.T) {
	v, err := UnmarshalJSON([]byte(`{"a": 1, "a": 2}`), nil)
	require.NoError(t, err)
	obj, _ := v.AsObject()
	assert.Equal(t, 1, obj.Len())
	got, _ := obj.Get(types.StringKey("a"))
	assert.True(t, types.Int64(2).Equal(got))
}

func TestDecodeJSONMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"truncated object", `{"a": 1`},
		{"trailing value", `{"a": 1} {"b": 2}`},
		{"bad literal", `{"a": tru}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.in), nil)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := types.NewDocument(
		types.F("b", types.Int8(-1)),
		types.F("a", types.Uint64(7)),
		types.F("s", types.String("q\"x")),
		types.F("raw", types.Bytes([]byte("hi"))),
		types.F("when", types.Time(when)),
		types.F("re", types.MustRegex("^a+$")),
		types.F("list", types.SequenceValue(types.NewList(types.Null(), types.Bool(true), types.Float64(0.5)))),
	)

	got, err := MarshalJSON(types.ObjectValue(doc))
	require.NoError(t, err)
	assert.Equal(t,
		`{"b":-1,"a":7,"s":"q\"x","raw":"aGk=","when":"2024-01-02T03:04:05Z","re":"^a+$","list":[null,true,0.5]}`,
		string(got))

	indented, err := MarshalJSONIndent(types.ObjectValue(types.NewDocument(types.F("a", types.Int(1)))), "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(indented))

	_, err = MarshalJSON(types.Float64(math.Inf(1)))
	require.ErrorIs(t, err, ErrUnencodable)
}

func TestJSONRoundTrip(t *testing.T) {
	in := `{"name":"x","tags":["a","b"],"n":{"k":1.25}}`
	v, err := UnmarshalJSON([]byte(in), types.JSONMapType)
	require.NoError(t, err)
	out, err := MarshalJSON(v)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestDecodeYAML(t *testing.T) {
	in := `
name: larder
count: 3
ratio: .5
on: true
none: ~
when: 2024-01-02T03:04:05Z
blob: !!binary aGk=
big: 18446744073709551615
list:
  - 1
  - two
base: &base
  k: v
copy: *base
7: seven
`
	v, err := DecodeYAML(strings.NewReader(in), types.DocumentType)
	require.NoError(t, err)
	obj, ok := v.AsObject()
	require.True(t, ok)
	doc := obj.(*types.Document)

	check := func(name string, want types.Value) {
		t.Helper()
		got, ok := doc.Field(name)
		require.True(t, ok, "missing %s", name)
		assert.True(t, want.Equal(got), "%s: want %v, got %v", name, want, got)
	}
	check("name", types.String("larder"))
	check("count", types.Int64(3))
	check("ratio", types.Float64(0.5))
	check("on", types.Bool(true))
	check("none", types.Null())
	check("when", types.Time(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	check("blob", types.Bytes([]byte("hi")))
	check("big", types.Uint64(math.MaxUint64))
	check("list", types.SequenceValue(types.DocumentType.List().New([]types.Value{types.Int64(1), types.String("two")})))

	base, _ := doc.Field("base")
	cp, _ := doc.Field("copy")
	assert.True(t, base.Equal(cp))

	intKey, _ := types.KeyOf(types.Int64(7))
	seven, ok := doc.Get(intKey)
	require.True(t, ok)
	assert.True(t, types.String("seven").Equal(seven))
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"unterminated flow", "a: [1, 2"},
		{"float key", "1.5: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalYAML([]byte(tt.in), nil)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}
