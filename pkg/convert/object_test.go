package convert

import (
	"bytes"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

var intOrString = types.NewMapType("int-or-string",
	types.KindsOf(types.KindString),
	types.KindsOf(types.KindInt, types.KindString))

func sortedKeys(o types.Object) []string {
	names := keyNames(o)
	sort.Strings(names)
	return names
}

func TestObjectEndToEnd(t *testing.T) {
	src := types.Build(types.DefaultMapType,
		types.F("id", types.String("123")),
		types.F("score", types.Uint32(9001)),
		types.F("tag", types.Null()),
	)

	res := Object(src, intOrString)

	want := types.Build(intOrString,
		types.F("id", types.String("123")),
		types.F("score", types.Int(9001)),
	)
	assert.True(t, types.ObjectsEqual(want, res.Converted))
	assert.Equal(t, []string{"tag"}, sortedKeys(res.Remainder))
	v, ok := res.Remainder.Get(types.StringKey("tag"))
	require.True(t, ok)
	assert.True(t, v.IsNull())
	assert.False(t, res.Complete())
	assert.Same(t, types.DefaultMapType, res.Remainder.Type())
	assert.Same(t, intOrString, res.Converted.Type())
}

func TestObjectPartition(t *testing.T) {
	tests := []struct {
		name      string
		src       types.Object
		target    types.ObjectType
		converted []string
		remainder []string
	}{
		{
			name: "non string keys go to remainder",
			src: types.Build(types.DefaultMapType,
				types.Field{Key: types.IntKey(1), Value: types.String("one")},
				types.F("two", types.String("2")),
			),
			target:    types.JSONMapType,
			converted: []string{"two"},
			remainder: []string{"1"},
		},
		{
			name: "unsigned and bytes into json",
			src: types.Build(types.DefaultMapType,
				types.F("n", types.Uint8(3)),
				types.F("blob", types.Bytes([]byte{1})),
				types.F("ok", types.Bool(true)),
			),
			target:    types.JSONMapType,
			converted: []string{"n", "ok"},
			remainder: []string{"blob"},
		},
		{
			name:      "empty source",
			src:       types.NewMap(),
			target:    types.RecordType,
			converted: []string{},
			remainder: []string{},
		},
		{
			name: "everything converts into the open map",
			src: types.NewDocument(
				types.F("a", types.Int8(1)),
				types.F("b", types.MustRegex("x+")),
			),
			target:    types.DefaultMapType,
			converted: []string{"a", "b"},
			remainder: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Object(tt.src, tt.target)
			assert.Equal(t, tt.converted, sortedKeys(res.Converted))
			assert.Equal(t, tt.remainder, sortedKeys(res.Remainder))
			assert.Equal(t, tt.src.Len(), res.Converted.Len()+res.Remainder.Len())
			for k := range res.Converted.All() {
				_, dup := res.Remainder.Get(k)
				assert.False(t, dup, "key %s in both outputs", k)
			}
		})
	}
}

func TestObjectIdentity(t *testing.T) {
	src := types.Build(types.JSONMapType,
		types.F("s", types.String("x")),
		types.F("n", types.Int64(-4)),
		types.F("f", types.Float64(1.5)),
		types.F("nested", types.ObjectValue(types.Build(types.JSONMapType, types.F("k", types.Null())))),
		types.F("list", types.SequenceValue(types.JSONMapType.List().New([]types.Value{types.Bool(false)}))),
	)

	res := Object(src, types.JSONMapType)
	assert.True(t, res.Complete())
	assert.True(t, types.ObjectsEqual(src, res.Converted))
	assert.Equal(t, src.Keys(), res.Converted.Keys())
}

func TestObjectDoesNotMutateSource(t *testing.T) {
	inner := types.Build(types.DefaultMapType,
		types.F("x", types.Uint16(7)),
		types.F("bad", types.Bytes([]byte("b"))),
	)
	src := types.Build(types.DefaultMapType,
		types.F("inner", types.ObjectValue(inner)),
		types.F("u", types.Uint64(1)),
	)
	before := types.Clone(src)
	innerBefore := types.Clone(inner)

	_ = Object(src, types.JSONMapType)

	assert.True(t, types.ObjectsEqual(before, src))
	assert.True(t, types.ObjectsEqual(innerBefore, inner))
}

func TestObjectResultDoesNotShareContainers(t *testing.T) {
	inner := types.Build(types.JSONMapType, types.F("x", types.Int64(1)))
	list := types.JSONMapType.Sequence().New([]types.Value{types.Int64(2)})
	src := types.Build(types.DefaultMapType,
		types.F("inner", types.ObjectValue(inner)),
		types.F("list", types.SequenceValue(list)),
	)

	res := Object(src, types.JSONMapType)

	got, ok := res.Converted.Get(types.StringKey("inner"))
	require.True(t, ok)
	convertedInner, ok := got.AsObject()
	require.True(t, ok)
	assert.NotSame(t, inner, convertedInner)
	convertedInner.Set(types.StringKey("x"), types.Int64(999))

	x, _ := inner.Get(types.StringKey("x"))
	assert.True(t, types.Int64(1).Equal(x), "source changed to %v", x)

	gotList, ok := res.Converted.Get(types.StringKey("list"))
	require.True(t, ok)
	convertedList, _ := gotList.AsSequence()
	assert.NotSame(t, list, convertedList)
}

func TestNilTarget(t *testing.T) {
	src := types.Build(types.DefaultMapType, types.F("a", types.Int(1)))

	res := Object(src, nil)
	assert.Equal(t, 0, res.Converted.Len())
	assert.True(t, types.ObjectsEqual(src, res.Remainder))

	detailed := SequenceDetailed(types.NewList(types.Int(1), types.Int(2)), nil)
	assert.Equal(t, 0, detailed.Converted.Len())
	assert.Equal(t, []int{0, 1}, detailed.Dropped)

	assert.Equal(t, 0, ObjectToSequence(src, nil).Len())
}

func TestObjectNested(t *testing.T) {
	inner := types.Build(types.DefaultMapType,
		types.F("x", types.Uint16(7)),
		types.F("bad", types.Bytes([]byte("b"))),
	)
	list := types.NewList(types.Int8(1), types.Bytes([]byte("z")), types.String("s"))
	src := types.Build(types.DefaultMapType,
		types.F("inner", types.ObjectValue(inner)),
		types.F("list", types.SequenceValue(list)),
	)

	res := Object(src, types.JSONMapType)
	require.True(t, res.Complete())

	v, ok := res.Converted.Get(types.StringKey("inner"))
	require.True(t, ok)
	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Same(t, types.JSONMapType, obj.Type())
	assert.Equal(t, []string{"x"}, sortedKeys(obj))
	x, _ := obj.Get(types.StringKey("x"))
	assert.True(t, types.Int64(7).Equal(x))

	v, ok = res.Converted.Get(types.StringKey("list"))
	require.True(t, ok)
	seq, ok := v.AsSequence()
	require.True(t, ok)
	assert.Same(t, types.JSONMapType.Sequence(), seq.Type())
	assert.True(t, types.SequencesEqual(
		types.JSONMapType.List().New([]types.Value{types.Int64(1), types.String("s")}),
		seq))
}

func TestObjectFlattensWhenOnlySequencesAccepted(t *testing.T) {
	target := types.NewMapType("lists",
		types.KindsOf(types.KindString),
		types.KindsOf(types.KindInt64, types.KindSequence))
	inner := types.NewDocument(types.F("a", types.Int8(1)), types.F("b", types.Int8(2)))
	src := types.NewDocument(types.F("o", types.ObjectValue(inner)))

	res := Object(src, target)
	require.True(t, res.Complete())
	v, _ := res.Converted.Get(types.StringKey("o"))
	seq, ok := v.AsSequence()
	require.True(t, ok)
	assert.True(t, types.SequencesEqual(
		target.List().New([]types.Value{types.Int64(1), types.Int64(2)}),
		seq))
}

func TestObjectIntoDocument(t *testing.T) {
	src := types.Build(types.DefaultMapType,
		types.F("big", types.Uint64(1<<40)),
		types.F("small", types.Int8(-3)),
		types.F("list", types.SequenceValue(types.NewList(types.Bytes([]byte("id"))))),
	)

	res := Object(src, types.DocumentType)
	require.True(t, res.Complete())

	big, _ := res.Converted.Get(types.StringKey("big"))
	assert.True(t, types.Int64(1<<40).Equal(big))
	small, _ := res.Converted.Get(types.StringKey("small"))
	assert.True(t, types.Int64(-3).Equal(small))

	// Sequences are in the document domain, so the hook is not reached.
	list, _ := res.Converted.Get(types.StringKey("list"))
	seq, ok := list.AsSequence()
	require.True(t, ok)
	assert.Equal(t, 1, seq.Len())
}

func TestObjectCoerceHook(t *testing.T) {
	target := types.NewMapType("flat",
		types.KindsOf(types.KindString),
		types.KindsOf(types.KindString),
		types.WithCoercion(types.UnwrapSingleton))

	src := types.Build(types.DefaultMapType,
		types.F("one", types.SequenceValue(types.NewList(types.String("a")))),
		types.F("two", types.SequenceValue(types.NewList(types.String("a"), types.String("b")))),
	)

	res := Object(src, target)
	got, ok := res.Converted.Get(types.StringKey("one"))
	require.True(t, ok)
	assert.True(t, types.String("a").Equal(got))
	assert.Equal(t, []string{"two"}, sortedKeys(res.Remainder))
}

func TestObjectLogsDemotions(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	e := New(WithLogger(log))
	src := types.Build(types.DefaultMapType, types.F("tag", types.Null()))
	res := e.Object(src, intOrString)

	assert.False(t, res.Complete())
	assert.Contains(t, buf.String(), "value not representable")
	assert.Contains(t, buf.String(), "key=tag")
}
