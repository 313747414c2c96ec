package convert

import (
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

type celsius float32

type point struct{ X, Y int }

func TestImportScalars(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	re := regexp.MustCompile("^a+$")

	tests := []struct {
		name string
		in   any
		want types.Value
	}{
		{"nil", nil, types.Null()},
		{"bool", true, types.Bool(true)},
		{"string", "s", types.String("s")},
		{"bytes", []byte("b"), types.Bytes([]byte("b"))},
		{"int", 1, types.Int(1)},
		{"int8", int8(-1), types.Int8(-1)},
		{"int16", int16(2), types.Int16(2)},
		{"int32", int32(3), types.Int32(3)},
		{"int64", int64(4), types.Int64(4)},
		{"uint", uint(5), types.Uint(5)},
		{"uint8", uint8(6), types.Uint8(6)},
		{"uint16", uint16(7), types.Uint16(7)},
		{"uint32", uint32(8), types.Uint32(8)},
		{"uint64", uint64(9), types.Uint64(9)},
		{"float32", float32(0.5), types.Float64(0.5)},
		{"float64", 2.25, types.Float64(2.25)},
		{"time", when, types.Time(when)},
		{"regex", re, types.Regex(re)},
		{"json integer", json.Number("12"), types.Int64(12)},
		{"json float", json.Number("1.5"), types.Float64(1.5)},
		{"named float", celsius(1.5), types.Float64(1.5)},
		{"value passes through", types.Uint16(3), types.Uint16(3)},
		{"nil pointer", (*int)(nil), types.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Import(tt.in, nil)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestImportContainers(t *testing.T) {
	in := map[string]any{
		"b":    []any{1, "x"},
		"a":    map[string]any{"n": nil},
		"tags": []string{"p", "q"},
	}

	v, err := Import(in, types.JSONMapType)
	require.NoError(t, err)
	obj, ok := v.AsObject()
	require.True(t, ok)
	assert.Same(t, types.JSONMapType, obj.Type())
	assert.Equal(t, []types.Key{types.StringKey("a"), types.StringKey("b"), types.StringKey("tags")}, obj.Keys())

	b, _ := obj.Get(types.StringKey("b"))
	seq, ok := b.AsSequence()
	require.True(t, ok)
	assert.True(t, types.SequencesEqual(
		types.JSONMapType.List().New([]types.Value{types.Int(1), types.String("x")}), seq))

	tags, _ := obj.Get(types.StringKey("tags"))
	seq, ok = tags.AsSequence()
	require.True(t, ok)
	assert.Equal(t, 2, seq.Len())

	mixed, err := Import(map[any]any{2: "two", "one": 1}, nil)
	require.NoError(t, err)
	obj, _ = mixed.AsObject()
	got, ok := obj.Get(types.IntKey(2))
	require.True(t, ok)
	assert.True(t, types.String("two").Equal(got))

	typed, err := Import(map[string]int{"z": 1}, nil)
	require.NoError(t, err)
	obj, _ = typed.AsObject()
	got, _ = obj.Get(types.StringKey("z"))
	assert.True(t, types.Int(1).Equal(got))
}

func TestImportUnsupported(t *testing.T) {
	_, err := Import(point{1, 2}, nil)
	require.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = Import(map[string]any{"p": point{}}, nil)
	require.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Import(map[any]any{1.5: "float key"}, nil)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	fn := func(x any) (types.Value, error) {
		p := x.(point)
		return types.SequenceValue(types.NewList(types.Int(p.X), types.Int(p.Y))), nil
	}

	require.NoError(t, r.Register(point{}, fn))
	assert.True(t, r.IsRegistered(point{}))
	assert.False(t, r.IsRegistered(&point{}))
	assert.Error(t, r.Register(point{}, fn), "duplicate registration")
	assert.Error(t, r.Register(nil, fn))
	assert.Error(t, r.Register(celsius(0), nil))
	assert.Panics(t, func() { r.MustRegister(point{}, fn) })

	clone := r.Clone()
	clone.MustRegister(celsius(0), func(x any) (types.Value, error) {
		return types.String("warm"), nil
	})
	assert.True(t, clone.IsRegistered(celsius(0)))
	assert.False(t, r.IsRegistered(celsius(0)))

	e := New(WithRegistry(clone))
	v, err := e.Import(point{3, 4}, nil)
	require.NoError(t, err)
	assert.True(t, types.SequenceValue(types.NewList(types.Int(3), types.Int(4))).Equal(v))

	v, err = e.Import(celsius(30), nil)
	require.NoError(t, err)
	assert.True(t, types.String("warm").Equal(v))
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i == 0 {
				r.MustRegister(point{}, func(any) (types.Value, error) { return types.Null(), nil })
				return
			}
			_ = r.IsRegistered(point{})
		}()
	}
	wg.Wait()
	assert.True(t, r.IsRegistered(point{}))
}

func TestEngineConcurrentUse(t *testing.T) {
	src := types.Build(types.DefaultMapType,
		types.F("id", types.String("123")),
		types.F("score", types.Uint32(9001)),
		types.F("tag", types.Null()),
	)
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := Object(src, intOrString)
			assert.Equal(t, 2, res.Converted.Len())
			assert.Equal(t, 1, res.Remainder.Len())
		}()
	}
	wg.Wait()
}
