package convert

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// ErrUnsupportedType is returned by Import for a Go value with no known
// mapping onto a Value.
var ErrUnsupportedType = errors.New("unsupported type")

// number is satisfied by the Number types of encoding/json and of the
// json packages that mirror it.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// Import turns a native Go value into a Value. Containers are built with
// ot (nil means DefaultMapType) and its paired sequence type; map keys are
// imported in sorted order so ordered representations are deterministic.
// The registry is consulted before the built-in mappings.
func (e *Engine) Import(x any, ot types.ObjectType) (types.Value, error) {
	if ot == nil {
		ot = types.DefaultMapType
	}
	if fn, ok := e.registry.Lookup(x); ok {
		return fn(x)
	}

	switch x := x.(type) {
	case nil:
		return types.Null(), nil
	case types.Value:
		return x, nil
	case types.Object:
		return types.ObjectValue(x), nil
	case types.Sequence:
		return types.SequenceValue(x), nil
	case bool:
		return types.Bool(x), nil
	case string:
		return types.String(x), nil
	case []byte:
		return types.Bytes(x), nil
	case int:
		return types.Int(x), nil
	case int8:
		return types.Int8(x), nil
	case int16:
		return types.Int16(x), nil
	case int32:
		return types.Int32(x), nil
	case int64:
		return types.Int64(x), nil
	case uint:
		return types.Uint(x), nil
	case uint8:
		return types.Uint8(x), nil
	case uint16:
		return types.Uint16(x), nil
	case uint32:
		return types.Uint32(x), nil
	case uint64:
		return types.Uint64(x), nil
	case float32:
		return types.Float64(float64(x)), nil
	case float64:
		return types.Float64(x), nil
	case time.Time:
		return types.Time(x), nil
	case *regexp.Regexp:
		return types.Regex(x), nil
	case number:
		if i, err := x.Int64(); err == nil {
			return types.Int64(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return types.Value{}, fmt.Errorf("import number %q: %w", x.String(), err)
		}
		return types.Float64(f), nil
	case map[string]any:
		names := make([]string, 0, len(x))
		for n := range x {
			names = append(names, n)
		}
		sort.Strings(names)
		o := ot.New()
		for _, n := range names {
			v, err := e.Import(x[n], ot)
			if err != nil {
				return types.Value{}, fmt.Errorf("import field %q: %w", n, err)
			}
			o.Set(types.StringKey(n), v)
		}
		return types.ObjectValue(o), nil
	case map[any]any:
		return e.importAnyMap(x, ot)
	case []any:
		values := make([]types.Value, 0, len(x))
		for i, elem := range x {
			v, err := e.Import(elem, ot)
			if err != nil {
				return types.Value{}, fmt.Errorf("import element %d: %w", i, err)
			}
			values = append(values, v)
		}
		return types.SequenceValue(ot.Sequence().New(values)), nil
	}
	return e.importReflect(reflect.ValueOf(x), ot)
}

func (e *Engine) importAnyMap(m map[any]any, ot types.ObjectType) (types.Value, error) {
	type entry struct {
		key types.Key
		val any
	}
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		kv, err := e.Import(k, ot)
		if err != nil {
			return types.Value{}, fmt.Errorf("import key %v: %w", k, err)
		}
		key, ok := types.KeyOf(kv)
		if !ok {
			return types.Value{}, fmt.Errorf("import key %v of kind %s: %w", k, kv.Kind(), ErrUnsupportedType)
		}
		entries = append(entries, entry{key: key, val: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key.Less(entries[j].key) })

	o := ot.New()
	for _, en := range entries {
		v, err := e.Import(en.val, ot)
		if err != nil {
			return types.Value{}, fmt.Errorf("import field %q: %w", en.key.String(), err)
		}
		o.Set(en.key, v)
	}
	return types.ObjectValue(o), nil
}

// importReflect covers named types and typed containers by their
// underlying kind.
func (e *Engine) importReflect(rv reflect.Value, ot types.ObjectType) (types.Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return types.Bool(rv.Bool()), nil
	case reflect.String:
		return types.String(rv.String()), nil
	case reflect.Int:
		return types.Int(int(rv.Int())), nil
	case reflect.Int8:
		return types.Int8(int8(rv.Int())), nil
	case reflect.Int16:
		return types.Int16(int16(rv.Int())), nil
	case reflect.Int32:
		return types.Int32(int32(rv.Int())), nil
	case reflect.Int64:
		return types.Int64(rv.Int()), nil
	case reflect.Uint:
		return types.Uint(uint(rv.Uint())), nil
	case reflect.Uint8:
		return types.Uint8(uint8(rv.Uint())), nil
	case reflect.Uint16:
		return types.Uint16(uint16(rv.Uint())), nil
	case reflect.Uint32:
		return types.Uint32(uint32(rv.Uint())), nil
	case reflect.Uint64:
		return types.Uint64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return types.Float64(rv.Float()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return types.Null(), nil
		}
		return e.Import(rv.Elem().Interface(), ot)
	case reflect.Slice:
		if rv.IsNil() {
			return types.Null(), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return types.Bytes(rv.Bytes()), nil
		}
		return e.importList(rv, ot)
	case reflect.Array:
		return e.importList(rv, ot)
	case reflect.Map:
		if rv.IsNil() {
			return types.Null(), nil
		}
		m := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().Interface()] = iter.Value().Interface()
		}
		return e.importAnyMap(m, ot)
	case reflect.Invalid:
		return types.Null(), nil
	}
	return types.Value{}, fmt.Errorf("import %s: %w", rv.Type(), ErrUnsupportedType)
}

func (e *Engine) importList(rv reflect.Value, ot types.ObjectType) (types.Value, error) {
	values := make([]types.Value, 0, rv.Len())
	for i := range rv.Len() {
		v, err := e.Import(rv.Index(i).Interface(), ot)
		if err != nil {
			return types.Value{}, fmt.Errorf("import element %d: %w", i, err)
		}
		values = append(values, v)
	}
	return types.SequenceValue(ot.Sequence().New(values)), nil
}
