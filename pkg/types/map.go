package types

import (
	"iter"
	"maps"
	"slices"
)

// CoerceFunc is a representation-specific fallback conversion. It receives
// the value and the representation asking for it.
type CoerceFunc func(v Value, t ObjectType) (Value, bool)

// MapType is the reference ObjectType. It builds hash-map backed containers,
// or insertion-ordered Documents when created WithOrdered.
type MapType struct {
	name    string
	keys    KindSet
	values  KindSet
	ordered bool
	coerce  CoerceFunc
	seq     *ListType
}

// MapTypeOption configures a MapType.
type MapTypeOption func(*MapType)

// WithCoercion installs the representation's fallback conversion hook.
func WithCoercion(fn CoerceFunc) MapTypeOption {
	return func(t *MapType) {
		t.coerce = fn
	}
}

// WithOrdered makes the representation build insertion-ordered Documents.
func WithOrdered() MapTypeOption {
	return func(t *MapType) {
		t.ordered = true
	}
}

// NewMapType creates a keyed representation with the given key and value
// domains, paired with a ListType sharing the value domain. Key kinds
// outside HashableKinds are ignored.
func NewMapType(name string, keys, values KindSet, opts ...MapTypeOption) *MapType {
	t := &MapType{
		name:   name,
		keys:   keys & HashableKinds,
		values: values,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.seq = &ListType{name: name + "[]", elems: values, obj: t}
	return t
}

var _ ObjectType = (*MapType)(nil)

func (t *MapType) Name() string           { return t.name }
func (t *MapType) KeyKinds() KindSet      { return t.keys }
func (t *MapType) ValueKinds() KindSet    { return t.values }
func (t *MapType) Sequence() SequenceType { return t.seq }

// List returns the paired ListType.
func (t *MapType) List() *ListType { return t.seq }

// New returns an empty container of this representation.
func (t *MapType) New() Object {
	if t.ordered {
		return &Document{typ: t, index: make(map[Key]int)}
	}
	return &Map{typ: t, entries: make(map[Key]Value)}
}

// Coerce runs the installed hook. Without one, only values already in the
// value domain are accepted.
func (t *MapType) Coerce(v Value) (Value, bool) {
	if t.coerce != nil {
		return t.coerce(v, t)
	}
	if t.values.Has(v.kind) && !v.kind.IsContainer() {
		return v, true
	}
	return Value{}, false
}

// Map is a hash-map backed keyed container. Iteration order is unspecified.
type Map struct {
	typ     *MapType
	entries map[Key]Value
}

var _ Object = (*Map)(nil)

// NewMap returns an empty Map of DefaultMapType.
func NewMap() *Map {
	return DefaultMapType.New().(*Map)
}

func (m *Map) Type() ObjectType { return m.typ }
func (m *Map) Len() int         { return len(m.entries) }

func (m *Map) Get(k Key) (Value, bool) {
	v, ok := m.entries[k]
	return v, ok
}

func (m *Map) Set(k Key, v Value) { m.entries[k] = v }
func (m *Map) Delete(k Key)       { delete(m.entries, k) }

func (m *Map) Keys() []Key {
	return slices.Collect(maps.Keys(m.entries))
}

func (m *Map) Values() []Value {
	return slices.Collect(maps.Values(m.entries))
}

func (m *Map) All() iter.Seq2[Key, Value] {
	return maps.All(m.entries)
}

// Identifier returns the value stored under DefaultIdentifierField.
func (m *Map) Identifier() (Value, bool) {
	return m.Get(StringKey(DefaultIdentifierField))
}
