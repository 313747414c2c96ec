package types

import "iter"

// Object is a keyed container: a mapping from unique keys to values.
// Absence of a key is distinct from presence with a null value.
//
// Set and Delete exist so that containers can be built field by field;
// conversion never mutates an input container.
type Object interface {
	// Type returns the representation this container belongs to.
	Type() ObjectType
	Len() int
	Get(k Key) (Value, bool)
	// Set stores v under k, overwriting any previous value.
	Set(k Key, v Value)
	Delete(k Key)
	Keys() []Key
	Values() []Value
	// All iterates the fields in the container's native order. Unordered
	// containers make no promise about that order.
	All() iter.Seq2[Key, Value]
}

// ObjectType describes a keyed representation: which keys and values it can
// hold, how to construct an empty container, and which ordered
// representation it pairs with for nested sequences.
type ObjectType interface {
	Name() string
	KeyKinds() KindSet
	ValueKinds() KindSet
	New() Object
	Sequence() SequenceType
	// Coerce is the representation's own fallback for values that neither
	// match its domain nor convert through dispatch.
	Coerce(v Value) (Value, bool)
}

// Field is a single key/value pair.
type Field struct {
	Key   Key
	Value Value
}

// F returns a field with a string key.
func F(name string, v Value) Field { return Field{Key: StringKey(name), Value: v} }

// Build constructs a container of type t from fields. Later duplicates
// overwrite earlier ones.
func Build(t ObjectType, fields ...Field) Object {
	o := t.New()
	for _, f := range fields {
		o.Set(f.Key, f.Value)
	}
	return o
}

// Clone returns a shallow copy of o in the same representation.
func Clone(o Object) Object {
	c := o.Type().New()
	for k, v := range o.All() {
		c.Set(k, v)
	}
	return c
}

// DeepClone copies v and every container nested in it, each in its own
// representation. Leaves are returned as is.
func DeepClone(v Value) Value {
	if o, ok := v.AsObject(); ok {
		c := o.Type().New()
		for k, e := range o.All() {
			c.Set(k, DeepClone(e))
		}
		return ObjectValue(c)
	}
	if s, ok := v.AsSequence(); ok {
		out := make([]Value, 0, s.Len())
		for _, e := range s.All() {
			out = append(out, DeepClone(e))
		}
		return SequenceValue(s.Type().New(out))
	}
	return v
}

// ObjectsEqual reports whether a and b hold the same keys with equal values.
// The representations themselves are not compared.
func ObjectsEqual(a, b Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	for k, v := range a.All() {
		w, ok := b.Get(k)
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
