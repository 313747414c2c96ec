package types

import "iter"

// DefaultIdentifierField names the primary-key field of stored entities.
const DefaultIdentifierField = "_id"

// Entity is a keyed container that can be stored in a Table.
type Entity interface {
	Object
	// Identifier returns the primary key, if the entity has one.
	Identifier() (Value, bool)
}

// Document is an insertion-ordered keyed container. It is the entity type
// the storage backends read and write.
type Document struct {
	typ    *MapType
	fields []Field
	index  map[Key]int
}

var (
	_ Object = (*Document)(nil)
	_ Entity = (*Document)(nil)
	_ Entity = (*Map)(nil)
)

// NewDocument returns an empty Document of DocumentType, optionally
// populated from fields.
func NewDocument(fields ...Field) *Document {
	return Build(DocumentType, fields...).(*Document)
}

// Clone returns a shallow copy of d with the same type and field order.
func (d *Document) Clone() *Document {
	c := &Document{
		typ:    d.typ,
		fields: make([]Field, len(d.fields)),
		index:  make(map[Key]int, len(d.index)),
	}
	copy(c.fields, d.fields)
	for k, i := range d.index {
		c.index[k] = i
	}
	return c
}

func (d *Document) Type() ObjectType { return d.typ }
func (d *Document) Len() int         { return len(d.fields) }

func (d *Document) Get(k Key) (Value, bool) {
	i, ok := d.index[k]
	if !ok {
		return Value{}, false
	}
	return d.fields[i].Value, true
}

// Set overwrites an existing field in place or appends a new one.
func (d *Document) Set(k Key, v Value) {
	if i, ok := d.index[k]; ok {
		d.fields[i].Value = v
		return
	}
	d.index[k] = len(d.fields)
	d.fields = append(d.fields, Field{Key: k, Value: v})
}

func (d *Document) Delete(k Key) {
	i, ok := d.index[k]
	if !ok {
		return
	}
	d.fields = append(d.fields[:i], d.fields[i+1:]...)
	delete(d.index, k)
	for j := i; j < len(d.fields); j++ {
		d.index[d.fields[j].Key] = j
	}
}

func (d *Document) Keys() []Key {
	out := make([]Key, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.Key
	}
	return out
}

func (d *Document) Values() []Value {
	out := make([]Value, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.Value
	}
	return out
}

func (d *Document) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		for _, f := range d.fields {
			if !yield(f.Key, f.Value) {
				return
			}
		}
	}
}

// Field returns the value stored under a string key.
func (d *Document) Field(name string) (Value, bool) {
	return d.Get(StringKey(name))
}

// SetField stores v under a string key.
func (d *Document) SetField(name string, v Value) {
	d.Set(StringKey(name), v)
}

// Identifier returns the value of the DefaultIdentifierField.
func (d *Document) Identifier() (Value, bool) {
	return d.Field(DefaultIdentifierField)
}
