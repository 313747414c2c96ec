package types

import (
	"iter"
	"slices"
)

// ListType is the reference SequenceType, backed by a growable slice.
type ListType struct {
	name  string
	elems KindSet
	obj   ObjectType
}

var _ SequenceType = (*ListType)(nil)

func (t *ListType) Name() string          { return t.name }
func (t *ListType) ElementKinds() KindSet { return t.elems }
func (t *ListType) Object() ObjectType    { return t.obj }

// New returns a List holding a copy of values.
func (t *ListType) New(values []Value) Sequence {
	return &List{typ: t, values: slices.Clone(values)}
}

// List is a growable-array backed ordered container.
type List struct {
	typ    *ListType
	values []Value
}

var _ Sequence = (*List)(nil)

// NewList returns a List of the DefaultMapType's paired list type.
func NewList(values ...Value) *List {
	return DefaultMapType.List().New(values).(*List)
}

func (l *List) Type() SequenceType { return l.typ }
func (l *List) Len() int           { return len(l.values) }
func (l *List) At(i int) Value     { return l.values[i] }

// Values returns a copy of the elements.
func (l *List) Values() []Value { return slices.Clone(l.values) }

func (l *List) All() iter.Seq2[int, Value] {
	return slices.All(l.values)
}
