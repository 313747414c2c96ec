package types

import "iter"

// Sequence is an ordered container of values.
type Sequence interface {
	Type() SequenceType
	Len() int
	At(i int) Value
	Values() []Value
	All() iter.Seq2[int, Value]
}

// SequenceType describes an ordered representation and the keyed
// representation it pairs with for nested objects.
type SequenceType interface {
	Name() string
	ElementKinds() KindSet
	New(values []Value) Sequence
	Object() ObjectType
}

// SequencesEqual reports whether a and b hold equal values in the same order.
func SequencesEqual(a, b Sequence) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	for i, v := range a.All() {
		if !v.Equal(b.At(i)) {
			return false
		}
	}
	return true
}
