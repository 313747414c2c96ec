package types

import "sort"

// Standard representations.
var (
	// DefaultMapType accepts any hashable key and any value.
	DefaultMapType = NewMapType("map", HashableKinds, AnyKind)

	// JSONMapType holds what plain JSON can express.
	JSONMapType = NewMapType("json",
		KindsOf(KindString),
		KindsOf(KindNull, KindBool, KindString, KindInt64, KindFloat64, KindObject, KindSequence),
		WithOrdered())

	// DocumentType holds what BSON can express. Single-element sequences are
	// unwrapped when their element fits.
	DocumentType = NewMapType("document",
		KindsOf(KindString),
		KindsOf(KindNull, KindBool, KindString, KindBytes, KindInt32, KindInt64,
			KindFloat64, KindTime, KindRegex, KindObject, KindSequence),
		WithOrdered(),
		WithCoercion(UnwrapSingleton))

	// RecordType holds what the SQLite document store persists.
	RecordType = NewMapType("record",
		KindsOf(KindString),
		KindsOf(KindNull, KindBool, KindString, KindBytes, KindInt64, KindFloat64,
			KindTime, KindObject, KindSequence),
		WithOrdered())
)

var representations = map[string]*MapType{
	DefaultMapType.Name(): DefaultMapType,
	JSONMapType.Name():    JSONMapType,
	DocumentType.Name():   DocumentType,
	RecordType.Name():     RecordType,
}

// LookupRepresentation returns a standard representation by name.
func LookupRepresentation(name string) (*MapType, bool) {
	t, ok := representations[name]
	return t, ok
}

// RepresentationNames lists the standard representation names, sorted.
func RepresentationNames() []string {
	names := make([]string, 0, len(representations))
	for n := range representations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UnwrapSingleton is a CoerceFunc that accepts a one-element sequence whose
// element is a leaf already in t's value domain, yielding that element.
func UnwrapSingleton(v Value, t ObjectType) (Value, bool) {
	seq, ok := v.AsSequence()
	if !ok || seq.Len() != 1 {
		return Value{}, false
	}
	e := seq.At(0)
	if e.kind.IsContainer() || !t.ValueKinds().Has(e.kind) {
		return Value{}, false
	}
	return e, true
}
