package types

import "strconv"

// Key is a comparable container key. It holds one of the HashableKinds.
type Key struct {
	kind Kind
	s    string
	i    int64
	u    uint64
}

// StringKey returns a string key.
func StringKey(s string) Key { return Key{kind: KindString, s: s} }

// IntKey returns a native-width signed integer key.
func IntKey(i int) Key { return Key{kind: KindInt, i: int64(i)} }

// KeyOf returns the key form of v. It reports false when v's kind is not
// hashable.
func KeyOf(v Value) (Key, bool) {
	switch {
	case v.kind == KindString:
		return Key{kind: KindString, s: v.s}, true
	case v.kind == KindBool || v.kind.IsSigned():
		return Key{kind: v.kind, i: v.i}, true
	case v.kind.IsUnsigned():
		return Key{kind: v.kind, u: v.u}, true
	}
	return Key{}, false
}

// Kind returns the kind of the key.
func (k Key) Kind() Kind { return k.kind }

// Value returns the key as a Value.
func (k Key) Value() Value {
	switch {
	case k.kind == KindString:
		return String(k.s)
	case k.kind == KindBool || k.kind.IsSigned():
		return Value{kind: k.kind, i: k.i}
	case k.kind.IsUnsigned():
		return Value{kind: k.kind, u: k.u}
	}
	return Null()
}

// String returns the textual form of the key. String keys are returned as is.
func (k Key) String() string {
	switch {
	case k.kind == KindString:
		return k.s
	case k.kind == KindBool:
		return strconv.FormatBool(k.i == 1)
	case k.kind.IsSigned():
		return strconv.FormatInt(k.i, 10)
	case k.kind.IsUnsigned():
		return strconv.FormatUint(k.u, 10)
	}
	return ""
}

// Less orders keys by kind, then by natural order within a kind.
func (k Key) Less(o Key) bool {
	return Compare(k.Value(), o.Value()) < 0
}
