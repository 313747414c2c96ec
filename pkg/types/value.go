package types

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// Value is an immutable tagged union over the leaf kinds plus the two
// container kinds. The zero Value is null.
//
// A Value never claims two kinds: the payload field that is meaningful is
// selected by Kind and every other field is zero.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	s    string
	b    []byte
	t    time.Time
	re   *regexp.Regexp
	obj  Object
	seq  Sequence
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a bool value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a byte blob value. The slice is copied.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, b: bytes.Clone(b)}
}

// Int returns a native-width signed integer value.
func Int(i int) Value { return Value{kind: KindInt, i: int64(i)} }

// Int8 returns an 8-bit signed integer value.
func Int8(i int8) Value { return Value{kind: KindInt8, i: int64(i)} }

// Int16 returns a 16-bit signed integer value.
func Int16(i int16) Value { return Value{kind: KindInt16, i: int64(i)} }

// Int32 returns a 32-bit signed integer value.
func Int32(i int32) Value { return Value{kind: KindInt32, i: int64(i)} }

// Int64 returns a 64-bit signed integer value.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Uint returns a native-width unsigned integer value.
func Uint(u uint) Value { return Value{kind: KindUint, u: uint64(u)} }

// Uint8 returns an 8-bit unsigned integer value.
func Uint8(u uint8) Value { return Value{kind: KindUint8, u: uint64(u)} }

// Uint16 returns a 16-bit unsigned integer value.
func Uint16(u uint16) Value { return Value{kind: KindUint16, u: uint64(u)} }

// Uint32 returns a 32-bit unsigned integer value.
func Uint32(u uint32) Value { return Value{kind: KindUint32, u: uint64(u)} }

// Uint64 returns a 64-bit unsigned integer value.
func Uint64(u uint64) Value { return Value{kind: KindUint64, u: u} }

// Float64 returns a floating point value.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Regex returns a regular expression value. A nil expression yields null.
func Regex(re *regexp.Regexp) Value {
	if re == nil {
		return Null()
	}
	return Value{kind: KindRegex, re: re}
}

// CompileRegex compiles pattern and wraps it as a Value.
func CompileRegex(pattern string) (Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Value{}, err
	}
	return Regex(re), nil
}

// MustRegex is like CompileRegex but panics on an invalid pattern.
func MustRegex(pattern string) Value {
	return Regex(regexp.MustCompile(pattern))
}

// ObjectValue wraps a keyed container. A nil object yields null.
func ObjectValue(o Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

// SequenceValue wraps an ordered container. A nil sequence yields null.
func SequenceValue(s Sequence) Value {
	if s == nil {
		return Null()
	}
	return Value{kind: KindSequence, seq: s}
}

// signedValue builds a value of the given signed kind from a staged int64.
// The caller has already checked the range.
func signedValue(k Kind, i int64) Value { return Value{kind: k, i: i} }

// unsignedValue builds a value of the given unsigned kind from a staged uint64.
func unsignedValue(k Kind, u uint64) Value { return Value{kind: k, u: u} }

// SignedOf returns a value of signed kind k holding i. It reports false when
// k is not a signed kind. Range checks are the caller's responsibility.
func SignedOf(k Kind, i int64) (Value, bool) {
	if !k.IsSigned() {
		return Value{}, false
	}
	return signedValue(k, i), true
}

// UnsignedOf returns a value of unsigned kind k holding u. It reports false
// when k is not an unsigned kind. Range checks are the caller's responsibility.
func UnsignedOf(k Kind, u uint64) (Value, bool) {
	if !k.IsUnsigned() {
		return Value{}, false
	}
	return unsignedValue(k, u), true
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, bool) { return v.i == 1, v.kind == KindBool }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBytes returns a copy of the blob held by v.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return bytes.Clone(v.b), true
}

// AsInt64 returns the staged 64-bit value of any signed integer kind.
func (v Value) AsInt64() (int64, bool) { return v.i, v.kind.IsSigned() }

// AsUint64 returns the staged 64-bit value of any unsigned integer kind.
func (v Value) AsUint64() (uint64, bool) { return v.u, v.kind.IsUnsigned() }

// AsFloat64 returns the float held by v.
func (v Value) AsFloat64() (float64, bool) { return v.f, v.kind == KindFloat64 }

// AsTime returns the timestamp held by v.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// AsRegex returns the regular expression held by v.
func (v Value) AsRegex() (*regexp.Regexp, bool) { return v.re, v.kind == KindRegex }

// AsObject returns the keyed container held by v.
func (v Value) AsObject() (Object, bool) { return v.obj, v.kind == KindObject }

// AsSequence returns the ordered container held by v.
func (v Value) AsSequence() (Sequence, bool) { return v.seq, v.kind == KindSequence }

// Equal reports whether v and w hold the same kind and an equal payload.
// Containers compare element-wise; regular expressions compare by source.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch {
	case v.kind == KindNull:
		return true
	case v.kind == KindBool || v.kind.IsSigned():
		return v.i == w.i
	case v.kind.IsUnsigned():
		return v.u == w.u
	}
	switch v.kind {
	case KindString:
		return v.s == w.s
	case KindBytes:
		return bytes.Equal(v.b, w.b)
	case KindFloat64:
		return v.f == w.f || (math.IsNaN(v.f) && math.IsNaN(w.f))
	case KindTime:
		return v.t.Equal(w.t)
	case KindRegex:
		return v.re.String() == w.re.String()
	case KindObject:
		return ObjectsEqual(v.obj, w.obj)
	case KindSequence:
		return SequencesEqual(v.seq, w.seq)
	}
	return false
}

// Interface returns v as a native Go value. Objects become map[string]any
// when every key is a string and map[any]any otherwise; sequences become []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.i == 1
	case KindString:
		return v.s
	case KindBytes:
		return bytes.Clone(v.b)
	case KindInt:
		return int(v.i)
	case KindInt8:
		return int8(v.i)
	case KindInt16:
		return int16(v.i)
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindUint:
		return uint(v.u)
	case KindUint8:
		return uint8(v.u)
	case KindUint16:
		return uint16(v.u)
	case KindUint32:
		return uint32(v.u)
	case KindUint64:
		return v.u
	case KindFloat64:
		return v.f
	case KindTime:
		return v.t
	case KindRegex:
		return v.re
	case KindObject:
		return objectInterface(v.obj)
	case KindSequence:
		out := make([]any, 0, v.seq.Len())
		for _, e := range v.seq.Values() {
			out = append(out, e.Interface())
		}
		return out
	}
	return nil
}

func objectInterface(o Object) any {
	allStrings := true
	for _, k := range o.Keys() {
		if k.Kind() != KindString {
			allStrings = false
			break
		}
	}
	if allStrings {
		out := make(map[string]any, o.Len())
		for k, v := range o.All() {
			out[k.s] = v.Interface()
		}
		return out
	}
	out := make(map[any]any, o.Len())
	for k, v := range o.All() {
		out[k.Value().Interface()] = v.Interface()
	}
	return out
}

// String renders v for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.s)
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.b))
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindRegex:
		return "/" + v.re.String() + "/"
	case KindObject:
		return fmt.Sprintf("%s(%d)", v.obj.Type().Name(), v.obj.Len())
	case KindSequence:
		return fmt.Sprintf("%s[%d]", v.seq.Type().Name(), v.seq.Len())
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.Interface())
}
