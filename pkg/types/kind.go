package types

import (
	"math/bits"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

// Leaf and container kinds. KindNull is the zero Kind so the zero Value is null.
const (
	KindNull Kind = iota
	KindBool
	KindString
	KindBytes
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat64
	KindTime
	KindRegex
	KindObject
	KindSequence

	kindCount
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindString:   "string",
	KindBytes:    "bytes",
	KindInt:      "int",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint:     "uint",
	KindUint8:    "uint8",
	KindUint16:   "uint16",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindFloat64:  "float64",
	KindTime:     "time",
	KindRegex:    "regex",
	KindObject:   "object",
	KindSequence: "sequence",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindNull, false
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool { return k >= KindInt && k <= KindInt64 }

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool { return k >= KindUint && k <= KindUint64 }

// IsInteger reports whether k is any integer kind.
func (k Kind) IsInteger() bool { return k.IsSigned() || k.IsUnsigned() }

// IsContainer reports whether k is KindObject or KindSequence.
func (k Kind) IsContainer() bool { return k == KindObject || k == KindSequence }

// KindSet is a set of kinds, used to describe the value domain of a
// representation.
type KindSet uint32

// Predefined kind sets.
const (
	NoKinds KindSet = 0

	SignedKinds   = KindSet(1<<KindInt | 1<<KindInt8 | 1<<KindInt16 | 1<<KindInt32 | 1<<KindInt64)
	UnsignedKinds = KindSet(1<<KindUint | 1<<KindUint8 | 1<<KindUint16 | 1<<KindUint32 | 1<<KindUint64)
	IntegerKinds  = SignedKinds | UnsignedKinds

	// HashableKinds are the kinds a Key may hold.
	HashableKinds = IntegerKinds | KindSet(1<<KindString|1<<KindBool)

	ScalarKinds = IntegerKinds | KindSet(1<<KindNull|1<<KindBool|1<<KindString|1<<KindBytes|
		1<<KindFloat64|1<<KindTime|1<<KindRegex)

	ContainerKinds = KindSet(1<<KindObject | 1<<KindSequence)

	AnyKind = ScalarKinds | ContainerKinds
)

// KindsOf builds a KindSet from the given kinds.
func KindsOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// Has reports whether k is a member of s.
func (s KindSet) Has(k Kind) bool { return k < kindCount && s&(1<<k) != 0 }

// With returns s with k added.
func (s KindSet) With(k Kind) KindSet { return s | 1<<k }

// Without returns s with k removed.
func (s KindSet) Without(k Kind) KindSet { return s &^ (1 << k) }

// Len returns the number of kinds in s.
func (s KindSet) Len() int { return bits.OnesCount32(uint32(s & AnyKind)) }

// Kinds lists the members of s in Kind order.
func (s KindSet) Kinds() []Kind {
	out := make([]Kind, 0, s.Len())
	for k := KindNull; k < kindCount; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	if s&AnyKind == AnyKind {
		return "{any}"
	}
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
