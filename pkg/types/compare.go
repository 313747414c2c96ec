package types

import (
	"bytes"
	"cmp"
	"strings"
)

// kindRank groups kinds for ordering so that numbers of different widths
// compare by magnitude rather than by kind.
func kindRank(k Kind) int {
	switch {
	case k == KindNull:
		return 0
	case k.IsInteger() || k == KindFloat64:
		return 1
	case k == KindString:
		return 2
	case k == KindBytes:
		return 3
	case k == KindBool:
		return 4
	case k == KindTime:
		return 5
	case k == KindRegex:
		return 6
	case k == KindObject:
		return 7
	}
	return 8
}

// Compare orders two values: first by kind group (null, numbers, strings,
// bytes, bools, times, regexes, objects, sequences), then naturally within
// the group. Numbers of any kind compare by magnitude.
func Compare(a, b Value) int {
	if ra, rb := kindRank(a.kind), kindRank(b.kind); ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch {
	case a.kind == KindNull:
		return 0
	case kindRank(a.kind) == 1:
		return compareNumbers(a, b)
	}
	switch a.kind {
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindBytes:
		return bytes.Compare(a.b, b.b)
	case KindBool:
		return cmp.Compare(a.i, b.i)
	case KindTime:
		return a.t.Compare(b.t)
	case KindRegex:
		return strings.Compare(a.re.String(), b.re.String())
	case KindObject:
		return cmp.Compare(a.obj.Len(), b.obj.Len())
	case KindSequence:
		n := min(a.seq.Len(), b.seq.Len())
		for i := range n {
			if c := Compare(a.seq.At(i), b.seq.At(i)); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.seq.Len(), b.seq.Len())
	}
	return 0
}

func compareNumbers(a, b Value) int {
	switch {
	case a.kind.IsSigned() && b.kind.IsSigned():
		return cmp.Compare(a.i, b.i)
	case a.kind.IsUnsigned() && b.kind.IsUnsigned():
		return cmp.Compare(a.u, b.u)
	case a.kind.IsSigned() && b.kind.IsUnsigned():
		if a.i < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.i), b.u)
	case a.kind.IsUnsigned() && b.kind.IsSigned():
		return -compareNumbers(b, a)
	}
	return cmp.Compare(numberAsFloat(a), numberAsFloat(b))
}

func numberAsFloat(v Value) float64 {
	switch {
	case v.kind.IsSigned():
		return float64(v.i)
	case v.kind.IsUnsigned():
		return float64(v.u)
	}
	return v.f
}
