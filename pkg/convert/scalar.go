package convert

import (
	"math"
	"strconv"
	"time"

	"github.com/ccoveille/go-safecast"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Scalar re-expresses a leaf value as the target kind. It reports false when
// the value is not representable there.
//
//   - A value already of the target kind is returned unchanged.
//   - Integers are staged through 64 bits and range checked against the
//     destination; any integer converts to float64.
//   - Floats are truncated toward zero, then take the signed path when
//     negative and the unsigned path otherwise. NaN and infinities fail.
//   - Strings parse as the target numeric kind.
//   - Times convert to float64 seconds since the Unix epoch, or to a signed
//     integer of whole seconds.
//   - Bools, byte blobs, regexes and null convert only to themselves.
func (e *Engine) Scalar(v types.Value, target types.Kind) (types.Value, bool) {
	if v.Kind() == target {
		return v, true
	}
	if target.IsContainer() {
		return types.Value{}, false
	}

	switch k := v.Kind(); {
	case k.IsSigned():
		i, _ := v.AsInt64()
		return e.fromSigned(i, target)
	case k.IsUnsigned():
		u, _ := v.AsUint64()
		return e.fromUnsigned(u, target)
	}

	switch v.Kind() {
	case types.KindFloat64:
		f, _ := v.AsFloat64()
		return e.fromFloat(f, target)
	case types.KindString:
		s, _ := v.AsString()
		return fromString(s, target)
	case types.KindTime:
		t, _ := v.AsTime()
		return fromTime(t, target)
	}
	return types.Value{}, false
}

func (e *Engine) fromSigned(i int64, target types.Kind) (types.Value, bool) {
	switch {
	case target.IsSigned():
		return toSigned(i, target)
	case target.IsUnsigned():
		return toUnsigned(i, target, e.policy)
	case target == types.KindFloat64:
		return types.Float64(float64(i)), true
	}
	return types.Value{}, false
}

func (e *Engine) fromUnsigned(u uint64, target types.Kind) (types.Value, bool) {
	switch {
	case target.IsSigned():
		return toSigned(u, target)
	case target.IsUnsigned():
		return toUnsigned(u, target, e.policy)
	case target == types.KindFloat64:
		return types.Float64(float64(u)), true
	}
	return types.Value{}, false
}

func (e *Engine) fromFloat(f float64, target types.Kind) (types.Value, bool) {
	if !target.IsInteger() || math.IsNaN(f) || math.IsInf(f, 0) {
		return types.Value{}, false
	}
	f = math.Trunc(f)
	if f < 0 {
		if f < math.MinInt64 {
			return types.Value{}, false
		}
		i, err := safecast.ToInt64(f)
		if err != nil {
			return types.Value{}, false
		}
		return e.fromSigned(i, target)
	}
	u, err := safecast.ToUint64(f)
	if err != nil {
		return types.Value{}, false
	}
	return e.fromUnsigned(u, target)
}

// fromString parses s as the target kind. Parsing uses the natural range of
// the destination; the unsigned policy does not apply to text.
func fromString(s string, target types.Kind) (types.Value, bool) {
	switch {
	case target == types.KindFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Value{}, false
		}
		return types.Float64(f), true
	case target.IsSigned():
		i, err := strconv.ParseInt(s, 10, bitSize(target))
		if err != nil {
			return types.Value{}, false
		}
		return types.SignedOf(target, i)
	case target.IsUnsigned():
		u, err := strconv.ParseUint(s, 10, bitSize(target))
		if err != nil {
			return types.Value{}, false
		}
		return types.UnsignedOf(target, u)
	}
	return types.Value{}, false
}

func fromTime(t time.Time, target types.Kind) (types.Value, bool) {
	switch {
	case target == types.KindFloat64:
		secs := float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
		return types.Float64(secs), true
	case target.IsSigned():
		return toSigned(wholeSeconds(t), target)
	}
	return types.Value{}, false
}

// wholeSeconds is the Unix time of t truncated toward zero. t.Unix rounds
// down, which differs before the epoch.
func wholeSeconds(t time.Time) int64 {
	s := t.Unix()
	if s < 0 && t.Nanosecond() > 0 {
		s++
	}
	return s
}

// toSigned range checks a staged integer against a signed destination.
func toSigned[T int64 | uint64](x T, target types.Kind) (types.Value, bool) {
	var (
		n   int64
		err error
	)
	switch target {
	case types.KindInt:
		var v int
		v, err = safecast.ToInt(x)
		n = int64(v)
	case types.KindInt8:
		var v int8
		v, err = safecast.ToInt8(x)
		n = int64(v)
	case types.KindInt16:
		var v int16
		v, err = safecast.ToInt16(x)
		n = int64(v)
	case types.KindInt32:
		var v int32
		v, err = safecast.ToInt32(x)
		n = int64(v)
	case types.KindInt64:
		n, err = safecast.ToInt64(x)
	default:
		return types.Value{}, false
	}
	if err != nil {
		return types.Value{}, false
	}
	return types.SignedOf(target, n)
}

// toUnsigned range checks a staged integer against an unsigned destination.
// Under SignedBound the value must also fit the signed kind of equal width.
func toUnsigned[T int64 | uint64](x T, target types.Kind, policy Policy) (types.Value, bool) {
	if policy == SignedBound {
		if _, ok := toSigned(x, signedTwin(target)); !ok {
			return types.Value{}, false
		}
	}

	var (
		n   uint64
		err error
	)
	switch target {
	case types.KindUint:
		var v uint
		v, err = safecast.ToUint(x)
		n = uint64(v)
	case types.KindUint8:
		var v uint8
		v, err = safecast.ToUint8(x)
		n = uint64(v)
	case types.KindUint16:
		var v uint16
		v, err = safecast.ToUint16(x)
		n = uint64(v)
	case types.KindUint32:
		var v uint32
		v, err = safecast.ToUint32(x)
		n = uint64(v)
	case types.KindUint64:
		n, err = safecast.ToUint64(x)
	default:
		return types.Value{}, false
	}
	if err != nil {
		return types.Value{}, false
	}
	return types.UnsignedOf(target, n)
}

func signedTwin(k types.Kind) types.Kind {
	switch k {
	case types.KindUint:
		return types.KindInt
	case types.KindUint8:
		return types.KindInt8
	case types.KindUint16:
		return types.KindInt16
	case types.KindUint32:
		return types.KindInt32
	case types.KindUint64:
		return types.KindInt64
	}
	return k
}

func bitSize(k types.Kind) int {
	switch k {
	case types.KindInt8, types.KindUint8:
		return 8
	case types.KindInt16, types.KindUint16:
		return 16
	case types.KindInt32, types.KindUint32:
		return 32
	case types.KindInt64, types.KindUint64:
		return 64
	}
	return strconv.IntSize
}
