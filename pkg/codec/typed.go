package codec

import (
	"fmt"
	"math"
	"strconv"
	"time"

	j "github.com/goccy/go-json"

	"github.com/mesh-intelligence/larder/pkg/convert"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// typed is the wire form of a kind-tagged value. T names the representation
// of a container so it can be rebuilt with the same type.
type typed struct {
	K string       `json:"k"`
	T string       `json:"t,omitempty"`
	V j.RawMessage `json:"v,omitempty"`
}

// narrowing range checks decoded integers against their tagged width.
var narrowing = convert.New(convert.WithPolicy(convert.Strict))

// MarshalTyped renders v as kind-tagged JSON. Every kind round-trips through
// UnmarshalTyped, including integer widths, non-finite floats, byte blobs,
// times and key order of ordered containers.
func MarshalTyped(v types.Value) ([]byte, error) {
	t, err := toTyped(v)
	if err != nil {
		return nil, err
	}
	return j.Marshal(t)
}

// UnmarshalTyped parses kind-tagged JSON. Containers are rebuilt with the
// standard representation they were written from, or with ot when the name
// is unknown (nil ot means DefaultMapType).
func UnmarshalTyped(data []byte, ot types.ObjectType) (types.Value, error) {
	if ot == nil {
		ot = types.DefaultMapType
	}
	var t typed
	if err := j.Unmarshal(data, &t); err != nil {
		return types.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromTyped(t, ot)
}

func toTyped(v types.Value) (typed, error) {
	t := typed{K: v.Kind().String()}
	var payload any
	switch k := v.Kind(); {
	case k == types.KindNull:
		return t, nil
	case k.IsSigned():
		payload, _ = v.AsInt64()
	case k.IsUnsigned():
		payload, _ = v.AsUint64()
	case k == types.KindBool:
		payload, _ = v.AsBool()
	case k == types.KindString:
		payload, _ = v.AsString()
	case k == types.KindBytes:
		payload, _ = v.AsBytes()
	case k == types.KindFloat64:
		f, _ := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			payload = strconv.FormatFloat(f, 'g', -1, 64)
		} else {
			payload = f
		}
	case k == types.KindTime:
		tm, _ := v.AsTime()
		payload = tm.Format(time.RFC3339Nano)
	case k == types.KindRegex:
		re, _ := v.AsRegex()
		payload = re.String()
	case k == types.KindObject:
		o, _ := v.AsObject()
		t.T = o.Type().Name()
		pairs := make([][2]typed, 0, o.Len())
		for key, e := range o.All() {
			kt, err := toTyped(key.Value())
			if err != nil {
				return typed{}, err
			}
			et, err := toTyped(e)
			if err != nil {
				return typed{}, err
			}
			pairs = append(pairs, [2]typed{kt, et})
		}
		payload = pairs
	case k == types.KindSequence:
		s, _ := v.AsSequence()
		t.T = s.Type().Object().Name()
		elems := make([]typed, 0, s.Len())
		for _, e := range s.All() {
			et, err := toTyped(e)
			if err != nil {
				return typed{}, err
			}
			elems = append(elems, et)
		}
		payload = elems
	default:
		return typed{}, fmt.Errorf("%w: kind %s", ErrUnencodable, k)
	}

	raw, err := j.Marshal(payload)
	if err != nil {
		return typed{}, fmt.Errorf("%w: %s: %v", ErrUnencodable, v.Kind(), err)
	}
	t.V = raw
	return t, nil
}

func fromTyped(t typed, ot types.ObjectType) (types.Value, error) {
	kind, ok := types.ParseKind(t.K)
	if !ok {
		return types.Value{}, fmt.Errorf("%w: unknown kind %q", ErrMalformed, t.K)
	}
	if kind == types.KindNull {
		return types.Null(), nil
	}
	if len(t.V) == 0 {
		return types.Value{}, fmt.Errorf("%w: %s without payload", ErrMalformed, kind)
	}

	switch {
	case kind.IsSigned():
		var i int64
		if err := j.Unmarshal(t.V, &i); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return narrow(types.Int64(i), kind)
	case kind.IsUnsigned():
		var u uint64
		if err := j.Unmarshal(t.V, &u); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return narrow(types.Uint64(u), kind)
	}

	switch kind {
	case types.KindBool:
		var b bool
		if err := j.Unmarshal(t.V, &b); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return types.Bool(b), nil
	case types.KindString:
		var s string
		if err := j.Unmarshal(t.V, &s); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return types.String(s), nil
	case types.KindBytes:
		var b []byte
		if err := j.Unmarshal(t.V, &b); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return types.Bytes(b), nil
	case types.KindFloat64:
		return typedFloat(t.V)
	case types.KindTime:
		var s string
		if err := j.Unmarshal(t.V, &s); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		tm, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return types.Time(tm), nil
	case types.KindRegex:
		var s string
		if err := j.Unmarshal(t.V, &s); err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		v, err := types.CompileRegex(s)
		if err != nil {
			return types.Value{}, payloadErr(kind, err)
		}
		return v, nil
	case types.KindObject:
		return typedObject(t, ot)
	case types.KindSequence:
		return typedSequence(t, ot)
	}
	return types.Value{}, fmt.Errorf("%w: kind %s", ErrMalformed, kind)
}

func typedFloat(raw j.RawMessage) (types.Value, error) {
	var f float64
	if err := j.Unmarshal(raw, &f); err == nil {
		return types.Float64(f), nil
	}
	var s string
	if err := j.Unmarshal(raw, &s); err != nil {
		return types.Value{}, payloadErr(types.KindFloat64, err)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.Value{}, payloadErr(types.KindFloat64, err)
	}
	return types.Float64(f), nil
}

func typedObject(t typed, ot types.ObjectType) (types.Value, error) {
	ot = resolveType(t.T, ot)
	var pairs [][2]typed
	if err := j.Unmarshal(t.V, &pairs); err != nil {
		return types.Value{}, payloadErr(types.KindObject, err)
	}
	o := ot.New()
	for _, p := range pairs {
		kv, err := fromTyped(p[0], ot)
		if err != nil {
			return types.Value{}, err
		}
		key, ok := types.KeyOf(kv)
		if !ok {
			return types.Value{}, fmt.Errorf("%w: key of kind %s", ErrMalformed, kv.Kind())
		}
		v, err := fromTyped(p[1], ot)
		if err != nil {
			return types.Value{}, err
		}
		o.Set(key, v)
	}
	return types.ObjectValue(o), nil
}

func typedSequence(t typed, ot types.ObjectType) (types.Value, error) {
	ot = resolveType(t.T, ot)
	var elems []typed
	if err := j.Unmarshal(t.V, &elems); err != nil {
		return types.Value{}, payloadErr(types.KindSequence, err)
	}
	values := make([]types.Value, 0, len(elems))
	for _, e := range elems {
		v, err := fromTyped(e, ot)
		if err != nil {
			return types.Value{}, err
		}
		values = append(values, v)
	}
	return types.SequenceValue(ot.Sequence().New(values)), nil
}

func resolveType(name string, fallback types.ObjectType) types.ObjectType {
	if rt, ok := types.LookupRepresentation(name); ok {
		return rt
	}
	return fallback
}

func narrow(v types.Value, kind types.Kind) (types.Value, error) {
	out, ok := narrowing.Scalar(v, kind)
	if !ok {
		return types.Value{}, fmt.Errorf("%w: %v overflows %s", ErrMalformed, v, kind)
	}
	return out, nil
}

func payloadErr(kind types.Kind, err error) error {
	return fmt.Errorf("%w: %s payload: %v", ErrMalformed, kind, err)
}
