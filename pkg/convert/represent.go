package convert

import "github.com/mesh-intelligence/larder/pkg/types"

var (
	signedOrder = []types.Kind{
		types.KindInt, types.KindInt64, types.KindInt32, types.KindInt16, types.KindInt8,
	}
	unsignedOrder = []types.Kind{
		types.KindUint, types.KindUint64, types.KindUint32, types.KindUint16, types.KindUint8,
	}

	// Candidate destinations tried, in order, when a leaf is not already in
	// the target domain.
	signedCandidates        = concat(signedOrder, unsignedOrder, []types.Kind{types.KindFloat64})
	unsignedCandidates      = concat(unsignedOrder, signedOrder, []types.Kind{types.KindFloat64})
	negativeFloatCandidates = signedOrder
	floatCandidates         = concat(unsignedOrder, signedOrder)
	stringCandidates        = []types.Kind{
		types.KindFloat64, types.KindInt, types.KindUint,
		types.KindUint64, types.KindUint32, types.KindUint16, types.KindUint8,
		types.KindInt64, types.KindInt32, types.KindInt16, types.KindInt8,
	}
	timeCandidates = concat([]types.Kind{types.KindFloat64}, signedOrder)
)

func concat(parts ...[]types.Kind) []types.Kind {
	var out []types.Kind
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func candidates(v types.Value) []types.Kind {
	switch k := v.Kind(); {
	case k.IsSigned():
		return signedCandidates
	case k.IsUnsigned():
		return unsignedCandidates
	case k == types.KindFloat64:
		if f, _ := v.AsFloat64(); f < 0 {
			return negativeFloatCandidates
		}
		return floatCandidates
	case k == types.KindString:
		return stringCandidates
	case k == types.KindTime:
		return timeCandidates
	}
	return nil
}

// Represent converts a leaf value into the domain kinds. A value whose kind
// is already in the domain is returned unchanged; otherwise the candidate
// kinds for the source kind are tried in order and the first one that both
// belongs to kinds and holds the value wins. Containers are not handled here.
func (e *Engine) Represent(v types.Value, kinds types.KindSet) (types.Value, bool) {
	if v.Kind().IsContainer() {
		return types.Value{}, false
	}
	if kinds.Has(v.Kind()) {
		return v, true
	}
	for _, k := range candidates(v) {
		if !kinds.Has(k) {
			continue
		}
		if out, ok := e.Scalar(v, k); ok {
			return out, true
		}
	}
	return types.Value{}, false
}
