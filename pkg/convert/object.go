package convert

import (
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Result is the outcome of converting a keyed container. Every source key
// lands in exactly one of Converted or Remainder.
type Result struct {
	// Converted holds the fields representable in the target, built by the
	// target type.
	Converted types.Object
	// Remainder holds the fields that were not, built by the source's type.
	Remainder types.Object
}

// Complete reports whether every field converted.
func (r Result) Complete() bool {
	return r.Remainder == nil || r.Remainder.Len() == 0
}

// Object converts src into the target representation field by field. For
// each field, in src's iteration order:
//
//  1. a key outside the target's key domain goes to the remainder;
//  2. a value already in the target's value domain is kept as is;
//  3. otherwise the value is dispatched toward the target;
//  4. otherwise the target's Coerce hook is tried;
//  5. otherwise the field goes to the remainder.
//
// src is not modified and nested containers are copied, so neither part of
// the result shares state with src. A nil src converts as an empty
// DefaultMapType object. A nil target accepts nothing: Converted is an empty
// DefaultMapType object and every field goes to the remainder.
func (e *Engine) Object(src types.Object, target types.ObjectType) Result {
	if src == nil {
		src = types.NewMap()
	}
	if target == nil {
		rem, _ := types.DeepClone(types.ObjectValue(src)).AsObject()
		return Result{Converted: types.NewMap(), Remainder: rem}
	}
	res := Result{
		Converted: target.New(),
		Remainder: src.Type().New(),
	}
	keys := target.KeyKinds()
	values := target.ValueKinds()
	seq := target.Sequence()

	for k, v := range src.All() {
		if !keys.Has(k.Kind()) {
			e.demote(res.Remainder, k, v, target, "key kind not accepted")
			continue
		}
		if matches(v, values, target, seq) {
			res.Converted.Set(k, types.DeepClone(v))
			continue
		}
		if w, ok := e.dispatch(v, values, target, seq); ok {
			res.Converted.Set(k, w)
			continue
		}
		if w, ok := target.Coerce(v); ok {
			res.Converted.Set(k, types.DeepClone(w))
			continue
		}
		e.demote(res.Remainder, k, v, target, "value not representable")
	}
	return res
}

func (e *Engine) demote(rem types.Object, k types.Key, v types.Value, target types.ObjectType, reason string) {
	rem.Set(k, types.DeepClone(v))
	e.log.WithFields(logrus.Fields{
		"key":    k.String(),
		"kind":   v.Kind().String(),
		"target": target.Name(),
	}).Debug(reason)
}
