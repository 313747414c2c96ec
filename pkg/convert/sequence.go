package convert

import "github.com/mesh-intelligence/larder/pkg/types"

// SequenceResult is the outcome of SequenceDetailed.
type SequenceResult struct {
	Converted types.Sequence
	// Dropped lists the source indices of elements that did not convert,
	// in ascending order.
	Dropped []int
}

// Sequence converts src element-wise into the target representation.
// Elements that cannot be represented are dropped and the survivors keep
// their relative order. A nil src yields an empty sequence.
func (e *Engine) Sequence(src types.Sequence, target types.SequenceType) types.Sequence {
	return e.SequenceDetailed(src, target).Converted
}

// SequenceDetailed is Sequence that also reports which elements were dropped.
// A nil target accepts nothing and yields an empty DefaultMapType list.
func (e *Engine) SequenceDetailed(src types.Sequence, target types.SequenceType) SequenceResult {
	if target == nil {
		var dropped []int
		if src != nil {
			for i := range src.Len() {
				dropped = append(dropped, i)
			}
		}
		return SequenceResult{Converted: types.NewList(), Dropped: dropped}
	}
	if src == nil {
		return SequenceResult{Converted: target.New(nil)}
	}
	out := make([]types.Value, 0, src.Len())
	var dropped []int
	for i, v := range src.All() {
		w, ok := e.element(v, target)
		if !ok {
			dropped = append(dropped, i)
			continue
		}
		out = append(out, w)
	}
	if len(dropped) > 0 {
		e.log.WithField("target", target.Name()).
			WithField("dropped", dropped).
			Debug("sequence elements dropped")
	}
	return SequenceResult{Converted: target.New(out), Dropped: dropped}
}

// ObjectToSequence converts the values of src, in its iteration order, into
// the target representation. Keys are discarded and unconvertible values
// are dropped. A nil target yields an empty DefaultMapType list.
func (e *Engine) ObjectToSequence(src types.Object, target types.SequenceType) types.Sequence {
	if target == nil {
		return types.NewList()
	}
	if src == nil {
		return target.New(nil)
	}
	out := make([]types.Value, 0, src.Len())
	for _, v := range src.All() {
		if w, ok := e.element(v, target); ok {
			out = append(out, w)
		}
	}
	return target.New(out)
}

func (e *Engine) element(v types.Value, target types.SequenceType) (types.Value, bool) {
	kinds := target.ElementKinds()
	if matches(v, kinds, target.Object(), target) {
		return types.DeepClone(v), true
	}
	return e.dispatch(v, kinds, target.Object(), target)
}
