package convert

import "github.com/mesh-intelligence/larder/pkg/types"

// Dispatch converts v into a value the keyed representation ot can hold as a
// field. Leaves go through Represent. A nested object is converted to ot and
// only its converted part is kept; when ot holds sequences but not objects
// the object's values are flattened into ot's paired sequence. A nested
// sequence is converted element-wise to ot's paired sequence type.
func (e *Engine) Dispatch(v types.Value, ot types.ObjectType) (types.Value, bool) {
	if ot == nil {
		return types.Value{}, false
	}
	return e.dispatch(v, ot.ValueKinds(), ot, ot.Sequence())
}

// DispatchElement is Dispatch for an element of the ordered representation st.
func (e *Engine) DispatchElement(v types.Value, st types.SequenceType) (types.Value, bool) {
	if st == nil {
		return types.Value{}, false
	}
	return e.dispatch(v, st.ElementKinds(), st.Object(), st)
}

func (e *Engine) dispatch(v types.Value, kinds types.KindSet, ot types.ObjectType, st types.SequenceType) (types.Value, bool) {
	if obj, ok := v.AsObject(); ok {
		switch {
		case kinds.Has(types.KindObject) && ot != nil:
			if obj.Type() == ot {
				return types.DeepClone(v), true
			}
			r := e.Object(obj, ot)
			if !r.Complete() {
				e.log.WithField("from", obj.Type().Name()).
					WithField("to", ot.Name()).
					WithField("dropped", keyNames(r.Remainder)).
					Debug("nested object partially converted")
			}
			return types.ObjectValue(r.Converted), true
		case kinds.Has(types.KindSequence) && st != nil:
			return types.SequenceValue(e.ObjectToSequence(obj, st)), true
		}
		return types.Value{}, false
	}
	if seq, ok := v.AsSequence(); ok {
		if !kinds.Has(types.KindSequence) || st == nil {
			return types.Value{}, false
		}
		if seq.Type() == st {
			return types.DeepClone(v), true
		}
		return types.SequenceValue(e.Sequence(seq, st)), true
	}
	return e.Represent(v, kinds)
}

// matches reports whether v already belongs to the domain without
// conversion. Containers match only when built by the paired type.
func matches(v types.Value, kinds types.KindSet, ot types.ObjectType, st types.SequenceType) bool {
	if !kinds.Has(v.Kind()) {
		return false
	}
	if obj, ok := v.AsObject(); ok {
		return ot != nil && obj.Type() == ot
	}
	if seq, ok := v.AsSequence(); ok {
		return st != nil && seq.Type() == st
	}
	return true
}

func keyNames(o types.Object) []string {
	if o == nil {
		return nil
	}
	names := make([]string, 0, o.Len())
	for k := range o.All() {
		names = append(names, k.String())
	}
	return names
}
