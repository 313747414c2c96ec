package mongo

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mesh-intelligence/larder/pkg/convert"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// bsonEngine imports driver values. Its registry knows the BSON types the
// engine has no native mapping for.
var bsonEngine = newBSONEngine()

func newBSONEngine() *convert.Engine {
	reg := convert.NewRegistry()
	e := convert.New(convert.WithRegistry(reg))

	reg.MustRegister(bson.D{}, func(x any) (types.Value, error) {
		return importD(e, x.(bson.D))
	})
	reg.MustRegister(primitive.ObjectID{}, func(x any) (types.Value, error) {
		return types.String(x.(primitive.ObjectID).Hex()), nil
	})
	reg.MustRegister(primitive.DateTime(0), func(x any) (types.Value, error) {
		return types.Time(x.(primitive.DateTime).Time().UTC()), nil
	})
	reg.MustRegister(primitive.Timestamp{}, func(x any) (types.Value, error) {
		return types.Time(time.Unix(int64(x.(primitive.Timestamp).T), 0).UTC()), nil
	})
	reg.MustRegister(primitive.Binary{}, func(x any) (types.Value, error) {
		return types.Bytes(x.(primitive.Binary).Data), nil
	})
	reg.MustRegister(primitive.Regex{}, func(x any) (types.Value, error) {
		re := x.(primitive.Regex)
		return types.CompileRegex(regexFlags(re.Options) + re.Pattern)
	})
	reg.MustRegister(primitive.Decimal128{}, func(x any) (types.Value, error) {
		return types.String(x.(primitive.Decimal128).String()), nil
	})
	reg.MustRegister(primitive.Null{}, func(any) (types.Value, error) {
		return types.Null(), nil
	})
	reg.MustRegister(primitive.Undefined{}, func(any) (types.Value, error) {
		return types.Null(), nil
	})
	return e
}

// regexFlags turns the BSON options Go's regexp understands into an inline
// flag group.
func regexFlags(options string) string {
	var flags strings.Builder
	for _, c := range options {
		switch c {
		case 'i', 'm', 's':
			flags.WriteRune(c)
		}
	}
	if flags.Len() == 0 {
		return ""
	}
	return "(?" + flags.String() + ")"
}

func importD(e *convert.Engine, d bson.D) (types.Value, error) {
	o := types.DocumentType.New()
	for _, el := range d {
		v, err := e.Import(el.Value, types.DocumentType)
		if err != nil {
			return types.Value{}, fmt.Errorf("field %q: %w", el.Key, err)
		}
		o.Set(types.StringKey(el.Key), v)
	}
	return types.ObjectValue(o), nil
}

// FromBSON builds a Document from a driver document, keeping field order.
// ObjectIDs become hex strings, DateTimes UTC times and Decimal128 values
// their string form.
func FromBSON(d bson.D) (*types.Document, error) {
	v, err := importD(bsonEngine, d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	obj, _ := v.AsObject()
	return obj.(*types.Document), nil
}

// ToBSON renders an object of the DocumentType domain as a driver document.
// Keys must be strings; values outside the domain fail with ErrInvalidData.
func ToBSON(o types.Object) (bson.D, error) {
	d := make(bson.D, 0, o.Len())
	for k, v := range o.All() {
		if k.Kind() != types.KindString {
			return nil, fmt.Errorf("%w: key %s of kind %s", types.ErrInvalidData, k, k.Kind())
		}
		x, err := toBSONValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k.String(), err)
		}
		d = append(d, bson.E{Key: k.String(), Value: x})
	}
	return d, nil
}

func toBSONValue(v types.Value) (any, error) {
	switch v.Kind() {
	case types.KindNull:
		return nil, nil
	case types.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case types.KindString:
		s, _ := v.AsString()
		return s, nil
	case types.KindBytes:
		b, _ := v.AsBytes()
		return primitive.Binary{Subtype: bson.TypeBinaryGeneric, Data: b}, nil
	case types.KindInt32:
		i, _ := v.AsInt64()
		return int32(i), nil
	case types.KindInt64:
		i, _ := v.AsInt64()
		return i, nil
	case types.KindFloat64:
		f, _ := v.AsFloat64()
		return f, nil
	case types.KindTime:
		t, _ := v.AsTime()
		return primitive.NewDateTimeFromTime(t), nil
	case types.KindRegex:
		re, _ := v.AsRegex()
		return primitive.Regex{Pattern: re.String()}, nil
	case types.KindObject:
		o, _ := v.AsObject()
		return ToBSON(o)
	case types.KindSequence:
		s, _ := v.AsSequence()
		a := make(bson.A, 0, s.Len())
		for _, e := range s.All() {
			x, err := toBSONValue(e)
			if err != nil {
				return nil, err
			}
			a = append(a, x)
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s has no BSON form", types.ErrInvalidData, v.Kind())
}

// sortDoc maps a Sort onto a driver sort specification.
func sortDoc(s types.Sort) bson.D {
	d := make(bson.D, 0, len(s))
	for _, f := range s {
		dir := 1
		if f.Order == types.Descending {
			dir = -1
		}
		d = append(d, bson.E{Key: f.Field, Value: dir})
	}
	return d
}
