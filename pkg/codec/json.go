package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	j "github.com/goccy/go-json"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Codec errors.
var (
	ErrMalformed   = errors.New("malformed document")
	ErrUnencodable = errors.New("value cannot be encoded")
)

// DecodeJSON reads one JSON value from r. Objects are built with ot (nil
// means DefaultMapType) and arrays with its paired sequence type. Integers
// decode as int64, or uint64 above the int64 range; other numbers decode as
// float64. Duplicate keys keep the last value.
func DecodeJSON(r io.Reader, ot types.ObjectType) (types.Value, error) {
	if ot == nil {
		ot = types.DefaultMapType
	}
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &jsonDecoder{dec: dec, ot: ot}

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return types.Value{}, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return types.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	v, err := d.value(tok)
	if err != nil {
		return types.Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return types.Value{}, fmt.Errorf("%w: trailing data after value", ErrMalformed)
	}
	return v, nil
}

// UnmarshalJSON is DecodeJSON over a byte slice.
func UnmarshalJSON(data []byte, ot types.ObjectType) (types.Value, error) {
	return DecodeJSON(bytes.NewReader(data), ot)
}

type jsonDecoder struct {
	dec *j.Decoder
	ot  types.ObjectType
}

func (d *jsonDecoder) next() (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return tok, nil
}

func (d *jsonDecoder) value(tok any) (types.Value, error) {
	switch t := tok.(type) {
	case j.Delim:
		switch t {
		case '{':
			return d.object()
		case '[':
			return d.array()
		}
		return types.Value{}, fmt.Errorf("%w: unexpected %q", ErrMalformed, rune(t))
	case string:
		return types.String(t), nil
	case bool:
		return types.Bool(t), nil
	case nil:
		return types.Null(), nil
	case j.Number:
		return parseNumber(string(t))
	case float64:
		return types.Float64(t), nil
	}
	return types.Value{}, fmt.Errorf("%w: unexpected token %v", ErrMalformed, tok)
}

func (d *jsonDecoder) object() (types.Value, error) {
	o := d.ot.New()
	for {
		tok, err := d.next()
		if err != nil {
			return types.Value{}, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return types.ObjectValue(o), nil
		}
		key, ok := tok.(string)
		if !ok {
			return types.Value{}, fmt.Errorf("%w: object key %v is not a string", ErrMalformed, tok)
		}
		tok, err = d.next()
		if err != nil {
			return types.Value{}, err
		}
		v, err := d.value(tok)
		if err != nil {
			return types.Value{}, err
		}
		o.Set(types.StringKey(key), v)
	}
}

func (d *jsonDecoder) array() (types.Value, error) {
	var values []types.Value
	for {
		tok, err := d.next()
		if err != nil {
			return types.Value{}, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == ']' {
			return types.SequenceValue(d.ot.Sequence().New(values)), nil
		}
		v, err := d.value(tok)
		if err != nil {
			return types.Value{}, err
		}
		values = append(values, v)
	}
}

func parseNumber(s string) (types.Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return types.Int64(i), nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return types.Uint64(u), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.Value{}, fmt.Errorf("%w: number %q: %v", ErrMalformed, s, err)
	}
	return types.Float64(f), nil
}

// MarshalJSON renders v as plain JSON. Keys keep the container's order.
// Byte blobs become base64 strings, times RFC 3339 strings and regular
// expressions their source. Non-finite floats fail with ErrUnencodable.
func MarshalJSON(v types.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSONIndent is MarshalJSON with indentation.
func MarshalJSONIndent(v types.Value, prefix, indent string) ([]byte, error) {
	raw, err := MarshalJSON(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := j.Indent(&buf, raw, prefix, indent); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v types.Value) error {
	switch k := v.Kind(); {
	case k == types.KindNull:
		buf.WriteString("null")
		return nil
	case k.IsSigned():
		i, _ := v.AsInt64()
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	case k.IsUnsigned():
		u, _ := v.AsUint64()
		buf.WriteString(strconv.FormatUint(u, 10))
		return nil
	}

	var payload any
	switch v.Kind() {
	case types.KindBool:
		payload, _ = v.AsBool()
	case types.KindString:
		payload, _ = v.AsString()
	case types.KindBytes:
		payload, _ = v.AsBytes()
	case types.KindFloat64:
		payload, _ = v.AsFloat64()
	case types.KindTime:
		t, _ := v.AsTime()
		payload = t.Format(time.RFC3339Nano)
	case types.KindRegex:
		re, _ := v.AsRegex()
		payload = re.String()
	case types.KindObject:
		o, _ := v.AsObject()
		return writeObject(buf, o)
	case types.KindSequence:
		s, _ := v.AsSequence()
		buf.WriteByte('[')
		for i, e := range s.All() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	raw, err := j.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnencodable, v.Kind(), err)
	}
	buf.Write(raw)
	return nil
}

func writeObject(buf *bytes.Buffer, o types.Object) error {
	buf.WriteByte('{')
	first := true
	for k, e := range o.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, err := j.Marshal(k.String())
		if err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrUnencodable, k.String(), err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		if err := writeJSON(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
