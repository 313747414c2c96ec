package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// DecodeYAML reads the first YAML document from r. Scalars take the kind
// their resolved tag names: !!int as int64 (uint64 above its range),
// !!float as float64, !!timestamp as time and !!binary as bytes. Mapping
// keys must resolve to a hashable kind. Aliases are expanded.
func DecodeYAML(r io.Reader, ot types.ObjectType) (types.Value, error) {
	if ot == nil {
		ot = types.DefaultMapType
	}
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return types.Value{}, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return types.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return yamlNode(&root, ot, 0)
}

// UnmarshalYAML is DecodeYAML over a byte slice.
func UnmarshalYAML(data []byte, ot types.ObjectType) (types.Value, error) {
	return DecodeYAML(bytes.NewReader(data), ot)
}

// maxAliasDepth bounds alias expansion so self-referencing documents fail
// instead of recursing forever.
const maxAliasDepth = 64

func yamlNode(n *yaml.Node, ot types.ObjectType, depth int) (types.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return types.Null(), nil
		}
		return yamlNode(n.Content[0], ot, depth)
	case yaml.AliasNode:
		if depth >= maxAliasDepth || n.Alias == nil {
			return types.Value{}, fmt.Errorf("%w: alias %q at %d:%d", ErrMalformed, n.Value, n.Line, n.Column)
		}
		return yamlNode(n.Alias, ot, depth+1)
	case yaml.MappingNode:
		o := ot.New()
		for i := 0; i+1 < len(n.Content); i += 2 {
			kn, vn := n.Content[i], n.Content[i+1]
			kv, err := yamlNode(kn, ot, depth)
			if err != nil {
				return types.Value{}, err
			}
			key, ok := types.KeyOf(kv)
			if !ok {
				return types.Value{}, fmt.Errorf("%w: key of kind %s at %d:%d", ErrMalformed, kv.Kind(), kn.Line, kn.Column)
			}
			v, err := yamlNode(vn, ot, depth)
			if err != nil {
				return types.Value{}, err
			}
			o.Set(key, v)
		}
		return types.ObjectValue(o), nil
	case yaml.SequenceNode:
		values := make([]types.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlNode(c, ot, depth)
			if err != nil {
				return types.Value{}, err
			}
			values = append(values, v)
		}
		return types.SequenceValue(ot.Sequence().New(values)), nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return types.Value{}, fmt.Errorf("%w: unsupported node at %d:%d", ErrMalformed, n.Line, n.Column)
}

func yamlScalar(n *yaml.Node) (types.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return types.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return types.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return types.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return types.Int64(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return types.Uint64(u), nil
		}
		return types.Value{}, fmt.Errorf("%w: integer %q at %d:%d", ErrMalformed, n.Value, n.Line, n.Column)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return types.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return types.Float64(f), nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return types.Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return types.Time(t), nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return types.Value{}, fmt.Errorf("%w: binary at %d:%d: %v", ErrMalformed, n.Line, n.Column, err)
		}
		return types.Bytes(b), nil
	}
	return types.String(n.Value), nil
}
