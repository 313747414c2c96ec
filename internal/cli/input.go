package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/codec"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// readSource returns the contents of a file argument, or of in for "-".
func readSource(arg string, in io.Reader) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", arg, err)
	}
	return data, nil
}

// readDocument decodes a JSON object argument, or stdin for "-".
func readDocument(arg string, in io.Reader) (*types.Document, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		if data, err = io.ReadAll(in); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	v, err := codec.UnmarshalJSON(data, types.DocumentType)
	if err != nil {
		return nil, err
	}
	obj, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", errUsage, v.Kind())
	}
	return obj.(*types.Document), nil
}

// parseScalar reads a command-line value. JSON scalars keep their kind
// ("5" is an integer, "true" a bool, "\"5\"" a string); anything else is
// taken as a string.
func parseScalar(s string) types.Value {
	v, err := codec.UnmarshalJSON([]byte(s), nil)
	if err != nil || v.Kind().IsContainer() {
		return types.String(s)
	}
	return v
}

// parseQuery turns field=value arguments into a Query.
func parseQuery(args []string) (types.Query, error) {
	q := make(types.Query, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: filter %q is not field=value", errUsage, arg)
		}
		q[field] = parseScalar(value)
	}
	return q, nil
}

// parseSort turns field[:asc|:desc] arguments into a Sort.
func parseSort(specs []string) (types.Sort, error) {
	var s types.Sort
	for _, spec := range specs {
		field, dir, _ := strings.Cut(spec, ":")
		if field == "" {
			return nil, fmt.Errorf("%w: empty sort field in %q", errUsage, spec)
		}
		f := types.SortField{Field: field}
		switch dir {
		case "", "asc":
		case "desc":
			f.Order = types.Descending
		default:
			return nil, fmt.Errorf("%w: sort direction %q", errUsage, dir)
		}
		s = append(s, f)
	}
	return s, nil
}
