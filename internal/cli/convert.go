package cli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/codec"
	"github.com/mesh-intelligence/larder/pkg/convert"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// sourceType holds decoded input before conversion. It accepts every kind
// and keeps the input's field order.
var sourceType = types.NewMapType("source", types.HashableKinds, types.AnyKind, types.WithOrdered())

type convertFlags struct {
	to     string
	format string
	typed  bool
}

func newConvertCmd(a *app) *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert <file|->",
		Short: "Convert a document into a representation",
		Long: "Convert decodes a JSON or YAML document and converts it into the target\n" +
			"representation, printing the converted part and the remainder that the\n" +
			"target cannot hold.\n\n" +
			"Representations: " + strings.Join(types.RepresentationNames(), ", "),
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.to, "to", types.DocumentType.Name(), "target representation")
	cmd.Flags().StringVar(&f.format, "format", "json", "input format: json or yaml")
	cmd.Flags().BoolVar(&f.typed, "typed", false, "print kind-tagged JSON that keeps every kind")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, src string, f convertFlags) error {
	target, ok := types.LookupRepresentation(f.to)
	if !ok {
		return fmt.Errorf("%w: unknown representation %q (valid: %s)",
			errUsage, f.to, strings.Join(types.RepresentationNames(), ", "))
	}
	policy, err := convert.ParsePolicy(lo.CoalesceOrEmpty(a.flags.policy, a.v.GetString(keyPolicy)))
	if err != nil {
		return err
	}

	data, err := readSource(src, cmd.InOrStdin())
	if err != nil {
		return err
	}
	var v types.Value
	switch f.format {
	case "json":
		v, err = codec.DecodeJSON(bytes.NewReader(data), sourceType)
	case "yaml":
		v, err = codec.DecodeYAML(bytes.NewReader(data), sourceType)
	default:
		return fmt.Errorf("%w: format %q", errUsage, f.format)
	}
	if err != nil {
		return err
	}
	obj, ok := v.AsObject()
	if !ok {
		return fmt.Errorf("%w: top-level %s is not an object", errUsage, v.Kind())
	}

	engine := convert.New(convert.WithPolicy(policy), convert.WithLogger(a.log))
	res := engine.Object(obj, target)
	a.log.WithField("to", target.Name()).
		WithField("converted", res.Converted.Len()).
		WithField("remainder", res.Remainder.Len()).
		Debug("converted")

	out := types.NewDocument(
		types.F("converted", types.ObjectValue(res.Converted)),
		types.F("remainder", types.ObjectValue(res.Remainder)),
	)
	if f.typed {
		raw, err := codec.MarshalTyped(types.ObjectValue(out))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}
	return printValue(cmd, types.ObjectValue(out))
}
