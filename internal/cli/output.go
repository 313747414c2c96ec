package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/codec"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// printValue writes v to the command output as indented JSON.
func printValue(cmd *cobra.Command, v types.Value) error {
	out, err := codec.MarshalJSONIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// printDocuments writes docs as a JSON array.
func printDocuments(cmd *cobra.Command, docs []*types.Document) error {
	values := make([]types.Value, len(docs))
	for i, d := range docs {
		values[i] = types.ObjectValue(d)
	}
	return printValue(cmd, types.SequenceValue(types.NewList(values...)))
}
