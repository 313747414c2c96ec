package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "store <table> <json|->",
		Short: "Store a document",
		Long: "Store inserts a JSON object into a table and prints its identifier.\n" +
			"An identifier is generated when the object has no _id field.",
		Example: `  larder store pantry '{"name": "oats", "qty": 2}'`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.withTable(cmd.Context(), args[0], func(ctx context.Context, t types.Table) error {
				id, err := t.Store(ctx, doc)
				if err != nil {
					return err
				}
				return printValue(cmd, id)
			})
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <id>",
		Short: "Get a document by identifier",
		Long: "Get prints the document with the given identifier. Identifiers that\n" +
			"parse as JSON scalars keep their kind; quote a numeric string id as '\"5\"'.",
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd.Context(), args[0], func(ctx context.Context, t types.Table) error {
				doc, err := t.FindOne(ctx, parseScalar(args[1]))
				if err != nil {
					return fmt.Errorf("get %s: %w", args[1], err)
				}
				return printValue(cmd, types.ObjectValue(doc))
			})
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	var sortSpecs []string
	cmd := &cobra.Command{
		Use:   "find <table> [field=value...]",
		Short: "Find documents matching field filters",
		Example: `  larder find pantry kind=fruit --sort qty:desc
  larder find pantry --sort kind --sort name`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuery(args[1:])
			if err != nil {
				return err
			}
			s, err := parseSort(sortSpecs)
			if err != nil {
				return err
			}
			return a.withTable(cmd.Context(), args[0], func(ctx context.Context, t types.Table) error {
				docs, err := t.Find(ctx, q, s)
				if err != nil {
					return err
				}
				return printDocuments(cmd, docs)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sortSpecs, "sort", nil, "sort by field[:asc|:desc]; repeatable")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> <json|->",
		Short: "Replace a document by identifier",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[2], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return a.withTable(cmd.Context(), args[0], func(ctx context.Context, t types.Table) error {
				if err := t.UpdateByID(ctx, parseScalar(args[1]), doc); err != nil {
					return fmt.Errorf("update %s: %w", args[1], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "updated")
				return nil
			})
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a document by identifier",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd.Context(), args[0], func(ctx context.Context, t types.Table) error {
				if err := t.Delete(ctx, parseScalar(args[1])); err != nil {
					return fmt.Errorf("delete %s: %w", args[1], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted")
				return nil
			})
		},
	}
}
