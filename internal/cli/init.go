package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize larder storage",
		Long:  "Create the configuration and data directories, then attach and detach the configured backend once.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			db, err := a.open()
			if err != nil {
				return err
			}
			if err := db.Detach(); err != nil {
				return fmt.Errorf("detach: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "larder initialized (%s backend, config in %s)\n", cfg.Backend, a.configDir)
			return nil
		},
	}
}
