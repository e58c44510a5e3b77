package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the papers table and its indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.repo.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", a.cfg.Database.Driver)
			return nil
		},
	}
}
