package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ingestuc "github.com/fincatalog/catalog/internal/usecase/ingest"
)

func newUpsertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upsert FILE...",
		Short: "Insert or replace records from YAML or JSON files",
		Long: `Upsert reads each file (.yaml, .yml or .json) holding either a list of
records or a mapping with a "papers" list, and merges the records into the
catalog in file order. Existing rows with the same id are fully replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.repo.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			opts := []ingestuc.Option{ingestuc.WithLogger(a.logger)}
			if a.cache != nil {
				opts = append(opts, ingestuc.WithInvalidator(a.cache))
			}
			svc := ingestuc.New(a.repo, opts...)

			var total ingestuc.Result
			for _, path := range args {
				res, err := svc.UpsertFile(ctx, path)
				total.Inserted += res.Inserted
				total.Updated += res.Updated
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d, updated: %d\n", total.Inserted, total.Updated)
					return fmt.Errorf("%s: %w", path, err)
				}
				a.logger.Debug("File ingested", zap.String("path", path),
					zap.Int("inserted", res.Inserted), zap.Int("updated", res.Updated))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "inserted: %d, updated: %d\n", total.Inserted, total.Updated)
			return nil
		},
	}
}
