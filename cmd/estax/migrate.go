package main

import (
	"fmt"

	"github.com/rpgo/estimated-tax/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) migrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

With --seed the built-in reference data (tax year constants, filing
statuses, standard deductions and rate schedules) is reinstalled, replacing
any brackets loaded for that year.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db := a.settings.Database
			a.logger.Info("starting database migration",
				zap.String("backend", db.Backend), zap.Bool("seed", seed))

			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			if seed {
				if err := storage.Seed(ctx, repo); err != nil {
					return fmt.Errorf("failed to seed reference data: %w", err)
				}
			}

			years, err := repo.ListTaxYears(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database is at schema version %d; tax years available: %v\n",
				storage.ExpectedSchemaVersion, years)
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "reinstall the built-in reference data")

	return cmd
}
