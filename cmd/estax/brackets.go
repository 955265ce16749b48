package main

import (
	"fmt"
	"os"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/rpgo/estimated-tax/internal/loader"
	"github.com/rpgo/estimated-tax/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) bracketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brackets",
		Short: "Manage tax rate schedules",
		Long:  `Load IRS tax rate schedules from CSV and list the schedules in the database.`,
	}

	cmd.AddCommand(a.loadBracketsCmd())
	cmd.AddCommand(a.listBracketsCmd())

	return cmd
}

func (a *app) loadBracketsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load rate schedules from a CSV file",
		Long: `Load rate schedules from a CSV file with the columns
tax_year,schedule,min_income,max_income,base_tax,rate. Each schedule (X, Y-1,
Y-2, Z) in the file replaces the brackets of its filing statuses for that year.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			records, err := loader.Parse(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := loader.Load(ctx, repo, records)
			if err != nil {
				return err
			}
			a.logger.Info("loaded tax brackets", zap.String("file", file), zap.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d tax brackets from %s\n", n, file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to load")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) listBracketsCmd() *cobra.Command {
	var (
		year   int
		status string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rate schedules for a tax year",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			var statuses []domain.FilingStatus
			if status != "" {
				code, err := domain.ParseFilingStatusCode(status)
				if err != nil {
					return err
				}
				fs, err := repo.GetFilingStatusByCode(ctx, code)
				if err != nil {
					return err
				}
				statuses = []domain.FilingStatus{*fs}
			} else if statuses, err = repo.ListFilingStatuses(ctx); err != nil {
				return err
			}

			taxYear := a.taxYear(year)
			out := cmd.OutOrStdout()
			found := false
			for _, fs := range statuses {
				brackets, err := repo.GetTaxBrackets(ctx, taxYear, fs.ID)
				if err != nil {
					return err
				}
				if len(brackets) == 0 {
					continue
				}
				if found {
					fmt.Fprintln(out)
				}
				found = true
				if err := output.WriteBracketTable(out, fs, brackets); err != nil {
					return err
				}
			}
			if !found {
				fmt.Fprintf(out, "No tax brackets for %d. Use 'estax brackets load' to add them.\n", taxYear)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "tax year (default from settings)")
	cmd.Flags().StringVar(&status, "status", "", "only this filing status")

	return cmd
}
