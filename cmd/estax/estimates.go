package main

import (
	"fmt"
	"os"

	"github.com/rpgo/estimated-tax/internal/config"
	"github.com/rpgo/estimated-tax/internal/loader"
	"github.com/rpgo/estimated-tax/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) estimatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estimates",
		Aliases: []string{"estimate"},
		Short:   "Manage saved estimates",
		Long:    `List, show, save, recalculate, delete and import saved estimates.`,
	}

	cmd.AddCommand(a.listEstimatesCmd())
	cmd.AddCommand(a.showEstimateCmd())
	cmd.AddCommand(a.saveEstimateCmd())
	cmd.AddCommand(a.recalcEstimateCmd())
	cmd.AddCommand(a.deleteEstimateCmd())
	cmd.AddCommand(a.importEstimatesCmd())

	return cmd
}

func (a *app) listEstimatesCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved estimates, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			var filter *int
			if year > 0 {
				filter = &year
			}
			estimates, err := repo.ListEstimates(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list estimates: %w", err)
			}
			if len(estimates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved estimates. Use 'estax estimates save' to create one.")
				return nil
			}
			return output.WriteEstimateTable(cmd.OutOrStdout(), estimates)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "only estimates for this tax year")

	return cmd
}

func (a *app) showEstimateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Rerun the worksheets for a saved estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			e, err := repo.GetEstimate(ctx, id)
			if err != nil {
				return fmt.Errorf("estimate %d: %w", id, err)
			}
			report, err := a.estimator(repo).Run(ctx, e.ToRequest())
			if err != nil {
				return fmt.Errorf("estimate %d: %w", id, err)
			}
			return output.GenerateReport(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format")

	return cmd
}

func (a *app) saveEstimateCmd() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Calculate an estimate from an input file and save it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := config.NewInputParser().LoadFromFile(inputFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			report, err := a.estimator(repo).Run(ctx, *req)
			if err != nil {
				return err
			}
			saved, err := repo.CreateEstimate(ctx, report.ToNewTaxEstimate())
			if err != nil {
				return fmt.Errorf("failed to save estimate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved estimate %d: total tax %s, required payment %s\n",
				saved.ID, output.FormatCurrency(report.Worksheet.TotalEstimatedTax),
				output.FormatCurrency(report.Worksheet.RequiredAnnualPayment))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file describing the expected year")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) recalcEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc <id>",
		Short: "Recalculate a saved estimate against the current reference data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			e, err := repo.GetEstimate(ctx, id)
			if err != nil {
				return fmt.Errorf("estimate %d: %w", id, err)
			}
			report, err := a.estimator(repo).Run(ctx, e.ToRequest())
			if err != nil {
				return fmt.Errorf("estimate %d: %w", id, err)
			}
			applyResults(&e.NewTaxEstimate, report)
			if err := repo.UpdateEstimate(ctx, e); err != nil {
				return fmt.Errorf("failed to update estimate %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated estimate %d: required payment %s\n",
				id, output.FormatCurrency(report.Worksheet.RequiredAnnualPayment))
			return nil
		},
	}
}

func (a *app) deleteEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.DeleteEstimate(ctx, id); err != nil {
				return fmt.Errorf("estimate %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted estimate %d\n", id)
			return nil
		},
	}
}

func (a *app) importEstimatesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import estimates from a CSV file",
		Long: `Import estimates from a CSV file. The columns tax_year, filing_status,
expected_agi and expected_deduction are required; the other worksheet inputs
may be omitted or left blank. Each row is calculated before it is saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			records, err := loader.ParseEstimates(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			est := a.estimator(repo)
			for i := range records {
				report, err := est.Run(ctx, records[i].ToRequest())
				if err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
				applyResults(&records[i], report)
			}

			// Every row is calculated before the first one is written.
			for i := range records {
				if _, err := repo.CreateEstimate(ctx, records[i]); err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
			}
			a.logger.Info("imported estimates", zap.String("file", file), zap.Int("rows", len(records)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d estimates from %s\n", len(records), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
