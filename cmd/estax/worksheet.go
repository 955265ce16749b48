package main

import (
	"fmt"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/internal/config"
	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/rpgo/estimated-tax/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) seCmd() *cobra.Command {
	var (
		seIncome, crp, wages string
		year                 int
	)

	cmd := &cobra.Command{
		Use:   "se",
		Short: "Run the self-employment tax and deduction worksheet",
		Long: `Compute self-employment tax and its deductible half from expected net
profit, Conservation Reserve Program payments and wages subject to social
security tax.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := domain.SelfEmploymentIncome{}
			var err error
			if in.NetProfit, err = parseAmount("se-income", seIncome); err != nil {
				return err
			}
			if in.CRPPayments, err = parseAmount("crp", crp); err != nil {
				return err
			}
			if in.Wages, err = parseAmount("wages", wages); err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			cfg, err := repo.GetTaxYearConfig(ctx, a.taxYear(year))
			if err != nil {
				return fmt.Errorf("failed to load tax year %d: %w", a.taxYear(year), err)
			}

			ws := calculation.NewSeWorksheet(calculation.SeWorksheetConfigFromTaxYear(*cfg))
			ws.SetLogger(a.logger.Sugar())
			res, err := ws.Calculate(in.NetProfit, in.CRPPayments, in.Wages)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d Self-Employment Tax and Deduction Worksheet\n", cfg.TaxYear)
			if err := output.WriteWorksheetLines(out, output.SEWorksheetLines(*cfg, in, res)); err != nil {
				return err
			}
			if res.BelowThreshold {
				fmt.Fprintf(out, "SE income is at or below %s; no self-employment tax is due.\n", output.FormatCurrency(cfg.MinSEThreshold))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seIncome, "se-income", "", "expected net profit subject to SE tax")
	cmd.Flags().StringVar(&crp, "crp", "", "Conservation Reserve Program payments")
	cmd.Flags().StringVar(&wages, "wages", "", "expected wages subject to social security tax")
	cmd.Flags().IntVar(&year, "year", 0, "tax year (default from settings)")
	_ = cmd.MarkFlagRequired("se-income")

	return cmd
}

func (a *app) calcCmd() *cobra.Command {
	var (
		inputFile string
		format    string
		outputDir string
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run the full estimated tax worksheet from an input file",
		Long: `Read a YAML (or JSON) input file, run the self-employment tax worksheet
when there is SE income, then the estimated tax worksheet, and report the
required annual payment and quarterly installments.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := output.GetFormatterByName(format)
			if formatter == nil {
				return fmt.Errorf("%w: %q", output.ErrUnsupportedFormat, format)
			}

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

			if save {
				saved, err := repo.CreateEstimate(ctx, report.ToNewTaxEstimate())
				if err != nil {
					return fmt.Errorf("failed to save estimate: %w", err)
				}
				a.logger.Info("saved estimate", zap.Int64("id", saved.ID))
			}

			if outputDir != "" {
				name, err := output.WriteFormatted(formatter, report, outputDir)
				if err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", name)
				return nil
			}
			return output.GenerateReport(cmd.OutOrStdout(), report, formatter.Name())
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file describing the expected year")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format: console, summary, json, yaml, csv, html")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "write the report to a timestamped file in this directory")
	cmd.Flags().BoolVar(&save, "save", false, "save the estimate to the database")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) taxCmd() *cobra.Command {
	var (
		income string
		year   int
		status string
	)

	cmd := &cobra.Command{
		Use:   "tax",
		Short: "Look up the rate schedule tax on a taxable income",
		RunE: func(cmd *cobra.Command, _ []string) error {
			taxable, err := parseAmount("income", income)
			if err != nil {
				return err
			}
			code, err := a.filingStatus(status)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			fs, err := repo.GetFilingStatusByCode(ctx, code)
			if err != nil {
				return err
			}
			taxYear := a.taxYear(year)
			brackets, err := repo.GetTaxBrackets(ctx, taxYear, fs.ID)
			if err != nil {
				return err
			}

			tax, err := calculation.NewEstimatedTaxWorksheet(brackets).CalculateTax(taxable)
			if err != nil {
				return fmt.Errorf("%d %s: %w", taxYear, fs.Code, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tax on %s (%d %s): %s\n",
				output.FormatCurrency(taxable), taxYear, fs.Name, output.FormatCurrency(tax))
			return nil
		},
	}

	cmd.Flags().StringVar(&income, "income", "", "taxable income")
	cmd.Flags().IntVar(&year, "year", 0, "tax year (default from settings)")
	cmd.Flags().StringVar(&status, "status", "", "filing status: S, MFJ, MFS, HOH or QSS (default from settings)")
	_ = cmd.MarkFlagRequired("income")

	return cmd
}
