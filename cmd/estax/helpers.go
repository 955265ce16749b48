package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rpgo/estimated-tax/internal/calculation"
	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/rpgo/estimated-tax/internal/storage"
	money "github.com/rpgo/estimated-tax/pkg/decimal"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// openStore opens the configured backend, brings its schema up to date and
// installs the built-in reference data the first time it is used.
func (a *app) openStore(ctx context.Context) (storage.Repository, error) {
	db := a.settings.Database
	repo, err := a.registry.Open(ctx, storage.Config{Backend: db.Backend, DSN: db.DSN, Logger: a.logger})
	if err != nil {
		return nil, err
	}

	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if _, err := repo.GetTaxYearConfig(ctx, storage.SeedYear); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			_ = repo.Close()
			return nil, err
		}
		a.logger.Info("installing reference data", zap.Int("tax_year", storage.SeedYear), zap.String("backend", db.Backend))
		if err := storage.Seed(ctx, repo); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to seed reference data: %w", err)
		}
	}
	return repo, nil
}

func (a *app) estimator(repo storage.Repository) *calculation.Estimator {
	return calculation.NewEstimator(repo, a.logger.Sugar())
}

// taxYear returns flagYear, or the configured default when it is zero.
func (a *app) taxYear(flagYear int) int {
	if flagYear > 0 {
		return flagYear
	}
	return a.settings.TaxYear
}

// filingStatus parses flagStatus, or returns the configured default when it
// is empty.
func (a *app) filingStatus(flagStatus string) (domain.FilingStatusCode, error) {
	if flagStatus == "" {
		return a.settings.DefaultFilingStatus(), nil
	}
	return domain.ParseFilingStatusCode(flagStatus)
}

// parseAmount reads a dollar amount flag such as "85000" or "$85,000.00".
// An empty value is zero.
func parseAmount(name, value string) (decimal.Decimal, error) {
	m, err := money.NewMoneyFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return m.Decimal, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid estimate id %q", arg)
	}
	return id, nil
}

// applyResults copies the calculated figures of a report onto an estimate,
// leaving the taxpayer's inputs as they were entered.
func applyResults(e *domain.NewTaxEstimate, r *calculation.EstimateReport) {
	seTax := r.SelfEmploymentTax()
	total := r.Worksheet.TotalEstimatedTax
	required := r.Worksheet.RequiredAnnualPayment
	e.CalculatedSETax = &seTax
	e.CalculatedTotalTax = &total
	e.CalculatedRequiredPayment = &required
}
