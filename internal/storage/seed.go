package storage

import (
	"context"
	"fmt"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedYear is the tax year Seed installs reference data for.
const SeedYear = 2025

// bracketRow is min, max (empty for the top bracket), rate, base tax.
type bracketRow [4]string

var (
	scheduleX = []bracketRow{
		{"0", "11925", "0.10", "0"},
		{"11925", "48475", "0.12", "1192.50"},
		{"48475", "103350", "0.22", "5578.50"},
		{"103350", "197300", "0.24", "17651"},
		{"197300", "250525", "0.32", "40199"},
		{"250525", "626350", "0.35", "57231"},
		{"626350", "", "0.37", "188769.75"},
	}
	scheduleY1 = []bracketRow{
		{"0", "23850", "0.10", "0"},
		{"23850", "96950", "0.12", "2385"},
		{"96950", "206700", "0.22", "11157"},
		{"206700", "394600", "0.24", "35302"},
		{"394600", "501050", "0.32", "80398"},
		{"501050", "751600", "0.35", "114462"},
		{"751600", "", "0.37", "202154.50"},
	}
	scheduleY2 = []bracketRow{
		{"0", "11925", "0.10", "0"},
		{"11925", "48475", "0.12", "1192.50"},
		{"48475", "103350", "0.22", "5578.50"},
		{"103350", "197300", "0.24", "17651"},
		{"197300", "250525", "0.32", "40199"},
		{"250525", "375800", "0.35", "57231"},
		{"375800", "", "0.37", "101077.25"},
	}
	scheduleZ = []bracketRow{
		{"0", "17000", "0.10", "0"},
		{"17000", "64850", "0.12", "1700"},
		{"64850", "103350", "0.22", "7442"},
		{"103350", "197300", "0.24", "15912"},
		{"197300", "250500", "0.32", "38460"},
		{"250500", "626350", "0.35", "55484"},
		{"626350", "", "0.37", "187031.50"},
	}
)

var seedSchedules = map[domain.FilingStatusCode][]bracketRow{
	domain.Single:                    scheduleX,
	domain.MarriedFilingJointly:      scheduleY1,
	domain.MarriedFilingSeparately:   scheduleY2,
	domain.HeadOfHousehold:           scheduleZ,
	domain.QualifyingSurvivingSpouse: scheduleY1,
}

var seedStandardDeductions = map[domain.FilingStatusCode]string{
	domain.Single:                    "15000",
	domain.MarriedFilingJointly:      "30000",
	domain.MarriedFilingSeparately:   "15000",
	domain.HeadOfHousehold:           "22500",
	domain.QualifyingSurvivingSpouse: "30000",
}

// SeedTaxYearConfig returns the 2025 self-employment and payment constants.
func SeedTaxYearConfig() domain.TaxYearConfig {
	return domain.TaxYearConfig{
		TaxYear:                  SeedYear,
		SSWageMax:                decimal.RequireFromString("176100"),
		SSTaxRate:                decimal.RequireFromString("0.124"),
		MedicareTaxRate:          decimal.RequireFromString("0.029"),
		NetEarningsFactor:        decimal.RequireFromString("0.9235"),
		SEDeductionFactor:        decimal.RequireFromString("0.50"),
		RequiredPaymentThreshold: decimal.RequireFromString("1000"),
		MinSEThreshold:           decimal.RequireFromString("400"),
	}
}

// SeedBrackets returns the 2025 rate schedule for a filing status.
func SeedBrackets(fs domain.FilingStatus) []domain.TaxBracket {
	rows := seedSchedules[fs.Code]
	out := make([]domain.TaxBracket, 0, len(rows))
	for _, r := range rows {
		b := domain.TaxBracket{
			TaxYear:        SeedYear,
			FilingStatusID: fs.ID,
			MinIncome:      decimal.RequireFromString(r[0]),
			TaxRate:        decimal.RequireFromString(r[2]),
			BaseTax:        decimal.RequireFromString(r[3]),
		}
		if r[1] != "" {
			upper := decimal.RequireFromString(r[1])
			b.MaxIncome = &upper
		}
		out = append(out, b)
	}
	return out
}

// Seed installs the 2025 reference data. Running it again overwrites the
// same rows, so it is safe to repeat.
func Seed(ctx context.Context, repo Repository) error {
	if err := repo.SaveTaxYearConfig(ctx, SeedTaxYearConfig()); err != nil {
		return fmt.Errorf("failed to seed tax year config: %w", err)
	}
	for _, fs := range domain.FilingStatuses() {
		if err := repo.SaveFilingStatus(ctx, fs); err != nil {
			return fmt.Errorf("failed to seed filing status %s: %w", fs.Code, err)
		}
		sd := domain.StandardDeduction{
			TaxYear:        SeedYear,
			FilingStatusID: fs.ID,
			Amount:         decimal.RequireFromString(seedStandardDeductions[fs.Code]),
		}
		if err := repo.SaveStandardDeduction(ctx, sd); err != nil {
			return fmt.Errorf("failed to seed standard deduction for %s: %w", fs.Code, err)
		}
		brackets := SeedBrackets(fs)
		if err := domain.ValidateBrackets(brackets); err != nil {
			return fmt.Errorf("seed schedule for %s: %w", fs.Code, err)
		}
		if err := repo.ReplaceTaxBrackets(ctx, SeedYear, fs.ID, brackets); err != nil {
			return fmt.Errorf("failed to seed tax brackets for %s: %w", fs.Code, err)
		}
	}
	return nil
}
