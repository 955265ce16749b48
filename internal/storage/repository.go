// Package storage persists tax reference data and saved estimates. Each
// backend implements Repository and is opened through a Registry by name.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpgo/estimated-tax/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflicts with an existing record")
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrNilContext     = errors.New("context cannot be nil")
	ErrInvalidRecord  = errors.New("invalid record")
)

// Repository is the persistence contract every backend fulfils. Methods that
// look up a single row return an error wrapping ErrNotFound when it is absent.
type Repository interface {
	// Migrate brings the schema up to date. It is safe to call repeatedly.
	Migrate(ctx context.Context) error

	GetTaxYearConfig(ctx context.Context, year int) (*domain.TaxYearConfig, error)
	SaveTaxYearConfig(ctx context.Context, cfg domain.TaxYearConfig) error
	ListTaxYears(ctx context.Context) ([]int, error)

	GetFilingStatus(ctx context.Context, id int) (*domain.FilingStatus, error)
	GetFilingStatusByCode(ctx context.Context, code domain.FilingStatusCode) (*domain.FilingStatus, error)
	ListFilingStatuses(ctx context.Context) ([]domain.FilingStatus, error)
	SaveFilingStatus(ctx context.Context, fs domain.FilingStatus) error

	GetStandardDeduction(ctx context.Context, year, filingStatusID int) (*domain.StandardDeduction, error)
	SaveStandardDeduction(ctx context.Context, sd domain.StandardDeduction) error

	// GetTaxBrackets returns the schedule ordered by ascending MinIncome. An
	// unknown year or status yields an empty slice.
	GetTaxBrackets(ctx context.Context, year, filingStatusID int) ([]domain.TaxBracket, error)
	InsertTaxBracket(ctx context.Context, b domain.TaxBracket) error
	DeleteTaxBrackets(ctx context.Context, year, filingStatusID int) (int64, error)
	// ReplaceTaxBrackets atomically swaps the schedule for a year and status.
	ReplaceTaxBrackets(ctx context.Context, year, filingStatusID int, brackets []domain.TaxBracket) error

	CreateEstimate(ctx context.Context, e domain.NewTaxEstimate) (*domain.TaxEstimate, error)
	GetEstimate(ctx context.Context, id int64) (*domain.TaxEstimate, error)
	UpdateEstimate(ctx context.Context, e *domain.TaxEstimate) error
	DeleteEstimate(ctx context.Context, id int64) error
	// ListEstimates returns estimates newest first, limited to one tax year
	// when year is non-nil.
	ListEstimates(ctx context.Context, year *int) ([]domain.TaxEstimate, error)

	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend string
	DSN     string
	Logger  *zap.Logger
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateEstimate(e domain.NewTaxEstimate) error {
	if e.TaxYear <= 0 {
		return fmt.Errorf("%w: tax_year must be positive, got %d", ErrInvalidRecord, e.TaxYear)
	}
	if e.FilingStatusID <= 0 {
		return fmt.Errorf("%w: filing_status_id must be positive, got %d", ErrInvalidRecord, e.FilingStatusID)
	}
	return nil
}

func validateBracketKey(b domain.TaxBracket, year, filingStatusID int) error {
	if b.TaxYear != year || b.FilingStatusID != filingStatusID {
		return fmt.Errorf("%w: bracket for %d/%d in schedule %d/%d",
			ErrInvalidRecord, b.TaxYear, b.FilingStatusID, year, filingStatusID)
	}
	return nil
}
