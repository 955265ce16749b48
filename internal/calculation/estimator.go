package calculation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidRequest is wrapped by errors about a malformed EstimateRequest.
var ErrInvalidRequest = errors.New("invalid estimate request")

// ReferenceData is the read-only reference data an Estimator needs.
type ReferenceData interface {
	GetTaxYearConfig(ctx context.Context, year int) (*domain.TaxYearConfig, error)
	GetFilingStatusByCode(ctx context.Context, code domain.FilingStatusCode) (*domain.FilingStatus, error)
	GetStandardDeduction(ctx context.Context, year, filingStatusID int) (*domain.StandardDeduction, error)
	GetTaxBrackets(ctx context.Context, year, filingStatusID int) ([]domain.TaxBracket, error)
}

// EstimateReport is the complete outcome of one estimate: the request, the
// reference data it was computed against and both worksheets.
type EstimateReport struct {
	Request        domain.EstimateRequest      `yaml:"request" json:"request"`
	TaxYear        domain.TaxYearConfig        `yaml:"tax_year" json:"tax_year"`
	FilingStatus   domain.FilingStatus         `yaml:"filing_status" json:"filing_status"`
	SelfEmployment *SeWorksheetResult          `yaml:"self_employment,omitempty" json:"self_employment,omitempty"`
	Input          EstimatedTaxWorksheetInput  `yaml:"worksheet_input" json:"worksheet_input"`
	Worksheet      EstimatedTaxWorksheetResult `yaml:"worksheet" json:"worksheet"`
	Installments   []Installment               `yaml:"installments,omitempty" json:"installments,omitempty"`
}

// SelfEmploymentTax is the SE tax carried into the worksheet, zero when the
// SE worksheet did not run.
func (r *EstimateReport) SelfEmploymentTax() decimal.Decimal {
	if r.SelfEmployment == nil {
		return decimal.Zero
	}
	return r.SelfEmployment.SelfEmploymentTax
}

// SETaxDeduction is the deductible half of SE tax, zero when the SE worksheet
// did not run.
func (r *EstimateReport) SETaxDeduction() decimal.Decimal {
	if r.SelfEmployment == nil {
		return decimal.Zero
	}
	return r.SelfEmployment.SETaxDeduction
}

// DeductionUsed is the itemized or standard deduction the worksheet applied.
func (r *EstimateReport) DeductionUsed() decimal.Decimal {
	if r.Worksheet.UsedItemizedDeduction {
		return r.Input.ItemizedDeduction
	}
	return r.Input.StandardDeduction
}

// ToNewTaxEstimate converts the report into a record ready to be saved.
// Blank optional inputs are stored as nil.
func (r *EstimateReport) ToNewTaxEstimate() domain.NewTaxEstimate {
	req := r.Request
	seTax := r.SelfEmploymentTax()
	total := r.Worksheet.TotalEstimatedTax
	required := r.Worksheet.RequiredAnnualPayment

	e := domain.NewTaxEstimate{
		TaxYear:                   r.TaxYear.TaxYear,
		FilingStatusID:            r.FilingStatus.ID,
		ExpectedAGI:               req.AdjustedGrossIncome,
		ExpectedDeduction:         r.DeductionUsed(),
		ExpectedQBIDeduction:      domain.OptionalDecimal(req.QBIDeduction),
		ExpectedAMT:               domain.OptionalDecimal(req.AlternativeMinimumTax),
		ExpectedCredits:           domain.OptionalDecimal(req.Credits),
		ExpectedOtherTaxes:        domain.OptionalDecimal(req.OtherTaxes),
		ExpectedWithholding:       domain.OptionalDecimal(req.Withholding),
		PriorYearTax:              domain.OptionalDecimal(req.PriorYearTax),
		CalculatedSETax:           &seTax,
		CalculatedTotalTax:        &total,
		CalculatedRequiredPayment: &required,
	}
	if se := req.SelfEmployment; se != nil {
		e.SEIncome = domain.OptionalDecimal(se.NetProfit)
		e.ExpectedCRPPayments = domain.OptionalDecimal(se.CRPPayments)
		e.ExpectedWages = domain.OptionalDecimal(se.Wages)
	}
	return e
}

// Estimator runs both worksheets against reference data from a store.
type Estimator struct {
	data   ReferenceData
	logger Logger
}

// NewEstimator creates an Estimator. A nil logger discards output.
func NewEstimator(data ReferenceData, logger Logger) *Estimator {
	return &Estimator{data: data, logger: loggerOrNop(logger)}
}

// Run looks up the year's constants, the filing status, the standard
// deduction and the rate schedule, then runs the SE worksheet (when there is
// SE income) followed by the estimated tax worksheet.
func (e *Estimator) Run(ctx context.Context, req domain.EstimateRequest) (*EstimateReport, error) {
	if req.TaxYear <= 0 {
		return nil, fmt.Errorf("%w: tax_year must be positive, got %d", ErrInvalidRequest, req.TaxYear)
	}
	if req.FilingStatus == "" {
		return nil, fmt.Errorf("%w: filing_status is required", ErrInvalidRequest)
	}

	cfg, err := e.data.GetTaxYearConfig(ctx, req.TaxYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax year %d: %w", req.TaxYear, err)
	}
	status, err := e.data.GetFilingStatusByCode(ctx, req.FilingStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to load filing status %s: %w", req.FilingStatus, err)
	}

	standard := decimal.Zero
	if req.StandardDeduction != nil {
		standard = *req.StandardDeduction
	} else if !req.ItemizedDeduction.IsPositive() {
		sd, err := e.data.GetStandardDeduction(ctx, req.TaxYear, status.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load standard deduction for %d %s: %w", req.TaxYear, status.Code, err)
		}
		standard = sd.Amount
	}

	brackets, err := e.data.GetTaxBrackets(ctx, req.TaxYear, status.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax brackets for %d %s: %w", req.TaxYear, status.Code, err)
	}
	if len(brackets) > 0 {
		if err := domain.ValidateBrackets(brackets); err != nil {
			return nil, fmt.Errorf("tax brackets for %d %s: %w", req.TaxYear, status.Code, err)
		}
	}

	report := &EstimateReport{Request: req, TaxYear: *cfg, FilingStatus: *status}

	if req.SelfEmployment.HasIncome() {
		se := NewSeWorksheet(SeWorksheetConfigFromTaxYear(*cfg))
		se.SetLogger(e.logger)
		res, err := se.Calculate(req.SelfEmployment.NetProfit, req.SelfEmployment.CRPPayments, req.SelfEmployment.Wages)
		if err != nil {
			return nil, fmt.Errorf("self-employment worksheet: %w", err)
		}
		report.SelfEmployment = res
	}

	report.Input = EstimatedTaxWorksheetInput{
		AdjustedGrossIncome:      req.AdjustedGrossIncome,
		ItemizedDeduction:        req.ItemizedDeduction,
		StandardDeduction:        standard,
		QBIDeduction:             req.QBIDeduction,
		AlternativeMinimumTax:    req.AlternativeMinimumTax,
		Credits:                  req.Credits,
		SelfEmploymentTax:        report.SelfEmploymentTax(),
		OtherTaxes:               req.OtherTaxes,
		RefundableCredits:        req.RefundableCredits,
		PriorYearTax:             req.PriorYearTax,
		Withholding:              req.Withholding,
		IsFarmerOrFisher:         req.IsFarmerOrFisher,
		RequiredPaymentThreshold: cfg.RequiredPaymentThreshold,
	}

	ws := NewEstimatedTaxWorksheet(brackets)
	ws.SetLogger(e.logger)
	res, err := ws.Calculate(report.Input)
	if err != nil {
		return nil, fmt.Errorf("estimated tax worksheet: %w", err)
	}
	report.Worksheet = *res

	if res.EstimatedPaymentsRequired {
		report.Installments = BuildInstallments(res.Underpayment, req.TaxYear)
	}

	e.logger.Infof("estimate for %d %s: total tax %s, required payment %s, payments required %t",
		req.TaxYear, status.Code, res.TotalEstimatedTax.StringFixed(2),
		res.RequiredAnnualPayment.StringFixed(2), res.EstimatedPaymentsRequired)
	return report, nil
}
