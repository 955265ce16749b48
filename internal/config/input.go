package config

import (
	"fmt"
	"os"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of estimate input files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads an estimate request from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.EstimateRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates an estimate request. JSON input is accepted
// because it is valid YAML.
func (ip *InputParser) Parse(data []byte) (*domain.EstimateRequest, error) {
	var req domain.EstimateRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateConfiguration(&req); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &req, nil
}

type namedAmount struct {
	name  string
	value decimal.Decimal
}

// ValidateConfiguration validates the loaded request
func (ip *InputParser) ValidateConfiguration(req *domain.EstimateRequest) error {
	if req.TaxYear <= 0 {
		return fmt.Errorf("tax_year is required")
	}
	if req.FilingStatus == "" {
		return fmt.Errorf("filing_status is required")
	}
	if req.FilingStatus.ID() == 0 {
		return fmt.Errorf("unknown filing status %q", req.FilingStatus)
	}

	// AGI may legitimately be negative; every other amount is a magnitude.
	amounts := []namedAmount{
		{"itemized_deduction", req.ItemizedDeduction},
		{"qbi_deduction", req.QBIDeduction},
		{"alternative_minimum_tax", req.AlternativeMinimumTax},
		{"credits", req.Credits},
		{"other_taxes", req.OtherTaxes},
		{"refundable_credits", req.RefundableCredits},
		{"prior_year_tax", req.PriorYearTax},
		{"withholding", req.Withholding},
	}
	if req.StandardDeduction != nil {
		amounts = append(amounts, namedAmount{"standard_deduction", *req.StandardDeduction})
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%s cannot be negative", a.name)
		}
	}

	if se := req.SelfEmployment; se != nil {
		if err := ip.validateSelfEmployment(se); err != nil {
			return fmt.Errorf("self_employment validation failed: %w", err)
		}
	}

	return nil
}

// validateSelfEmployment checks the SE worksheet inputs. A net loss is
// allowed; the worksheet treats it as below the threshold.
func (ip *InputParser) validateSelfEmployment(se *domain.SelfEmploymentIncome) error {
	if se.CRPPayments.IsNegative() {
		return fmt.Errorf("crp_payments cannot be negative")
	}
	if se.Wages.IsNegative() {
		return fmt.Errorf("wages cannot be negative")
	}
	return nil
}
