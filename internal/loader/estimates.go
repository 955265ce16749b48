package loader

import (
	"fmt"
	"io"

	"github.com/rpgo/estimated-tax/internal/domain"
	"github.com/shopspring/decimal"
)

var estimateRequired = []string{"tax_year", "filing_status", "expected_agi", "expected_deduction"}

// InvalidFilingStatusError reports an unrecognised filing status and the
// 1-based data row it appeared on.
type InvalidFilingStatusError struct {
	Status string
	Row    int
}

func (e *InvalidFilingStatusError) Error() string {
	return fmt.Sprintf("unrecognised filing status %q on row %d", e.Status, e.Row)
}

// ParseEstimates reads estimate inputs from CSV. Columns are matched by name.
// tax_year, filing_status, expected_agi and expected_deduction are required;
// the other worksheet columns may be missing or left empty.
func ParseEstimates(r io.Reader) ([]domain.NewTaxEstimate, error) {
	cr := newReader(r)
	h, err := readHeader(cr, estimateRequired)
	if err != nil {
		return nil, err
	}

	var out []domain.NewTaxEstimate
	for row := 1; ; row++ {
		cells, line, err := readRow(cr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		status := h.get(cells, "filing_status")
		code, err := domain.ParseFilingStatusCode(status)
		if err != nil {
			return nil, &InvalidFilingStatusError{Status: status, Row: row}
		}

		e, err := parseEstimateRow(h, cells)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		e.FilingStatusID = code.ID()
		out = append(out, e)
	}
	return out, nil
}

func parseEstimateRow(h header, row []string) (domain.NewTaxEstimate, error) {
	var e domain.NewTaxEstimate
	var err error
	if e.TaxYear, err = h.year(row); err != nil {
		return e, err
	}
	if e.ExpectedAGI, err = h.decimal(row, "expected_agi"); err != nil {
		return e, err
	}
	if e.ExpectedDeduction, err = h.decimal(row, "expected_deduction"); err != nil {
		return e, err
	}

	optional := []struct {
		col string
		dst **decimal.Decimal
	}{
		{"expected_qbi_deduction", &e.ExpectedQBIDeduction},
		{"expected_amt", &e.ExpectedAMT},
		{"expected_credits", &e.ExpectedCredits},
		{"expected_other_taxes", &e.ExpectedOtherTaxes},
		{"expected_withholding", &e.ExpectedWithholding},
		{"prior_year_tax", &e.PriorYearTax},
		{"se_income", &e.SEIncome},
		{"expected_crp_payments", &e.ExpectedCRPPayments},
		{"expected_wages", &e.ExpectedWages},
	}
	for _, o := range optional {
		if *o.dst, err = h.optionalDecimal(row, o.col); err != nil {
			return e, err
		}
	}
	return e, nil
}
