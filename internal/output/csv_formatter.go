package output

import (
	"bytes"
	"encoding/csv"

	"github.com/rpgo/estimated-tax/internal/calculation"
)

// CSVFormatter exports every worksheet line as a CSV row.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *calculation.EstimateReport) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"worksheet", "line", "description", "amount"}); err != nil {
		return nil, err
	}
	for _, l := range WorksheetLines(r) {
		if err := w.Write([]string{l.Worksheet, l.Line, l.Description, l.Amount.StringFixed(2)}); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{"result", "", "estimated_payments_required", boolToString(r.Worksheet.EstimatedPaymentsRequired)}); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
