package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rpgo/estimated-tax/internal/calculation"
)

// GenerateReport renders report in the named format and writes it to w.
func GenerateReport(w io.Writer, report *calculation.EstimateReport, format string) error {
	f := GetFormatterByName(format)
	if f == nil {
		// enrich error with available formatters and aliases
		return fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
			strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("failed to format %s report: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}
