package output

import (
	"encoding/json"

	"github.com/rpgo/estimated-tax/internal/calculation"
)

// JSONFormatter serializes the estimate report as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(r *calculation.EstimateReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
