package output

import (
	"github.com/rpgo/estimated-tax/internal/calculation"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter serializes the estimate report as YAML.
type YAMLFormatter struct{}

func (y YAMLFormatter) Name() string { return "yaml" }

func (y YAMLFormatter) Format(r *calculation.EstimateReport) ([]byte, error) {
	return yaml.Marshal(r)
}
