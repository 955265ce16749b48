package output

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/rpgo/estimated-tax/internal/calculation"
)

// HTMLFormatter produces a standalone HTML page of the worksheets.
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/report.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"curr": FormatCurrency,
	"pct":  FormatPercentage,
}).Parse(htmlTemplateSource))

type htmlSection struct {
	Heading string
	Lines   []WorksheetLine
}

func (h HTMLFormatter) Format(r *calculation.EstimateReport) ([]byte, error) {
	var sections []htmlSection
	for _, l := range WorksheetLines(r) {
		if n := len(sections); n == 0 || sections[n-1].Heading != sectionHeading(l.Worksheet) {
			sections = append(sections, htmlSection{Heading: sectionHeading(l.Worksheet)})
		}
		last := &sections[len(sections)-1]
		last.Lines = append(last.Lines, l)
	}

	data := struct {
		Report   *calculation.EstimateReport
		Sections []htmlSection
	}{r, sections}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
