package domain

import (
	"fmt"
	"strings"
)

// FilingStatusCode is the short IRS code for a filing status.
type FilingStatusCode string

const (
	Single                    FilingStatusCode = "S"
	MarriedFilingJointly      FilingStatusCode = "MFJ"
	MarriedFilingSeparately   FilingStatusCode = "MFS"
	HeadOfHousehold           FilingStatusCode = "HOH"
	QualifyingSurvivingSpouse FilingStatusCode = "QSS"
)

// filingStatusSeeds lists every status in the order and with the ids used by
// the seeded reference data.
var filingStatusSeeds = []FilingStatus{
	{ID: 1, Code: Single, Name: "Single"},
	{ID: 2, Code: MarriedFilingJointly, Name: "Married Filing Jointly"},
	{ID: 3, Code: MarriedFilingSeparately, Name: "Married Filing Separately"},
	{ID: 4, Code: HeadOfHousehold, Name: "Head of Household"},
	{ID: 5, Code: QualifyingSurvivingSpouse, Name: "Qualifying Surviving Spouse"},
}

// ParseFilingStatusCode accepts a code in any letter case and returns the
// canonical value.
func ParseFilingStatusCode(s string) (FilingStatusCode, error) {
	code := FilingStatusCode(strings.ToUpper(strings.TrimSpace(s)))
	for _, fs := range filingStatusSeeds {
		if fs.Code == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("unknown filing status %q (want one of S, MFJ, MFS, HOH, QSS)", s)
}

// ID returns the seeded database id of the status, or 0 for an unknown code.
func (c FilingStatusCode) ID() int {
	for _, fs := range filingStatusSeeds {
		if fs.Code == c {
			return fs.ID
		}
	}
	return 0
}

func (c FilingStatusCode) String() string { return string(c) }

// UnmarshalText lets yaml and json decode a code with validation.
func (c *FilingStatusCode) UnmarshalText(text []byte) error {
	code, err := ParseFilingStatusCode(string(text))
	if err != nil {
		return err
	}
	*c = code
	return nil
}

// FilingStatus is a row of the filing_status reference table.
type FilingStatus struct {
	ID   int              `yaml:"id" json:"id"`
	Code FilingStatusCode `yaml:"status_code" json:"status_code"`
	Name string           `yaml:"status_name" json:"status_name"`
}

// FilingStatuses returns the five standard filing statuses.
func FilingStatuses() []FilingStatus {
	out := make([]FilingStatus, len(filingStatusSeeds))
	copy(out, filingStatusSeeds)
	return out
}

// FilingStatusCodeForID maps a seeded database id back to its code.
func FilingStatusCodeForID(id int) (FilingStatusCode, bool) {
	for _, fs := range filingStatusSeeds {
		if fs.ID == id {
			return fs.Code, true
		}
	}
	return "", false
}
