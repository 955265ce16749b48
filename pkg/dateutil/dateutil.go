package dateutil

import (
	"time"
)

// installmentMonths are the months estimated tax installments fall due, as
// offsets from January of the tax year. The fourth is January of the next year.
var installmentMonths = [4]int{4, 6, 9, 13}

const installmentDay = 15

// InstallmentDueDates returns the four Form 1040-ES due dates for a tax year:
// April 15, June 15 and September 15 of the year and January 15 of the next.
// A date on a weekend moves to the following Monday. Federal holidays are not
// considered.
func InstallmentDueDates(taxYear int) [4]time.Time {
	var out [4]time.Time
	for i, m := range installmentMonths {
		// time.Date normalizes month 13 into January of the next year
		due := time.Date(taxYear, time.Month(m), installmentDay, 0, 0, 0, 0, time.UTC)
		out[i] = NextBusinessDay(due)
	}
	return out
}

// NextBusinessDay returns t when it falls on a weekday, otherwise the Monday after.
func NextBusinessDay(t time.Time) time.Time {
	for IsWeekend(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NextInstallment returns the index (0-3) and due date of the first
// installment of taxYear due on or after asOf. ok is false once every
// installment date has passed.
func NextInstallment(taxYear int, asOf time.Time) (index int, due time.Time, ok bool) {
	day := DateOnly(asOf)
	for i, d := range InstallmentDueDates(taxYear) {
		if !d.Before(day) {
			return i, d, true
		}
	}
	return 0, time.Time{}, false
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
