package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// daysPerBillingMonth prorates a partial month of a lease.
const daysPerBillingMonth = 30

// Term is the length of a lease in whole calendar months plus remaining days.
type Term struct {
	Months int
	Days   int
}

func (t Term) String() string {
	if t.Days == 0 {
		return fmt.Sprintf("%d months", t.Months)
	}
	return fmt.Sprintf("%d months %d days", t.Months, t.Days)
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year int, month time.Month) int {
	if month == time.February {
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	}
	switch month {
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// LeaseTerm computes the term between start and end. The end date is the
// first day the car is no longer leased, so 2024-07-01..2025-07-01 is
// exactly 12 months. end before start yields the zero term.
func LeaseTerm(start, end time.Time) Term {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if ey < sy || (ey == sy && em < sm) || (ey == sy && em == sm && ed < sd) {
		return Term{}
	}

	years := ey - sy
	months := int(em) - int(sm)
	days := ed - sd

	// borrow from the month before the end date
	if days < 0 {
		months--
		prevYear, prevMonth := ey, em-1
		if prevMonth < time.January {
			prevMonth = time.December
			prevYear--
		}
		days += DaysInMonth(prevYear, prevMonth)
	}
	if months < 0 {
		years--
		months += 12
	}
	return Term{Months: months + 12*years, Days: days}
}

func (l *Lease) Term() Term {
	return LeaseTerm(l.StartDate, l.EndDate)
}

// ContractValue is the monthly price times the term, with trailing days
// prorated at 1/30 of a month and rounded to cents.
func (l *Lease) ContractValue() decimal.Decimal {
	t := l.Term()
	full := l.MonthlyPrice.Mul(decimal.NewFromInt(int64(t.Months)))
	partial := l.MonthlyPrice.Mul(decimal.NewFromInt(int64(t.Days))).Div(decimal.NewFromInt(daysPerBillingMonth))
	return full.Add(partial).Round(2)
}
