package core

import "strings"

// Period selects a report window ending today.
type Period string

const (
	PeriodDay       Period = "dia"
	PeriodWeek      Period = "semana"
	PeriodFortnight Period = "15dias"
	PeriodMonth     Period = "mes"
)

// Periods lists the accepted keywords in the order they are shown to users.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodFortnight, PeriodMonth}

// ParsePeriod maps a user keyword to a Period. The empty keyword means the
// current month.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PeriodMonth, nil
	}
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", Errorf(KindInvalidArgument, "parse period", "unknown period %q", s)
}

// Start returns the inclusive first day of the window that ends on today.
func (p Period) Start(today Date) Date {
	switch p {
	case PeriodDay:
		return today
	case PeriodWeek:
		return today.AddDays(-7)
	case PeriodFortnight:
		return today.AddDays(-15)
	default:
		return today.FirstOfMonth()
	}
}
