package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the persisted form of every ledger date. It sorts lexically
// in calendar order, which the date-window queries rely on.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	ExpenseEntry struct {
		Date     Date
		Concept  string
		Amount   decimal.Decimal // always positive, money spent
		Category string
	}

	IncomeEntry struct {
		Date        Date
		Amount      decimal.Decimal
		Description string
	}
)

const maxLabelLength = 200

// MaxAmount bounds a single entry. Amounts are stored as REAL, so anything
// near float64 overflow would come back as +Inf.
var MaxAmount = decimal.New(1, 12)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyConcept     = errors.New("empty concept")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrLabelTooLong     = errors.New("label too long (max 200 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the persisted YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (negative n goes back).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ValidateAmount rejects zero, negative, missing and absurdly large amounts.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() || a.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

func validateLabel(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if utf8.RuneCountInString(s) > maxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}

func (e ExpenseEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateLabel(e.Concept, ErrEmptyConcept); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	return validateLabel(e.Category, ErrEmptyCategory)
}

func (e IncomeEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	return validateLabel(e.Description, ErrEmptyDescription)
}
