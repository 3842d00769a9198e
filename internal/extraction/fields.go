package extraction

import (
	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// Schema names the JSON shape requested from the model.
type Schema int

const (
	ExpenseSchema Schema = iota
	IncomeSchema
)

func (s Schema) String() string {
	if s == IncomeSchema {
		return "income"
	}
	return "expense"
}

// Fields is the successful extraction result: either ExpenseFields or
// IncomeFields. Failures are returned as *core.Error instead.
type Fields interface {
	Schema() Schema
}

// ExpenseFields is a type-checked expense extraction.
type ExpenseFields struct {
	Concept  string
	Amount   decimal.Decimal
	Category string
	// Date is zero when the model did not provide one.
	Date core.Date
}

func (ExpenseFields) Schema() Schema { return ExpenseSchema }

// HasDate reports whether the model supplied a date.
func (f ExpenseFields) HasDate() bool { return !f.Date.IsZero() }

// IncomeFields is a type-checked income extraction. Income is never
// dated by the model.
type IncomeFields struct {
	Amount      decimal.Decimal
	Description string
}

func (IncomeFields) Schema() Schema { return IncomeSchema }
