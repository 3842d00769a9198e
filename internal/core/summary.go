package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the aggregated view of one report window.
type Summary struct {
	Period       Period
	Start        Date
	End          Date
	Expenses     []ExpenseEntry
	ByCategory   []CategoryAmount // first-seen order
	TotalExpense decimal.Decimal
	TotalIncome  decimal.Decimal
	Available    decimal.Decimal
}

// Summarize totals the given entries. Categories keep the order in which
// they first appear in expenses.
func Summarize(p Period, start, end Date, expenses []ExpenseEntry, incomes []IncomeEntry) Summary {
	s := Summary{
		Period:       p,
		Start:        start,
		End:          end,
		Expenses:     expenses,
		TotalExpense: decimal.Zero,
		TotalIncome:  decimal.Zero,
	}

	index := make(map[string]int)
	for _, e := range expenses {
		s.TotalExpense = s.TotalExpense.Add(e.Amount)
		i, ok := index[e.Category]
		if !ok {
			i = len(s.ByCategory)
			index[e.Category] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Name: e.Category, Amount: decimal.Zero})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(e.Amount)
	}
	for _, in := range incomes {
		s.TotalIncome = s.TotalIncome.Add(in.Amount)
	}
	s.Available = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
