package ledger

import (
	"context"

	"gastos/internal/core"
)

// Ports implemented by every ledger backend.
type (
	ExpenseWriter interface {
		AppendExpense(ctx context.Context, e core.ExpenseEntry) error
	}

	IncomeWriter interface {
		AppendIncome(ctx context.Context, e core.IncomeEntry) error
	}

	// Reader returns entries dated on or after since, in insertion order.
	Reader interface {
		ExpensesSince(ctx context.Context, since core.Date) ([]core.ExpenseEntry, error)
		IncomesSince(ctx context.Context, since core.Date) ([]core.IncomeEntry, error)
	}

	// Store is the append-only ledger. There is no update or delete.
	Store interface {
		ExpenseWriter
		IncomeWriter
		Reader
	}
)
