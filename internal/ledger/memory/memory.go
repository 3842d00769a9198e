package memory

import (
	"context"
	"sync"

	"gastos/internal/core"
	"gastos/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps the ledger in RAM. Useful for tests and for running the bot
// without a database file.
type Store struct {
	mu       sync.Mutex
	expenses []core.ExpenseEntry
	incomes  []core.IncomeEntry

	// Reads counts ledger read calls.
	Reads int
}

func New() *Store {
	return &Store{}
}

// AppendExpense stores the entry after validating it.
func (s *Store) AppendExpense(_ context.Context, e core.ExpenseEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

// AppendIncome stores the entry after validating it.
func (s *Store) AppendIncome(_ context.Context, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes = append(s.incomes, e)
	return nil
}

func (s *Store) ExpensesSince(_ context.Context, since core.Date) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	var out []core.ExpenseEntry
	for _, e := range s.expenses {
		if e.Date.String() >= since.String() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) IncomesSince(_ context.Context, since core.Date) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	var out []core.IncomeEntry
	for _, e := range s.incomes {
		if e.Date.String() >= since.String() {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the number of stored rows across both record sets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expenses) + len(s.incomes)
}
