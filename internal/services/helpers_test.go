package services

import (
	"context"
	"errors"
	"io"
	"time"

	"gastos/internal/core"
	"gastos/internal/extraction"
	applog "gastos/internal/log"
)

var fixedNow = time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

type fakeExtractor struct {
	fields  extraction.Fields
	err     error
	schemas []extraction.Schema
	texts   []string
}

func (f *fakeExtractor) Extract(_ context.Context, text string, schema extraction.Schema) (extraction.Fields, error) {
	f.schemas = append(f.schemas, schema)
	f.texts = append(f.texts, text)
	return f.fields, f.err
}

type fakePublisher struct {
	expenses []core.ExpenseEntry
	incomes  []core.IncomeEntry
	err      error
}

func (p *fakePublisher) PublishExpenseRecorded(_ context.Context, e core.ExpenseEntry) error {
	p.expenses = append(p.expenses, e)
	return p.err
}

func (p *fakePublisher) PublishIncomeRecorded(_ context.Context, e core.IncomeEntry) error {
	p.incomes = append(p.incomes, e)
	return p.err
}

// failingLedger rejects every operation.
type failingLedger struct{}

var errDiskFull = errors.New("disk full")

func (failingLedger) AppendExpense(context.Context, core.ExpenseEntry) error { return errDiskFull }
func (failingLedger) AppendIncome(context.Context, core.IncomeEntry) error   { return errDiskFull }
func (failingLedger) ExpensesSince(context.Context, core.Date) ([]core.ExpenseEntry, error) {
	return nil, errDiskFull
}
func (failingLedger) IncomesSince(context.Context, core.Date) ([]core.IncomeEntry, error) {
	return nil, errDiskFull
}
