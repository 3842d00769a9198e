package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/ledger/memory"
	applog "gastos/internal/log"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

type flakyTarget struct {
	*memory.Store
	failures int
}

func (f *flakyTarget) AppendExpense(ctx context.Context, e core.ExpenseEntry) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("sheets unavailable")
	}
	return f.Store.AppendExpense(ctx, e)
}

func TestHandleEntryRecordedMirrorsBothKinds(t *testing.T) {
	ctx := context.Background()
	target := memory.New()
	w := NewMirrorWorker(target, quietLogger())

	expense := amqp.NewExpenseRecorded(core.ExpenseEntry{
		Date: core.NewDate(2025, 3, 1), Concept: "uber", Amount: decimal.NewFromInt(20), Category: "transporte",
	})
	income := amqp.NewIncomeRecorded(core.IncomeEntry{
		Date: core.NewDate(2025, 3, 1), Amount: decimal.NewFromInt(1500), Description: "sueldo",
	})

	for _, msg := range []*amqp.EntryRecordedMessage{expense, income} {
		if err := w.HandleEntryRecorded(ctx, msg); err != nil {
			t.Fatalf("HandleEntryRecorded(%s): %v", msg.Kind, err)
		}
	}

	if target.Len() != 2 {
		t.Fatalf("expected 2 mirrored entries, got %d", target.Len())
	}
}

func TestHandleEntryRecordedSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	target := memory.New()
	w := NewMirrorWorker(target, quietLogger())

	msg := amqp.NewExpenseRecorded(core.ExpenseEntry{
		Date: core.NewDate(2025, 3, 1), Concept: "pan", Amount: decimal.NewFromInt(2), Category: "comida",
	})
	for i := 0; i < 3; i++ {
		if err := w.HandleEntryRecorded(ctx, msg); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if target.Len() != 1 {
		t.Fatalf("redelivered event must be mirrored once, got %d", target.Len())
	}
}

func TestHandleEntryRecordedRetriesTargetFailures(t *testing.T) {
	ctx := context.Background()
	target := &flakyTarget{Store: memory.New(), failures: 1}
	w := NewMirrorWorker(target, quietLogger())

	msg := amqp.NewExpenseRecorded(core.ExpenseEntry{
		Date: core.NewDate(2025, 3, 1), Concept: "pan", Amount: decimal.NewFromInt(2), Category: "comida",
	})

	err := w.HandleEntryRecorded(ctx, msg)
	if err == nil {
		t.Fatal("expected target failure")
	}
	if errors.Is(err, amqp.ErrDiscard) {
		t.Fatal("target failures must be redelivered, not discarded")
	}

	if err := w.HandleEntryRecorded(ctx, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if target.Len() != 1 {
		t.Fatalf("expected one mirrored entry, got %d", target.Len())
	}
}

func TestHandleEntryRecordedDiscardsInvalidEvents(t *testing.T) {
	tests := []struct {
		name string
		msg  *amqp.EntryRecordedMessage
	}{
		{"bad amount", &amqp.EntryRecordedMessage{ID: uuid.New(), Kind: amqp.KindExpense, Date: "2025-03-01", Concept: "x", Amount: "abc", Category: "y"}},
		{"bad date", &amqp.EntryRecordedMessage{ID: uuid.New(), Kind: amqp.KindIncome, Date: "mañana", Amount: "1", Description: "x"}},
		{"missing description", &amqp.EntryRecordedMessage{ID: uuid.New(), Kind: amqp.KindIncome, Date: "2025-03-01", Amount: "1"}},
		{"unknown kind", &amqp.EntryRecordedMessage{ID: uuid.New(), Kind: "transfer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := memory.New()
			err := NewMirrorWorker(target, quietLogger()).HandleEntryRecorded(context.Background(), tt.msg)
			if !errors.Is(err, amqp.ErrDiscard) {
				t.Fatalf("expected ErrDiscard, got %v", err)
			}
			if target.Len() != 0 {
				t.Fatal("nothing may be mirrored")
			}
		})
	}
}

func TestSeenSetExpiryAndEviction(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := newSeenSet(2, time.Hour)
	s.now = func() time.Time { return now }

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	s.Add(a)
	s.Add(b)
	if !s.Contains(a) {
		t.Fatal("a should be present")
	}

	// a was touched last, so b is evicted
	s.Add(c)
	if s.Contains(b) {
		t.Error("b should have been evicted")
	}
	if !s.Contains(a) || !s.Contains(c) {
		t.Error("a and c should be present")
	}

	now = now.Add(2 * time.Hour)
	if n := s.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}
