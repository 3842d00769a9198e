// Package worker consumes EntryRecorded events and mirrors them into an
// external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/ledger"
	applog "gastos/internal/log"
)

const (
	defaultSeenSize = 1024
	defaultSeenTTL  = 24 * time.Hour
)

// MirrorTarget receives mirrored entries.
type MirrorTarget interface {
	ledger.ExpenseWriter
	ledger.IncomeWriter
}

// MirrorWorker appends each EntryRecorded event to a MirrorTarget once.
type MirrorWorker struct {
	target MirrorTarget
	seen   *seenSet
	logger *applog.Logger
}

func NewMirrorWorker(target MirrorTarget, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{
		target: target,
		seen:   newSeenSet(defaultSeenSize, defaultSeenTTL),
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEntryRecorded mirrors one event. Events that can never be mirrored
// wrap amqp.ErrDiscard; target failures are returned as-is so the broker
// redelivers them.
func (w *MirrorWorker) HandleEntryRecorded(ctx context.Context, msg *amqp.EntryRecordedMessage) error {
	log := w.logger.With(applog.FieldEventID, msg.ID.String(), "kind", string(msg.Kind))

	if w.seen.Contains(msg.ID) {
		log.InfoContext(ctx, "Skipping already mirrored event")
		return nil
	}

	start := time.Now()
	var err error
	switch msg.Kind {
	case amqp.KindExpense:
		err = w.mirrorExpense(ctx, msg)
	case amqp.KindIncome:
		err = w.mirrorIncome(ctx, msg)
	default:
		err = fmt.Errorf("%w: kind %q", amqp.ErrDiscard, msg.Kind)
	}
	if err != nil {
		return err
	}

	w.seen.Add(msg.ID)
	log.InfoContext(ctx, "Entry mirrored",
		applog.FieldOperation, applog.OpMirror,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, msg *amqp.EntryRecordedMessage) error {
	e, err := msg.Expense()
	if err != nil {
		return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
	}
	if err := w.target.AppendExpense(ctx, e); err != nil {
		return fmt.Errorf("mirror expense: %w", err)
	}
	return nil
}

func (w *MirrorWorker) mirrorIncome(ctx context.Context, msg *amqp.EntryRecordedMessage) error {
	e, err := msg.Income()
	if err != nil {
		return fmt.Errorf("%w: %v", amqp.ErrDiscard, err)
	}
	if err := w.target.AppendIncome(ctx, e); err != nil {
		return fmt.Errorf("mirror income: %w", err)
	}
	return nil
}

// RunCleanup evicts expired event IDs every interval until ctx is done.
func (w *MirrorWorker) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := w.seen.CleanExpired(); n > 0 {
				w.logger.DebugContext(ctx, "Expired mirrored event IDs", "count", n)
			}
		}
	}
}
