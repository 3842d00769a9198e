package services

import (
	"context"
	"time"

	"gastos/internal/core"
	"gastos/internal/extraction"
	"gastos/internal/intent"
	"gastos/internal/ledger"
	applog "gastos/internal/log"
)

// Classifier picks the extraction schema for a message.
type Classifier interface {
	Classify(text string) intent.Intent
}

// Extractor converts text into typed fields for one schema.
type Extractor interface {
	Extract(ctx context.Context, text string, schema extraction.Schema) (extraction.Fields, error)
}

// EventPublisher announces entries after they are persisted.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, e core.ExpenseEntry) error
	PublishIncomeRecorded(ctx context.Context, e core.IncomeEntry) error
}

// LedgerWriter is the append side of the ledger.
type LedgerWriter interface {
	ledger.ExpenseWriter
	ledger.IncomeWriter
}

// Receipt describes the outcome of one Record call. Intent is set even when
// recording fails so the caller can word the error.
type Receipt struct {
	Intent  intent.Intent
	Expense *core.ExpenseEntry
	Income  *core.IncomeEntry
}

// Recorder turns one chat message into at most one ledger entry.
type Recorder struct {
	classifier Classifier
	extractor  Extractor
	ledger     LedgerWriter
	publisher  EventPublisher
	now        func() time.Time
	logger     *applog.Logger
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithPublisher enables EntryRecorded events. A nil publisher disables them.
func WithPublisher(p EventPublisher) RecorderOption {
	return func(r *Recorder) { r.publisher = p }
}

// WithClock sets the source of the processing date.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRecorderLogger sets the logger.
func WithRecorderLogger(l *applog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l.WithComponent(applog.ComponentRecorder)
		}
	}
}

func NewRecorder(classifier Classifier, extractor Extractor, w LedgerWriter, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		classifier: classifier,
		extractor:  extractor,
		ledger:     w,
		now:        time.Now,
		logger:     applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentRecorder),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record classifies, extracts, validates and appends. Every failure is a
// *core.Error and leaves the ledger untouched.
func (r *Recorder) Record(ctx context.Context, text string) (Receipt, error) {
	rec := Receipt{Intent: r.classifier.Classify(text)}
	today := core.DateOf(r.now())

	var err error
	switch rec.Intent {
	case intent.Income:
		rec.Income, err = r.recordIncome(ctx, text, today)
	default:
		rec.Expense, err = r.recordExpense(ctx, text, today)
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Message not recorded",
			applog.FieldIntent, rec.Intent.String(),
			applog.FieldErrorKind, core.KindOf(err).String(),
			applog.FieldError, err)
		return rec, err
	}

	r.publish(ctx, rec)
	return rec, nil
}

func (r *Recorder) recordExpense(ctx context.Context, text string, today core.Date) (*core.ExpenseEntry, error) {
	fields, err := r.extractor.Extract(ctx, text, extraction.ExpenseSchema)
	if err != nil {
		return nil, err
	}
	f, ok := fields.(extraction.ExpenseFields)
	if !ok {
		return nil, core.Errorf(core.KindSchemaViolation, "record expense", "extractor returned %s fields", fields.Schema())
	}

	entry := core.ExpenseEntry{
		Date:     f.Date,
		Concept:  f.Concept,
		Amount:   f.Amount,
		Category: f.Category,
	}
	if !f.HasDate() {
		entry.Date = today
	}
	if err := entry.Validate(); err != nil {
		return nil, core.Wrap(core.KindSchemaViolation, "validate expense", err)
	}

	if err := r.ledger.AppendExpense(ctx, entry); err != nil {
		return nil, core.Wrap(core.KindStorageFailure, "append expense", err)
	}

	r.logger.InfoContext(ctx, "Expense recorded",
		applog.NewFields().
			WithOperation(applog.OpRecord).
			WithExpense(entry.Date.String(), entry.Concept, entry.Amount.String(), entry.Category).
			ToSlice()...)
	return &entry, nil
}

func (r *Recorder) recordIncome(ctx context.Context, text string, today core.Date) (*core.IncomeEntry, error) {
	fields, err := r.extractor.Extract(ctx, text, extraction.IncomeSchema)
	if err != nil {
		return nil, err
	}
	f, ok := fields.(extraction.IncomeFields)
	if !ok {
		return nil, core.Errorf(core.KindSchemaViolation, "record income", "extractor returned %s fields", fields.Schema())
	}

	// Income is always dated on the processing day.
	entry := core.IncomeEntry{
		Date:        today,
		Amount:      f.Amount,
		Description: f.Description,
	}
	if err := entry.Validate(); err != nil {
		return nil, core.Wrap(core.KindSchemaViolation, "validate income", err)
	}

	if err := r.ledger.AppendIncome(ctx, entry); err != nil {
		return nil, core.Wrap(core.KindStorageFailure, "append income", err)
	}

	r.logger.InfoContext(ctx, "Income recorded",
		applog.NewFields().
			WithOperation(applog.OpRecord).
			WithIncome(entry.Date.String(), entry.Description, entry.Amount.String()).
			ToSlice()...)
	return &entry, nil
}

// publish never fails the record: the entry is already persisted.
func (r *Recorder) publish(ctx context.Context, rec Receipt) {
	if r.publisher == nil {
		return
	}

	var err error
	switch {
	case rec.Expense != nil:
		err = r.publisher.PublishExpenseRecorded(ctx, *rec.Expense)
	case rec.Income != nil:
		err = r.publisher.PublishIncomeRecorded(ctx, *rec.Income)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish entry event",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err)
	}
}
