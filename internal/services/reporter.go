package services

import (
	"context"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
	applog "gastos/internal/log"
)

// Reporter aggregates the ledger over a period ending today.
type Reporter struct {
	ledger ledger.Reader
	now    func() time.Time
	logger *applog.Logger
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithReportClock sets the source of "today".
func WithReportClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// WithReporterLogger sets the logger.
func WithReporterLogger(l *applog.Logger) ReporterOption {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l.WithComponent(applog.ComponentReport)
		}
	}
}

func NewReporter(reader ledger.Reader, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		ledger: reader,
		now:    time.Now,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentReport),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summarize validates keyword before touching the ledger, then reads every
// entry dated on or after the window start.
func (r *Reporter) Summarize(ctx context.Context, keyword string) (core.Summary, error) {
	period, err := core.ParsePeriod(keyword)
	if err != nil {
		return core.Summary{}, err
	}

	today := core.DateOf(r.now())
	start := period.Start(today)

	expenses, err := r.ledger.ExpensesSince(ctx, start)
	if err != nil {
		return core.Summary{}, core.Wrap(core.KindStorageFailure, "read expenses", err)
	}
	incomes, err := r.ledger.IncomesSince(ctx, start)
	if err != nil {
		return core.Summary{}, core.Wrap(core.KindStorageFailure, "read incomes", err)
	}

	s := core.Summarize(period, start, today, expenses, incomes)
	r.logger.InfoContext(ctx, "Report generated",
		applog.FieldOperation, applog.OpReport,
		applog.FieldPeriod, string(period),
		"start", start.String(),
		"expenses", len(expenses),
		"incomes", len(incomes))
	return s, nil
}

// Report returns the rendered summary.
func (r *Reporter) Report(ctx context.Context, keyword string) (string, error) {
	s, err := r.Summarize(ctx, keyword)
	if err != nil {
		return "", err
	}
	return RenderSummary(s), nil
}

// Reply is Report worded for the chat, errors included.
func (r *Reporter) Reply(ctx context.Context, keyword string) string {
	text, err := r.Report(ctx, keyword)
	if err != nil {
		r.logger.WarnContext(ctx, "Report failed",
			applog.FieldPeriod, keyword,
			applog.FieldErrorKind, core.KindOf(err).String(),
			applog.FieldError, err)
		return ReportErrorMessage(err)
	}
	return text
}
