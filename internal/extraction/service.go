// Package extraction turns free text into structured ledger fields through a
// single language-model call.
package extraction

import (
	"context"
	"errors"
	"strings"
	"time"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

// DefaultModelName is the default Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// DefaultTimeout bounds one model round-trip.
const DefaultTimeout = 20 * time.Second

// Generator sends one prompt to a hosted model and returns its raw text.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Service performs exactly one model call per Extract. It never retries.
type Service struct {
	gen     Generator
	model   string
	timeout time.Duration
	logger  *applog.Logger
}

// Option customizes a Service.
type Option func(*Service)

func WithModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentExtraction)
		}
	}
}

func NewService(gen Generator, opts ...Option) *Service {
	s := &Service{
		gen:     gen,
		model:   DefaultModelName,
		timeout: DefaultTimeout,
		logger:  applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentExtraction),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract asks the model for the given schema and type-checks the answer.
// Errors are *core.Error with kind ServiceUnavailable, MalformedResponse or
// SchemaViolation.
func (s *Service) Extract(ctx context.Context, text string, schema Schema) (Fields, error) {
	op := "extract " + schema.String()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.gen.Generate(callCtx, s.model, buildPrompt(schema, text))
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			s.logger.WarnContext(ctx, "Model call timed out",
				applog.FieldSchema, schema.String(),
				applog.FieldDuration, elapsed.Milliseconds())
		} else {
			s.logger.ErrorContext(ctx, "Model call failed",
				applog.FieldSchema, schema.String(),
				applog.FieldError, err)
		}
		return nil, core.Wrap(core.KindServiceUnavailable, op, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, core.Errorf(core.KindServiceUnavailable, op, "empty response from model")
	}

	s.logger.DebugContext(ctx, "Model responded",
		applog.FieldSchema, schema.String(),
		applog.FieldDuration, elapsed.Milliseconds(),
		"response_bytes", len(raw))

	var fields Fields
	switch schema {
	case IncomeSchema:
		fields, err = parseIncome(raw)
	default:
		fields, err = parseExpense(raw)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Model output rejected",
			applog.FieldSchema, schema.String(),
			applog.FieldErrorKind, core.KindOf(err).String(),
			applog.FieldError, err)
		return nil, err
	}
	return fields, nil
}
