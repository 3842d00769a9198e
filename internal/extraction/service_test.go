package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

type fakeGenerator struct {
	response string
	err      error
	delay    time.Duration

	calls      int
	lastModel  string
	lastPrompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	g.calls++
	g.lastModel = model
	g.lastPrompt = prompt
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.response, g.err
}

func TestExtractExpense(t *testing.T) {
	gen := &fakeGenerator{response: `{"concepto": "uber", "monto": 20, "categoria": "transporte"}`}
	svc := NewService(gen, WithModel("test-model"))

	fields, err := svc.Extract(context.Background(), "pagué 20 de uber", ExpenseSchema)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	exp, ok := fields.(ExpenseFields)
	if !ok {
		t.Fatalf("expected ExpenseFields, got %T", fields)
	}
	if exp.Concept != "uber" {
		t.Fatalf("unexpected concept %q", exp.Concept)
	}
	if gen.lastModel != "test-model" {
		t.Fatalf("model not forwarded: %q", gen.lastModel)
	}
	if !strings.Contains(gen.lastPrompt, "Texto: pagué 20 de uber") {
		t.Fatalf("prompt must embed the raw text, got:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, `"categoria"`) {
		t.Fatalf("expense prompt must describe the expense shape")
	}
}

func TestExtractIncomePromptShape(t *testing.T) {
	gen := &fakeGenerator{response: `{"monto": 1000, "descripcion": "sueldo"}`}
	svc := NewService(gen)

	fields, err := svc.Extract(context.Background(), "sueldo 1000", IncomeSchema)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields.Schema() != IncomeSchema {
		t.Fatalf("expected income fields, got %v", fields.Schema())
	}
	if strings.Contains(gen.lastPrompt, "fecha") {
		t.Fatal("income prompt must not ask for a date")
	}
	if gen.lastModel != DefaultModelName {
		t.Fatalf("expected default model, got %q", gen.lastModel)
	}
}

func TestExtractFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		want core.Kind
	}{
		{"network error", &fakeGenerator{err: errors.New("connection refused")}, core.KindServiceUnavailable},
		{"empty body", &fakeGenerator{response: "   "}, core.KindServiceUnavailable},
		{"prose", &fakeGenerator{response: "No entendí el mensaje"}, core.KindMalformedResponse},
		{"missing keys", &fakeGenerator{response: `{"concepto": "x"}`}, core.KindSchemaViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.gen).Extract(context.Background(), "x", ExpenseSchema)
			if got := core.KindOf(err); got != tt.want {
				t.Fatalf("kind = %s, want %s (err=%v)", got, tt.want, err)
			}
			if tt.gen.calls != 1 {
				t.Fatalf("expected exactly one model call, got %d", tt.gen.calls)
			}
		})
	}
}

func TestExtractTimeout(t *testing.T) {
	gen := &fakeGenerator{response: `{"monto": 1, "descripcion": "x"}`, delay: time.Second}
	svc := NewService(gen, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := svc.Extract(context.Background(), "ingreso 1", IncomeSchema)
	if core.KindOf(err) != core.KindServiceUnavailable {
		t.Fatalf("timeout should surface as service unavailable, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause should be the deadline, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("extraction was not bounded by its timeout")
	}
}

func TestWithLoggerTagsExtractionComponent(t *testing.T) {
	root := applog.New(applog.Config{Component: applog.ComponentApp})
	svc := NewService(&fakeGenerator{}, WithLogger(root))
	if got := svc.logger.Component(); got != applog.ComponentExtraction {
		t.Fatalf("logger component = %q, want %q", got, applog.ComponentExtraction)
	}
}
