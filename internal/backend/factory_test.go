package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"gastos/internal/config"
	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/storage"
)

func newTestFactory() Factory {
	return NewFactory(applog.New(applog.Config{Output: io.Discard}))
}

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantSQLite bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "gastos.db")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			result, err := newTestFactory().CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer func() {
				if err := result.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}()

			if tt.wantSQLite {
				if _, ok := result.Ledger.(*storage.SQLiteRepository); !ok {
					t.Fatalf("expected SQLite repository, got %T", result.Ledger)
				}
			}
			if result.Publisher != nil {
				t.Fatal("publisher must be nil without AMQP URL")
			}

			entry := core.ExpenseEntry{
				Date: core.NewDate(2025, 3, 1), Concept: "uber", Amount: decimal.NewFromInt(20), Category: "transporte",
			}
			if err := result.Ledger.AppendExpense(ctx, entry); err != nil {
				t.Fatalf("AppendExpense: %v", err)
			}
			got, err := result.Ledger.ExpensesSince(ctx, core.NewDate(2025, 3, 1))
			if err != nil || len(got) != 1 {
				t.Fatalf("ExpensesSince = %v, %v", got, err)
			}
		})
	}
}

func TestCreateBackendInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"sqlite without path", Config{Type: SQLiteBackend}},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newTestFactory().CreateBackend(context.Background(), tt.config); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config must fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "gastos",
		AMQPQueue:    "q",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/x.db" || cfg.AMQPQueue != "q" {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("unknown backend must fail")
	}
}
