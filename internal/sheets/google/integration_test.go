//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendRows(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:      spreadsheetID,
		ExpensesSheet:      os.Getenv("GOOGLE_EXPENSES_SHEET"),
		IncomesSheet:       os.Getenv("GOOGLE_INCOMES_SHEET"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	today := core.DateOf(time.Now())
	if err := client.AppendExpense(ctx, core.ExpenseEntry{
		Date: today, Concept: "integration test", Amount: decimal.RequireFromString("0.01"), Category: "test",
	}); err != nil {
		t.Fatalf("AppendExpense: %v", err)
	}
	if err := client.AppendIncome(ctx, core.IncomeEntry{
		Date: today, Amount: decimal.RequireFromString("0.01"), Description: "integration test",
	}); err != nil {
		t.Fatalf("AppendIncome: %v", err)
	}
}
