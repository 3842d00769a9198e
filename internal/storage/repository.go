package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
	"gastos/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

// SQLiteRepository is the durable ledger. The handle is opened once by the
// entry point and shared for the life of the process.
type SQLiteRepository struct {
	db *sql.DB

	// writeMu serialises appends so concurrent callers cannot interleave
	// writes on the same file.
	writeMu sync.Mutex
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AppendExpense implements ledger.ExpenseWriter
func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.ExpenseEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, concept, amount, category) VALUES (?, ?, ?, ?)`,
		e.Date.String(), e.Concept, e.Amount.InexactFloat64(), e.Category)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"date", e.Date.String(),
		"concept", e.Concept,
		"amount", e.Amount.String(),
		"category", e.Category)

	return nil
}

// AppendIncome implements ledger.IncomeWriter
func (r *SQLiteRepository) AppendIncome(ctx context.Context, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate income: %w", err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (date, amount, description) VALUES (?, ?, ?)`,
		e.Date.String(), e.Amount.InexactFloat64(), e.Description)
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}

	slog.DebugContext(ctx, "Income saved to SQLite",
		"date", e.Date.String(),
		"description", e.Description,
		"amount", e.Amount.String())

	return nil
}

// ExpensesSince implements ledger.Reader
func (r *SQLiteRepository) ExpensesSince(ctx context.Context, since core.Date) ([]core.ExpenseEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, concept, amount, category FROM expenses WHERE date >= ? ORDER BY rowid`,
		since.String())
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		var (
			date   string
			e      core.ExpenseEntry
			amount float64
		)
		if err := rows.Scan(&date, &e.Concept, &amount, &e.Category); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense date %q: %w", date, err)
		}
		if e.Amount, err = amountFromREAL(amount); err != nil {
			return nil, fmt.Errorf("expense on %s: %w", date, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return out, nil
}

// IncomesSince implements ledger.Reader
func (r *SQLiteRepository) IncomesSince(ctx context.Context, since core.Date) ([]core.IncomeEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, amount, description FROM incomes WHERE date >= ? ORDER BY rowid`,
		since.String())
	if err != nil {
		return nil, fmt.Errorf("query incomes: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeEntry
	for rows.Next() {
		var (
			date   string
			e      core.IncomeEntry
			amount float64
		)
		if err := rows.Scan(&date, &amount, &e.Description); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("income date %q: %w", date, err)
		}
		if e.Amount, err = amountFromREAL(amount); err != nil {
			return nil, fmt.Errorf("income on %s: %w", date, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}

	return out, nil
}

// amountFromREAL converts a stored amount; NaN and infinities cannot be
// represented as decimals.
func amountFromREAL(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("stored amount %v is not finite", v)
	}
	return decimal.NewFromFloat(v), nil
}

// Count returns the number of rows in both record sets.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM expenses) + (SELECT COUNT(*) FROM incomes)`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
