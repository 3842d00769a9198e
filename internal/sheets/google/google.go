// Package google mirrors ledger entries into a Google Sheets spreadsheet.
//
// The mirror is append-only and never read back; the SQLite ledger stays
// the source of truth for reports.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

const (
	DefaultExpensesSheet = "Gastos"
	DefaultIncomesSheet  = "Ingresos"

	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"
)

// Config selects the spreadsheet, tabs and credentials. A sheet name
// containing %d is formatted with the entry's year, e.g. "%d Gastos".
type Config struct {
	SpreadsheetID      string
	ExpensesSheet      string
	IncomesSheet       string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// rowAppender is the single Sheets call the mirror needs.
type rowAppender func(ctx context.Context, spreadsheetID, rng string, row []any) error

type Client struct {
	spreadsheetID string
	expensesSheet string
	incomesSheet  string
	appendFn      rowAppender
	logger        *applog.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(cfg, serviceAppender(svc), logger), nil
}

func newClient(cfg Config, appendFn rowAppender, logger *applog.Logger) *Client {
	expenses := strings.TrimSpace(cfg.ExpensesSheet)
	if expenses == "" {
		expenses = DefaultExpensesSheet
	}
	incomes := strings.TrimSpace(cfg.IncomesSheet)
	if incomes == "" {
		incomes = DefaultIncomesSheet
	}
	return &Client{
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		expensesSheet: expenses,
		incomesSheet:  incomes,
		appendFn:      appendFn,
		logger:        logger,
	}
}

// credentialsJSON resolves inline JSON first, then the file path. It
// returns nil when neither is set, leaving the choice to Application
// Default Credentials.
func credentialsJSON(cfg Config) ([]byte, error) {
	if inline := strings.TrimSpace(cfg.ServiceAccountJSON); inline != "" {
		return []byte(inline), nil
	}
	if file := strings.TrimSpace(cfg.ServiceAccountFile); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, nil
}

// clientOptions scopes the client to Sheets. Without explicit credentials
// the API library falls back to ADC: GOOGLE_APPLICATION_CREDENTIALS, the
// gcloud user file or the metadata server.
func clientOptions(cfg Config) ([]goption.ClientOption, bool, error) {
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, false, err
	}
	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if creds == nil {
		return opts, true, nil
	}
	return append(opts, goption.WithCredentialsJSON(creds)), false, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *applog.Logger) (*gsheet.Service, error) {
	opts, adc, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Creating Google Sheets service",
		"application_default_credentials", adc,
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAppender(svc *gsheet.Service) rowAppender {
	return func(ctx context.Context, spreadsheetID, rng string, row []any) error {
		vr := &gsheet.ValueRange{Values: [][]any{row}}
		_, err := svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
			ValueInputOption(valueInputOption).
			InsertDataOption(insertDataOption).
			Context(ctx).Do()
		return err
	}
}

// AppendExpense writes [date, concept, amount, category].
func (c *Client) AppendExpense(ctx context.Context, e core.ExpenseEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	sheet := sheetName(c.expensesSheet, e.Date.Year())
	return c.appendRow(ctx, sheet, "A:D", expenseRow(e))
}

// AppendIncome writes [date, description, amount].
func (c *Client) AppendIncome(ctx context.Context, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	sheet := sheetName(c.incomesSheet, e.Date.Year())
	return c.appendRow(ctx, sheet, "A:C", incomeRow(e))
}

func (c *Client) appendRow(ctx context.Context, sheet, cols string, row []any) error {
	if c.appendFn == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	if err := c.appendFn(ctx, c.spreadsheetID, rng, row); err != nil {
		return fmt.Errorf("append to %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Row appended", "range", rng)
	return nil
}

func expenseRow(e core.ExpenseEntry) []any {
	return []any{e.Date.String(), e.Concept, e.Amount.InexactFloat64(), e.Category}
}

func incomeRow(e core.IncomeEntry) []any {
	return []any{e.Date.String(), e.Description, e.Amount.InexactFloat64()}
}

// sheetName formats a %d pattern with year and quotes names that need it
// in A1 notation.
func sheetName(pattern string, year int) string {
	name := strings.Replace(strings.TrimSpace(pattern), "%d", strconv.Itoa(year), 1)
	if strings.ContainsAny(name, " '!") {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
