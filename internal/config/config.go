package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// Telegram
	TelegramToken     string
	TelegramProxy     string
	TelegramProxyUser string
	TelegramProxyPass string
	BotRateLimit      int

	// Extraction
	GeminiAPIKey      string
	LLMModel          string
	ExtractionTimeout time.Duration
	ExtractionRetries int

	// Ledger
	DataBackend    string
	SQLiteDBPath   string
	LedgerTimezone string

	// Logging
	LogLevel string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleExpensesSheet      string
	GoogleIncomesSheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

func Load() *Config {
	cfg := &Config{
		TelegramToken:     getEnv("TELEGRAM_TOKEN", ""),
		TelegramProxy:     getEnv("TELEGRAM_PROXY_SOCKS5", ""),
		TelegramProxyUser: getEnv("TELEGRAM_PROXY_USER", ""),
		TelegramProxyPass: getEnv("TELEGRAM_PROXY_PASS", ""),
		BotRateLimit:      getEnvInt("BOT_RATE_LIMIT", 20),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
		LLMModel:          getEnv("LLM_MODEL", "gemini-2.5-flash"),
		ExtractionTimeout: getEnvDuration("EXTRACTION_TIMEOUT", 20*time.Second),
		ExtractionRetries: getEnvInt("EXTRACTION_RETRIES", 2),

		DataBackend:    getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/gastos.db"),
		LedgerTimezone: getEnv("LEDGER_TIMEZONE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gastos"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entries_recorded"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleExpensesSheet:      getEnv("GOOGLE_EXPENSES_SHEET", "Gastos"),
		GoogleIncomesSheet:       getEnv("GOOGLE_INCOMES_SHEET", "Ingresos"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
	}

	return cfg
}

// Location resolves LedgerTimezone; empty means the host's local zone.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.LedgerTimezone) == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.LedgerTimezone)
}

// AMQPEnabled reports whether entry events should be published.
func (c *Config) AMQPEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// Validate checks everything the bot needs and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if c.TelegramToken == "" {
		errors = append(errors, "TELEGRAM_TOKEN is required")
	}
	if c.GeminiAPIKey == "" {
		errors = append(errors, "GEMINI_API_KEY (or GOOGLE_API_KEY) is required")
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		errors = append(errors, "LLM model name cannot be empty")
	}

	if c.ExtractionTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid extraction timeout %v: must be at least 1 second", c.ExtractionTimeout))
	} else if c.ExtractionTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid extraction timeout %v: must be at most 5 minutes", c.ExtractionTimeout))
	}
	if c.BotRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid bot rate limit %d: must be zero (disabled) or positive", c.BotRateLimit))
	}
	if c.ExtractionRetries < 0 || c.ExtractionRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid extraction retries %d: must be between 0 and 10", c.ExtractionRetries))
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ledger timezone '%s': %v", c.LedgerTimezone, err))
	}

	if !isValidLogLevel(c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.TelegramProxy != "" {
		if _, _, err := net.SplitHostPort(c.TelegramProxy); err != nil {
			errors = append(errors, fmt.Sprintf("invalid TELEGRAM_PROXY_SOCKS5 '%s': must be host:port", c.TelegramProxy))
		}
	}

	// AMQP is optional for the bot
	if c.AMQPEnabled() {
		errors = append(errors, c.validateAMQP()...)
	}

	return joinErrors(errors)
}

// ValidateMirror checks everything the ledger mirror worker needs.
func (c *Config) ValidateMirror() error {
	var errors []string

	if !c.AMQPEnabled() {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	} else {
		errors = append(errors, c.validateAMQP()...)
	}

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the mirror worker")
	}
	if strings.TrimSpace(c.GoogleExpensesSheet) == "" {
		errors = append(errors, "Google expenses sheet name cannot be empty")
	}
	if strings.TrimSpace(c.GoogleIncomesSheet) == "" {
		errors = append(errors, "Google incomes sheet name cannot be empty")
	}

	// Without explicit credentials the Sheets client uses Application
	// Default Credentials.
	hasJSON := c.GoogleServiceAccountJSON != ""
	hasFile := c.GoogleServiceAccountFile != ""
	if !hasJSON && hasFile {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if !isValidLogLevel(c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	return joinErrors(errors)
}

func (c *Config) validateAMQP() []string {
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
