// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings before any work starts, so misconfiguration fails fast.
//
// Command-line flags are layered on top by the cli package: the env-loaded
// Config supplies flag defaults, and Validate runs once flags are applied.
package config

import "time"

// DefaultFilterValue is the department that rows must carry to be imported
// when no other filter value is configured.
const DefaultFilterValue = `בה"ס לרפואה`

// Config holds all importer configuration.
// All settings can be configured via environment variables.
type Config struct {
	API     APIConfig
	Board   BoardConfig
	Input   InputConfig
	Import  ImportConfig
	Retry   RetryConfig
	Ledger  LedgerConfig
	Logging LoggingConfig
}

// APIConfig holds GraphQL endpoint settings.
type APIConfig struct {
	// Key is the API token sent in the Authorization header (required)
	Key string `env:"MONDAY_API_KEY"`

	// URL is the GraphQL endpoint (default: https://api.monday.com/v2)
	URL string `env:"MONDAY_API_URL" default:"https://api.monday.com/v2"`

	// Timeout bounds a single HTTP attempt (default: 30s)
	Timeout time.Duration `env:"MONDAY_API_TIMEOUT" default:"30s"`
}

// BoardConfig identifies the target board and its columns.
type BoardConfig struct {
	// ID is the board that receives one item per user (required)
	ID string `env:"MONDAY_USER_BOARD_ID"`

	// IDColumn is the column key that stores the user id (required)
	IDColumn string `env:"MONDAY_USER_BOARD_USER_ID_COLUMN_ID"`

	// NameColumn is the optional column key that stores the user name
	NameColumn string `env:"MONDAY_USER_BOARD_USER_NAME_COLUMN_ID"`

	// GroupID places new items into a specific board group
	GroupID string `env:"MONDAY_USER_BOARD_GROUP_ID"`
}

// InputConfig describes the spreadsheet being imported.
type InputConfig struct {
	// File is the path to the .xlsx or .csv input (required)
	File string `env:"IMPORT_FILE"`

	// Password decrypts a protected workbook
	Password string `env:"IMPORT_WORKBOOK_PASSWORD"`

	// DecryptTo is where the decrypted workbook is written (default: <file>.decrypted<ext>)
	DecryptTo string `env:"IMPORT_DECRYPT_TO"`

	// NoHeader treats the first row as data (default: false)
	NoHeader bool `env:"IMPORT_NO_HEADER" default:"false"`

	// FilterColumn is the zero-based column compared against FilterValue (default: 3)
	FilterColumn int `env:"IMPORT_FILTER_COLUMN" default:"3"`

	// FilterValue is the exact value a row must carry in FilterColumn
	// (default: DefaultFilterValue). An empty --filter-value disables the filter.
	FilterValue string `env:"IMPORT_FILTER_VALUE" default:"בה\"ס לרפואה"`
}

// ImportConfig holds batching and reporting settings.
type ImportConfig struct {
	// DryRun previews records without calling the API (default: false)
	DryRun bool `env:"IMPORT_DRY_RUN" default:"false"`

	// Limit caps the number of records processed; 0 means no limit
	Limit int `env:"IMPORT_LIMIT" default:"0"`

	// BatchSize is the number of records per sequential batch (default: 10)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"10"`

	// BatchDelay is the pause after each batch (default: 100ms)
	BatchDelay time.Duration `env:"IMPORT_BATCH_DELAY" default:"100ms"`

	// FailedOut is an optional CSV path that receives rows that failed to upload
	FailedOut string `env:"IMPORT_FAILED_OUT"`

	// SkipImported drops users the ledger already recorded for this board
	SkipImported bool `env:"IMPORT_SKIP_IMPORTED" default:"false"`
}

// RetryConfig holds the request retry policy.
type RetryConfig struct {
	// MaxAttempts is the number of retries after the first try (default: 7)
	MaxAttempts int `env:"MONDAY_RETRIES" default:"7"`

	// MinDelay is the first backoff (default: 250ms)
	MinDelay time.Duration `env:"MONDAY_RETRY_MIN_DELAY" default:"250ms"`

	// MaxDelay caps the exponential backoff (default: 5s)
	MaxDelay time.Duration `env:"MONDAY_RETRY_MAX_DELAY" default:"5s"`

	// Jitter is the upper bound of random delay added to each backoff (default: 250ms)
	Jitter time.Duration `env:"MONDAY_RETRY_JITTER" default:"250ms"`
}

// LedgerConfig holds the optional PostgreSQL import ledger settings.
type LedgerConfig struct {
	// URL is the PostgreSQL connection string; empty disables the ledger.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of pooled connections (default: 2)
	MaxConns int `env:"LEDGER_MAX_CONNS" default:"2"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// LedgerEnabled reports whether a ledger database is configured.
func (c *Config) LedgerEnabled() bool {
	return c.Ledger.URL != ""
}
