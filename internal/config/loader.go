package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/boardimport/internal/core"
)

// Load reads configuration from environment variables and validates it.
// Use FromEnv when flags still need to be applied before validation.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads configuration from environment variables and applies defaults
// for unset values. Required values are not enforced here; Validate does that
// once every override has been applied.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, &core.ConfigError{Err: fmt.Errorf("config load: %w", err)}
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// ParseDuration accepts Go durations ("250ms") and bare integers, which are
// read as milliseconds to stay compatible with the older *_MS style values.
func ParseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

// parseBool accepts the usual yes/no spellings besides strconv's set.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "t":
		return true, nil
	case "false", "0", "no", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", value)
}

// Validate checks that the configuration is valid.
// Returns a *core.ConfigError describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Required values
	if c.API.Key == "" {
		errs = append(errs, "MONDAY_API_KEY is required (or --api-key)")
	}
	if c.Board.ID == "" {
		errs = append(errs, "board id is required; provide --board or MONDAY_USER_BOARD_ID")
	}
	if c.Board.IDColumn == "" {
		errs = append(errs, "user id column id is required; provide --user-id-col or MONDAY_USER_BOARD_USER_ID_COLUMN_ID")
	}
	if c.Input.File == "" {
		errs = append(errs, "input file is required; provide --file or IMPORT_FILE")
	}

	// API validation
	if c.API.URL == "" {
		errs = append(errs, "MONDAY_API_URL must not be empty")
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "MONDAY_API_TIMEOUT must be positive")
	}

	// Input validation
	if c.Input.FilterColumn < 0 {
		errs = append(errs, fmt.Sprintf("IMPORT_FILTER_COLUMN (%d) must be non-negative", c.Input.FilterColumn))
	}

	// Import validation
	if c.Import.Limit < 0 {
		errs = append(errs, "IMPORT_LIMIT must be non-negative")
	}
	if c.Import.BatchDelay < 0 {
		errs = append(errs, "IMPORT_BATCH_DELAY must be non-negative")
	}
	if c.Import.SkipImported && c.Ledger.URL == "" {
		errs = append(errs, "IMPORT_SKIP_IMPORTED requires DATABASE_URL (or --ledger-url)")
	}

	// Retry validation
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, "MONDAY_RETRIES must be non-negative")
	}
	if c.Retry.MinDelay < 0 || c.Retry.MaxDelay < 0 || c.Retry.Jitter < 0 {
		errs = append(errs, "retry delays must be non-negative")
	}
	if c.Retry.MaxDelay < c.Retry.MinDelay {
		errs = append(errs, fmt.Sprintf("MONDAY_RETRY_MAX_DELAY (%s) must be >= MONDAY_RETRY_MIN_DELAY (%s)",
			c.Retry.MaxDelay, c.Retry.MinDelay))
	}

	// Ledger validation
	if c.Ledger.URL != "" && c.Ledger.MaxConns <= 0 {
		errs = append(errs, "LEDGER_MAX_CONNS must be positive")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return &core.ConfigError{Err: fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))}
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The API key, workbook password and ledger URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("API: {URL: %q, Key: %s, Timeout: %s}, ", c.API.URL, mask(c.API.Key), c.API.Timeout))
	b.WriteString(fmt.Sprintf("Board: {ID: %q, IDColumn: %q, NameColumn: %q, GroupID: %q}, ",
		c.Board.ID, c.Board.IDColumn, c.Board.NameColumn, c.Board.GroupID))
	b.WriteString(fmt.Sprintf("Input: {File: %q, Password: %s, NoHeader: %v, FilterColumn: %d}, ",
		c.Input.File, mask(c.Input.Password), c.Input.NoHeader, c.Input.FilterColumn))
	b.WriteString(fmt.Sprintf("Import: {DryRun: %v, Limit: %d, BatchSize: %d, BatchDelay: %s}, ",
		c.Import.DryRun, c.Import.Limit, c.Import.BatchSize, c.Import.BatchDelay))
	b.WriteString(fmt.Sprintf("Retry: {MaxAttempts: %d, MinDelay: %s, MaxDelay: %s, Jitter: %s}, ",
		c.Retry.MaxAttempts, c.Retry.MinDelay, c.Retry.MaxDelay, c.Retry.Jitter))
	b.WriteString(fmt.Sprintf("Ledger: {URL: %s}, ", mask(c.Ledger.URL)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
