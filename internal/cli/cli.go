// Package cli defines the boardimport command line. Flags are layered over
// the environment: every flag defaults to the env-loaded value, so a flag
// given on the command line always wins.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/boardimport/internal/board"
	"github.com/JonMunkholm/boardimport/internal/config"
	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/JonMunkholm/boardimport/internal/graphql"
	"github.com/JonMunkholm/boardimport/internal/importer"
	"github.com/JonMunkholm/boardimport/internal/ledger"
	"github.com/JonMunkholm/boardimport/internal/logging"
	"github.com/JonMunkholm/boardimport/internal/sheet"
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Execute parses args over the environment and runs one import. Usage
// errors come back as *ExitError with code 2; everything else is returned
// as produced.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	base, err := config.FromEnv()
	if err != nil {
		return err
	}

	ran := false
	cmd := newCommand(base, stdout, stderr, &ran)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err = cmd.ExecuteContext(ctx)
	if err != nil && !ran {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return err
}

// secretFlags are registered without defaults so help output never shows
// env values; they are applied only when given.
type secretFlags struct {
	apiKey    string
	password  string
	ledgerURL string
}

func newCommand(cfg *config.Config, stdout, stderr io.Writer, ran *bool) *cobra.Command {
	var secrets secretFlags

	cmd := &cobra.Command{
		Use:   "boardimport",
		Short: "Create one board item per user row of a spreadsheet",
		Long: `boardimport reads user rows (id, name) from an .xlsx or .csv export,
keeps rows of the configured department, dedupes them by id and creates
one item per user on a board through the GraphQL API.

Every flag can also be set through the environment variable shown in
its help text. A .env file in the working directory is loaded first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*ran = true
			applySecrets(cmd, cfg, secrets)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&secrets.apiKey, "api-key", "", "API token (env MONDAY_API_KEY)")
	f.StringVar(&cfg.API.URL, "api-url", cfg.API.URL, "GraphQL endpoint (env MONDAY_API_URL)")
	f.Var(newDurationValue(&cfg.API.Timeout), "api-timeout", "Per-request timeout (env MONDAY_API_TIMEOUT)")

	f.StringVar(&cfg.Board.ID, "board", cfg.Board.ID, "Board id (env MONDAY_USER_BOARD_ID)")
	f.StringVar(&cfg.Board.IDColumn, "user-id-col", cfg.Board.IDColumn, "Column id for the user id (env MONDAY_USER_BOARD_USER_ID_COLUMN_ID)")
	f.StringVar(&cfg.Board.NameColumn, "user-name-col", cfg.Board.NameColumn, "Column id for the user name (env MONDAY_USER_BOARD_USER_NAME_COLUMN_ID)")
	f.StringVar(&cfg.Board.GroupID, "group", cfg.Board.GroupID, "Optional group id (env MONDAY_USER_BOARD_GROUP_ID)")

	f.StringVar(&cfg.Input.File, "file", cfg.Input.File, "Path to users .xlsx or .csv (env IMPORT_FILE)")
	f.StringVar(&secrets.password, "password", "", "Workbook password for encrypted XLSX (env IMPORT_WORKBOOK_PASSWORD)")
	f.StringVar(&cfg.Input.DecryptTo, "decrypt-to", cfg.Input.DecryptTo, "Path for the decrypted workbook (default <file>.decrypted<ext>)")
	f.BoolVar(&cfg.Input.NoHeader, "no-header", cfg.Input.NoHeader, "Treat the first row as data (env IMPORT_NO_HEADER)")
	f.IntVar(&cfg.Input.FilterColumn, "filter-col", cfg.Input.FilterColumn, "Zero-based department column (env IMPORT_FILTER_COLUMN)")
	f.StringVar(&cfg.Input.FilterValue, "filter-value", cfg.Input.FilterValue, "Required department; empty keeps every row (env IMPORT_FILTER_VALUE)")

	f.BoolVar(&cfg.Import.DryRun, "dry", cfg.Import.DryRun, "Preview rows without creating items; --dry=false to execute (env IMPORT_DRY_RUN)")
	f.IntVar(&cfg.Import.Limit, "limit", cfg.Import.Limit, "Max rows to process, 0 for no limit (env IMPORT_LIMIT)")
	f.IntVar(&cfg.Import.BatchSize, "batch", cfg.Import.BatchSize, "Batch size for sequential batches (env IMPORT_BATCH_SIZE)")
	f.Var(newDurationValue(&cfg.Import.BatchDelay), "delay", "Delay between batches (env IMPORT_BATCH_DELAY)")
	f.StringVar(&cfg.Import.FailedOut, "failed-out", cfg.Import.FailedOut, "Write failed rows to this CSV (env IMPORT_FAILED_OUT)")
	f.BoolVar(&cfg.Import.SkipImported, "skip-imported", cfg.Import.SkipImported, "Skip users the ledger already created on the board (env IMPORT_SKIP_IMPORTED)")

	f.IntVar(&cfg.Retry.MaxAttempts, "retries", cfg.Retry.MaxAttempts, "Retries after the first try (env MONDAY_RETRIES)")
	f.Var(newDurationValue(&cfg.Retry.MinDelay), "min-delay", "First retry backoff (env MONDAY_RETRY_MIN_DELAY)")
	f.Var(newDurationValue(&cfg.Retry.MaxDelay), "max-delay", "Backoff cap (env MONDAY_RETRY_MAX_DELAY)")
	f.Var(newDurationValue(&cfg.Retry.Jitter), "jitter", "Max random delay added to each backoff (env MONDAY_RETRY_JITTER)")

	f.StringVar(&secrets.ledgerURL, "ledger-url", "", "PostgreSQL URL of the import ledger (env DATABASE_URL)")

	f.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error (env LOG_LEVEL)")
	f.StringVar(&cfg.Logging.Format, "log-format", cfg.Logging.Format, "text or json (env LOG_FORMAT)")

	return cmd
}

func applySecrets(cmd *cobra.Command, cfg *config.Config, s secretFlags) {
	f := cmd.Flags()
	if f.Changed("api-key") {
		cfg.API.Key = s.apiKey
	}
	if f.Changed("password") {
		cfg.Input.Password = s.password
	}
	if f.Changed("ledger-url") {
		cfg.Ledger.URL = s.ledgerURL
	}
}

// run performs one import with a validated configuration.
func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, stderr)
	slog.Debug("configuration loaded", "config", cfg.String())

	records, err := extract(cfg)
	if err != nil {
		return err
	}

	store, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client := graphql.New(graphql.Options{
		URL:     cfg.API.URL,
		APIKey:  cfg.API.Key,
		Timeout: cfg.API.Timeout,
		Retry: graphql.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			MinDelay:    cfg.Retry.MinDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
			Jitter:      cfg.Retry.Jitter,
		},
	})

	cols := board.Columns{
		BoardID:    cfg.Board.ID,
		IDColumn:   cfg.Board.IDColumn,
		NameColumn: cfg.Board.NameColumn,
		GroupID:    cfg.Board.GroupID,
	}

	im := importer.New(board.NewCreator(client, cols), importer.Options{
		Columns:      cols,
		Limit:        cfg.Import.Limit,
		BatchSize:    cfg.Import.BatchSize,
		BatchDelay:   cfg.Import.BatchDelay,
		DryRun:       cfg.Import.DryRun,
		SkipImported: cfg.Import.SkipImported,
		Ledger:       store,
		FailedOut:    cfg.Import.FailedOut,
		Stdout:       stdout,
		Stderr:       stderr,
	})

	_, err = im.Run(ctx, records)
	return err
}

func extract(cfg *config.Config) ([]core.UserRecord, error) {
	src, err := sheet.Open(cfg.Input.File, sheet.OpenOptions{
		Password:  cfg.Input.Password,
		DecryptTo: cfg.Input.DecryptTo,
	})
	if err != nil {
		return nil, err
	}

	ex := sheet.NewExtractor(src, sheet.ExtractOptions{
		SkipHeader: !cfg.Input.NoHeader,
		Filter:     sheet.Filter{Column: cfg.Input.FilterColumn, Value: cfg.Input.FilterValue},
	})
	records, err := ex.All()
	if cerr := ex.Close(); cerr != nil {
		slog.Warn("failed to close input", "path", cfg.Input.File, "error", cerr)
	}
	if err != nil {
		return nil, err
	}

	st := ex.Stats()
	slog.Info("extracted users",
		"file", cfg.Input.File,
		"rows", st.Rows,
		"records", st.Emitted,
		"empty_id", st.EmptyID,
		"filtered", st.Filtered,
	)
	return records, nil
}

// openLedger connects the ledger when one is configured. A connection
// failure is fatal only when the run depends on it to skip users.
func openLedger(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	if !cfg.LedgerEnabled() || (cfg.Import.DryRun && !cfg.Import.SkipImported) {
		return ledger.Noop{}, nil
	}

	l, err := ledger.Open(ctx, cfg.Ledger.URL, cfg.Ledger.MaxConns)
	if err == nil {
		return l, nil
	}
	if cfg.Import.SkipImported {
		return nil, err
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	slog.Warn("ledger unavailable, continuing without it", "error", err)
	return ledger.Noop{}, nil
}

// FormatError renders err for stderr, followed by the support code and hint
// when the error is recognised. Fatal errors stop the run before anything is
// uploaded and are worded that way.
func FormatError(err error) string {
	var msg string
	switch {
	case core.IsFatal(err):
		msg = fmt.Sprintf("Nothing uploaded: %v", err)
	case errors.Is(err, context.Canceled):
		msg = fmt.Sprintf("Upload interrupted: %v", err)
	default:
		msg = fmt.Sprintf("Failed to upload users: %v", err)
	}
	if core.IsUserFacing(err) {
		msg += "\n" + core.FormatUserError(err)
	}
	return msg
}
