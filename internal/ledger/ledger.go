// Package ledger records which users were already created on a board so a
// rerun can skip them. It is backed by PostgreSQL and entirely optional.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one created item.
type Entry struct {
	BoardID string
	UserID  string
	ItemID  string
	RunID   string // uuid of the run that created the item
}

// Store is what the importer needs from a ledger.
type Store interface {
	Imported(ctx context.Context, boardID string, userIDs []string) (map[string]bool, error)
	Record(ctx context.Context, e Entry) error
	Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS board_item_imports (
	board_id   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	item_id    TEXT NOT NULL,
	run_id     UUID NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (board_id, user_id)
)`

const importedSQL = `
SELECT user_id FROM board_item_imports
WHERE board_id = $1 AND user_id = ANY($2)`

const recordSQL = `
INSERT INTO board_item_imports (board_id, user_id, item_id, run_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (board_id, user_id)
DO UPDATE SET item_id = EXCLUDED.item_id, run_id = EXCLUDED.run_id, created_at = NOW()`

// Ledger is the PostgreSQL Store.
type Ledger struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection and ensures the table.
func Open(ctx context.Context, dsn string, maxConns int) (*Ledger, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse ledger URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect ledger: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	l := New(pool)
	if err := l.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(dsn); err == nil {
		slog.Info("connected to ledger", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to ledger")
	}
	return l, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// EnsureSchema creates the ledger table if it does not exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	return nil
}

// Imported returns the subset of userIDs already recorded for boardID.
func (l *Ledger) Imported(ctx context.Context, boardID string, userIDs []string) (map[string]bool, error) {
	seen := make(map[string]bool)
	if len(userIDs) == 0 {
		return seen, nil
	}

	rows, err := l.pool.Query(ctx, importedSQL, boardID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query imported users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan imported user: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imported users: %w", err)
	}
	return seen, nil
}

// Record upserts e.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	runID, err := toPgUUID(e.RunID)
	if err != nil {
		return err
	}
	if _, err := l.pool.Exec(ctx, recordSQL, e.BoardID, e.UserID, e.ItemID, runID); err != nil {
		return fmt.Errorf("record %s/%s: %w", e.BoardID, e.UserID, err)
	}
	return nil
}

// Close closes the pool.
func (l *Ledger) Close() {
	l.pool.Close()
}

func toPgUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

// Noop is the Store used when no ledger is configured. Nothing is ever
// reported as imported.
type Noop struct{}

func (Noop) Imported(context.Context, string, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (Noop) Record(context.Context, Entry) error { return nil }

func (Noop) Close() {}
