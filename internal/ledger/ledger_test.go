package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPgUUID(t *testing.T) {
	id := uuid.New()
	got, err := toPgUUID(id.String())
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, [16]byte(id), got.Bytes)

	_, err = toPgUUID("not-a-uuid")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	seen, err := s.Imported(context.Background(), "1", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, seen)
	assert.NoError(t, s.Record(context.Background(), Entry{}))
	s.Close()
}

func TestLedgerIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	l, err := Open(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	defer l.Close()

	board := "it-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = l.pool.Exec(context.Background(), "DELETE FROM board_item_imports WHERE board_id = $1", board)
	})

	// Idempotent.
	require.NoError(t, l.EnsureSchema(ctx))

	run := uuid.NewString()
	require.NoError(t, l.Record(ctx, Entry{BoardID: board, UserID: "1001", ItemID: "9001", RunID: run}))
	require.NoError(t, l.Record(ctx, Entry{BoardID: board, UserID: "1002", ItemID: "9002", RunID: run}))
	// Upsert on rerun.
	require.NoError(t, l.Record(ctx, Entry{BoardID: board, UserID: "1001", ItemID: "9003", RunID: uuid.NewString()}))

	seen, err := l.Imported(ctx, board, []string{"1001", "1003"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"1001": true}, seen)

	var item string
	require.NoError(t, l.pool.QueryRow(ctx,
		"SELECT item_id FROM board_item_imports WHERE board_id = $1 AND user_id = $2", board, "1001").Scan(&item))
	assert.Equal(t, "9003", item)

	seen, err = l.Imported(ctx, "other-"+board, []string{"1001"})
	require.NoError(t, err)
	assert.Empty(t, seen)
}
