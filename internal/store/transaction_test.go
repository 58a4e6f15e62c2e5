package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE items (name TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func insertItem(ctx context.Context, q DBTX, name string) error {
	_, err := q.ExecContext(ctx, `INSERT INTO items (name) VALUES (?)`, name)
	return err
}

func TestRunInTransactionCommits(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return insertItem(ctx, tx, "a")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, db))
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	fnErr := errors.New("function failed")

	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		require.NoError(t, insertItem(ctx, tx, "a"))
		return fnErr
	})
	assert.Same(t, fnErr, err)
	assert.Equal(t, 0, countItems(t, db))
}

func TestRunInTransactionRollsBackOnPanic(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
			require.NoError(t, insertItem(ctx, tx, "a"))
			panic("boom")
		})
	})
	assert.Equal(t, 0, countItems(t, db))
}

func TestRunInTransactionBeginError(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	require.NoError(t, db.Close())

	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestWithinTransaction(t *testing.T) {
	t.Parallel()

	t.Run("opens a transaction on *sql.DB", func(t *testing.T) {
		db := openTestDB(t)
		err := WithinTransaction(context.Background(), db, func(ctx context.Context, q DBTX) error {
			_, isTx := q.(*sql.Tx)
			assert.True(t, isTx)
			if err := insertItem(ctx, q, "a"); err != nil {
				return err
			}
			return insertItem(ctx, q, "a")
		})
		assert.Error(t, err)
		assert.Equal(t, 0, countItems(t, db), "the first insert is rolled back with the second")
	})

	t.Run("reuses an existing transaction", func(t *testing.T) {
		db := openTestDB(t)
		tx, err := db.Begin()
		require.NoError(t, err)

		err = WithinTransaction(context.Background(), tx, func(ctx context.Context, q DBTX) error {
			assert.Same(t, tx, q)
			return insertItem(ctx, q, "a")
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.Equal(t, 1, countItems(t, db))
	})
}
