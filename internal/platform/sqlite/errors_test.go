package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	db, _ := openTestDB(t)
	ctx := context.Background()
	pack := uuid.New()
	_, err := db.ExecContext(ctx, `INSERT INTO packs (id, title) VALUES (?, 'P')`, pack)
	require.NoError(t, err)

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("no rows", func(t *testing.T) {
		assert.ErrorIs(t, MapError(sql.ErrNoRows), store.ErrNotFound)
	})

	t.Run("primary key", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO packs (id, title) VALUES (?, 'P')`, pack)
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
		assert.ErrorIs(t, MapError(err), store.ErrDuplicate)
	})

	t.Run("foreign key", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO cards (id, pack_id) VALUES (?, ?)`, uuid.New(), uuid.New())
		require.Error(t, err)
		assert.True(t, IsForeignKeyViolation(err))
		assert.ErrorIs(t, MapError(err), store.ErrInvalidEntity)
		assert.ErrorIs(t, mapReference(err, store.ErrPackNotFound), store.ErrPackNotFound)
	})

	t.Run("check", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO packs (id, title) VALUES (?, '')`, uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, MapError(err), store.ErrInvalidEntity)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		other := errors.New("disk I/O error")
		assert.Equal(t, other, MapError(other))
		assert.False(t, IsUniqueViolation(other))
	})
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrFilterNotFound))
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{}, store.ErrFilterNotFound), store.ErrFilterNotFound)

	failure := errors.New("unsupported")
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{err: failure}, store.ErrFilterNotFound), failure)
}
