package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/config"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/stretchr/testify/require"
)

// openTestDB migrates a fresh database file and opens a pool on it.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dealer.db")
	require.NoError(t, Migrate(path, "up", nil))

	db, err := Open(context.Background(), config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		Path:         path,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

type seeded struct {
	pack       domain.Pack
	c1, c2, c3 uuid.UUID
}

// seedPack creates pack "Algebra" with c1{math}, c2{math,hard}, c3{}.
func seedPack(t *testing.T, cards *CardStore) seeded {
	t.Helper()
	ctx := context.Background()

	s := seeded{pack: domain.Pack{ID: uuid.New(), Title: "Algebra"}}
	require.NoError(t, cards.CreatePack(ctx, &s.pack))

	add := func(tags ...string) uuid.UUID {
		card := &domain.Card{ID: uuid.New(), PackID: s.pack.ID, Front: "q", Back: "a", Tags: tags}
		require.NoError(t, cards.CreateCard(ctx, card))
		return card.ID
	}
	s.c1 = add("math")
	s.c2 = add("math", "hard")
	s.c3 = add()
	return s
}
