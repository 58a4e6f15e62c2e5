package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// CardStore implements store.CardStore on SQLite.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore creates a card store over db.
// If logger is nil, a default logger will be used.
func NewCardStore(db store.DBTX, logger *slog.Logger) *CardStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure CardStore implements store.CardStore interface
var _ store.CardStore = (*CardStore)(nil)

// ShuffledCardIDs implements selection.CardSource.
func (s *CardStore) ShuffledCardIDs(ctx context.Context, packID *uuid.UUID) iter.Seq2[uuid.UUID, error] {
	if packID == nil {
		return store.ScanIDs(ctx, s.db, `SELECT id FROM cards ORDER BY random()`)
	}
	return store.ScanIDs(ctx, s.db, `SELECT id FROM cards WHERE pack_id = ? ORDER BY random()`, *packID)
}

// CardTags implements selection.CardSource.
func (s *CardStore) CardTags(ctx context.Context, cardID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.tag
		FROM cards c
		LEFT JOIN card_tags t ON t.card_id = c.id
		WHERE c.id = ?
		ORDER BY t.tag
	`, cardID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var (
		found bool
		tags  = []string{}
	)
	for rows.Next() {
		found = true
		var tag sql.NullString
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		if tag.Valid {
			tags = append(tags, tag.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrCardNotFound
	}
	return tags, nil
}

// GetPack implements store.CardStore.
func (s *CardStore) GetPack(ctx context.Context, id uuid.UUID) (*domain.Pack, error) {
	var pack domain.Pack
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM packs WHERE id = ?`, id).
		Scan(&pack.ID, &pack.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPackNotFound
		}
		return nil, MapError(err)
	}
	return &pack, nil
}

// PackExists implements store.CardStore.
func (s *CardStore) PackExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM packs WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// CreatePack implements store.CardStore.
func (s *CardStore) CreatePack(ctx context.Context, pack *domain.Pack) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO packs (id, title) VALUES (?, ?)`, pack.ID, pack.Title)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create pack",
			slog.String("error", err.Error()),
			slog.String("pack_id", pack.ID.String()))
		return MapError(err)
	}
	return nil
}

// CreateCard implements store.CardStore.
func (s *CardStore) CreateCard(ctx context.Context, card *domain.Card) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO cards (id, pack_id, front, back) VALUES (?, ?, ?, ?)`,
			card.ID, card.PackID, card.Front, card.Back)
		if err != nil {
			return mapReference(err, store.ErrPackNotFound)
		}
		return insertCardTags(ctx, q, card.ID, card.Tags)
	})
}

// SetCardTags implements store.CardStore.
func (s *CardStore) SetCardTags(ctx context.Context, cardID uuid.UUID, tags []string) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		var exists bool
		if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE id = ?)`, cardID).
			Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrCardNotFound
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM card_tags WHERE card_id = ?`, cardID); err != nil {
			return MapError(err)
		}
		return insertCardTags(ctx, q, cardID, tags)
	})
}

func insertCardTags(ctx context.Context, q store.DBTX, cardID uuid.UUID, tags []string) error {
	for _, tag := range tags {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO card_tags (card_id, tag) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			cardID, tag); err != nil {
			return MapError(err)
		}
	}
	return nil
}
