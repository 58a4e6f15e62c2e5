package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// PostgresFilterStore implements the store.FilterStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFilterStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFilterStore creates a new PostgreSQL implementation of the FilterStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresFilterStore(db store.DBTX, logger *slog.Logger) *PostgresFilterStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFilterStore{
		db:     db,
		logger: logger.With(slog.String("component", "filter_store")),
	}
}

// Ensure PostgresFilterStore implements store.FilterStore interface
var _ store.FilterStore = (*PostgresFilterStore)(nil)

// Create implements store.FilterStore.Create.
func (s *PostgresFilterStore) Create(ctx context.Context, filter *domain.Filter) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO filters (id, pack_id, label, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, filter.ID, filter.PackID, filter.Label, filter.CreatedAt, filter.UpdatedAt)
		if err != nil {
			return mapReference(err, store.ErrPackNotFound)
		}
		return filterTags.insert(ctx, q, filter.ID, filter.Tags)
	})
	if err != nil {
		log.Error("failed to create filter",
			slog.String("error", err.Error()),
			slog.String("filter_id", filter.ID.String()))
		return err
	}

	log.Debug("filter created", slog.String("filter_id", filter.ID.String()))
	return nil
}

// GetByID implements store.FilterStore.GetByID.
func (s *PostgresFilterStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Filter, error) {
	var f domain.Filter
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pack_id, label, created_at, updated_at
		FROM filters
		WHERE id = $1
	`, id).Scan(&f.ID, &f.PackID, &f.Label, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFilterNotFound
		}
		return nil, MapError(err)
	}

	f.Tags, err = filterTags.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// List implements store.FilterStore.List.
func (s *PostgresFilterStore) List(ctx context.Context) ([]domain.FilterSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.label, f.pack_id, p.title
		FROM filters f
		JOIN packs p ON p.id = f.pack_id
		ORDER BY p.title, f.label, f.id
	`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []domain.FilterSummary{}
	for rows.Next() {
		var fs domain.FilterSummary
		if err := rows.Scan(&fs.ID, &fs.Label, &fs.PackID, &fs.PackTitle); err != nil {
			return nil, err
		}
		summaries = append(summaries, fs)
	}
	return summaries, rows.Err()
}

// UpsertTag implements store.FilterStore.UpsertTag.
func (s *PostgresFilterStore) UpsertTag(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error {
	return filterTags.upsert(ctx, s.db, filterID, tag, exclude)
}

// SetTagExclusion implements store.FilterStore.SetTagExclusion.
func (s *PostgresFilterStore) SetTagExclusion(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) (bool, error) {
	return filterTags.setExclusion(ctx, s.db, filterID, tag, exclude)
}

// RemoveTag implements store.FilterStore.RemoveTag.
func (s *PostgresFilterStore) RemoveTag(ctx context.Context, filterID uuid.UUID, tag string) (bool, error) {
	return filterTags.remove(ctx, s.db, filterID, tag)
}

// Delete implements store.FilterStore.Delete.
// Tags and dealer associations are removed by ON DELETE CASCADE.
func (s *PostgresFilterStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM filters WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrFilterNotFound)
}
