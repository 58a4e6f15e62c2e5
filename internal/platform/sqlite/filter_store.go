package sqlite

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

// FilterStore implements store.FilterStore on SQLite.
type FilterStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewFilterStore creates a filter store over db.
func NewFilterStore(db store.DBTX, logger *slog.Logger) *FilterStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &FilterStore{
		db:     db,
		logger: logger.With(slog.String("component", "filter_store")),
	}
}

// Ensure FilterStore implements store.FilterStore interface
var _ store.FilterStore = (*FilterStore)(nil)

// Create implements store.FilterStore.
func (s *FilterStore) Create(ctx context.Context, filter *domain.Filter) error {
	err := store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO filters (id, pack_id, label, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, filter.ID, filter.PackID, filter.Label, filter.CreatedAt, filter.UpdatedAt)
		if err != nil {
			return mapReference(err, store.ErrPackNotFound)
		}
		return filterTags.insert(ctx, q, filter.ID, filter.Tags)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create filter",
			slog.String("error", err.Error()),
			slog.String("filter_id", filter.ID.String()))
	}
	return err
}

// GetByID implements store.FilterStore.
func (s *FilterStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Filter, error) {
	var f domain.Filter
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pack_id, label, created_at, updated_at FROM filters WHERE id = ?
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

// List implements store.FilterStore.
func (s *FilterStore) List(ctx context.Context) ([]domain.FilterSummary, error) {
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

// UpsertTag implements store.FilterStore.
func (s *FilterStore) UpsertTag(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error {
	return filterTags.upsert(ctx, s.db, filterID, tag, exclude)
}

// SetTagExclusion implements store.FilterStore.
func (s *FilterStore) SetTagExclusion(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) (bool, error) {
	return filterTags.setExclusion(ctx, s.db, filterID, tag, exclude)
}

// RemoveTag implements store.FilterStore.
func (s *FilterStore) RemoveTag(ctx context.Context, filterID uuid.UUID, tag string) (bool, error) {
	return filterTags.remove(ctx, s.db, filterID, tag)
}

// Delete implements store.FilterStore.
func (s *FilterStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM filters WHERE id = ?`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrFilterNotFound)
}
