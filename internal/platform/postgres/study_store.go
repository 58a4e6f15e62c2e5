package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// PostgresStudyStore implements the store.StudyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStudyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudyStore creates a new PostgreSQL implementation of the StudyStore interface.
func NewPostgresStudyStore(db store.DBTX, logger *slog.Logger) *PostgresStudyStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudyStore{
		db:     db,
		logger: logger.With(slog.String("component", "study_store")),
	}
}

// Ensure PostgresStudyStore implements store.StudyStore interface
var _ store.StudyStore = (*PostgresStudyStore)(nil)

// Create implements store.StudyStore.Create.
func (s *PostgresStudyStore) Create(ctx context.Context, study *domain.Study) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO studies (id, title, pack_id, question_limit, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, study.ID, study.Title, study.PackID, study.Limit, study.CreatedAt, study.UpdatedAt)
		if err != nil {
			return mapReference(err, store.ErrPackNotFound)
		}
		return studyTags.insert(ctx, q, study.ID, study.Tags)
	})
}

// GetByID implements store.StudyStore.GetByID.
func (s *PostgresStudyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	study, err := scanStudy(s.db.QueryRowContext(ctx, `
		SELECT id, title, pack_id, question_limit, created_at, updated_at
		FROM studies WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrStudyNotFound
		}
		return nil, MapError(err)
	}

	study.Tags, err = studyTags.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return study, nil
}

// List implements store.StudyStore.List.
func (s *PostgresStudyStore) List(ctx context.Context) ([]domain.Study, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, pack_id, question_limit, created_at, updated_at
		FROM studies
		ORDER BY lower(title), id::text
	`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	studies := []domain.Study{}
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			return nil, err
		}
		study.Tags = []domain.FilterTag{}
		studies = append(studies, *study)
	}
	return studies, rows.Err()
}

// Rename implements store.StudyStore.Rename.
func (s *PostgresStudyStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	return s.update(ctx, `UPDATE studies SET title = $2, updated_at = $3 WHERE id = $1`, id, title)
}

// SetPack implements store.StudyStore.SetPack.
func (s *PostgresStudyStore) SetPack(ctx context.Context, id uuid.UUID, packID *uuid.UUID) error {
	return s.update(ctx, `UPDATE studies SET pack_id = $2, updated_at = $3 WHERE id = $1`, id, packID)
}

// SetLimit implements store.StudyStore.SetLimit.
func (s *PostgresStudyStore) SetLimit(ctx context.Context, id uuid.UUID, limit int) error {
	return s.update(ctx, `UPDATE studies SET question_limit = $2, updated_at = $3 WHERE id = $1`, id, limit)
}

func (s *PostgresStudyStore) update(ctx context.Context, query string, id uuid.UUID, value any) error {
	result, err := s.db.ExecContext(ctx, query, id, value, time.Now().UTC())
	if err != nil {
		return mapReference(err, store.ErrPackNotFound)
	}
	return CheckRowsAffected(result, store.ErrStudyNotFound)
}

// UpsertTag implements store.StudyStore.UpsertTag.
func (s *PostgresStudyStore) UpsertTag(ctx context.Context, id uuid.UUID, tag string, exclude bool) error {
	return studyTags.upsert(ctx, s.db, id, tag, exclude)
}

// RemoveTag implements store.StudyStore.RemoveTag.
func (s *PostgresStudyStore) RemoveTag(ctx context.Context, id uuid.UUID, tag string) (bool, error) {
	return studyTags.remove(ctx, s.db, id, tag)
}

// Delete implements store.StudyStore.Delete.
func (s *PostgresStudyStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM studies WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrStudyNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudy(row rowScanner) (*domain.Study, error) {
	var (
		study  domain.Study
		packID uuid.NullUUID
	)
	if err := row.Scan(&study.ID, &study.Title, &packID, &study.Limit, &study.CreatedAt, &study.UpdatedAt); err != nil {
		return nil, err
	}
	if packID.Valid {
		study.PackID = &packID.UUID
	}
	return &study, nil
}
