package sqlite

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

// StudyStore implements store.StudyStore on SQLite.
type StudyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewStudyStore creates a study store over db.
func NewStudyStore(db store.DBTX, logger *slog.Logger) *StudyStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StudyStore{
		db:     db,
		logger: logger.With(slog.String("component", "study_store")),
	}
}

// Ensure StudyStore implements store.StudyStore interface
var _ store.StudyStore = (*StudyStore)(nil)

// Create implements store.StudyStore.
func (s *StudyStore) Create(ctx context.Context, study *domain.Study) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO studies (id, title, pack_id, question_limit, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, study.ID, study.Title, nullUUID(study.PackID), study.Limit, study.CreatedAt, study.UpdatedAt)
		if err != nil {
			return mapReference(err, store.ErrPackNotFound)
		}
		return studyTags.insert(ctx, q, study.ID, study.Tags)
	})
}

// GetByID implements store.StudyStore.
func (s *StudyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	study, err := scanStudy(s.db.QueryRowContext(ctx, `
		SELECT id, title, pack_id, question_limit, created_at, updated_at
		FROM studies WHERE id = ?
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

// List implements store.StudyStore.
func (s *StudyStore) List(ctx context.Context) ([]domain.Study, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, pack_id, question_limit, created_at, updated_at
		FROM studies
		ORDER BY lower(title), id
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

// Rename implements store.StudyStore.
func (s *StudyStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	return s.update(ctx, `UPDATE studies SET title = ?, updated_at = ? WHERE id = ?`, title, id)
}

// SetPack implements store.StudyStore.
func (s *StudyStore) SetPack(ctx context.Context, id uuid.UUID, packID *uuid.UUID) error {
	return s.update(ctx, `UPDATE studies SET pack_id = ?, updated_at = ? WHERE id = ?`, nullUUID(packID), id)
}

// SetLimit implements store.StudyStore.
func (s *StudyStore) SetLimit(ctx context.Context, id uuid.UUID, limit int) error {
	return s.update(ctx, `UPDATE studies SET question_limit = ?, updated_at = ? WHERE id = ?`, limit, id)
}

func (s *StudyStore) update(ctx context.Context, query string, value any, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return mapReference(err, store.ErrPackNotFound)
	}
	return CheckRowsAffected(result, store.ErrStudyNotFound)
}

// UpsertTag implements store.StudyStore.
func (s *StudyStore) UpsertTag(ctx context.Context, id uuid.UUID, tag string, exclude bool) error {
	return studyTags.upsert(ctx, s.db, id, tag, exclude)
}

// RemoveTag implements store.StudyStore.
func (s *StudyStore) RemoveTag(ctx context.Context, id uuid.UUID, tag string) (bool, error) {
	return studyTags.remove(ctx, s.db, id, tag)
}

// Delete implements store.StudyStore.
func (s *StudyStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM studies WHERE id = ?`, id)
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

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
