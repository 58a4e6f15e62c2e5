package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// QueryStore implements store.QueryStore on SQLite. Trees are stored as JSON text.
type QueryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewQueryStore creates a saved query store over db.
func NewQueryStore(db store.DBTX, logger *slog.Logger) *QueryStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &QueryStore{
		db:     db,
		logger: logger.With(slog.String("component", "query_store")),
	}
}

// Ensure QueryStore implements store.QueryStore interface
var _ store.QueryStore = (*QueryStore)(nil)

// Create implements store.QueryStore.
func (s *QueryStore) Create(ctx context.Context, query *domain.SavedQuery) error {
	body, err := json.Marshal(query.Query)
	if err != nil {
		return fmt.Errorf("%w: encode query: %w", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (id, title, version, body, created_at) VALUES (?, ?, ?, ?, ?)
	`, query.ID, query.Title, query.Query.Version, string(body), query.CreatedAt)
	return MapError(err)
}

// GetByID implements store.QueryStore.
func (s *QueryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedQuery, error) {
	q, err := scanQuery(s.db.QueryRowContext(ctx,
		`SELECT id, title, body, created_at FROM saved_queries WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQueryNotFound
		}
		return nil, err
	}
	return q, nil
}

// List implements store.QueryStore.
func (s *QueryStore) List(ctx context.Context) ([]domain.SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, created_at FROM saved_queries ORDER BY title, id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	queries := []domain.SavedQuery{}
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, *q)
	}
	return queries, rows.Err()
}

// Delete implements store.QueryStore.
func (s *QueryStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrQueryNotFound)
}

func scanQuery(row rowScanner) (*domain.SavedQuery, error) {
	var (
		q    domain.SavedQuery
		body string
	)
	if err := row.Scan(&q.ID, &q.Title, &body, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), &q.Query); err != nil {
		return nil, fmt.Errorf("decode saved query %s: %w", q.ID, err)
	}
	return &q, nil
}
