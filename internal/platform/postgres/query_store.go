package postgres

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

// PostgresQueryStore implements the store.QueryStore interface.
// Trees are kept in a JSONB column in their versioned wire form.
type PostgresQueryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQueryStore creates a new PostgreSQL implementation of the QueryStore interface.
func NewPostgresQueryStore(db store.DBTX, logger *slog.Logger) *PostgresQueryStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQueryStore{
		db:     db,
		logger: logger.With(slog.String("component", "query_store")),
	}
}

// Ensure PostgresQueryStore implements store.QueryStore interface
var _ store.QueryStore = (*PostgresQueryStore)(nil)

// Create implements store.QueryStore.Create.
func (s *PostgresQueryStore) Create(ctx context.Context, query *domain.SavedQuery) error {
	body, err := json.Marshal(query.Query)
	if err != nil {
		return fmt.Errorf("%w: encode query: %w", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (id, title, version, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, query.ID, query.Title, query.Query.Version, string(body), query.CreatedAt)
	if err != nil {
		return MapError(err)
	}
	return nil
}

// GetByID implements store.QueryStore.GetByID.
func (s *PostgresQueryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedQuery, error) {
	q, err := scanQuery(s.db.QueryRowContext(ctx, `
		SELECT id, title, body, created_at FROM saved_queries WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQueryNotFound
		}
		return nil, err
	}
	return q, nil
}

// List implements store.QueryStore.List.
func (s *PostgresQueryStore) List(ctx context.Context) ([]domain.SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, created_at FROM saved_queries ORDER BY title, id::text
	`)
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

// Delete implements store.QueryStore.Delete.
func (s *PostgresQueryStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrQueryNotFound)
}

func scanQuery(row rowScanner) (*domain.SavedQuery, error) {
	var (
		q    domain.SavedQuery
		body []byte
	)
	if err := row.Scan(&q.ID, &q.Title, &body, &q.CreatedAt); err != nil {
		return nil, err
	}
	// Unmarshal wraps selection.ErrUnsupportedVersion for unknown versions.
	if err := json.Unmarshal(body, &q.Query); err != nil {
		return nil, fmt.Errorf("decode saved query %s: %w", q.ID, err)
	}
	return &q, nil
}
