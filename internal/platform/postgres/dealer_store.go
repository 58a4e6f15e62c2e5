package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// PostgresDealerStore implements the store.DealerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDealerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDealerStore creates a new PostgreSQL implementation of the DealerStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresDealerStore(db store.DBTX, logger *slog.Logger) *PostgresDealerStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDealerStore{
		db:     db,
		logger: logger.With(slog.String("component", "dealer_store")),
	}
}

// Ensure PostgresDealerStore implements store.DealerStore interface
var _ store.DealerStore = (*PostgresDealerStore)(nil)

// Create implements store.DealerStore.Create.
func (s *PostgresDealerStore) Create(ctx context.Context, dealer *domain.Dealer) error {
	err := store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO dealers (id, title, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
		`, dealer.ID, dealer.Title, dealer.CreatedAt, dealer.UpdatedAt)
		if err != nil {
			return MapError(err)
		}
		for _, f := range dealer.Filters {
			if err := addFilter(ctx, q, dealer.ID, f.FilterID, f.Weight); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create dealer",
			slog.String("error", err.Error()),
			slog.String("dealer_id", dealer.ID.String()))
	}
	return err
}

// GetByID implements store.DealerStore.GetByID.
func (s *PostgresDealerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dealer, error) {
	var d domain.Dealer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at FROM dealers WHERE id = $1
	`, id).Scan(&d.ID, &d.Title, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDealerNotFound
		}
		return nil, MapError(err)
	}

	d.Filters, err = s.loadFilters(ctx, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List implements store.DealerStore.List.
func (s *PostgresDealerStore) List(ctx context.Context) ([]domain.DealerSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM dealers ORDER BY title, id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []domain.DealerSummary{}
	for rows.Next() {
		var ds domain.DealerSummary
		if err := rows.Scan(&ds.ID, &ds.Title); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// Rename implements store.DealerStore.Rename.
func (s *PostgresDealerStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE dealers SET title = $2, updated_at = $3 WHERE id = $1`,
		id, title, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDealerNotFound)
}

// Delete implements store.DealerStore.Delete.
func (s *PostgresDealerStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM dealers WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDealerNotFound)
}

// AddFilter implements store.DealerStore.AddFilter.
// An existing association keeps its position and takes the new weight.
func (s *PostgresDealerStore) AddFilter(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	return addFilter(ctx, s.db, dealerID, filterID, weight)
}

func addFilter(ctx context.Context, q store.DBTX, dealerID, filterID uuid.UUID, weight int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO dealer_filters (dealer_id, filter_id, weight)
		VALUES ($1, $2, $3)
		ON CONFLICT (dealer_id, filter_id) DO UPDATE SET weight = EXCLUDED.weight
	`, dealerID, filterID, weight)
	if err == nil {
		return nil
	}
	if IsForeignKeyViolation(err) {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.Contains(pgErr.ConstraintName, "dealer_id") {
			return store.ErrDealerNotFound
		}
		return store.ErrFilterNotFound
	}
	return MapError(err)
}

// RemoveFilter implements store.DealerStore.RemoveFilter.
// Removing an absent association is a no-op.
func (s *PostgresDealerStore) RemoveFilter(ctx context.Context, dealerID, filterID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		WITH removed AS (
			DELETE FROM dealer_filters WHERE dealer_id = $1 AND filter_id = $2
		)
		SELECT EXISTS (SELECT 1 FROM dealers WHERE id = $1)
	`, dealerID, filterID).Scan(&exists)
	if err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrDealerNotFound
	}
	return nil
}

// SetWeight implements store.DealerStore.SetWeight.
func (s *PostgresDealerStore) SetWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	var exists, changed bool
	err := s.db.QueryRowContext(ctx, `
		WITH changed AS (
			UPDATE dealer_filters SET weight = $3
			WHERE dealer_id = $1 AND filter_id = $2
			RETURNING 1
		)
		SELECT EXISTS (SELECT 1 FROM dealers WHERE id = $1), EXISTS (SELECT 1 FROM changed)
	`, dealerID, filterID, weight).Scan(&exists, &changed)
	if err != nil {
		return MapError(err)
	}
	switch {
	case !exists:
		return store.ErrDealerNotFound
	case !changed:
		return store.ErrDealerFilterNotFound
	}
	return nil
}

// ListFilters implements store.DealerStore.ListFilters.
func (s *PostgresDealerStore) ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dealers WHERE id = $1)`, dealerID).
		Scan(&exists); err != nil {
		return nil, MapError(err)
	}
	if !exists {
		return nil, store.ErrDealerNotFound
	}
	return s.loadFilters(ctx, dealerID)
}

func (s *PostgresDealerStore) loadFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT df.filter_id, f.label, f.pack_id, p.title, df.weight
		FROM dealer_filters df
		JOIN filters f ON f.id = df.filter_id
		JOIN packs p ON p.id = f.pack_id
		WHERE df.dealer_id = $1
		ORDER BY df.seq
	`, dealerID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	filters := []domain.DealerFilter{}
	for rows.Next() {
		var df domain.DealerFilter
		if err := rows.Scan(&df.FilterID, &df.Label, &df.PackID, &df.PackTitle, &df.Weight); err != nil {
			return nil, err
		}
		filters = append(filters, df)
	}
	return filters, rows.Err()
}
