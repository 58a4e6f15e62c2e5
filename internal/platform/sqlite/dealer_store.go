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

// DealerStore implements store.DealerStore on SQLite.
type DealerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewDealerStore creates a dealer store over db.
func NewDealerStore(db store.DBTX, logger *slog.Logger) *DealerStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DealerStore{
		db:     db,
		logger: logger.With(slog.String("component", "dealer_store")),
	}
}

// Ensure DealerStore implements store.DealerStore interface
var _ store.DealerStore = (*DealerStore)(nil)

// Create implements store.DealerStore.
func (s *DealerStore) Create(ctx context.Context, dealer *domain.Dealer) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO dealers (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)
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
}

// GetByID implements store.DealerStore.
func (s *DealerStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Dealer, error) {
	var d domain.Dealer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at FROM dealers WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDealerNotFound
		}
		return nil, MapError(err)
	}

	d.Filters, err = loadDealerFilters(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List implements store.DealerStore.
func (s *DealerStore) List(ctx context.Context) ([]domain.DealerSummary, error) {
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

// Rename implements store.DealerStore.
func (s *DealerStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE dealers SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDealerNotFound)
}

// Delete implements store.DealerStore.
func (s *DealerStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM dealers WHERE id = ?`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDealerNotFound)
}

// AddFilter implements store.DealerStore.
func (s *DealerStore) AddFilter(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		return addFilter(ctx, q, dealerID, filterID, weight)
	})
}

// addFilter checks both ends first: SQLite foreign key errors do not name
// the constraint that failed.
func addFilter(ctx context.Context, q store.DBTX, dealerID, filterID uuid.UUID, weight int) error {
	if err := requireRow(ctx, q, `SELECT EXISTS (SELECT 1 FROM dealers WHERE id = ?)`, dealerID, store.ErrDealerNotFound); err != nil {
		return err
	}
	if err := requireRow(ctx, q, `SELECT EXISTS (SELECT 1 FROM filters WHERE id = ?)`, filterID, store.ErrFilterNotFound); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO dealer_filters (dealer_id, filter_id, weight) VALUES (?, ?, ?)
		ON CONFLICT (dealer_id, filter_id) DO UPDATE SET weight = excluded.weight
	`, dealerID, filterID, weight)
	return MapError(err)
}

// RemoveFilter implements store.DealerStore. Removing an absent association is a no-op.
func (s *DealerStore) RemoveFilter(ctx context.Context, dealerID, filterID uuid.UUID) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		if err := requireRow(ctx, q, `SELECT EXISTS (SELECT 1 FROM dealers WHERE id = ?)`, dealerID, store.ErrDealerNotFound); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx,
			`DELETE FROM dealer_filters WHERE dealer_id = ? AND filter_id = ?`, dealerID, filterID)
		return MapError(err)
	})
}

// SetWeight implements store.DealerStore.
func (s *DealerStore) SetWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	return store.WithinTransaction(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		if err := requireRow(ctx, q, `SELECT EXISTS (SELECT 1 FROM dealers WHERE id = ?)`, dealerID, store.ErrDealerNotFound); err != nil {
			return err
		}
		result, err := q.ExecContext(ctx,
			`UPDATE dealer_filters SET weight = ? WHERE dealer_id = ? AND filter_id = ?`,
			weight, dealerID, filterID)
		if err != nil {
			return MapError(err)
		}
		return CheckRowsAffected(result, store.ErrDealerFilterNotFound)
	})
}

// ListFilters implements store.DealerStore.
func (s *DealerStore) ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	if err := requireRow(ctx, s.db, `SELECT EXISTS (SELECT 1 FROM dealers WHERE id = ?)`, dealerID, store.ErrDealerNotFound); err != nil {
		return nil, err
	}
	return loadDealerFilters(ctx, s.db, dealerID)
}

func loadDealerFilters(ctx context.Context, db store.DBTX, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT df.filter_id, f.label, f.pack_id, p.title, df.weight
		FROM dealer_filters df
		JOIN filters f ON f.id = df.filter_id
		JOIN packs p ON p.id = f.pack_id
		WHERE df.dealer_id = ?
		ORDER BY df.rowid
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

// requireRow runs an EXISTS query and returns notFound when it is false.
func requireRow(ctx context.Context, q store.DBTX, query string, id uuid.UUID, notFound error) error {
	var exists bool
	if err := q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return notFound
	}
	return nil
}
