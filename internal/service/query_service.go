package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// CardQuery is an ad-hoc bulk selection.
type CardQuery struct {
	// PackID scopes the query; nil spans every pack.
	PackID   *uuid.UUID
	Included []string
	Excluded []string

	// Limit caps the result; nil returns every match.
	Limit *int
}

// QueryService runs ad-hoc selections and stores, lists, and draws from saved query trees.
type QueryService interface {
	// QueryCards returns matching card ids in random order.
	QueryCards(ctx context.Context, q CardQuery) ([]uuid.UUID, error)

	SaveQuery(ctx context.Context, title string, tree selection.Versioned) (uuid.UUID, error)
	GetQuery(ctx context.Context, queryID uuid.UUID) (*domain.SavedQuery, error)
	ListQueries(ctx context.Context) ([]domain.SavedQuery, error)
	DeleteQuery(ctx context.Context, queryID uuid.UUID) error

	// DrawQuery draws one card from a saved tree.
	DrawQuery(ctx context.Context, queryID uuid.UUID) (uuid.UUID, bool, error)

	// DrawTree validates and draws one card from an unsaved tree.
	DrawTree(ctx context.Context, tree selection.Versioned) (uuid.UUID, bool, error)
}

// QueryServiceOptions tunes optional QueryService behavior.
type QueryServiceOptions struct {
	// Rand drives branch choice. Nil uses the process-global generator.
	Rand *rand.Rand
}

type queryServiceImpl struct {
	queries  store.QueryStore
	cards    store.CardStore
	selector selection.Selector
	logger   *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewQueryService creates a new QueryService.
// It returns an error if any of the required dependencies are nil.
func NewQueryService(
	queries store.QueryStore,
	cards store.CardStore,
	selector selection.Selector,
	opts QueryServiceOptions,
	logger *slog.Logger,
) (QueryService, error) {
	if queries == nil {
		return nil, nilDependency("queryStore")
	}
	if cards == nil {
		return nil, nilDependency("cardStore")
	}
	if selector == nil {
		return nil, nilDependency("selector")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &queryServiceImpl{
		queries:  queries,
		cards:    cards,
		selector: selector,
		rand:     opts.Rand,
		logger:   logger.With(slog.String("component", "query_service")),
	}, nil
}

func queryError(operation, message string, err error) error {
	return NewServiceError("query", operation, message, err)
}

// QueryCards implements QueryService.QueryCards.
func (s *queryServiceImpl) QueryCards(ctx context.Context, q CardQuery) ([]uuid.UUID, error) {
	limit := selection.NoLimit
	if q.Limit != nil {
		if err := domain.ValidateLimit(*q.Limit); err != nil {
			return nil, err
		}
		limit = *q.Limit
	}
	for _, tag := range append(append([]string{}, q.Included...), q.Excluded...) {
		if err := domain.ValidateTag(tag); err != nil {
			return nil, err
		}
	}

	if q.PackID != nil {
		exists, err := s.cards.PackExists(ctx, *q.PackID)
		if err != nil {
			return nil, queryError("query_cards", "failed to check pack", err)
		}
		if !exists {
			return nil, queryError("query_cards", "pack not found", store.ErrPackNotFound)
		}
	}

	criterion := selection.TagCriterion{Included: q.Included, Excluded: q.Excluded}.Normalized()
	ids, err := s.selector.SelectMany(ctx, q.PackID, criterion, limit)
	if err != nil {
		return nil, queryError("query_cards", "failed to select cards", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("queried cards",
		slog.String("criterion", describeCriterion(criterion)),
		slog.Int("limit", limit),
		slog.Int("count", len(ids)))
	return ids, nil
}

// SaveQuery implements QueryService.SaveQuery.
func (s *queryServiceImpl) SaveQuery(ctx context.Context, title string, tree selection.Versioned) (uuid.UUID, error) {
	saved, err := domain.NewSavedQuery(title, tree)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.queries.Create(ctx, saved); err != nil {
		return uuid.Nil, queryError("save_query", "failed to save query", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("query saved",
		slog.String("query_id", saved.ID.String()))
	return saved.ID, nil
}

// GetQuery implements QueryService.GetQuery.
func (s *queryServiceImpl) GetQuery(ctx context.Context, queryID uuid.UUID) (*domain.SavedQuery, error) {
	q, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, queryError("get_query", "failed to retrieve query", err)
	}
	return q, nil
}

// ListQueries implements QueryService.ListQueries.
func (s *queryServiceImpl) ListQueries(ctx context.Context) ([]domain.SavedQuery, error) {
	qs, err := s.queries.List(ctx)
	if err != nil {
		return nil, queryError("list_queries", "failed to list queries", err)
	}
	return qs, nil
}

// DeleteQuery implements QueryService.DeleteQuery.
func (s *queryServiceImpl) DeleteQuery(ctx context.Context, queryID uuid.UUID) error {
	if err := s.queries.Delete(ctx, queryID); err != nil {
		return queryError("delete_query", "failed to delete query", err)
	}
	return nil
}

// DrawQuery implements QueryService.DrawQuery.
func (s *queryServiceImpl) DrawQuery(ctx context.Context, queryID uuid.UUID) (uuid.UUID, bool, error) {
	q, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return uuid.Nil, false, queryError("draw_query", "failed to retrieve query", err)
	}

	node, err := q.Query.Latest()
	if err != nil {
		return uuid.Nil, false, queryError("draw_query", "stored query cannot be read", err)
	}
	return s.draw(ctx, "draw_query", node)
}

// DrawTree implements QueryService.DrawTree.
func (s *queryServiceImpl) DrawTree(ctx context.Context, tree selection.Versioned) (uuid.UUID, bool, error) {
	node, err := tree.Latest()
	if err != nil {
		return uuid.Nil, false, domain.NewValidationError("query", "has an unsupported version", err)
	}
	if err := selection.Validate(node); err != nil {
		return uuid.Nil, false, domain.NewValidationError("query", "is malformed", err)
	}
	return s.draw(ctx, "draw_tree", node)
}

func (s *queryServiceImpl) draw(ctx context.Context, operation string, node selection.Node) (uuid.UUID, bool, error) {
	var (
		cardID uuid.UUID
		ok     bool
		err    error
	)
	if s.rand == nil {
		cardID, ok, err = selection.Draw(ctx, node, nil, s.selector)
	} else {
		// Held across the selector's store round trips.
		s.randMu.Lock()
		cardID, ok, err = selection.Draw(ctx, node, s.rand, s.selector)
		s.randMu.Unlock()
	}
	if err != nil {
		return uuid.Nil, false, queryError(operation, "failed to draw card", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("drew card from query tree",
		slog.String("operation", operation),
		slog.Bool("found", ok))
	return cardID, ok, nil
}
