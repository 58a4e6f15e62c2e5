package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// DealerService provides dealer authoring and two-stage weighted dealing.
type DealerService interface {
	CreateDealer(ctx context.Context, title string) (uuid.UUID, error)
	GetDealer(ctx context.Context, dealerID uuid.UUID) (*domain.Dealer, error)
	ListDealers(ctx context.Context) ([]domain.DealerSummary, error)
	RenameDealer(ctx context.Context, dealerID uuid.UUID, title string) error
	DeleteDealer(ctx context.Context, dealerID uuid.UUID) error

	// AddFilterToDealer associates a filter with a dealer, replacing the weight
	// of an existing association. The weight must be positive.
	AddFilterToDealer(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error

	// RemoveFilterFromDealer drops an association.
	RemoveFilterFromDealer(ctx context.Context, dealerID, filterID uuid.UUID) error

	// SetFilterWeight changes the weight of an existing association.
	// The weight must be positive.
	SetFilterWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error

	// ListFilters returns the dealer's live associations.
	ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error)

	// NextFilter picks one associated filter with probability weight/Σweights.
	// A dealer without filters yields ok == false.
	NextFilter(ctx context.Context, dealerID uuid.UUID) (uuid.UUID, bool, error)

	// DealCard picks a filter, then a card from it. Either stage finding
	// nothing yields ok == false.
	DealCard(ctx context.Context, dealerID uuid.UUID) (uuid.UUID, bool, error)

	// DealerQuery expresses the dealer as a versioned query tree: a Branch
	// with one weighted Root per associated filter.
	DealerQuery(ctx context.Context, dealerID uuid.UUID) (selection.Versioned, error)
}

// DealerServiceOptions tunes optional DealerService behavior.
type DealerServiceOptions struct {
	// Rand drives weighted choice. Nil uses the process-global generator.
	// The service serializes access, so the source may be seeded for tests.
	Rand *rand.Rand
}

type dealerServiceImpl struct {
	dealers  store.DealerStore
	filters  store.FilterStore
	selector selection.Selector
	logger   *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewDealerService creates a new DealerService.
// It returns an error if any of the required dependencies are nil.
func NewDealerService(
	dealers store.DealerStore,
	filters store.FilterStore,
	selector selection.Selector,
	opts DealerServiceOptions,
	logger *slog.Logger,
) (DealerService, error) {
	if dealers == nil {
		return nil, nilDependency("dealerStore")
	}
	if filters == nil {
		return nil, nilDependency("filterStore")
	}
	if selector == nil {
		return nil, nilDependency("selector")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &dealerServiceImpl{
		dealers:  dealers,
		filters:  filters,
		selector: selector,
		rand:     opts.Rand,
		logger:   logger.With(slog.String("component", "dealer_service")),
	}, nil
}

func dealerError(operation, message string, err error) error {
	return NewServiceError("dealer", operation, message, err)
}

// CreateDealer implements DealerService.CreateDealer.
func (s *dealerServiceImpl) CreateDealer(ctx context.Context, title string) (uuid.UUID, error) {
	dealer, err := domain.NewDealer(title)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.dealers.Create(ctx, dealer); err != nil {
		return uuid.Nil, dealerError("create_dealer", "failed to save dealer", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("dealer created",
		slog.String("dealer_id", dealer.ID.String()))
	return dealer.ID, nil
}

// GetDealer implements DealerService.GetDealer.
func (s *dealerServiceImpl) GetDealer(ctx context.Context, dealerID uuid.UUID) (*domain.Dealer, error) {
	dealer, err := s.dealers.GetByID(ctx, dealerID)
	if err != nil {
		return nil, dealerError("get_dealer", "failed to retrieve dealer", err)
	}
	return dealer, nil
}

// ListDealers implements DealerService.ListDealers.
func (s *dealerServiceImpl) ListDealers(ctx context.Context) ([]domain.DealerSummary, error) {
	dealers, err := s.dealers.List(ctx)
	if err != nil {
		return nil, dealerError("list_dealers", "failed to list dealers", err)
	}
	return dealers, nil
}

// RenameDealer implements DealerService.RenameDealer.
func (s *dealerServiceImpl) RenameDealer(ctx context.Context, dealerID uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyLabel)
	}

	if err := s.dealers.Rename(ctx, dealerID, title); err != nil {
		return dealerError("rename_dealer", "failed to rename dealer", err)
	}
	return nil
}

// DeleteDealer implements DealerService.DeleteDealer.
func (s *dealerServiceImpl) DeleteDealer(ctx context.Context, dealerID uuid.UUID) error {
	if err := s.dealers.Delete(ctx, dealerID); err != nil {
		return dealerError("delete_dealer", "failed to delete dealer", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("dealer deleted",
		slog.String("dealer_id", dealerID.String()))
	return nil
}

// AddFilterToDealer implements DealerService.AddFilterToDealer.
func (s *dealerServiceImpl) AddFilterToDealer(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	if err := domain.ValidateWeight(weight); err != nil {
		return err
	}

	if err := s.dealers.AddFilter(ctx, dealerID, filterID, weight); err != nil {
		return dealerError("add_filter_to_dealer", "failed to add filter", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("filter added to dealer",
		slog.String("dealer_id", dealerID.String()),
		slog.String("filter_id", filterID.String()),
		slog.Int("weight", weight))
	return nil
}

// RemoveFilterFromDealer implements DealerService.RemoveFilterFromDealer.
func (s *dealerServiceImpl) RemoveFilterFromDealer(ctx context.Context, dealerID, filterID uuid.UUID) error {
	if err := s.dealers.RemoveFilter(ctx, dealerID, filterID); err != nil {
		return dealerError("remove_filter_from_dealer", "failed to remove filter", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("filter removed from dealer",
		slog.String("dealer_id", dealerID.String()),
		slog.String("filter_id", filterID.String()))
	return nil
}

// SetFilterWeight implements DealerService.SetFilterWeight.
func (s *dealerServiceImpl) SetFilterWeight(ctx context.Context, dealerID, filterID uuid.UUID, weight int) error {
	if err := domain.ValidateWeight(weight); err != nil {
		return err
	}

	if err := s.dealers.SetWeight(ctx, dealerID, filterID, weight); err != nil {
		return dealerError("set_filter_weight", "failed to set weight", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("dealer filter weight set",
		slog.String("dealer_id", dealerID.String()),
		slog.String("filter_id", filterID.String()),
		slog.Int("weight", weight))
	return nil
}

// ListFilters implements DealerService.ListFilters.
func (s *dealerServiceImpl) ListFilters(ctx context.Context, dealerID uuid.UUID) ([]domain.DealerFilter, error) {
	filters, err := s.dealers.ListFilters(ctx, dealerID)
	if err != nil {
		return nil, dealerError("list_filters", "failed to list dealer filters", err)
	}
	return filters, nil
}

// NextFilter implements DealerService.NextFilter.
func (s *dealerServiceImpl) NextFilter(ctx context.Context, dealerID uuid.UUID) (uuid.UUID, bool, error) {
	filters, err := s.dealers.ListFilters(ctx, dealerID)
	if err != nil {
		return uuid.Nil, false, dealerError("next_filter", "failed to list dealer filters", err)
	}

	filterID, ok := s.choose(domain.WeightedFilterIDs(filters))

	logger.FromContextOrDefault(ctx, s.logger).Debug("chose dealer filter",
		slog.String("dealer_id", dealerID.String()),
		slog.Int("candidates", len(filters)),
		slog.Bool("found", ok))
	return filterID, ok, nil
}

// DealCard implements DealerService.DealCard.
func (s *dealerServiceImpl) DealCard(ctx context.Context, dealerID uuid.UUID) (uuid.UUID, bool, error) {
	filterID, ok, err := s.NextFilter(ctx, dealerID)
	if err != nil || !ok {
		return uuid.Nil, false, err
	}

	filter, err := s.filters.GetByID(ctx, filterID)
	if err != nil {
		if store.IsNotFoundError(err) {
			// Deleted between choice and fetch: treated like any other dangling entry.
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, dealerError("deal_card", "failed to retrieve filter", err)
	}

	cardID, ok, err := s.selector.SelectOne(ctx, &filter.PackID, filter.Criterion())
	if err != nil {
		return uuid.Nil, false, dealerError("deal_card", "failed to select card", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("dealt card",
		slog.String("dealer_id", dealerID.String()),
		slog.String("filter_id", filterID.String()),
		slog.Bool("found", ok))
	return cardID, ok, nil
}

// DealerQuery implements DealerService.DealerQuery.
func (s *dealerServiceImpl) DealerQuery(ctx context.Context, dealerID uuid.UUID) (selection.Versioned, error) {
	associations, err := s.dealers.ListFilters(ctx, dealerID)
	if err != nil {
		return selection.Versioned{}, dealerError("dealer_query", "failed to list dealer filters", err)
	}

	children := make([]selection.Weighted[selection.Node], 0, len(associations))
	for _, a := range associations {
		filter, err := s.filters.GetByID(ctx, a.FilterID)
		if err != nil {
			if store.IsNotFoundError(err) {
				continue
			}
			return selection.Versioned{}, dealerError("dealer_query", "failed to retrieve filter", err)
		}

		packID := filter.PackID
		children = append(children, selection.Weighted[selection.Node]{
			Item:   selection.Root{PackID: &packID, Criterion: filter.Criterion()},
			Weight: a.Weight,
		})
	}

	return selection.NewVersioned(selection.Branch{Children: children}), nil
}

func (s *dealerServiceImpl) choose(items []selection.Weighted[uuid.UUID]) (uuid.UUID, bool) {
	if s.rand == nil {
		return selection.Choose(nil, items)
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return selection.Choose(s.rand, items)
}
