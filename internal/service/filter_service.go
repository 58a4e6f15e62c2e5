package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/events"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultValidityWorkers bounds concurrent validity checks when none is configured.
const DefaultValidityWorkers = 4

// FilterService provides filter authoring and single-filter selection.
type FilterService interface {
	// CreateFilter creates an empty filter in an existing pack.
	CreateFilter(ctx context.Context, packID uuid.UUID, label string) (uuid.UUID, error)

	// GetFilter returns a filter with its tags and current validity.
	GetFilter(ctx context.Context, filterID uuid.UUID) (*domain.FilterDetail, error)

	// ListFilters returns every filter with its validity, ordered by pack title then label.
	ListFilters(ctx context.Context) ([]domain.FilterListing, error)

	// AddFilterTag upserts a tag membership.
	AddFilterTag(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error

	// SetFilterExclusion changes the role of an existing membership.
	// An absent tag is left absent.
	SetFilterExclusion(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error

	// RemoveFilterTag drops a membership. Removing an absent tag is a no-op.
	RemoveFilterTag(ctx context.Context, filterID uuid.UUID, tag string) error

	// DeleteFilter removes a filter and its dealer associations.
	DeleteFilter(ctx context.Context, filterID uuid.UUID) error

	// NextCard draws one random card of the filter's pack that matches it.
	NextCard(ctx context.Context, filterID uuid.UUID) (uuid.UUID, bool, error)

	// IsValid reports whether any card currently matches the filter.
	IsValid(ctx context.Context, filterID uuid.UUID) (bool, error)
}

// FilterServiceOptions tunes optional FilterService behavior.
type FilterServiceOptions struct {
	// Emitter receives mutation events. Defaults to events.NopEmitter.
	Emitter events.EventEmitter

	// Cache stores computed validity. Nil disables caching.
	Cache *ValidityCache

	// Workers bounds concurrent validity checks in ListFilters.
	Workers int
}

type filterServiceImpl struct {
	filters  store.FilterStore
	cards    store.CardStore
	selector selection.Selector
	emitter  events.EventEmitter
	cache    *ValidityCache
	workers  int
	logger   *slog.Logger
}

// NewFilterService creates a new FilterService.
// It returns an error if any of the required dependencies are nil.
func NewFilterService(
	filters store.FilterStore,
	cards store.CardStore,
	selector selection.Selector,
	opts FilterServiceOptions,
	logger *slog.Logger,
) (FilterService, error) {
	if filters == nil {
		return nil, nilDependency("filterStore")
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
	if opts.Emitter == nil {
		opts.Emitter = events.NopEmitter{}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultValidityWorkers
	}

	return &filterServiceImpl{
		filters:  filters,
		cards:    cards,
		selector: selector,
		emitter:  opts.Emitter,
		cache:    opts.Cache,
		workers:  opts.Workers,
		logger:   logger.With(slog.String("component", "filter_service")),
	}, nil
}

func filterError(operation, message string, err error) error {
	return NewServiceError("filter", operation, message, err)
}

// CreateFilter implements FilterService.CreateFilter.
func (s *filterServiceImpl) CreateFilter(ctx context.Context, packID uuid.UUID, label string) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := domain.NewFilter(packID, label)
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := s.cards.PackExists(ctx, packID)
	if err != nil {
		return uuid.Nil, filterError("create_filter", "failed to check pack", err)
	}
	if !exists {
		return uuid.Nil, filterError("create_filter", "pack not found", store.ErrPackNotFound)
	}

	if err := s.filters.Create(ctx, filter); err != nil {
		log.Error("failed to create filter",
			slog.String("error", err.Error()),
			slog.String("pack_id", packID.String()))
		return uuid.Nil, filterError("create_filter", "failed to save filter", err)
	}

	log.Info("filter created",
		slog.String("filter_id", filter.ID.String()),
		slog.String("pack_id", packID.String()))
	return filter.ID, nil
}

// GetFilter implements FilterService.GetFilter.
func (s *filterServiceImpl) GetFilter(ctx context.Context, filterID uuid.UUID) (*domain.FilterDetail, error) {
	generation := s.cache.Generation()
	filter, err := s.filters.GetByID(ctx, filterID)
	if err != nil {
		return nil, filterError("get_filter", "failed to retrieve filter", err)
	}

	valid, err := s.validity(ctx, generation, filter)
	if err != nil {
		return nil, filterError("get_filter", "failed to evaluate validity", err)
	}

	return &domain.FilterDetail{Filter: *filter, IsValid: valid}, nil
}

// ListFilters implements FilterService.ListFilters.
// Validity is computed concurrently, at most workers filters at a time.
func (s *filterServiceImpl) ListFilters(ctx context.Context) ([]domain.FilterListing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	summaries, err := s.filters.List(ctx)
	if err != nil {
		return nil, filterError("list_filters", "failed to list filters", err)
	}

	listings := make([]domain.FilterListing, len(summaries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, summary := range summaries {
		listings[i].FilterSummary = summary
		g.Go(func() error {
			valid, err := s.IsValid(gctx, summary.ID)
			if err != nil {
				if store.IsNotFoundError(err) {
					// Deleted since List; it is reported as invalid.
					return nil
				}
				return err
			}
			listings[i].IsValid = valid
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, filterError("list_filters", "failed to evaluate validity", err)
	}

	log.Debug("listed filters", slog.Int("count", len(listings)))
	return listings, nil
}

// AddFilterTag implements FilterService.AddFilterTag.
func (s *filterServiceImpl) AddFilterTag(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidateTag(tag); err != nil {
		return err
	}

	if err := s.filters.UpsertTag(ctx, filterID, tag, exclude); err != nil {
		return filterError("add_filter_tag", "failed to add tag", err)
	}

	log.Info("filter tag added",
		slog.String("filter_id", filterID.String()),
		slog.String("tag", tag),
		slog.Bool("exclude", exclude))
	s.emit(ctx, events.FilterTagsChanged, filterID)
	return nil
}

// SetFilterExclusion implements FilterService.SetFilterExclusion.
func (s *filterServiceImpl) SetFilterExclusion(ctx context.Context, filterID uuid.UUID, tag string, exclude bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	changed, err := s.filters.SetTagExclusion(ctx, filterID, tag, exclude)
	if err != nil {
		return filterError("set_filter_exclusion", "failed to set exclusion", err)
	}
	if !changed {
		log.Debug("exclusion not changed, tag is not on filter",
			slog.String("filter_id", filterID.String()),
			slog.String("tag", tag))
		return nil
	}

	log.Info("filter tag exclusion set",
		slog.String("filter_id", filterID.String()),
		slog.String("tag", tag),
		slog.Bool("exclude", exclude))
	s.emit(ctx, events.FilterTagsChanged, filterID)
	return nil
}

// RemoveFilterTag implements FilterService.RemoveFilterTag.
func (s *filterServiceImpl) RemoveFilterTag(ctx context.Context, filterID uuid.UUID, tag string) error {
	removed, err := s.filters.RemoveTag(ctx, filterID, tag)
	if err != nil {
		return filterError("remove_filter_tag", "failed to remove tag", err)
	}
	if removed {
		logger.FromContextOrDefault(ctx, s.logger).Info("filter tag removed",
			slog.String("filter_id", filterID.String()),
			slog.String("tag", tag))
		s.emit(ctx, events.FilterTagsChanged, filterID)
	}
	return nil
}

// DeleteFilter implements FilterService.DeleteFilter.
func (s *filterServiceImpl) DeleteFilter(ctx context.Context, filterID uuid.UUID) error {
	if err := s.filters.Delete(ctx, filterID); err != nil {
		return filterError("delete_filter", "failed to delete filter", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("filter deleted",
		slog.String("filter_id", filterID.String()))
	s.emit(ctx, events.FilterDeleted, filterID)
	return nil
}

// NextCard implements FilterService.NextCard.
func (s *filterServiceImpl) NextCard(ctx context.Context, filterID uuid.UUID) (uuid.UUID, bool, error) {
	filter, err := s.filters.GetByID(ctx, filterID)
	if err != nil {
		return uuid.Nil, false, filterError("next_card", "failed to retrieve filter", err)
	}

	cardID, ok, err := s.selector.SelectOne(ctx, &filter.PackID, filter.Criterion())
	if err != nil {
		return uuid.Nil, false, filterError("next_card", "failed to select card", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("drew card from filter",
		slog.String("filter_id", filterID.String()),
		slog.String("criterion", describeCriterion(filter.Criterion())),
		slog.Bool("found", ok))
	return cardID, ok, nil
}

// IsValid implements FilterService.IsValid.
func (s *filterServiceImpl) IsValid(ctx context.Context, filterID uuid.UUID) (bool, error) {
	generation := s.cache.Generation()
	if valid, ok := s.cache.Get(filterID); ok {
		return valid, nil
	}

	filter, err := s.filters.GetByID(ctx, filterID)
	if err != nil {
		return false, filterError("is_valid", "failed to retrieve filter", err)
	}

	valid, err := s.validity(ctx, generation, filter)
	if err != nil {
		return false, filterError("is_valid", "failed to evaluate validity", err)
	}
	return valid, nil
}

// validity runs a single-card selection; any hit makes the filter valid.
// generation is the cache generation read before filter was loaded; the
// result is only cached if no invalidation happened since.
func (s *filterServiceImpl) validity(ctx context.Context, generation uint64, filter *domain.Filter) (bool, error) {
	if valid, ok := s.cache.Get(filter.ID); ok {
		return valid, nil
	}

	_, ok, err := s.selector.SelectOne(ctx, &filter.PackID, filter.Criterion())
	if err != nil {
		return false, err
	}

	s.cache.Put(filter.ID, ok, generation)
	return ok, nil
}

// emit publishes a mutation event. The write has already been committed, so a
// failing handler is logged rather than returned.
func (s *filterServiceImpl) emit(ctx context.Context, eventType string, filterID uuid.UUID) {
	if err := s.emitter.EmitEvent(ctx, events.NewMutationEvent(eventType, filterID)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to emit mutation event",
			slog.String("event_type", eventType),
			slog.String("filter_id", filterID.String()),
			slog.String("error", err.Error()))
	}
}

// describeCriterion renders a criterion for log lines, e.g. "+math -hard".
func describeCriterion(c selection.TagCriterion) string {
	if c.IsEmpty() {
		return "(any)"
	}
	parts := make([]string, 0, len(c.Included)+len(c.Excluded))
	for _, t := range c.Included {
		parts = append(parts, "+"+t)
	}
	for _, t := range c.Excluded {
		parts = append(parts, "-"+t)
	}
	return strings.Join(parts, " ")
}
