package selection

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"
)

// NoLimit asks SelectMany for every matching card.
const NoLimit = -1

// CardSource is the read side of the card store the engine streams from.
type CardSource interface {
	// ShuffledCardIDs enumerates the card ids of a pack (or of every pack when
	// packID is nil) in a fresh random order. Each id appears at most once.
	// The sequence is consumed lazily; stopping early releases the underlying
	// cursor. A failure is yielded as a non-nil error and ends the sequence.
	ShuffledCardIDs(ctx context.Context, packID *uuid.UUID) iter.Seq2[uuid.UUID, error]

	// CardTags returns the current tag labels of a single card.
	CardTags(ctx context.Context, cardID uuid.UUID) ([]string, error)
}

// Selector finds cards whose tags satisfy a criterion.
// "Nothing matched" is reported as ok == false or an empty slice, never as an error.
type Selector interface {
	// SelectOne returns one randomly ordered matching card.
	SelectOne(ctx context.Context, packID *uuid.UUID, criterion TagCriterion) (uuid.UUID, bool, error)

	// SelectMany returns up to limit matching cards in random order.
	// A negative limit (NoLimit) returns every match; zero returns an empty slice.
	SelectMany(ctx context.Context, packID *uuid.UUID, criterion TagCriterion, limit int) ([]uuid.UUID, error)
}

// Engine is the streaming Selector: it walks a shuffled enumeration of candidate
// ids and fetches each candidate's tags only when the walk reaches it.
type Engine struct {
	source CardSource
	logger *slog.Logger
}

// Ensure Engine implements Selector
var _ Selector = (*Engine)(nil)

// NewEngine creates a streaming selection engine over source.
// If logger is nil, a default logger will be used.
func NewEngine(source CardSource, logger *slog.Logger) *Engine {
	if source == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("card source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source: source,
		logger: logger.With(slog.String("component", "selection_engine")),
	}
}

// SelectOne implements Selector.SelectOne.
func (e *Engine) SelectOne(
	ctx context.Context,
	packID *uuid.UUID,
	criterion TagCriterion,
) (uuid.UUID, bool, error) {
	ids, err := e.scan(ctx, packID, criterion, 1)
	if err != nil || len(ids) == 0 {
		return uuid.Nil, false, err
	}
	return ids[0], true, nil
}

// SelectMany implements Selector.SelectMany.
func (e *Engine) SelectMany(
	ctx context.Context,
	packID *uuid.UUID,
	criterion TagCriterion,
	limit int,
) ([]uuid.UUID, error) {
	ids, err := e.scan(ctx, packID, criterion, limit)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// scan collects up to limit matches (all matches when limit < 0).
func (e *Engine) scan(
	ctx context.Context,
	packID *uuid.UUID,
	criterion TagCriterion,
	limit int,
) ([]uuid.UUID, error) {
	matches := []uuid.UUID{}
	if limit == 0 {
		return matches, nil
	}
	if !criterion.Satisfiable() {
		e.logger.Debug("criterion is unsatisfiable, skipping scan")
		return matches, nil
	}

	inspected := 0
	seen := make(map[uuid.UUID]struct{})
	for id, err := range e.source.ShuffledCardIDs(ctx, packID) {
		if err != nil {
			return nil, fmt.Errorf("enumerate candidates: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		tags, err := e.source.CardTags(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch tags for card %s: %w", id, err)
		}
		inspected++

		if !criterion.Matches(NewTagSet(tags...)) {
			continue
		}
		matches = append(matches, id)
		if limit > 0 && len(matches) >= limit {
			break
		}
	}

	e.logger.Debug("selection scan finished",
		slog.Int("inspected", inspected),
		slog.Int("matched", len(matches)),
		slog.Int("limit", limit))
	return matches, nil
}
