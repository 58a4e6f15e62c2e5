package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// selectMatchingSQL evaluates a tag criterion inside the database.
// $1 optional pack, $2 included tags (distinct), $3 excluded tags, $4 limit (NULL for all).
const selectMatchingSQL = `
	SELECT c.id
	FROM cards c
	WHERE ($1::uuid IS NULL OR c.pack_id = $1::uuid)
	  AND (
		cardinality($2::text[]) = 0
		OR c.id IN (
			SELECT t.card_id
			FROM card_tags t
			WHERE t.tag = ANY($2::text[])
			GROUP BY t.card_id
			HAVING COUNT(*) = cardinality($2::text[])
		)
	  )
	  AND NOT EXISTS (
		SELECT 1 FROM card_tags t
		WHERE t.card_id = c.id AND t.tag = ANY($3::text[])
	  )
	ORDER BY random()
	LIMIT $4
`

// PushdownSelector implements selection.Selector with a single query per
// selection instead of inspecting candidates one at a time.
type PushdownSelector struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPushdownSelector creates a selector that runs criteria as SQL.
func NewPushdownSelector(db store.DBTX, logger *slog.Logger) *PushdownSelector {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PushdownSelector{
		db:     db,
		logger: logger.With(slog.String("component", "pushdown_selector")),
	}
}

// Ensure PushdownSelector implements selection.Selector interface
var _ selection.Selector = (*PushdownSelector)(nil)

// SelectOne implements selection.Selector.SelectOne.
func (s *PushdownSelector) SelectOne(
	ctx context.Context,
	packID *uuid.UUID,
	criterion selection.TagCriterion,
) (uuid.UUID, bool, error) {
	ids, err := s.SelectMany(ctx, packID, criterion, 1)
	if err != nil || len(ids) == 0 {
		return uuid.Nil, false, err
	}
	return ids[0], true, nil
}

// SelectMany implements selection.Selector.SelectMany.
func (s *PushdownSelector) SelectMany(
	ctx context.Context,
	packID *uuid.UUID,
	criterion selection.TagCriterion,
	limit int,
) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if limit == 0 {
		return ids, nil
	}
	criterion = criterion.Normalized()
	if !criterion.Satisfiable() {
		return ids, nil
	}

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	for id, err := range store.ScanIDs(ctx, s.db, selectMatchingSQL,
		packID, textArray(criterion.Included), textArray(criterion.Excluded), limitArg) {
		if err != nil {
			return nil, fmt.Errorf("select matching cards: %w", MapError(err))
		}
		ids = append(ids, id)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("pushdown selection finished",
		slog.Int("matched", len(ids)),
		slog.Int("limit", limit))
	return ids, nil
}

// textArray keeps an empty label list from being sent as NULL.
func textArray(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
