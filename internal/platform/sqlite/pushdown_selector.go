package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// selectMatchingSQL evaluates a tag criterion inside SQLite. Tag lists are
// bound as JSON arrays and expanded with json_each.
// Parameters: pack (NULL for all), included, included count, excluded, limit (-1 for all).
const selectMatchingSQL = `
	SELECT c.id
	FROM cards c
	WHERE (?1 IS NULL OR c.pack_id = ?1)
	  AND (
		?3 = 0
		OR c.id IN (
			SELECT t.card_id
			FROM card_tags t
			WHERE t.tag IN (SELECT value FROM json_each(?2))
			GROUP BY t.card_id
			HAVING COUNT(*) = ?3
		)
	  )
	  AND NOT EXISTS (
		SELECT 1 FROM card_tags t
		WHERE t.card_id = c.id AND t.tag IN (SELECT value FROM json_each(?4))
	  )
	ORDER BY random()
	LIMIT ?5
`

// PushdownSelector implements selection.Selector with one SQL query per selection.
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

// SelectOne implements selection.Selector.
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

// SelectMany implements selection.Selector.
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

	included, err := jsonArray(criterion.Included)
	if err != nil {
		return nil, err
	}
	excluded, err := jsonArray(criterion.Excluded)
	if err != nil {
		return nil, err
	}

	for id, err := range store.ScanIDs(ctx, s.db, selectMatchingSQL,
		nullUUID(packID), included, len(criterion.Included), excluded, max(limit, -1)) {
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

func jsonArray(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("encode tag list: %w", err)
	}
	return string(data), nil
}
