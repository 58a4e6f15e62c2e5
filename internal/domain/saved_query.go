package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
)

// SavedQuery is a persisted recursive query tree. The tree is stored together
// with its format version so older records keep decoding.
type SavedQuery struct {
	ID        uuid.UUID           `json:"id"`
	Title     string              `json:"title"`
	Query     selection.Versioned `json:"query"`
	CreatedAt time.Time           `json:"created_at"`
}

// NewSavedQuery validates tree and rewrites it in the current format version,
// so stored records never carry an older version than the build that wrote them.
func NewSavedQuery(title string, tree selection.Versioned) (*SavedQuery, error) {
	upgraded, err := selection.Upgrade(tree)
	if err != nil {
		return nil, NewValidationError("query", "has an unsupported version", err)
	}
	q := &SavedQuery{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Query:     upgraded,
		CreatedAt: time.Now().UTC(),
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks the title and the shape of the tree.
func (q *SavedQuery) Validate() error {
	if q.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(q.Title) == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyLabel)
	}
	node, err := q.Query.Latest()
	if err != nil {
		return NewValidationError("query", "has an unsupported version", err)
	}
	if err := selection.Validate(node); err != nil {
		return NewValidationError("query", "is malformed", err)
	}
	return nil
}
