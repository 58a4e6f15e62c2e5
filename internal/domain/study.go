package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
)

// DefaultStudyLimit is the question count of a study created without one.
const DefaultStudyLimit = 20

// Study is a saved bulk query: a tag criterion over an optional pack, drawn
// Limit cards at a time.
type Study struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	PackID    *uuid.UUID  `json:"pack_id,omitempty"`
	Limit     int         `json:"limit"`
	Tags      []FilterTag `json:"tags"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewStudy creates a study with no tags. A nil packID spans every pack.
func NewStudy(title string, packID *uuid.UUID, limit int) (*Study, error) {
	now := time.Now().UTC()
	s := &Study{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		PackID:    packID,
		Limit:     limit,
		Tags:      []FilterTag{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the study's title, limit, and tags.
func (s *Study) Validate() error {
	if s.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(s.Title) == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyLabel)
	}
	if err := ValidateLimit(s.Limit); err != nil {
		return err
	}
	if s.PackID != nil && *s.PackID == uuid.Nil {
		return NewValidationError("pack_id", "cannot be the nil UUID", ErrInvalidID)
	}
	for _, t := range s.Tags {
		if err := ValidateTag(t.Tag); err != nil {
			return err
		}
	}
	return nil
}

// Criterion converts the study's memberships into a selection criterion.
func (s *Study) Criterion() selection.TagCriterion {
	return CriterionFromTags(s.Tags)
}

// ValidateLimit rejects negative limits. Zero is allowed and draws nothing.
func ValidateLimit(limit int) error {
	if limit < 0 {
		return NewValidationError("limit", "cannot be negative", ErrInvalidLimit)
	}
	return nil
}
