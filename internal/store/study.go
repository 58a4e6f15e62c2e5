package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
)

// StudyStore defines the interface for study persistence.
type StudyStore interface {
	// Create saves a new study and its tags.
	// Returns ErrPackNotFound if the study is scoped to a missing pack.
	Create(ctx context.Context, study *domain.Study) error

	// GetByID retrieves a study with its tags.
	// Returns ErrStudyNotFound if the study does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error)

	// List returns every study, without tags, ordered by title.
	List(ctx context.Context) ([]domain.Study, error)

	// Rename changes a study's title.
	// Returns ErrStudyNotFound if the study does not exist.
	Rename(ctx context.Context, id uuid.UUID, title string) error

	// SetPack rescopes a study. A nil packID spans every pack.
	SetPack(ctx context.Context, id uuid.UUID, packID *uuid.UUID) error

	// SetLimit changes how many cards a draw returns.
	SetLimit(ctx context.Context, id uuid.UUID, limit int) error

	// UpsertTag adds a membership or updates the role of an existing one.
	UpsertTag(ctx context.Context, id uuid.UUID, tag string, exclude bool) error

	// RemoveTag deletes a membership and reports whether one was present.
	RemoveTag(ctx context.Context, id uuid.UUID, tag string) (bool, error)

	// Delete removes a study and its tags.
	// Returns ErrStudyNotFound if the study does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// QueryStore defines the interface for saved query tree persistence.
// Trees are stored in their versioned wire form.
type QueryStore interface {
	// Create saves a new query tree.
	Create(ctx context.Context, query *domain.SavedQuery) error

	// GetByID retrieves a saved query.
	// Returns ErrQueryNotFound if it does not exist, and wraps
	// selection.ErrUnsupportedVersion when the stored version is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedQuery, error)

	// List returns every saved query ordered by title.
	List(ctx context.Context) ([]domain.SavedQuery, error)

	// Delete removes a saved query.
	// Returns ErrQueryNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
