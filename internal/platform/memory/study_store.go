package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// StudyStore implements store.StudyStore in memory.
type StudyStore struct {
	db *DB
}

// Ensure StudyStore implements store.StudyStore
var _ store.StudyStore = (*StudyStore)(nil)

// NewStudyStore creates a study store over db.
func NewStudyStore(db *DB) *StudyStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	return &StudyStore{db: db}
}

// Create implements store.StudyStore.
func (s *StudyStore) Create(ctx context.Context, study *domain.Study) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if study.PackID != nil {
		if _, ok := s.db.packs[*study.PackID]; !ok {
			return store.ErrPackNotFound
		}
	}
	if _, ok := s.db.studies[study.ID]; ok {
		return fmt.Errorf("%w: study %s", store.ErrDuplicate, study.ID)
	}
	s.db.studies[study.ID] = cloneStudy(*study)
	return nil
}

// GetByID implements store.StudyStore.
func (s *StudyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	study, ok := s.db.studies[id]
	if !ok {
		return nil, store.ErrStudyNotFound
	}
	study = cloneStudy(study)
	return &study, nil
}

// List implements store.StudyStore. Titles sort case-insensitively.
func (s *StudyStore) List(ctx context.Context) ([]domain.Study, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	studies := make([]domain.Study, 0, len(s.db.studies))
	for _, study := range s.db.studies {
		study = cloneStudy(study)
		study.Tags = []domain.FilterTag{}
		studies = append(studies, study)
	}
	slices.SortFunc(studies, func(a, b domain.Study) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return studies, nil
}

// update applies fn to a stored study under the write lock.
func (s *StudyStore) update(id uuid.UUID, fn func(*domain.Study) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	study, ok := s.db.studies[id]
	if !ok {
		return store.ErrStudyNotFound
	}
	study = cloneStudy(study)
	if err := fn(&study); err != nil {
		return err
	}
	study.UpdatedAt = time.Now().UTC()
	s.db.studies[id] = study
	return nil
}

// Rename implements store.StudyStore.
func (s *StudyStore) Rename(ctx context.Context, id uuid.UUID, title string) error {
	return s.update(id, func(study *domain.Study) error {
		study.Title = title
		return nil
	})
}

// SetPack implements store.StudyStore.
func (s *StudyStore) SetPack(ctx context.Context, id uuid.UUID, packID *uuid.UUID) error {
	return s.update(id, func(study *domain.Study) error {
		if packID != nil {
			if _, ok := s.db.packs[*packID]; !ok {
				return store.ErrPackNotFound
			}
			pid := *packID
			study.PackID = &pid
			return nil
		}
		study.PackID = nil
		return nil
	})
}

// SetLimit implements store.StudyStore.
func (s *StudyStore) SetLimit(ctx context.Context, id uuid.UUID, limit int) error {
	return s.update(id, func(study *domain.Study) error {
		study.Limit = limit
		return nil
	})
}

// UpsertTag implements store.StudyStore.
func (s *StudyStore) UpsertTag(ctx context.Context, id uuid.UUID, tag string, exclude bool) error {
	return s.update(id, func(study *domain.Study) error {
		study.Tags = upsertTag(study.Tags, tag, exclude)
		return nil
	})
}

// RemoveTag implements store.StudyStore.
func (s *StudyStore) RemoveTag(ctx context.Context, id uuid.UUID, tag string) (bool, error) {
	var removed bool
	err := s.update(id, func(study *domain.Study) error {
		f := domain.Filter{Tags: study.Tags}
		removed = f.RemoveTag(tag)
		study.Tags = f.Tags
		return nil
	})
	return removed, err
}

// Delete implements store.StudyStore.
func (s *StudyStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.studies[id]; !ok {
		return store.ErrStudyNotFound
	}
	delete(s.db.studies, id)
	return nil
}
