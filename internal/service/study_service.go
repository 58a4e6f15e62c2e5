package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// StudyService manages studies: saved bulk queries drawn a fixed number of cards at a time.
type StudyService interface {
	CreateStudy(ctx context.Context, title string, packID *uuid.UUID, limit int) (uuid.UUID, error)
	GetStudy(ctx context.Context, studyID uuid.UUID) (*domain.Study, error)
	ListStudies(ctx context.Context) ([]domain.Study, error)
	RenameStudy(ctx context.Context, studyID uuid.UUID, title string) error
	SetStudyPack(ctx context.Context, studyID uuid.UUID, packID *uuid.UUID) error
	SetStudyLimit(ctx context.Context, studyID uuid.UUID, limit int) error
	AddStudyTag(ctx context.Context, studyID uuid.UUID, tag string, exclude bool) error
	RemoveStudyTag(ctx context.Context, studyID uuid.UUID, tag string) error
	DeleteStudy(ctx context.Context, studyID uuid.UUID) error

	// DrawStudy returns up to the study's limit of matching cards in random order.
	DrawStudy(ctx context.Context, studyID uuid.UUID) ([]uuid.UUID, error)
}

type studyServiceImpl struct {
	studies  store.StudyStore
	selector selection.Selector
	logger   *slog.Logger
}

// NewStudyService creates a new StudyService.
// It returns an error if any of the required dependencies are nil.
func NewStudyService(
	studies store.StudyStore,
	selector selection.Selector,
	logger *slog.Logger,
) (StudyService, error) {
	if studies == nil {
		return nil, nilDependency("studyStore")
	}
	if selector == nil {
		return nil, nilDependency("selector")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		studies:  studies,
		selector: selector,
		logger:   logger.With(slog.String("component", "study_service")),
	}, nil
}

func studyError(operation, message string, err error) error {
	return NewServiceError("study", operation, message, err)
}

// CreateStudy implements StudyService.CreateStudy.
func (s *studyServiceImpl) CreateStudy(ctx context.Context, title string, packID *uuid.UUID, limit int) (uuid.UUID, error) {
	study, err := domain.NewStudy(title, packID, limit)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.studies.Create(ctx, study); err != nil {
		return uuid.Nil, studyError("create_study", "failed to save study", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("study created",
		slog.String("study_id", study.ID.String()))
	return study.ID, nil
}

// GetStudy implements StudyService.GetStudy.
func (s *studyServiceImpl) GetStudy(ctx context.Context, studyID uuid.UUID) (*domain.Study, error) {
	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, studyError("get_study", "failed to retrieve study", err)
	}
	return study, nil
}

// ListStudies implements StudyService.ListStudies.
func (s *studyServiceImpl) ListStudies(ctx context.Context) ([]domain.Study, error) {
	studies, err := s.studies.List(ctx)
	if err != nil {
		return nil, studyError("list_studies", "failed to list studies", err)
	}
	return studies, nil
}

// RenameStudy implements StudyService.RenameStudy.
func (s *studyServiceImpl) RenameStudy(ctx context.Context, studyID uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyLabel)
	}
	if err := s.studies.Rename(ctx, studyID, title); err != nil {
		return studyError("rename_study", "failed to rename study", err)
	}
	return nil
}

// SetStudyPack implements StudyService.SetStudyPack.
func (s *studyServiceImpl) SetStudyPack(ctx context.Context, studyID uuid.UUID, packID *uuid.UUID) error {
	if packID != nil && *packID == uuid.Nil {
		return domain.NewValidationError("pack_id", "cannot be the nil UUID", domain.ErrInvalidID)
	}
	if err := s.studies.SetPack(ctx, studyID, packID); err != nil {
		return studyError("set_study_pack", "failed to set pack", err)
	}
	return nil
}

// SetStudyLimit implements StudyService.SetStudyLimit.
func (s *studyServiceImpl) SetStudyLimit(ctx context.Context, studyID uuid.UUID, limit int) error {
	if err := domain.ValidateLimit(limit); err != nil {
		return err
	}
	if err := s.studies.SetLimit(ctx, studyID, limit); err != nil {
		return studyError("set_study_limit", "failed to set limit", err)
	}
	return nil
}

// AddStudyTag implements StudyService.AddStudyTag.
func (s *studyServiceImpl) AddStudyTag(ctx context.Context, studyID uuid.UUID, tag string, exclude bool) error {
	if err := domain.ValidateTag(tag); err != nil {
		return err
	}
	if err := s.studies.UpsertTag(ctx, studyID, tag, exclude); err != nil {
		return studyError("add_study_tag", "failed to add tag", err)
	}
	return nil
}

// RemoveStudyTag implements StudyService.RemoveStudyTag.
func (s *studyServiceImpl) RemoveStudyTag(ctx context.Context, studyID uuid.UUID, tag string) error {
	if _, err := s.studies.RemoveTag(ctx, studyID, tag); err != nil {
		return studyError("remove_study_tag", "failed to remove tag", err)
	}
	return nil
}

// DeleteStudy implements StudyService.DeleteStudy.
func (s *studyServiceImpl) DeleteStudy(ctx context.Context, studyID uuid.UUID) error {
	if err := s.studies.Delete(ctx, studyID); err != nil {
		return studyError("delete_study", "failed to delete study", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("study deleted",
		slog.String("study_id", studyID.String()))
	return nil
}

// DrawStudy implements StudyService.DrawStudy.
func (s *studyServiceImpl) DrawStudy(ctx context.Context, studyID uuid.UUID) ([]uuid.UUID, error) {
	study, err := s.studies.GetByID(ctx, studyID)
	if err != nil {
		return nil, studyError("draw_study", "failed to retrieve study", err)
	}

	ids, err := s.selector.SelectMany(ctx, study.PackID, study.Criterion(), study.Limit)
	if err != nil {
		return nil, studyError("draw_study", "failed to select cards", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("drew study cards",
		slog.String("study_id", studyID.String()),
		slog.Int("limit", study.Limit),
		slog.Int("count", len(ids)))
	return ids, nil
}
