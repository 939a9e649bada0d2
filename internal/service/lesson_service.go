package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hcmou/course-outline-api/internal/models"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
}

// CreateLessonRequest carries a new lesson.
type CreateLessonRequest struct {
	Subject    string `json:"subject" validate:"required"`
	CategoryID string `json:"category_id" validate:"required"`
}

// LessonListResult bundles a lesson page with pagination metadata.
type LessonListResult struct {
	Lessons    []models.Lesson   `json:"lessons"`
	Pagination models.Pagination `json:"pagination"`
}

// LessonService manages the subjects outlines are written for.
type LessonService struct {
	lessons   lessonRepository
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  int
}

// NewLessonService constructs the service.
func NewLessonService(lessons lessonRepository, validate *validator.Validate, logger *zap.Logger, pageSize int) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &LessonService{lessons: lessons, validator: validate, logger: logger, pageSize: pageSize}
}

// List returns a page of lessons, optionally filtered by category.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) (*LessonListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	}
	lessons, total, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return &LessonListResult{
		Lessons:    lessons,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}, nil
}

// Get returns a lesson by identifier.
func (s *LessonService) Get(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create stores a new lesson taught by the calling lecturer.
func (s *LessonService) Create(ctx context.Context, caller *models.JWTClaims, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if caller == nil || caller.Role != models.RoleLecturer || caller.ProfileID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can create lessons")
	}

	lesson := &models.Lesson{
		Subject:    req.Subject,
		LecturerID: caller.ProfileID,
		CategoryID: req.CategoryID,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.logger.Info("lesson created", zap.String("lesson_id", lesson.ID), zap.String("lecturer_id", lesson.LecturerID))
	return lesson, nil
}
