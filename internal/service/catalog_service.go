package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/hcmou/course-outline-api/internal/models"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type catalogCourseReader interface {
	List(ctx context.Context) ([]models.Course, error)
}

type catalogCategoryReader interface {
	List(ctx context.Context) ([]models.Category, error)
}

// CatalogService serves the small reference collections the UI needs for
// filter dropdowns: intake years and lesson categories.
type CatalogService struct {
	courses    catalogCourseReader
	categories catalogCategoryReader
	logger     *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(courses catalogCourseReader, categories catalogCategoryReader, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, categories: categories, logger: logger}
}

// ListCourses returns all intake years.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListCategories returns all lesson categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}
