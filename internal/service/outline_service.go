package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hcmou/course-outline-api/internal/models"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
	"github.com/hcmou/course-outline-api/pkg/export"
)

const (
	outlineCachePattern = "outlines:*"

	evaluationMinCount = 2
	evaluationMaxCount = 5
)

type outlineRepository interface {
	List(ctx context.Context, filter models.OutlineFilter) ([]models.Outline, int, error)
	FindByID(ctx context.Context, id string) (*models.Outline, error)
	ListApproved(ctx context.Context) ([]models.Outline, error)
	Create(ctx context.Context, outline *models.Outline) error
	UpdateImage(ctx context.Context, id, image string) error
	SetApproved(ctx context.Context, id string, approved bool) error
	ListEvaluations(ctx context.Context, outlineID string) ([]models.Evaluation, error)
	AttachEvaluations(ctx context.Context, outlineID string, evaluationIDs []string) error
	AttachCourses(ctx context.Context, outlineID string, courseIDs []string) error
}

type evaluationRepository interface {
	FindByPercentageAndMethod(ctx context.Context, percentage float64, method string) (*models.Evaluation, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
}

type outlineCourseRepository interface {
	FindByYear(ctx context.Context, year int) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
}

// CreateOutlineRequest carries a new syllabus draft.
type CreateOutlineRequest struct {
	Name     string `json:"name" validate:"required"`
	Credit   int    `json:"credit" validate:"required,gt=0"`
	Overview string `json:"overview" validate:"required"`
	LessonID string `json:"lesson_id" validate:"required"`
}

// EvaluationInput is one grading component in a batch. Percentage is a
// pointer so zero is distinguishable from absent and rejected explicitly.
type EvaluationInput struct {
	Percentage *float64 `json:"percentage" validate:"required"`
	Method     string   `json:"method" validate:"required"`
	Note       string   `json:"note"`
}

// AddEvaluationsRequest attaches a batch of grading components.
type AddEvaluationsRequest struct {
	Evaluations []EvaluationInput `json:"evaluations" validate:"required,min=1,dive"`
}

// AddCoursesRequest attaches intake years to an outline.
type AddCoursesRequest struct {
	Years []int `json:"years" validate:"required,min=1,dive,gt=0"`
}

// OutlineService owns the outline aggregate: drafts, the grading scheme
// consistency rules, course attachment, approval and catalog export.
type OutlineService struct {
	outlines    outlineRepository
	evaluations evaluationRepository
	courses     outlineCourseRepository
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	pageSize    int
}

// NewOutlineService constructs the service.
func NewOutlineService(outlines outlineRepository, evaluations evaluationRepository, courses outlineCourseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, pageSize int) *OutlineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &OutlineService{
		outlines:    outlines,
		evaluations: evaluations,
		courses:     courses,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		pageSize:    pageSize,
	}
}

// OutlineListResult bundles a catalog page with its pagination metadata.
type OutlineListResult struct {
	Outlines   []models.Outline  `json:"outlines"`
	Pagination models.Pagination `json:"pagination"`
	CacheHit   bool              `json:"-"`
}

// Create stores a new outline draft owned by the calling lecturer.
func (s *OutlineService) Create(ctx context.Context, caller *models.JWTClaims, req CreateOutlineRequest) (*models.Outline, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid outline payload")
	}
	if caller == nil || caller.Role != models.RoleLecturer || caller.ProfileID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only lecturers can create outlines")
	}

	outline := &models.Outline{
		Name:       req.Name,
		Credit:     req.Credit,
		Overview:   req.Overview,
		LecturerID: caller.ProfileID,
		LessonID:   req.LessonID,
	}
	if err := s.outlines.Create(ctx, outline); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create outline")
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("outline created", zap.String("outline_id", outline.ID), zap.String("lecturer_id", outline.LecturerID))
	return outline, nil
}

// List returns a catalog page, served from cache when possible.
func (s *OutlineService) List(ctx context.Context, filter models.OutlineFilter) (*OutlineListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	}

	key := s.cacheKey(filter)
	var cached OutlineListResult
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		cached.CacheHit = true
		return &cached, nil
	}

	outlines, total, err := s.outlines.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outlines")
	}

	result := &OutlineListResult{
		Outlines: outlines,
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalCount: total,
		},
	}

	if err := s.cache.Set(ctx, key, result, 0); err != nil {
		s.logger.Warn("failed to cache outline page", zap.Error(err))
	}
	return result, nil
}

// Get returns a single outline with associations loaded.
func (s *OutlineService) Get(ctx context.Context, id string) (*models.Outline, error) {
	outline, err := s.outlines.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outline")
	}
	return outline, nil
}

// AddEvaluations validates and attaches a batch of grading components,
// returning the batch as stored. The whole batch is checked against the
// 100 percent budget before anything is attached; a failing batch leaves
// the outline untouched.
func (s *OutlineService) AddEvaluations(ctx context.Context, caller *models.JWTClaims, outlineID string, req AddEvaluationsRequest) ([]models.Evaluation, error) {
	outline, err := s.Get(ctx, outlineID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(caller, outline); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "each evaluation needs a percentage and a method")
	}

	var newSum float64
	seen := make(map[string]bool, len(req.Evaluations))
	for _, in := range req.Evaluations {
		p := *in.Percentage
		if p <= 0 || p > 100 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("percentage %v is out of range", p))
		}
		key := fmt.Sprintf("%v|%s", p, in.Method)
		if seen[key] {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("duplicate evaluation %s %v%% in batch", in.Method, p))
		}
		seen[key] = true
		newSum += p
	}

	existing, err := s.outlines.ListEvaluations(ctx, outlineID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
	}
	var existingSum float64
	for _, e := range existing {
		existingSum += e.Percentage
	}

	// Exact equality is intentional: weights are entered as whole or half
	// points, and a scheme that does not land on 100 exactly is rejected.
	if existingSum+newSum != 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("evaluation percentages must total exactly 100, got %v", existingSum+newSum))
	}

	total := len(existing) + len(req.Evaluations)
	if total < evaluationMinCount || total > evaluationMaxCount {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("an outline needs between %d and %d evaluations, got %d", evaluationMinCount, evaluationMaxCount, total))
	}

	ids := make([]string, 0, len(req.Evaluations))
	resolved := make([]models.Evaluation, 0, len(req.Evaluations))
	for _, in := range req.Evaluations {
		evaluation, err := s.resolveEvaluation(ctx, *in.Percentage, in.Method, in.Note)
		if err != nil {
			return nil, err
		}
		ids = append(ids, evaluation.ID)
		resolved = append(resolved, *evaluation)
	}

	if err := s.outlines.AttachEvaluations(ctx, outlineID, ids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach evaluations")
	}

	s.invalidateCatalog(ctx)
	s.logger.Info("evaluations attached",
		zap.String("outline_id", outlineID),
		zap.Int("count", len(ids)),
		zap.Float64("batch_sum", newSum))

	return resolved, nil
}

// AddCourses attaches intake years to the outline, creating missing course
// rows on the fly. Years already present in the store are reused.
func (s *OutlineService) AddCourses(ctx context.Context, caller *models.JWTClaims, outlineID string, req AddCoursesRequest) (*models.Outline, error) {
	outline, err := s.Get(ctx, outlineID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(caller, outline); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "at least one intake year is required")
	}

	attached := make(map[int]bool, len(outline.Courses))
	for _, c := range outline.Courses {
		attached[c.Year] = true
	}

	ids := make([]string, 0, len(req.Years))
	for _, year := range req.Years {
		if attached[year] {
			continue
		}
		course, err := s.resolveCourse(ctx, year)
		if err != nil {
			return nil, err
		}
		ids = append(ids, course.ID)
		attached[year] = true
	}

	if err := s.outlines.AttachCourses(ctx, outlineID, ids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach courses")
	}

	s.invalidateCatalog(ctx)
	return s.Get(ctx, outlineID)
}

// Approve marks the outline as published. Approving an already approved
// outline is a no-op.
func (s *OutlineService) Approve(ctx context.Context, id string) (*models.Outline, error) {
	outline, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if outline.IsApproved {
		return outline, nil
	}

	if err := s.outlines.SetApproved(ctx, id, true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve outline")
	}
	outline.IsApproved = true

	s.invalidateCatalog(ctx)
	s.logger.Info("outline approved", zap.String("outline_id", id))
	return outline, nil
}

// UpdateImage stores a new cover image reference on the outline.
func (s *OutlineService) UpdateImage(ctx context.Context, caller *models.JWTClaims, id, image string) (*models.Outline, error) {
	outline, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(caller, outline); err != nil {
		return nil, err
	}
	if image == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image reference is required")
	}

	if err := s.outlines.UpdateImage(ctx, id, image); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update outline image")
	}
	outline.Image = image

	s.invalidateCatalog(ctx)
	return outline, nil
}

// Download renders all approved outlines as CSV or PDF.
func (s *OutlineService) Download(ctx context.Context, format string) ([]byte, string, error) {
	outlines, err := s.outlines.ListApproved(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved outlines")
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Credit", "Overview", "Evaluations", "Courses"},
		Rows:    make([]map[string]string, 0, len(outlines)),
	}
	for _, o := range outlines {
		parts := make([]string, 0, len(o.Evaluations))
		for _, e := range o.Evaluations {
			parts = append(parts, fmt.Sprintf("%s %v%%", e.Method, e.Percentage))
		}
		years := make([]string, 0, len(o.Courses))
		for _, c := range o.Courses {
			years = append(years, strconv.Itoa(c.Year))
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":        o.Name,
			"Credit":      strconv.Itoa(o.Credit),
			"Overview":    o.Overview,
			"Evaluations": strings.Join(parts, "; "),
			"Courses":     strings.Join(years, ", "),
		})
	}

	switch strings.ToLower(format) {
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Approved Course Outlines")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *OutlineService) requireOwner(caller *models.JWTClaims, outline *models.Outline) error {
	if caller == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if caller.Role == models.RoleAdmin {
		return nil
	}
	if caller.Role != models.RoleLecturer || caller.ProfileID == "" || caller.ProfileID != outline.LecturerID {
		return appErrors.Clone(appErrors.ErrForbidden, "outline belongs to another lecturer")
	}
	return nil
}

func (s *OutlineService) resolveEvaluation(ctx context.Context, percentage float64, method, note string) (*models.Evaluation, error) {
	existing, err := s.evaluations.FindByPercentageAndMethod(ctx, percentage, method)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up evaluation")
	}

	evaluation := &models.Evaluation{Percentage: percentage, Method: method, Note: note}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}
	return evaluation, nil
}

func (s *OutlineService) resolveCourse(ctx context.Context, year int) (*models.Course, error) {
	existing, err := s.courses.FindByYear(ctx, year)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up course")
	}

	course := &models.Course{Year: year}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

func (s *OutlineService) cacheKey(filter models.OutlineFilter) string {
	return fmt.Sprintf("outlines:list:q=%s:credit=%d:lecturer=%s:year=%d:page=%d:size=%d",
		strings.ToLower(filter.Query), filter.Credit, strings.ToLower(filter.Lecturer), filter.CourseYear, filter.Page, filter.PageSize)
}

func (s *OutlineService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, outlineCachePattern); err != nil {
		s.logger.Warn("failed to invalidate outline cache", zap.Error(err))
	}
}
