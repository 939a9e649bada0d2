package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// OutlineRepository manages outline persistence including the many-to-many
// associations to evaluations and courses.
type OutlineRepository struct {
	db *sqlx.DB
}

// NewOutlineRepository creates a new repository instance.
func NewOutlineRepository(db *sqlx.DB) *OutlineRepository {
	return &OutlineRepository{db: db}
}

const outlineColumns = `o.id, o.name, o.credit, o.overview, o.image, o.is_approved, o.lecturer_id, o.lesson_id, o.created_at, o.updated_at`

// List returns outlines matching the filter with total count.
func (r *OutlineRepository) List(ctx context.Context, filter models.OutlineFilter) ([]models.Outline, int, error) {
	baseQuery := ` FROM outlines o WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(o.name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.Credit > 0 {
		conditions = append(conditions, fmt.Sprintf("o.credit = $%d", len(args)+1))
		args = append(args, filter.Credit)
	}
	if filter.Lecturer != "" {
		conditions = append(conditions, fmt.Sprintf(
			"o.lecturer_id IN (SELECT id FROM lecturers WHERE LOWER(first_name || ' ' || last_name) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Lecturer)+"%")
	}
	if filter.CourseYear > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"o.id IN (SELECT oc.outline_id FROM outline_courses oc JOIN courses c ON c.id = oc.course_id WHERE c.year = $%d)", len(args)+1))
		args = append(args, filter.CourseYear)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	query := `SELECT ` + outlineColumns + baseQuery +
		fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT %d OFFSET %d", pageSize, offset)

	var outlines []models.Outline
	if err := r.db.SelectContext(ctx, &outlines, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list outlines: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*)"+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count outlines: %w", err)
	}

	for i := range outlines {
		if err := r.loadAssociations(ctx, &outlines[i]); err != nil {
			return nil, 0, err
		}
	}
	return outlines, total, nil
}

// FindByID returns an outline with its evaluations and courses loaded.
func (r *OutlineRepository) FindByID(ctx context.Context, id string) (*models.Outline, error) {
	query := `SELECT ` + outlineColumns + ` FROM outlines o WHERE o.id = $1 LIMIT 1`
	var outline models.Outline
	if err := r.db.GetContext(ctx, &outline, query, id); err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, &outline); err != nil {
		return nil, err
	}
	return &outline, nil
}

// ListApproved returns approved outlines for export.
func (r *OutlineRepository) ListApproved(ctx context.Context) ([]models.Outline, error) {
	query := `SELECT ` + outlineColumns + ` FROM outlines o WHERE o.is_approved = TRUE ORDER BY o.created_at DESC`
	var outlines []models.Outline
	if err := r.db.SelectContext(ctx, &outlines, query); err != nil {
		return nil, fmt.Errorf("list approved outlines: %w", err)
	}
	for i := range outlines {
		if err := r.loadAssociations(ctx, &outlines[i]); err != nil {
			return nil, err
		}
	}
	return outlines, nil
}

// Create inserts a new outline.
func (r *OutlineRepository) Create(ctx context.Context, outline *models.Outline) error {
	outline.ID = uuid.NewString()
	now := time.Now().UTC()
	outline.CreatedAt = now
	outline.UpdatedAt = now
	const query = `INSERT INTO outlines (id, name, credit, overview, image, is_approved, lecturer_id, lesson_id, created_at, updated_at)
        VALUES (:id, :name, :credit, :overview, :image, :is_approved, :lecturer_id, :lesson_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, outline); err != nil {
		return fmt.Errorf("insert outline: %w", err)
	}
	return nil
}

// UpdateImage stores a new image reference on the outline.
func (r *OutlineRepository) UpdateImage(ctx context.Context, id, image string) error {
	const query = `UPDATE outlines SET image = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, image, time.Now().UTC()); err != nil {
		return fmt.Errorf("update outline image: %w", err)
	}
	return nil
}

// SetApproved flips the approval flag.
func (r *OutlineRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE outlines SET is_approved = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("approve outline: %w", err)
	}
	return nil
}

// ListEvaluations returns the evaluations attached to an outline.
func (r *OutlineRepository) ListEvaluations(ctx context.Context, outlineID string) ([]models.Evaluation, error) {
	const query = `SELECT e.id, e.percentage, e.method, e.note, e.created_at
        FROM outline_evaluations oe JOIN evaluations e ON e.id = oe.evaluation_id
        WHERE oe.outline_id = $1 ORDER BY e.percentage DESC`
	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, outlineID); err != nil {
		return nil, fmt.Errorf("list outline evaluations: %w", err)
	}
	return evaluations, nil
}

// AttachEvaluations associates the resolved evaluations with the outline
// in one transaction: a reader sees the pre-batch or post-batch set, never
// an intermediate one.
func (r *OutlineRepository) AttachEvaluations(ctx context.Context, outlineID string, evaluationIDs []string) error {
	return r.attach(ctx, "outline_evaluations", "evaluation_id", outlineID, evaluationIDs)
}

// AttachCourses associates courses with the outline atomically.
func (r *OutlineRepository) AttachCourses(ctx context.Context, outlineID string, courseIDs []string) error {
	return r.attach(ctx, "outline_courses", "course_id", outlineID, courseIDs)
}

func (r *OutlineRepository) attach(ctx context.Context, table, column, outlineID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (outline_id, %s) VALUES ($1, $2)", table, column)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, query, outlineID, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("attach %s: %w", column, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outline attach: %w", err)
	}
	return nil
}

func (r *OutlineRepository) loadAssociations(ctx context.Context, outline *models.Outline) error {
	evaluations, err := r.ListEvaluations(ctx, outline.ID)
	if err != nil {
		return err
	}
	outline.Evaluations = evaluations

	const query = `SELECT c.id, c.year, c.created_at
        FROM outline_courses oc JOIN courses c ON c.id = oc.course_id
        WHERE oc.outline_id = $1 ORDER BY c.year`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, outline.ID); err != nil {
		return fmt.Errorf("list outline courses: %w", err)
	}
	outline.Courses = courses
	return nil
}
