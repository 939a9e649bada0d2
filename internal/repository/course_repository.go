package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// CourseRepository manages academic intake years.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses ordered by year.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, year, created_at FROM courses ORDER BY year DESC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByYear returns the course for a year if one exists.
func (r *CourseRepository) FindByYear(ctx context.Context, year int) (*models.Course, error) {
	const query = `SELECT id, year, created_at FROM courses WHERE year = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, year); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	course.ID = uuid.NewString()
	course.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO courses (id, year, created_at) VALUES (:id, :year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}
