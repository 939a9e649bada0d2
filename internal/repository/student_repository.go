package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// StudentRepository manages pre-provisioned student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, account_id, first_name, last_name, age, gender, code, course_id, created_at, updated_at`

// Create inserts a student with its code computed up front. The code
// combines a random component with a reserved sequence value, so a single
// insert suffices and the code never changes afterwards.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	code, err := nextPersonCode(ctx, r.db)
	if err != nil {
		return err
	}
	student.ID = uuid.NewString()
	student.Code = code
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, account_id, first_name, last_name, age, gender, code, course_id, created_at, updated_at)
        VALUES (:id, :account_id, :first_name, :last_name, :age, :gender, :code, :course_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// FindByCode returns a student by its immutable code.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE code = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByAccountID returns the student linked to the given account.
func (r *StudentRepository) FindByAccountID(ctx context.Context, accountID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE account_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, accountID); err != nil {
		return nil, err
	}
	return &student, nil
}

// nextPersonCode reserves a sequence value and derives the six digit code
// from it plus a random component.
func nextPersonCode(ctx context.Context, db *sqlx.DB) (string, error) {
	var seq int64
	if err := db.GetContext(ctx, &seq, `SELECT nextval('person_code_seq')`); err != nil {
		return "", fmt.Errorf("reserve person code: %w", err)
	}
	return fmt.Sprintf("%04d%02d", rand.Intn(10000), seq%100), nil
}
