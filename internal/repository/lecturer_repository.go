package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// LecturerRepository manages pre-provisioned lecturer records.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository creates a new repository instance.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

const lecturerColumns = `id, account_id, first_name, last_name, age, gender, code, position, created_at, updated_at`

// Create inserts a lecturer with its code computed before the insert.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	code, err := nextPersonCode(ctx, r.db)
	if err != nil {
		return err
	}
	lecturer.ID = uuid.NewString()
	lecturer.Code = code
	now := time.Now().UTC()
	lecturer.CreatedAt = now
	lecturer.UpdatedAt = now

	const query = `INSERT INTO lecturers (id, account_id, first_name, last_name, age, gender, code, position, created_at, updated_at)
        VALUES (:id, :account_id, :first_name, :last_name, :age, :gender, :code, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("insert lecturer: %w", err)
	}
	return nil
}

// FindByCode returns a lecturer by its immutable code.
func (r *LecturerRepository) FindByCode(ctx context.Context, code string) (*models.Lecturer, error) {
	query := `SELECT ` + lecturerColumns + ` FROM lecturers WHERE code = $1 LIMIT 1`
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, code); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// FindByID returns a lecturer by identifier.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	query := `SELECT ` + lecturerColumns + ` FROM lecturers WHERE id = $1 LIMIT 1`
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, id); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// FindByAccountID returns the lecturer linked to the given account.
func (r *LecturerRepository) FindByAccountID(ctx context.Context, accountID string) (*models.Lecturer, error) {
	query := `SELECT ` + lecturerColumns + ` FROM lecturers WHERE account_id = $1 LIMIT 1`
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, accountID); err != nil {
		return nil, err
	}
	return &lecturer, nil
}
