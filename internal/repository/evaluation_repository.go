package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// EvaluationRepository manages the shared pool of grading components.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository creates a new repository instance.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// FindByPercentageAndMethod returns an existing component with the same
// (percentage, method) pair if one exists anywhere in the store.
func (r *EvaluationRepository) FindByPercentageAndMethod(ctx context.Context, percentage float64, method string) (*models.Evaluation, error) {
	const query = `SELECT id, percentage, method, note, created_at FROM evaluations
        WHERE percentage = $1 AND method = $2 LIMIT 1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, query, percentage, method); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// Create inserts a new evaluation component.
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.ID = uuid.NewString()
	evaluation.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO evaluations (id, percentage, method, note, created_at)
        VALUES (:id, :percentage, :method, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}
