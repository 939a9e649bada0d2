package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// ApprovalRepository manages student approval requests.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository creates a new repository instance.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

const approvalSelect = `SELECT a.id, a.student_id, a.is_approved, a.created_at, a.updated_at,
        s.code AS student_code, s.first_name AS student_first_name, s.last_name AS student_last_name, s.account_id AS student_account_id
        FROM approvals a JOIN students s ON s.id = a.student_id`

// Create inserts a pending approval. The unique constraint on student_id
// rejects a second request for the same student.
func (r *ApprovalRepository) Create(ctx context.Context, approval *models.Approval) error {
	approval.ID = uuid.NewString()
	now := time.Now().UTC()
	approval.CreatedAt = now
	approval.UpdatedAt = now
	const query = `INSERT INTO approvals (id, student_id, is_approved, created_at, updated_at)
        VALUES (:id, :student_id, :is_approved, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, approval); err != nil {
		return err
	}
	return nil
}

// FindByID returns an approval with its joined student fields.
func (r *ApprovalRepository) FindByID(ctx context.Context, id string) (*models.Approval, error) {
	query := approvalSelect + ` WHERE a.id = $1 LIMIT 1`
	var approval models.Approval
	if err := r.db.GetContext(ctx, &approval, query, id); err != nil {
		return nil, err
	}
	return &approval, nil
}

// ListPending returns approvals awaiting confirmation.
func (r *ApprovalRepository) ListPending(ctx context.Context) ([]models.Approval, error) {
	query := approvalSelect + ` WHERE a.is_approved = FALSE ORDER BY a.created_at DESC`
	var approvals []models.Approval
	if err := r.db.SelectContext(ctx, &approvals, query); err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return approvals, nil
}

// Confirm provisions the student account, binds it to the student record
// and flips the approval flag as a single atomic unit. A failure at any
// step leaves no partial state behind.
func (r *ApprovalRepository) Confirm(ctx context.Context, approval *models.Approval, account *models.Account) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertAccountTx(ctx, tx, account); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	const bind = `UPDATE students SET account_id = $2, updated_at = $3 WHERE id = $1 AND account_id IS NULL`
	res, err := tx.ExecContext(ctx, bind, approval.StudentID, account.ID, time.Now().UTC())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("bind student account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrAlreadyLinked
	}
	const flip = `UPDATE approvals SET is_approved = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, flip, approval.ID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("flip approval: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval confirmation: %w", err)
	}
	return nil
}
