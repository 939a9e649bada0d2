package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// AccountRepository provides database access for login accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, username, password_hash, role, avatar, is_approved, is_active, created_at, updated_at`

// FindByUsername returns an account by username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateForLecturer inserts a lecturer account and binds it to the lecturer
// record in a single transaction.
func (r *AccountRepository) CreateForLecturer(ctx context.Context, account *models.Account, lecturerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertAccountTx(ctx, tx, account); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	const bind = `UPDATE lecturers SET account_id = $2, updated_at = $3 WHERE id = $1 AND account_id IS NULL`
	res, err := tx.ExecContext(ctx, bind, lecturerID, account.ID, time.Now().UTC())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("bind lecturer account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrAlreadyLinked
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lecturer account: %w", err)
	}
	return nil
}

// SetApproved flips the is_approved flag on an account.
func (r *AccountRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE accounts SET is_approved = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("approve account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// UpdateCredentials replaces the password hash and avatar reference.
func (r *AccountRepository) UpdateCredentials(ctx context.Context, id, passwordHash, avatar string) error {
	const query = `UPDATE accounts SET password_hash = $2, avatar = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, avatar, time.Now().UTC()); err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	return nil
}

// ListPending returns active accounts still waiting for admin approval.
func (r *AccountRepository) ListPending(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_active = TRUE AND is_approved = FALSE ORDER BY created_at DESC`
	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list pending accounts: %w", err)
	}
	return accounts, nil
}

func insertAccountTx(ctx context.Context, tx *sqlx.Tx, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	const query = `INSERT INTO accounts (id, email, username, password_hash, role, avatar, is_approved, is_active, created_at, updated_at)
        VALUES (:id, :email, :username, :password_hash, :role, :avatar, :is_approved, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}
