package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcmou/course-outline-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApprovalRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectExec("INSERT INTO approvals").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	approval := &models.Approval{StudentID: "student-1"}
	err := repo.Create(context.Background(), approval)
	require.NoError(t, err)
	assert.NotEmpty(t, approval.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "is_approved", "created_at", "updated_at", "student_code", "student_first_name", "student_last_name", "student_account_id"}).
		AddRow("app-1", "student-1", false, time.Now(), time.Now(), "000123", "Jane", "Doe", nil)
	mock.ExpectQuery("SELECT a.id, a.student_id").
		WithArgs("app-1").
		WillReturnRows(rows)

	approval, err := repo.FindByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "000123", approval.StudentCode)
	assert.Nil(t, approval.StudentAccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryConfirm(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students SET account_id").
		WithArgs("student-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE approvals SET is_approved").
		WithArgs("app-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	approval := &models.Approval{ID: "app-1", StudentID: "student-1"}
	account := &models.Account{Email: "jane@example.edu", Username: "jane", PasswordHash: "hash", Role: models.RoleStudent, IsApproved: true, IsActive: true}
	err := repo.Confirm(context.Background(), approval, account)
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryConfirmAlreadyLinked(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE students SET account_id").
		WithArgs("student-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	approval := &models.Approval{ID: "app-1", StudentID: "student-1"}
	account := &models.Account{Email: "jane@example.edu", Username: "jane", PasswordHash: "hash", Role: models.RoleStudent}
	err := repo.Confirm(context.Background(), approval, account)
	require.ErrorIs(t, err, ErrAlreadyLinked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
