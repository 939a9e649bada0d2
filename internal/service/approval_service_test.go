package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/internal/repository"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type mockApprovalRepo struct {
	approvals map[string]models.Approval
	createErr error
	confirmed *models.Account
}

func (m *mockApprovalRepo) Create(ctx context.Context, approval *models.Approval) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.approvals == nil {
		m.approvals = make(map[string]models.Approval)
	}
	if approval.ID == "" {
		approval.ID = "generated"
	}
	m.approvals[approval.ID] = *approval
	return nil
}

func (m *mockApprovalRepo) FindByID(ctx context.Context, id string) (*models.Approval, error) {
	if a, ok := m.approvals[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalRepo) ListPending(ctx context.Context) ([]models.Approval, error) {
	var pending []models.Approval
	for _, a := range m.approvals {
		if !a.IsApproved {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

func (m *mockApprovalRepo) Confirm(ctx context.Context, approval *models.Approval, account *models.Account) error {
	if account.ID == "" {
		account.ID = "account-1"
	}
	m.confirmed = account
	a := m.approvals[approval.ID]
	a.IsApproved = true
	a.StudentAccountID = &account.ID
	m.approvals[approval.ID] = a
	return nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	if s, ok := m.students[code]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAccountWriter struct {
	updatedID     string
	updatedHash   string
	updatedAvatar string
}

func (m *mockAccountWriter) UpdateCredentials(ctx context.Context, id, passwordHash, avatar string) error {
	m.updatedID = id
	m.updatedHash = passwordHash
	m.updatedAvatar = avatar
	return nil
}

func newApprovalService(approvals approvalRepository, students *mockStudentReader, accounts *mockAccountWriter) *ApprovalService {
	return NewApprovalService(approvals, students, accounts, validator.New(), zap.NewNop())
}

func TestApprovalSubmit(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"000123": {Person: models.Person{ID: "student-1", Code: "000123"}},
	}}
	repo := &mockApprovalRepo{}
	svc := newApprovalService(repo, students, &mockAccountWriter{})

	approval, err := svc.Submit(context.Background(), SubmitApprovalRequest{Code: "000123"})
	require.NoError(t, err)
	assert.Equal(t, "student-1", approval.StudentID)
	assert.False(t, approval.IsApproved)
}

func TestApprovalSubmitUnknownCode(t *testing.T) {
	svc := newApprovalService(&mockApprovalRepo{}, &mockStudentReader{}, &mockAccountWriter{})

	_, err := svc.Submit(context.Background(), SubmitApprovalRequest{Code: "999999"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApprovalSubmitDuplicate(t *testing.T) {
	students := &mockStudentReader{students: map[string]models.Student{
		"000123": {Person: models.Person{ID: "student-1", Code: "000123"}},
	}}
	repo := &mockApprovalRepo{createErr: &pq.Error{Code: "23505", Constraint: "approvals_student_id_key"}}
	svc := newApprovalService(repo, students, &mockAccountWriter{})

	_, err := svc.Submit(context.Background(), SubmitApprovalRequest{Code: "000123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApprovalConfirm(t *testing.T) {
	repo := &mockApprovalRepo{approvals: map[string]models.Approval{
		"app-1": {ID: "app-1", StudentID: "student-1", StudentCode: "000123"},
	}}
	svc := newApprovalService(repo, &mockStudentReader{}, &mockAccountWriter{})

	account, err := svc.Confirm(context.Background(), "app-1", ConfirmApprovalRequest{
		Email:    "jane@example.edu",
		Username: "jane",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.True(t, account.IsApproved)
	require.NotNil(t, repo.confirmed)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.confirmed.PasswordHash), []byte("secret123")))
	assert.True(t, repo.approvals["app-1"].IsApproved)
}

func TestApprovalConfirmTwice(t *testing.T) {
	repo := &mockApprovalRepo{approvals: map[string]models.Approval{
		"app-1": {ID: "app-1", StudentID: "student-1", IsApproved: true},
	}}
	svc := newApprovalService(repo, &mockStudentReader{}, &mockAccountWriter{})

	_, err := svc.Confirm(context.Background(), "app-1", ConfirmApprovalRequest{
		Email:    "jane@example.edu",
		Username: "jane",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApprovalConfirmMissing(t *testing.T) {
	svc := newApprovalService(&mockApprovalRepo{}, &mockStudentReader{}, &mockAccountWriter{})

	_, err := svc.Confirm(context.Background(), "nope", ConfirmApprovalRequest{
		Email:    "jane@example.edu",
		Username: "jane",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestActivateProfileBeforeConfirm(t *testing.T) {
	repo := &mockApprovalRepo{approvals: map[string]models.Approval{
		"app-1": {ID: "app-1", StudentID: "student-1"},
	}}
	svc := newApprovalService(repo, &mockStudentReader{}, &mockAccountWriter{})

	err := svc.ActivateProfile(context.Background(), "app-1", ActivateProfileRequest{
		Password: "newsecret",
		Avatar:   "/media/avatars/a.png",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestActivateProfile(t *testing.T) {
	accountID := "account-1"
	repo := &mockApprovalRepo{approvals: map[string]models.Approval{
		"app-1": {ID: "app-1", StudentID: "student-1", IsApproved: true, StudentAccountID: &accountID},
	}}
	accounts := &mockAccountWriter{}
	svc := newApprovalService(repo, &mockStudentReader{}, accounts)

	err := svc.ActivateProfile(context.Background(), "app-1", ActivateProfileRequest{
		Password: "newsecret",
		Avatar:   "/media/avatars/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "account-1", accounts.updatedID)
	assert.Equal(t, "/media/avatars/a.png", accounts.updatedAvatar)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(accounts.updatedHash), []byte("newsecret")))
}

func TestActivateProfileMissingFields(t *testing.T) {
	accountID := "account-1"
	repo := &mockApprovalRepo{approvals: map[string]models.Approval{
		"app-1": {ID: "app-1", IsApproved: true, StudentAccountID: &accountID},
	}}
	svc := newApprovalService(repo, &mockStudentReader{}, &mockAccountWriter{})

	err := svc.ActivateProfile(context.Background(), "app-1", ActivateProfileRequest{Password: "newsecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalConfirmAlreadyLinked(t *testing.T) {
	repo := &linkedApprovalRepo{mockApprovalRepo{approvals: map[string]models.Approval{
		"app-1": {ID: "app-1", StudentID: "student-1"},
	}}}
	svc := newApprovalService(repo, &mockStudentReader{}, &mockAccountWriter{})

	_, err := svc.Confirm(context.Background(), "app-1", ConfirmApprovalRequest{
		Email:    "jane@example.edu",
		Username: "jane",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

type linkedApprovalRepo struct {
	mockApprovalRepo
}

func (m *linkedApprovalRepo) Confirm(ctx context.Context, approval *models.Approval, account *models.Account) error {
	return repository.ErrAlreadyLinked
}
