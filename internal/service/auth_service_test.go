package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/pkg/config"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type mockAuthAccounts struct {
	accounts map[string]models.Account
}

func (m *mockAuthAccounts) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	if a, ok := m.accounts[username]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuthStudents struct {
	byAccount map[string]models.Student
}

func (m *mockAuthStudents) FindByAccountID(ctx context.Context, accountID string) (*models.Student, error) {
	if s, ok := m.byAccount[accountID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuthLecturers struct {
	byAccount map[string]models.Lecturer
}

func (m *mockAuthLecturers) FindByAccountID(ctx context.Context, accountID string) (*models.Lecturer, error) {
	if l, ok := m.byAccount[accountID]; ok {
		return &l, nil
	}
	return nil, sql.ErrNoRows
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "course-outline-api"}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginIssuesToken(t *testing.T) {
	accounts := &mockAuthAccounts{accounts: map[string]models.Account{
		"jane": {ID: "account-1", Username: "jane", PasswordHash: hashPassword(t, "secret123"), Role: models.RoleStudent, IsActive: true, IsApproved: true},
	}}
	students := &mockAuthStudents{byAccount: map[string]models.Student{
		"account-1": {Person: models.Person{ID: "student-1"}},
	}}
	svc := NewAuthService(accounts, students, &mockAuthLecturers{}, testJWTConfig(), validator.New(), zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "jane", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "account-1", claims.AccountID)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "student-1", claims.ProfileID)
}

func TestLoginWrongPassword(t *testing.T) {
	accounts := &mockAuthAccounts{accounts: map[string]models.Account{
		"jane": {ID: "account-1", Username: "jane", PasswordHash: hashPassword(t, "secret123"), Role: models.RoleStudent, IsActive: true, IsApproved: true},
	}}
	svc := NewAuthService(accounts, &mockAuthStudents{}, &mockAuthLecturers{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "jane", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUsername(t *testing.T) {
	svc := NewAuthService(&mockAuthAccounts{}, &mockAuthStudents{}, &mockAuthLecturers{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnapprovedAccount(t *testing.T) {
	accounts := &mockAuthAccounts{accounts: map[string]models.Account{
		"newbie": {ID: "account-2", Username: "newbie", PasswordHash: hashPassword(t, "secret123"), Role: models.RoleLecturer, IsActive: true, IsApproved: false},
	}}
	svc := NewAuthService(accounts, &mockAuthStudents{}, &mockAuthLecturers{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "newbie", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	accounts := &mockAuthAccounts{accounts: map[string]models.Account{
		"gone": {ID: "account-3", Username: "gone", PasswordHash: hashPassword(t, "secret123"), Role: models.RoleStudent, IsActive: false, IsApproved: true},
	}}
	svc := NewAuthService(accounts, &mockAuthStudents{}, &mockAuthLecturers{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "gone", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthAccounts{}, &mockAuthStudents{}, &mockAuthLecturers{}, testJWTConfig(), validator.New(), zap.NewNop())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
