package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/internal/repository"
	"github.com/hcmou/course-outline-api/pkg/database"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type accountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	CreateForLecturer(ctx context.Context, account *models.Account, lecturerID string) error
	SetApproved(ctx context.Context, id string, approved bool) error
	ListPending(ctx context.Context) ([]models.Account, error)
}

type accountLecturerReader interface {
	FindByCode(ctx context.Context, code string) (*models.Lecturer, error)
}

// RegisterLecturerRequest is a lecturer's self-service signup. Unlike the
// student flow the lecturer picks their own credentials; the account stays
// unapproved until an administrator confirms it.
type RegisterLecturerRequest struct {
	Code     string `json:"code" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// AccountService handles lecturer registration and admin account approval.
type AccountService struct {
	accounts  accountRepository
	lecturers accountLecturerReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs the service.
func NewAccountService(accounts accountRepository, lecturers accountLecturerReader, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, lecturers: lecturers, validator: validate, logger: logger}
}

// RegisterLecturer creates an unapproved account bound to the lecturer
// record identified by code.
func (s *AccountService) RegisterLecturer(ctx context.Context, req RegisterLecturerRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	lecturer, err := s.lecturers.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up lecturer")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := &models.Account{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleLecturer,
		IsApproved:   false,
		IsActive:     true,
	}
	if err := s.accounts.CreateForLecturer(ctx, account, lecturer.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already in use")
		}
		if errors.Is(err, repository.ErrAlreadyLinked) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "lecturer is already linked to an account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register lecturer")
	}

	s.logger.Info("lecturer registered",
		zap.String("account_id", account.ID),
		zap.String("lecturer_code", lecturer.Code))
	return account, nil
}

// ListPending returns accounts waiting for admin approval.
func (s *AccountService) ListPending(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending accounts")
	}
	return accounts, nil
}

// Confirm approves a pending account. Confirming an already approved
// account is a no-op.
func (s *AccountService) Confirm(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if account.IsApproved {
		return account, nil
	}

	if err := s.accounts.SetApproved(ctx, id, true); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve account")
	}
	account.IsApproved = true

	s.logger.Info("account approved", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))
	return account, nil
}
