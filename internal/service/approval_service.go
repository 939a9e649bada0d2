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

type approvalRepository interface {
	Create(ctx context.Context, approval *models.Approval) error
	FindByID(ctx context.Context, id string) (*models.Approval, error)
	ListPending(ctx context.Context) ([]models.Approval, error)
	Confirm(ctx context.Context, approval *models.Approval, account *models.Account) error
}

type approvalStudentReader interface {
	FindByCode(ctx context.Context, code string) (*models.Student, error)
}

type approvalAccountWriter interface {
	UpdateCredentials(ctx context.Context, id, passwordHash, avatar string) error
}

// SubmitApprovalRequest is a student's one-time signup request.
type SubmitApprovalRequest struct {
	Code string `json:"code" validate:"required"`
}

// ConfirmApprovalRequest carries the credentials an administrator assigns
// when confirming a student request.
type ConfirmApprovalRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// ActivateProfileRequest lets the student replace the assigned password and
// set an avatar once the request is approved.
type ActivateProfileRequest struct {
	Password string `json:"password" validate:"required,min=6"`
	Avatar   string `json:"avatar" validate:"required"`
}

// ApprovalService turns a student's signup request into an admin-approved,
// credentialed account. Requests move Pending -> Approved exactly once.
type ApprovalService struct {
	approvals approvalRepository
	students  approvalStudentReader
	accounts  approvalAccountWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(approvals approvalRepository, students approvalStudentReader, accounts approvalAccountWriter, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{approvals: approvals, students: students, accounts: accounts, validator: validate, logger: logger}
}

// Submit creates a pending approval for the student identified by code.
func (s *ApprovalService) Submit(ctx context.Context, req SubmitApprovalRequest) (*models.Approval, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	student, err := s.students.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}

	approval := &models.Approval{StudentID: student.ID, StudentCode: student.Code}
	if err := s.approvals.Create(ctx, approval); err != nil {
		// Concurrent submissions race on the student_id unique constraint;
		// the loser surfaces as a conflict, not a raw store error.
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an approval request for this student is already pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval")
	}

	s.logger.Info("approval submitted", zap.String("approval_id", approval.ID), zap.String("student_code", student.Code))
	return approval, nil
}

// ListPending returns approvals awaiting confirmation.
func (s *ApprovalService) ListPending(ctx context.Context) ([]models.Approval, error) {
	approvals, err := s.approvals.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approvals")
	}
	return approvals, nil
}

// Confirm provisions a student account for the approval. Account creation,
// student binding and the approval flag flip commit as one atomic unit.
func (s *ApprovalService) Confirm(ctx context.Context, id string, req ConfirmApprovalRequest) (*models.Account, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}

	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}
	if approval.IsApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "approval has already been confirmed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := &models.Account{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		IsApproved:   true,
		IsActive:     true,
	}
	if err := s.approvals.Confirm(ctx, approval, account); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already in use")
		}
		if errors.Is(err, repository.ErrAlreadyLinked) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already linked to an account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm approval")
	}

	s.logger.Info("approval confirmed",
		zap.String("approval_id", approval.ID),
		zap.String("account_id", account.ID),
		zap.String("student_code", approval.StudentCode))
	return account, nil
}

// ActivateProfile rehashes the password and stores the avatar reference on
// the linked account. Callable only after the approval has been confirmed.
func (s *ApprovalService) ActivateProfile(ctx context.Context, id string, req ActivateProfileRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "password and avatar are required")
	}

	approval, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "approval not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval")
	}
	if !approval.IsApproved {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "approval has not been confirmed yet")
	}
	if approval.StudentAccountID == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "student has no linked account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.accounts.UpdateCredentials(ctx, *approval.StudentAccountID, string(hash), req.Avatar); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	return nil
}
