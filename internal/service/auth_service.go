package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/pkg/config"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type authAccountReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

type authStudentReader interface {
	FindByAccountID(ctx context.Context, accountID string) (*models.Student, error)
}

type authLecturerReader interface {
	FindByAccountID(ctx context.Context, accountID string) (*models.Lecturer, error)
}

// AuthService issues and validates access tokens. ProfileID in the claims
// resolves to the student or lecturer record linked to the account, so
// downstream ownership checks never touch the database.
type AuthService struct {
	accounts  authAccountReader
	students  authStudentReader
	lecturers authLecturerReader
	cfg       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(accounts authAccountReader, students authStudentReader, lecturers authLecturerReader, cfg config.JWTConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{accounts: accounts, students: students, lecturers: lecturers, cfg: cfg, validator: validate, logger: logger}
}

// Login verifies credentials and returns a signed token. Accounts that are
// inactive or still waiting for approval cannot log in.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if !account.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}
	if !account.IsApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is waiting for approval")
	}

	profileID := s.resolveProfileID(ctx, account)

	now := time.Now().UTC()
	claims := models.JWTClaims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		ProfileID: profileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	s.logger.Info("login", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.cfg.Expiration.Seconds()),
		IssuedAt:    now,
		Account:     *account,
	}, nil
}

// ValidateToken parses and verifies a signed token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) resolveProfileID(ctx context.Context, account *models.Account) string {
	switch account.Role {
	case models.RoleStudent:
		if s.students == nil {
			return ""
		}
		student, err := s.students.FindByAccountID(ctx, account.ID)
		if err == nil {
			return student.ID
		}
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("student profile lookup failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	case models.RoleLecturer:
		if s.lecturers == nil {
			return ""
		}
		lecturer, err := s.lecturers.FindByAccountID(ctx, account.ID)
		if err == nil {
			return lecturer.ID
		}
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("lecturer profile lookup failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}
	return ""
}
