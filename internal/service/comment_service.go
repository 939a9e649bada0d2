package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hcmou/course-outline-api/internal/models"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type commentRepository interface {
	ListByOutline(ctx context.Context, outlineID string, page, pageSize int) ([]models.Comment, int, error)
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

type commentOutlineReader interface {
	FindByID(ctx context.Context, id string) (*models.Outline, error)
}

// CommentRequest carries a comment body for create and update.
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CommentListResult bundles a comment page with pagination metadata.
type CommentListResult struct {
	Comments   []models.Comment  `json:"comments"`
	Pagination models.Pagination `json:"pagination"`
}

// CommentService lets students discuss outlines. A comment can only be
// edited or removed by its author; admins may remove any comment.
type CommentService struct {
	comments  commentRepository
	outlines  commentOutlineReader
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  int
}

// NewCommentService constructs the service.
func NewCommentService(comments commentRepository, outlines commentOutlineReader, validate *validator.Validate, logger *zap.Logger, pageSize int) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return &CommentService{comments: comments, outlines: outlines, validator: validate, logger: logger, pageSize: pageSize}
}

// ListByOutline returns a page of comments for an outline.
func (s *CommentService) ListByOutline(ctx context.Context, outlineID string, page, pageSize int) (*CommentListResult, error) {
	if _, err := s.outlines.FindByID(ctx, outlineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outline")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	comments, total, err := s.comments.ListByOutline(ctx, outlineID, page, pageSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return &CommentListResult{
		Comments:   comments,
		Pagination: models.Pagination{Page: page, PageSize: pageSize, TotalCount: total},
	}, nil
}

// Create posts a comment on an outline on behalf of the calling student.
func (s *CommentService) Create(ctx context.Context, caller *models.JWTClaims, outlineID string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "comment content is required")
	}
	if caller == nil || caller.Role != models.RoleStudent || caller.ProfileID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can comment on outlines")
	}

	if _, err := s.outlines.FindByID(ctx, outlineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "outline not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load outline")
	}

	comment := &models.Comment{
		OutlineID: outlineID,
		StudentID: caller.ProfileID,
		Content:   req.Content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	s.logger.Info("comment created", zap.String("comment_id", comment.ID), zap.String("outline_id", outlineID))
	return comment, nil
}

// Update replaces the comment body. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, caller *models.JWTClaims, id string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "comment content is required")
	}

	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if caller == nil || caller.ProfileID == "" || caller.ProfileID != comment.StudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "comment belongs to another student")
	}

	if err := s.comments.UpdateContent(ctx, id, req.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	comment.Content = req.Content
	return comment, nil
}

// Delete removes a comment. The author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, caller *models.JWTClaims, id string) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if caller == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if caller.Role != models.RoleAdmin && caller.ProfileID != comment.StudentID {
		return appErrors.Clone(appErrors.ErrForbidden, "comment belongs to another student")
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}
