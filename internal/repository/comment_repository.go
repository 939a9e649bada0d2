package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hcmou/course-outline-api/internal/models"
)

// CommentRepository manages outline comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new repository instance.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentSelect = `SELECT cm.id, cm.outline_id, cm.student_id, cm.content, cm.created_at, cm.updated_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name
        FROM comments cm JOIN students s ON s.id = cm.student_id`

// ListByOutline returns comments for an outline with total count.
func (r *CommentRepository) ListByOutline(ctx context.Context, outlineID string, page, pageSize int) ([]models.Comment, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	query := commentSelect + fmt.Sprintf(
		` WHERE cm.outline_id = $1 ORDER BY cm.created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, outlineID); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE outline_id = $1`, outlineID); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	return comments, total, nil
}

// FindByID returns a comment by identifier.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	query := commentSelect + ` WHERE cm.id = $1 LIMIT 1`
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = uuid.NewString()
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	const query = `INSERT INTO comments (id, outline_id, student_id, content, created_at, updated_at)
        VALUES (:id, :outline_id, :student_id, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// UpdateContent replaces the comment body.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM comments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
