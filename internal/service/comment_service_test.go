package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hcmou/course-outline-api/internal/models"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
)

type mockCommentRepo struct {
	comments map[string]models.Comment
	deleted  []string
}

func (m *mockCommentRepo) ListByOutline(ctx context.Context, outlineID string, page, pageSize int) ([]models.Comment, int, error) {
	var out []models.Comment
	for _, c := range m.comments {
		if c.OutlineID == outlineID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	if c, ok := m.comments[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	if m.comments == nil {
		m.comments = make(map[string]models.Comment)
	}
	if comment.ID == "" {
		comment.ID = fmt.Sprintf("comment-%d", len(m.comments)+1)
	}
	m.comments[comment.ID] = *comment
	return nil
}

func (m *mockCommentRepo) UpdateContent(ctx context.Context, id, content string) error {
	c := m.comments[id]
	c.Content = content
	m.comments[id] = c
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id string) error {
	delete(m.comments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockCommentOutlines struct {
	outlines map[string]models.Outline
}

func (m *mockCommentOutlines) FindByID(ctx context.Context, id string) (*models.Outline, error) {
	if o, ok := m.outlines[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

func studentClaims(profileID string) *models.JWTClaims {
	return &models.JWTClaims{AccountID: "account-1", Role: models.RoleStudent, ProfileID: profileID}
}

func newCommentService(comments *mockCommentRepo, outlines *mockCommentOutlines) *CommentService {
	return NewCommentService(comments, outlines, validator.New(), zap.NewNop(), 10)
}

func TestCommentCreate(t *testing.T) {
	outlines := &mockCommentOutlines{outlines: map[string]models.Outline{"outline-1": {ID: "outline-1"}}}
	comments := &mockCommentRepo{}
	svc := newCommentService(comments, outlines)

	comment, err := svc.Create(context.Background(), studentClaims("stud-1"), "outline-1", CommentRequest{Content: "clear overview"})
	require.NoError(t, err)
	assert.Equal(t, "stud-1", comment.StudentID)
	assert.Equal(t, "outline-1", comment.OutlineID)
}

func TestCommentCreateRequiresStudent(t *testing.T) {
	outlines := &mockCommentOutlines{outlines: map[string]models.Outline{"outline-1": {ID: "outline-1"}}}
	svc := newCommentService(&mockCommentRepo{}, outlines)

	_, err := svc.Create(context.Background(), lecturerClaims("lect-1"), "outline-1", CommentRequest{Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCommentCreateUnknownOutline(t *testing.T) {
	svc := newCommentService(&mockCommentRepo{}, &mockCommentOutlines{})

	_, err := svc.Create(context.Background(), studentClaims("stud-1"), "missing", CommentRequest{Content: "hello"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCommentUpdateByAuthor(t *testing.T) {
	comments := &mockCommentRepo{comments: map[string]models.Comment{
		"comment-1": {ID: "comment-1", OutlineID: "outline-1", StudentID: "stud-1", Content: "old"},
	}}
	svc := newCommentService(comments, &mockCommentOutlines{})

	comment, err := svc.Update(context.Background(), studentClaims("stud-1"), "comment-1", CommentRequest{Content: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", comment.Content)
}

func TestCommentUpdateByOtherStudent(t *testing.T) {
	comments := &mockCommentRepo{comments: map[string]models.Comment{
		"comment-1": {ID: "comment-1", OutlineID: "outline-1", StudentID: "stud-1", Content: "old"},
	}}
	svc := newCommentService(comments, &mockCommentOutlines{})

	_, err := svc.Update(context.Background(), studentClaims("stud-2"), "comment-1", CommentRequest{Content: "hijack"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCommentDeleteByAdmin(t *testing.T) {
	comments := &mockCommentRepo{comments: map[string]models.Comment{
		"comment-1": {ID: "comment-1", OutlineID: "outline-1", StudentID: "stud-1"},
	}}
	svc := newCommentService(comments, &mockCommentOutlines{})

	err := svc.Delete(context.Background(), &models.JWTClaims{Role: models.RoleAdmin}, "comment-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"comment-1"}, comments.deleted)
}

func TestCommentDeleteByOtherStudent(t *testing.T) {
	comments := &mockCommentRepo{comments: map[string]models.Comment{
		"comment-1": {ID: "comment-1", OutlineID: "outline-1", StudentID: "stud-1"},
	}}
	svc := newCommentService(comments, &mockCommentOutlines{})

	err := svc.Delete(context.Background(), studentClaims("stud-2"), "comment-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, comments.deleted)
}

func TestCommentListUnknownOutline(t *testing.T) {
	svc := newCommentService(&mockCommentRepo{}, &mockCommentOutlines{})

	_, err := svc.ListByOutline(context.Background(), "missing", 1, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
