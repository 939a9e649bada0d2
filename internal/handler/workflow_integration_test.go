package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/hcmou/course-outline-api/internal/middleware"
	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/internal/service"
)

func TestWorkflowRoutesIntegration(t *testing.T) {
	router := buildWorkflowRouter(t)

	t.Run("submit approval success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/approve/student", bytes.NewBufferString(`{"code":"000123"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		require.Contains(t, resp.Body.String(), `"student_id":"student-1"`)
	})

	t.Run("submit approval unknown code", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/approve/student", bytes.NewBufferString(`{"code":"999999"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("pending approvals unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/approve/pending", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("pending approvals forbidden for student", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/approve/pending", nil)
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("pending approvals admin", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/approve/pending", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("attach evaluations as owner", func(t *testing.T) {
		payload := `{"evaluations":[{"percentage":60,"method":"final exam"},{"percentage":40,"method":"coursework"}]}`
		req, _ := http.NewRequest(http.MethodPost, "/outlines/outline-1/evaluation", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleLecturer))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("attach evaluations forbidden for student role", func(t *testing.T) {
		payload := `{"evaluations":[{"percentage":100,"method":"final exam"}]}`
		req, _ := http.NewRequest(http.MethodPost, "/outlines/outline-1/evaluation", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("attach evaluations rejects broken scheme", func(t *testing.T) {
		payload := `{"evaluations":[{"percentage":60,"method":"midterm"},{"percentage":60,"method":"final exam"}]}`
		req, _ := http.NewRequest(http.MethodPost, "/outlines/outline-1/evaluation", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleLecturer))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func buildWorkflowRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				AccountID: "test-account",
				Role:      models.AccountRole(role),
				ProfileID: "lect-1",
			})
		}
		c.Next()
	})

	approvalSvc := service.NewApprovalService(
		&approvalRepoIntegrationMock{},
		&studentReaderIntegrationMock{},
		&accountWriterIntegrationMock{},
		validator.New(), zap.NewNop())
	outlineSvc := service.NewOutlineService(
		&outlineRepoIntegrationMock{},
		&evaluationRepoIntegrationMock{},
		&courseRepoIntegrationMock{},
		nil, validator.New(), zap.NewNop(), 10)

	approvalHandler := NewApprovalHandler(approvalSvc)
	outlineHandler := NewOutlineHandler(outlineSvc, nil)

	adminOnly := internalmiddleware.RBAC(string(models.RoleAdmin))
	lecturerOnly := internalmiddleware.RBAC(string(models.RoleLecturer))

	router.POST("/approve/student", approvalHandler.Submit)
	router.GET("/approve/pending", adminOnly, approvalHandler.ListPending)
	router.POST("/outlines/:id/evaluation", lecturerOnly, outlineHandler.AddEvaluations)

	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type approvalRepoIntegrationMock struct{}

func (approvalRepoIntegrationMock) Create(ctx context.Context, approval *models.Approval) error {
	approval.ID = "app-1"
	return nil
}

func (approvalRepoIntegrationMock) FindByID(ctx context.Context, id string) (*models.Approval, error) {
	return nil, sql.ErrNoRows
}

func (approvalRepoIntegrationMock) ListPending(ctx context.Context) ([]models.Approval, error) {
	return []models.Approval{{ID: "app-1", StudentID: "student-1"}}, nil
}

func (approvalRepoIntegrationMock) Confirm(ctx context.Context, approval *models.Approval, account *models.Account) error {
	return nil
}

type studentReaderIntegrationMock struct{}

func (studentReaderIntegrationMock) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	if code == "000123" {
		return &models.Student{Person: models.Person{ID: "student-1", Code: code}}, nil
	}
	return nil, sql.ErrNoRows
}

type accountWriterIntegrationMock struct{}

func (accountWriterIntegrationMock) UpdateCredentials(ctx context.Context, id, passwordHash, avatar string) error {
	return nil
}

type outlineRepoIntegrationMock struct{}

func (outlineRepoIntegrationMock) List(ctx context.Context, filter models.OutlineFilter) ([]models.Outline, int, error) {
	return nil, 0, nil
}

func (outlineRepoIntegrationMock) FindByID(ctx context.Context, id string) (*models.Outline, error) {
	if id == "outline-1" {
		return &models.Outline{ID: id, LecturerID: "lect-1"}, nil
	}
	return nil, sql.ErrNoRows
}

func (outlineRepoIntegrationMock) ListApproved(ctx context.Context) ([]models.Outline, error) {
	return nil, nil
}

func (outlineRepoIntegrationMock) Create(ctx context.Context, outline *models.Outline) error {
	return nil
}

func (outlineRepoIntegrationMock) UpdateImage(ctx context.Context, id, image string) error {
	return nil
}

func (outlineRepoIntegrationMock) SetApproved(ctx context.Context, id string, approved bool) error {
	return nil
}

func (outlineRepoIntegrationMock) ListEvaluations(ctx context.Context, outlineID string) ([]models.Evaluation, error) {
	return nil, nil
}

func (outlineRepoIntegrationMock) AttachEvaluations(ctx context.Context, outlineID string, evaluationIDs []string) error {
	return nil
}

func (outlineRepoIntegrationMock) AttachCourses(ctx context.Context, outlineID string, courseIDs []string) error {
	return nil
}

type evaluationRepoIntegrationMock struct{}

func (evaluationRepoIntegrationMock) FindByPercentageAndMethod(ctx context.Context, percentage float64, method string) (*models.Evaluation, error) {
	return nil, sql.ErrNoRows
}

func (evaluationRepoIntegrationMock) Create(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.ID = "eval-" + evaluation.Method
	return nil
}

type courseRepoIntegrationMock struct{}

func (courseRepoIntegrationMock) FindByYear(ctx context.Context, year int) (*models.Course, error) {
	return nil, sql.ErrNoRows
}

func (courseRepoIntegrationMock) Create(ctx context.Context, course *models.Course) error {
	return nil
}
