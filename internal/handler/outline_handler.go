package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hcmou/course-outline-api/internal/models"
	"github.com/hcmou/course-outline-api/internal/service"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
	"github.com/hcmou/course-outline-api/pkg/response"
	"github.com/hcmou/course-outline-api/pkg/storage"
)

// OutlineHandler exposes the outline catalog and mutators.
type OutlineHandler struct {
	service *service.OutlineService
	media   *storage.MediaStore
}

// NewOutlineHandler creates a new handler.
func NewOutlineHandler(svc *service.OutlineService, media *storage.MediaStore) *OutlineHandler {
	return &OutlineHandler{service: svc, media: media}
}

// List godoc
// @Summary Search the outline catalog
// @Tags Outlines
// @Produce json
// @Param q query string false "Name search"
// @Param credit query int false "Credit filter"
// @Param lecturer query string false "Lecturer name filter"
// @Param year query int false "Course year filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /outlines [get]
func (h *OutlineHandler) List(c *gin.Context) {
	filter := models.OutlineFilter{
		Query:      c.Query("q"),
		Credit:     queryInt(c, "credit"),
		Lecturer:   c.Query("lecturer"),
		CourseYear: queryInt(c, "year"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "page_size"),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Outlines, &result.Pagination, map[string]interface{}{
		"cache_hit": result.CacheHit,
	})
}

// Get godoc
// @Summary Get an outline
// @Tags Outlines
// @Produce json
// @Param id path string true "Outline ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outlines/{id} [get]
func (h *OutlineHandler) Get(c *gin.Context) {
	outline, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outline, nil)
}

// Create godoc
// @Summary Create an outline draft
// @Tags Outlines
// @Accept json
// @Produce json
// @Param payload body service.CreateOutlineRequest true "Outline payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /outlines [post]
func (h *OutlineHandler) Create(c *gin.Context) {
	var req service.CreateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outline payload"))
		return
	}

	outline, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, outline)
}

// AddEvaluations godoc
// @Summary Attach grading components
// @Description Attach a batch of evaluations; the batch must complete the 100 percent budget
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param payload body service.AddEvaluationsRequest true "Evaluation batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outlines/{id}/evaluation [post]
func (h *OutlineHandler) AddEvaluations(c *gin.Context) {
	var req service.AddEvaluationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}

	evaluations, err := h.service.AddEvaluations(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, evaluations, nil)
}

// AddCourses godoc
// @Summary Attach intake years
// @Tags Outlines
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param payload body service.AddCoursesRequest true "Intake years"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outlines/{id}/course [post]
func (h *OutlineHandler) AddCourses(c *gin.Context) {
	var req service.AddCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	outline, err := h.service.AddCourses(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outline, nil)
}

// Approve godoc
// @Summary Approve an outline for publication
// @Tags Outlines
// @Produce json
// @Param id path string true "Outline ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outlines/{id}/approve [post]
func (h *OutlineHandler) Approve(c *gin.Context) {
	outline, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outline, nil)
}

// UploadImage godoc
// @Summary Upload an outline cover image
// @Tags Outlines
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Outline ID"
// @Param image formData file true "Cover image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /outlines/{id}/image [put]
func (h *OutlineHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "image file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	ref, err := h.media.SaveStream("outlines", fileHeader.Filename, file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to store upload"))
		return
	}

	outline, err := h.service.UpdateImage(c.Request.Context(), claimsFromContext(c), c.Param("id"), ref)
	if err != nil {
		// The row update failed; do not leave the orphaned file behind.
		_ = h.media.Delete(ref)
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outline, nil)
}

// Download godoc
// @Summary Download approved outlines
// @Description Export all approved outlines as CSV or PDF
// @Tags Outlines
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /outlines/download [get]
func (h *OutlineHandler) Download(c *gin.Context) {
	payload, contentType, err := h.service.Download(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("outlines-%s.%s", time.Now().UTC().Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
