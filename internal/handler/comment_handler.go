package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hcmou/course-outline-api/internal/service"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
	"github.com/hcmou/course-outline-api/pkg/response"
)

// CommentHandler exposes outline comments.
type CommentHandler struct {
	service *service.CommentService
}

// NewCommentHandler creates a new handler.
func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{service: svc}
}

// List godoc
// @Summary List comments on an outline
// @Tags Comments
// @Produce json
// @Param id path string true "Outline ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outlines/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	result, err := h.service.ListByOutline(c.Request.Context(), c.Param("id"), queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Comments, &result.Pagination)
}

// Create godoc
// @Summary Comment on an outline
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Outline ID"
// @Param payload body service.CommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outlines/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// Update godoc
// @Summary Edit a comment
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param payload body service.CommentRequest true "Comment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/{id} [patch]
func (h *CommentHandler) Update(c *gin.Context) {
	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	comment, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comment, nil)
}

// Delete godoc
// @Summary Delete a comment
// @Tags Comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
