package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hcmou/course-outline-api/internal/service"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
	"github.com/hcmou/course-outline-api/pkg/response"
)

// ApprovalHandler exposes the student signup approval workflow.
type ApprovalHandler struct {
	service *service.ApprovalService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Submit godoc
// @Summary Submit a signup request
// @Description Student requests an account using their pre-provisioned code
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body service.SubmitApprovalRequest true "Submit payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approve/student [post]
func (h *ApprovalHandler) Submit(c *gin.Context) {
	var req service.SubmitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	approval, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, approval)
}

// ListPending godoc
// @Summary List pending signup requests
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /approve/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	approvals, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, approvals, nil)
}

// Confirm godoc
// @Summary Confirm a signup request
// @Description Admin provisions the student account with assigned credentials
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body service.ConfirmApprovalRequest true "Credentials"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approve/{id}/confirm [post]
func (h *ApprovalHandler) Confirm(c *gin.Context) {
	var req service.ConfirmApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}

	account, err := h.service.Confirm(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, account)
}

// Activate godoc
// @Summary Activate the student profile
// @Description Student sets their own password and avatar after confirmation
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval ID"
// @Param payload body service.ActivateProfileRequest true "New credentials"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /approve/{id}/update [patch]
func (h *ApprovalHandler) Activate(c *gin.Context) {
	var req service.ActivateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activation payload"))
		return
	}

	if err := h.service.ActivateProfile(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
