package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hcmou/course-outline-api/internal/service"
	appErrors "github.com/hcmou/course-outline-api/pkg/errors"
	"github.com/hcmou/course-outline-api/pkg/response"
)

// AccountHandler exposes lecturer registration and account approval.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler creates a new handler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// RegisterLecturer godoc
// @Summary Register a lecturer account
// @Description Lecturer signs up with their pre-provisioned code and own credentials
// @Tags Accounts
// @Accept json
// @Produce json
// @Param payload body service.RegisterLecturerRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /accounts/lecturer [post]
func (h *AccountHandler) RegisterLecturer(c *gin.Context) {
	var req service.RegisterLecturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	account, err := h.service.RegisterLecturer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, account)
}

// ListPending godoc
// @Summary List accounts awaiting approval
// @Tags Accounts
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /accounts/pending [get]
func (h *AccountHandler) ListPending(c *gin.Context) {
	accounts, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, accounts, nil)
}

// Confirm godoc
// @Summary Approve a pending account
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{id}/confirm [post]
func (h *AccountHandler) Confirm(c *gin.Context) {
	account, err := h.service.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, account, nil)
}
