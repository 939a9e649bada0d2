package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hcmou/course-outline-api/internal/service"
	"github.com/hcmou/course-outline-api/pkg/response"
)

// CatalogHandler exposes the reference collections.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListCourses godoc
// @Summary List intake years
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// ListCategories godoc
// @Summary List lesson categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, categories, nil)
}
