package handlers

import (
	"github.com/gin-gonic/gin"

	"ayanna/internal/domain/catalog"
	"ayanna/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves enterprise settings.
type CatalogHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// GetEnterprise handles GET /enterprises/:id
func (h *CatalogHandler) GetEnterprise(c *gin.Context) {
	enterpriseID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.Enterprise(c.Request.Context(), enterpriseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromEnterprise(e))
}

// UpdateEnterprise handles PUT /enterprises/:id
func (h *CatalogHandler) UpdateEnterprise(c *gin.Context) {
	enterpriseID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateEnterpriseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	current, err := h.service.Enterprise(ctx, enterpriseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	updated := *current
	req.Apply(&updated)

	if err := h.service.UpdateEnterprise(ctx, &updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromEnterprise(&updated))
}
