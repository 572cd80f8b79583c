package handlers

import (
	"github.com/gin-gonic/gin"

	"ayanna/internal/domain/purchase"
	"ayanna/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler records supplier deliveries.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Receive handles POST /purchases
func (h *PurchaseHandler) Receive(c *gin.Context) {
	var req dto.ReceivePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	receipt, err := h.service.Receive(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, receipt)
}
