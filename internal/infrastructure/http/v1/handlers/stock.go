package handlers

import (
	"github.com/gin-gonic/gin"

	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/http/v1/dto"
)

// StockHandler handles warehouse movements and stock lines.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// ApplyMovement handles POST /stock/movements
func (h *StockHandler) ApplyMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	movement, err := h.service.ApplyMovement(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, movement)
}

// Lines handles GET /stock/lines
//
// With productId the single line is returned; a product never stocked in the
// warehouse yields a zero line rather than 404.
func (h *StockHandler) Lines(c *gin.Context) {
	var q dto.StockLinesQuery
	if !h.BindQuery(c, &q) {
		return
	}
	warehouseID, err := dto.ParseID("warehouseId", q.WarehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	if q.ProductID != "" {
		productID, err := dto.ParseID("productId", q.ProductID)
		if err != nil {
			h.Error(c, err)
			return
		}
		line, err := h.service.Line(ctx, productID, warehouseID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, []stock.Line{line})
		return
	}

	lines, err := h.service.Lines(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lines)
}
