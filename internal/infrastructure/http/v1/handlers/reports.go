package handlers

import (
	"github.com/gin-gonic/gin"

	"ayanna/internal/domain/reports"
	"ayanna/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Orders handles GET /reports/orders
func (h *ReportsHandler) Orders(c *gin.Context) {
	var q dto.OrdersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	orders, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, orders)
}

// OrderDetail handles GET /reports/orders/:module/:id
func (h *ReportsHandler) OrderDetail(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.OrderDetail(c.Request.Context(), module, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// Financials handles GET /reports/financials
func (h *ReportsHandler) Financials(c *gin.Context) {
	var q dto.PeriodQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to, err := q.Range()
	if err != nil {
		h.Error(c, err)
		return
	}

	fin, err := h.service.PeriodFinancials(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, fin)
}

// Products handles GET /reports/products
func (h *ReportsHandler) Products(c *gin.Context) {
	var q dto.ProductsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.service.ProductsSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rows)
}
