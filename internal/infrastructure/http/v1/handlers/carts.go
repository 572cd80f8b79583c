package handlers

import (
	"github.com/gin-gonic/gin"

	"ayanna/internal/domain/sales"
	"ayanna/internal/infrastructure/http/v1/dto"
)

// CartHandler handles shop carts, restaurant carts and event reservations.
type CartHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(base *BaseHandler, service *sales.Service) *CartHandler {
	return &CartHandler{BaseHandler: base, service: service}
}

// Create handles POST /carts
func (h *CartHandler) Create(c *gin.Context) {
	var req dto.CreateCartRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	cart, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCart(cart))
}

// Get handles GET /carts/:module/:id
func (h *CartHandler) Get(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	cart, err := h.service.Get(c.Request.Context(), module, cartID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(cart))
}

// AddLine handles POST /carts/:module/:id/lines
func (h *CartHandler) AddLine(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	cart, err := h.service.AddLine(c.Request.Context(), module, cartID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromCart(cart))
}

// RemoveLine handles DELETE /carts/:module/:id/lines/:lineId
func (h *CartHandler) RemoveLine(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.PathID(c, "lineId")
	if !ok {
		return
	}

	cart, err := h.service.RemoveLine(c.Request.Context(), module, cartID, lineID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(cart))
}

// SetDiscount handles PUT /carts/:module/:id/discount
func (h *CartHandler) SetDiscount(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.DiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cart, err := h.service.SetDiscountPercent(c.Request.Context(), module, cartID, req.Percent)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(cart))
}

// SetTaxRate handles PUT /carts/:module/:id/tax-rate
func (h *CartHandler) SetTaxRate(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.TaxRateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cart, err := h.service.SetTaxRate(c.Request.Context(), module, cartID, req.Rate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(cart))
}

// Finalize handles POST /carts/:module/:id/finalize
func (h *CartHandler) Finalize(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.FinalizeRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	cart, err := h.service.Finalize(c.Request.Context(), module, cartID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(cart))
}

// AcceptPayment handles POST /carts/:module/:id/payments
func (h *CartHandler) AcceptPayment(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := h.service.AcceptPayment(c.Request.Context(), module, cartID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, payment)
}

// Allocation handles GET /carts/:module/:id/allocation
func (h *CartHandler) Allocation(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	alloc, err := h.service.PaymentAllocation(c.Request.Context(), module, cartID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, alloc)
}

// Cancel handles POST /carts/:module/:id/cancel
func (h *CartHandler) Cancel(c *gin.Context) {
	module, ok := h.PathModule(c)
	if !ok {
		return
	}
	cartID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	cart, err := h.service.Cancel(c.Request.Context(), module, cartID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCart(cart))
}
