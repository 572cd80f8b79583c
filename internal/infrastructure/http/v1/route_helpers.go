package v1

import (
	"github.com/gin-gonic/gin"
)

// CartRouteHandler defines the interface for cart handlers.
type CartRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	AddLine(c *gin.Context)
	RemoveLine(c *gin.Context)
	SetDiscount(c *gin.Context)
	SetTaxRate(c *gin.Context)
	Finalize(c *gin.Context)
	AcceptPayment(c *gin.Context)
	Allocation(c *gin.Context)
	Cancel(c *gin.Context)
}

// RegisterCartRoutes registers the cart lifecycle routes. Every route but Create is
// addressed by module and id, since the three modules keep separate tables.
func RegisterCartRoutes(group *gin.RouterGroup, handler CartRouteHandler) {
	group.POST("", handler.Create)

	cart := group.Group("/:module/:id")
	cart.GET("", handler.Get)
	cart.POST("/lines", handler.AddLine)
	cart.DELETE("/lines/:lineId", handler.RemoveLine)
	cart.PUT("/discount", handler.SetDiscount)
	cart.PUT("/tax-rate", handler.SetTaxRate)
	cart.POST("/finalize", handler.Finalize)
	cart.POST("/payments", handler.AcceptPayment)
	cart.GET("/allocation", handler.Allocation)
	cart.POST("/cancel", handler.Cancel)
}
