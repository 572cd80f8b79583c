// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/purchase"
	"ayanna/internal/domain/reports"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/http/v1/dto"
	"ayanna/internal/infrastructure/http/v1/handlers"
	"ayanna/internal/infrastructure/http/v1/middleware"
	"ayanna/pkg/logger"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Sales      *sales.Service
	Accounting *accounting.Service
	Journals   handlers.JournalReader
	Stock      *stock.Service
	Purchase   *purchase.Service
	Catalog    *catalog.Service
	Reports    *reports.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool backs the readiness probe.
	Pool handlers.Pinger

	Logger   *logger.Logger
	Services Services

	// Idempotency replays mutating requests carrying an X-Idempotency-Key. Nil disables it.
	Idempotency middleware.IdempotencyKeys

	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string

	// Mode is the gin mode (debug, release, test).
	Mode    string
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Author())
	v1.Use(middleware.Idempotency(cfg.Idempotency))

	base := handlers.NewBaseHandler()
	svc := cfg.Services

	RegisterCartRoutes(v1.Group("/carts"), handlers.NewCartHandler(base, svc.Sales))
	registerAccountingRoutes(v1, handlers.NewAccountingHandler(base, svc.Accounting, svc.Journals))
	registerStockRoutes(v1, base, svc)
	registerCatalogRoutes(v1, handlers.NewCatalogHandler(base, svc.Catalog))
	registerReportRoutes(v1.Group("/reports"), handlers.NewReportsHandler(base, svc.Reports))

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) > 0 {
		c.AllowOrigins = origins
	} else {
		c.AllowAllOrigins = true
	}
	c.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	c.AddAllowHeaders("Origin", "Content-Type", "Authorization",
		middleware.HeaderUserID, middleware.HeaderEnterpriseID, middleware.HeaderIdempotencyKey,
		middleware.HeaderRequestID, middleware.HeaderTraceID)
	c.AddExposeHeaders("Content-Length", middleware.HeaderRequestID, middleware.HeaderTraceID)
	return c
}

// registerAccountingRoutes registers chart-of-accounts, POS configuration and journal endpoints.
func registerAccountingRoutes(rg *gin.RouterGroup, h *handlers.AccountingHandler) {
	rg.GET("/accounts", h.ListAccounts)
	rg.POST("/accounts", h.CreateAccount)
	rg.GET("/accounting/config/:posId", h.GetConfig)
	rg.PUT("/accounting/config/:posId", h.SaveConfig)
	rg.GET("/journals/:id", h.GetJournal)
}

// registerStockRoutes registers stock movement and purchase endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	stockHandler := handlers.NewStockHandler(base, svc.Stock)
	rg.POST("/stock/movements", stockHandler.ApplyMovement)
	rg.GET("/stock/lines", stockHandler.Lines)

	purchaseHandler := handlers.NewPurchaseHandler(base, svc.Purchase)
	rg.POST("/purchases", purchaseHandler.Receive)
}

// registerCatalogRoutes registers enterprise endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, h *handlers.CatalogHandler) {
	rg.GET("/enterprises/:id", h.GetEnterprise)
	rg.PUT("/enterprises/:id", h.UpdateEnterprise)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, h *handlers.ReportsHandler) {
	rg.GET("/orders", h.Orders)
	rg.GET("/orders/:module/:id", h.OrderDetail)
	rg.GET("/financials", h.Financials)
	rg.GET("/products", h.Products)
}
