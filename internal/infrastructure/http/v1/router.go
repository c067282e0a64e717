// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/allocation"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/valuation"
	"stockbook/internal/excel"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	// Pool is the database pool, used by health checks. Nil on the memory store.
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	Inventory *inventory.Service
	Valuation *valuation.Service
	Batch     *allocation.Batch
	Counter   handlers.SequenceCounter

	IntakeReader *excel.IntakeReader

	// OutputDir is where batch artifacts are written and served from.
	OutputDir string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	itemsHandler := handlers.NewItemsHandler(cfg.Inventory, cfg.IntakeReader)
	invoicesHandler := handlers.NewInvoicesHandler(cfg.Batch, cfg.OutputDir)
	reportsHandler := handlers.NewReportsHandler(cfg.Inventory, cfg.Valuation)
	settingsHandler := handlers.NewSettingsHandler(cfg.Counter)

	v1 := router.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.GET("", itemsHandler.List)
			items.POST("", itemsHandler.Create)
			items.POST("/import", itemsHandler.Import)
			items.GET("/:id", itemsHandler.Get)
			items.PUT("/:id", itemsHandler.Update)
			items.DELETE("/:id", itemsHandler.Delete)
			items.GET("/:id/usage", itemsHandler.Usage)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("/process", invoicesHandler.Process)
			invoices.GET("/artifacts/:name", invoicesHandler.Artifact)
		}

		v1.GET("/usage", reportsHandler.Usage)
		v1.GET("/valuation", reportsHandler.Valuation)

		settings := v1.Group("/settings")
		{
			settings.GET("/sequence", settingsHandler.GetSequence)
			settings.PUT("/sequence", settingsHandler.SetSequence)
		}
	}

	return router
}
