// server/internal/api/routes/routes.go
package routes

import (
	"net/http"
	"slices"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/api/handlers"
	"magnova-scm-api-server/internal/api/middleware"
	"magnova-scm-api-server/internal/audit"
	"magnova-scm-api-server/internal/cascade"
	"magnova-scm-api-server/internal/identity"
	"magnova-scm-api-server/internal/inventory"
	"magnova-scm-api-server/internal/invoice"
	"magnova-scm-api-server/internal/logistics"
	"magnova-scm-api-server/internal/metrics"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/payment"
	"magnova-scm-api-server/internal/purchaseorder"
	"magnova-scm-api-server/internal/report"
	"magnova-scm-api-server/internal/sales"
	"magnova-scm-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	Identity  *identity.Service
	POs       *purchaseorder.Service
	Cascade   *cascade.Service
	Inventory *inventory.Service
	Payments  *payment.Service
	Logistics *logistics.Service
	Invoices  *invoice.Service
	Sales     *sales.Service
	Reports   *report.Service
	Audit     *audit.Recorder
	Hub       *socket.Hub
	Metrics   *metrics.Metrics
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("PATCH", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Authorization")
	cfg.AddExposeHeaders("Content-Disposition")
	return cfg
}

// SetupRouter wires every handler under /api.
func SetupRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(cors.New(corsConfig(d.Config.Server.CorsOrigins)))

	userHandler := &handlers.UserHandler{Identity: d.Identity}
	poHandler := &handlers.PurchaseOrderHandler{POs: d.POs, Cascade: d.Cascade}
	inventoryHandler := &handlers.InventoryHandler{Inventory: d.Inventory}
	paymentHandler := &handlers.PaymentHandler{Payments: d.Payments}
	shipmentHandler := &handlers.ShipmentHandler{Logistics: d.Logistics}
	invoiceHandler := &handlers.InvoiceHandler{Invoices: d.Invoices}
	salesHandler := &handlers.SalesOrderHandler{Sales: d.Sales}
	reportHandler := &handlers.ReportHandler{Reports: d.Reports, Audit: d.Audit}
	adminHandler := &handlers.AdminHandler{Reports: d.Reports}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Identity: d.Identity, Logger: d.Logger}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", userHandler.Register)
			authRoutes.POST("/login", userHandler.Login)
			authRoutes.GET("/me", middleware.Authenticate(d.Identity), userHandler.Me)
		}

		protected := api.Group("/")
		protected.Use(middleware.Authenticate(d.Identity))
		adminOnly := middleware.Authorize(models.RoleAdmin)

		pos := protected.Group("/purchase-orders")
		{
			pos.POST("", poHandler.Create)
			pos.GET("", poHandler.List)
			pos.GET("/:po_number", poHandler.Get)
			pos.POST("/:po_number/approve", middleware.Authorize(models.RoleApprover, models.RoleAdmin), poHandler.Decide)
			pos.GET("/:po_number/related-counts", poHandler.RelatedCounts)
			pos.DELETE("/:po_number", adminOnly, poHandler.Delete)
		}

		procurement := protected.Group("/procurement")
		{
			procurement.POST("", inventoryHandler.CreateProcurement)
			procurement.GET("", inventoryHandler.ListProcurement)
			procurement.DELETE("/:procurement_id", adminOnly, inventoryHandler.DeleteProcurement)
		}

		payments := protected.Group("/payments")
		{
			payments.POST("/internal", paymentHandler.CreateInternal)
			payments.POST("/external", paymentHandler.CreateExternal)
			payments.GET("/summary/:po_number", paymentHandler.Summary)
			payments.GET("", paymentHandler.List)
			payments.DELETE("/:payment_id", adminOnly, paymentHandler.Delete)
		}

		inventoryRoutes := protected.Group("/inventory")
		{
			inventoryRoutes.GET("/lookup/:imei", inventoryHandler.Lookup)
			inventoryRoutes.POST("/scan", inventoryHandler.Scan)
			inventoryRoutes.GET("", inventoryHandler.List)
			inventoryRoutes.GET("/:imei", inventoryHandler.Get)
			inventoryRoutes.DELETE("/:imei", adminOnly, inventoryHandler.Delete)
		}

		shipments := protected.Group("/logistics/shipments")
		{
			shipments.POST("", shipmentHandler.CreateShipment)
			shipments.GET("", shipmentHandler.GetShipments)
			shipments.PATCH("/:id/status", shipmentHandler.UpdateStatus)
			shipments.DELETE("/:id", adminOnly, shipmentHandler.DeleteShipment)
		}

		invoices := protected.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.List)
			invoices.DELETE("/:invoice_id", adminOnly, invoiceHandler.Delete)
		}

		salesOrders := protected.Group("/sales-orders")
		{
			salesOrders.POST("", salesHandler.Create)
			salesOrders.GET("", salesHandler.List)
			salesOrders.DELETE("/:so_number", adminOnly, salesHandler.Delete)
		}

		reports := protected.Group("/reports")
		{
			reports.GET("/dashboard", reportHandler.Dashboard)
			reports.GET("/po-summary", reportHandler.POSummary)
			reports.GET("/export/inventory", reportHandler.ExportInventory)
			reports.GET("/export/master", reportHandler.ExportMaster)
		}

		protected.GET("/audit-logs", reportHandler.AuditLogs)

		admin := protected.Group("/admin")
		admin.Use(adminOnly)
		{
			admin.POST("/reports/master/archive", adminHandler.ArchiveMasterReport)
		}
	}

	return router
}
