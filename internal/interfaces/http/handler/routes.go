package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes registers receipt routes
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	receipts := rg.Group("/receipts")
	{
		receipts.POST("", h.Create)
		receipts.GET("", h.List)
		receipts.GET("/number/:number", h.GetByNumber)
		receipts.GET("/:id", h.Get)
		receipts.POST("/:id/receive", h.Receive)
		receipts.POST("/:id/unreceive", h.Unreceive)
		receipts.POST("/:id/cancel", h.Cancel)
		receipts.GET("/:id/lots", h.GetLots)
	}
}

// RegisterRoutes registers allocation and stock routes
func (h *AllocationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	allocations := rg.Group("/allocations")
	{
		allocations.POST("", h.Allocate)
		allocations.POST("/partial", h.AllocatePartial)
		allocations.GET("/:consumerRef", h.GetByConsumer)
		allocations.POST("/:consumerRef/reverse", h.Reverse)
	}

	stock := rg.Group("/stock")
	{
		stock.POST("/write-off", h.WriteOff)
		stock.GET("/:productId/summary", h.GetStockSummary)
		stock.GET("/:productId/lots", h.GetProductLots)
	}
}

// RegisterRoutes registers reporting and reconciliation routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/unit-economics", h.GetUnitEconomics)
	}

	reconciliation := rg.Group("/reconciliation")
	{
		reconciliation.POST("", h.Reconcile)
		reconciliation.POST("/:productId", h.ReconcileProduct)
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
		system.GET("/ping", h.Ping)
	}
}
