package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcosting "github.com/teploe-odealko/mp-flow-sub000/internal/application/costing"
)

// AllocationHandler handles stock allocation API endpoints
type AllocationHandler struct {
	BaseHandler
	service *appcosting.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(service *appcosting.AllocationService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// Allocate consumes stock FIFO for a consumer, all-or-nothing
// POST /api/v1/allocations
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req appcosting.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.service.Allocate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// AllocatePartial consumes as much stock as is available and reports the
// shortfall instead of failing
// POST /api/v1/allocations/partial
func (h *AllocationHandler) AllocatePartial(c *gin.Context) {
	var req appcosting.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.service.AllocatePartial(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByConsumer returns the allocations recorded for a consumer reference
// GET /api/v1/allocations/:consumerRef
func (h *AllocationHandler) GetByConsumer(c *gin.Context) {
	consumerRef := c.Param("consumerRef")
	if consumerRef == "" {
		h.BadRequest(c, "Consumer reference is required")
		return
	}

	allocations, err := h.service.GetAllocations(c.Request.Context(), consumerRef)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, allocations)
}

// Reverse returns a consumer's allocated stock to its lots
// POST /api/v1/allocations/:consumerRef/reverse
func (h *AllocationHandler) Reverse(c *gin.Context) {
	consumerRef := c.Param("consumerRef")
	if consumerRef == "" {
		h.BadRequest(c, "Consumer reference is required")
		return
	}

	result, err := h.service.Reverse(c.Request.Context(), consumerRef)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// WriteOff removes stock without a consumer (damage, loss, disposal)
// POST /api/v1/stock/write-off
func (h *AllocationHandler) WriteOff(c *gin.Context) {
	var req appcosting.WriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.service.WriteOff(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetStockSummary returns a product's available quantity and weighted
// average cost
// GET /api/v1/stock/:productId/summary
func (h *AllocationHandler) GetStockSummary(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	summary, err := h.service.GetStockSummary(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetProductLots returns a product's lots in consumption order
// GET /api/v1/stock/:productId/lots
func (h *AllocationHandler) GetProductLots(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	lots, err := h.service.GetProductLots(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lots)
}
