package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcosting "github.com/teploe-odealko/mp-flow-sub000/internal/application/costing"
)

// ReceiptHandler handles goods receipt API endpoints
type ReceiptHandler struct {
	BaseHandler
	service *appcosting.ReceivingService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(service *appcosting.ReceivingService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// Create creates a draft receipt with its items and shared costs
// POST /api/v1/receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req appcosting.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	receipt, err := h.service.CreateReceipt(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, receipt)
}

// Get returns a receipt by ID
// GET /api/v1/receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.service.GetReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// GetByNumber returns a receipt by its business number
// GET /api/v1/receipts/number/:number
func (h *ReceiptHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Receipt number is required")
		return
	}

	receipt, err := h.service.GetReceiptByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// List returns receipts matching the query filter
// GET /api/v1/receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	var filter appcosting.ReceiptListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	receipts, total, err := h.service.ListReceipts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, receipts, total, page, pageSize)
}

// Receive fixes the receipt's costs and creates its lots
// POST /api/v1/receipts/:id/receive
func (h *ReceiptHandler) Receive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	var req appcosting.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	receipt, err := h.service.Receive(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// Unreceive rolls a received receipt back to draft and removes its lots
// POST /api/v1/receipts/:id/unreceive
func (h *ReceiptHandler) Unreceive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.service.Unreceive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// Cancel abandons a draft receipt
// POST /api/v1/receipts/:id/cancel
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// GetLots returns the lots created by a received receipt
// GET /api/v1/receipts/:id/lots
func (h *ReceiptHandler) GetLots(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	lots, err := h.service.GetReceiptLots(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lots)
}
