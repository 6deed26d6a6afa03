package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcosting "github.com/teploe-odealko/mp-flow-sub000/internal/application/costing"
	appreport "github.com/teploe-odealko/mp-flow-sub000/internal/application/report"
	"github.com/teploe-odealko/mp-flow-sub000/internal/interfaces/http/dto"
)

// ReportHandler handles reporting and reconciliation API endpoints
type ReportHandler struct {
	BaseHandler
	economics      *appreport.UnitEconomicsService
	reconciliation *appcosting.ReconciliationService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(
	economics *appreport.UnitEconomicsService,
	reconciliation *appcosting.ReconciliationService,
) *ReportHandler {
	return &ReportHandler{
		economics:      economics,
		reconciliation: reconciliation,
	}
}

// GetUnitEconomics returns the per-product unit economics report for a
// period: sold_at in [from, to)
// GET /api/v1/reports/unit-economics?from=...&to=...
func (h *ReportHandler) GetUnitEconomics(c *gin.Context) {
	var req dto.PeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	from, err := parsePeriodBound(req.From)
	if err != nil {
		h.BadRequest(c, "Invalid 'from' date, expected RFC 3339 or YYYY-MM-DD")
		return
	}
	to, err := parsePeriodBound(req.To)
	if err != nil {
		h.BadRequest(c, "Invalid 'to' date, expected RFC 3339 or YYYY-MM-DD")
		return
	}
	if !to.After(from) {
		h.BadRequest(c, "'to' must be after 'from'")
		return
	}

	result, err := h.economics.GetReport(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reconcile checks every product's lot ledger against its allocations
// POST /api/v1/reconciliation
func (h *ReportHandler) Reconcile(c *gin.Context) {
	result, err := h.reconciliation.CheckAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ReconcileProduct checks one product's lot ledger against its allocations
// POST /api/v1/reconciliation/:productId
func (h *ReportHandler) ReconcileProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	result, err := h.reconciliation.CheckProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// parsePeriodBound accepts RFC 3339 timestamps and bare dates
func parsePeriodBound(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
