package costing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
)

// CreateReceiptRequest represents a request to create a draft receipt
type CreateReceiptRequest struct {
	Number      string                     `json:"number" binding:"required,min=1,max=64"`
	Supplier    string                     `json:"supplier" binding:"max=255"`
	Currency    string                     `json:"currency" binding:"omitempty,len=3"`
	Items       []ReceiptItemRequest       `json:"items" binding:"omitempty,dive"`
	SharedCosts []ReceiptSharedCostRequest `json:"shared_costs" binding:"omitempty,dive"`
}

// ReceiptItemRequest represents one product line of a receipt
type ReceiptItemRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	OrderedQty     decimal.Decimal `json:"ordered_qty" binding:"required"`
	PurchasePrice  decimal.Decimal `json:"purchase_price" binding:"required"`
	DeclaredPrice  decimal.Decimal `json:"declared_price"`
	UnitVolume     decimal.Decimal `json:"unit_volume"`
	UnitWeight     decimal.Decimal `json:"unit_weight"`
	IndividualCost decimal.Decimal `json:"individual_cost"`
}

// ReceiptSharedCostRequest represents a receipt-level cost to apportion
type ReceiptSharedCostRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=128"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
	Method      string          `json:"method" binding:"required,oneof=equal by_price by_volume by_weight"`
}

// ReceiveRequest represents a request to receive a draft receipt.
// Lines override the received quantity per item; items without an override
// are received in full.
type ReceiveRequest struct {
	Lines      []ReceiveLineRequest `json:"lines" binding:"omitempty,dive"`
	ReceivedAt *time.Time           `json:"received_at"`
}

// ReceiveLineRequest overrides the received quantity of one receipt item
type ReceiveLineRequest struct {
	ItemID      uuid.UUID       `json:"item_id" binding:"required"`
	ReceivedQty decimal.Decimal `json:"received_qty"`
}

// ReceiptListFilter represents filter options for the receipt list
type ReceiptListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT RECEIVED CANCELLED"`
	Supplier string `form:"supplier"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID          uuid.UUID                   `json:"id"`
	Number      string                      `json:"number"`
	Supplier    string                      `json:"supplier"`
	Status      string                      `json:"status"`
	Currency    string                      `json:"currency"`
	Items       []ReceiptItemResponse       `json:"items"`
	SharedCosts []ReceiptSharedCostResponse `json:"shared_costs"`
	TotalCost   decimal.Decimal             `json:"total_cost"`
	ReceivedAt  *time.Time                  `json:"received_at,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Version     int                         `json:"version"`
}

// ReceiptItemResponse represents a receipt line in API responses
type ReceiptItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Status          string          `json:"status"`
	OrderedQty      decimal.Decimal `json:"ordered_qty"`
	ReceivedQty     decimal.Decimal `json:"received_qty"`
	PurchasePrice   decimal.Decimal `json:"purchase_price"`
	DeclaredPrice   decimal.Decimal `json:"declared_price"`
	UnitVolume      decimal.Decimal `json:"unit_volume"`
	UnitWeight      decimal.Decimal `json:"unit_weight"`
	IndividualCost  decimal.Decimal `json:"individual_cost"`
	ApportionedCost decimal.Decimal `json:"apportioned_cost"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LineCost        decimal.Decimal `json:"line_cost"`
}

// ReceiptSharedCostResponse represents a receipt-level cost in API responses
type ReceiptSharedCostResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Method      string          `json:"method"`
}

// ToReceiptResponse converts a receipt aggregate to its response
func ToReceiptResponse(r *costing.Receipt) ReceiptResponse {
	items := make([]ReceiptItemResponse, 0, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		items = append(items, ReceiptItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Status:          string(item.Status(r.Status)),
			OrderedQty:      item.OrderedQty,
			ReceivedQty:     item.ReceivedQty,
			PurchasePrice:   item.PurchasePrice,
			DeclaredPrice:   item.DeclaredPrice,
			UnitVolume:      item.UnitVolume,
			UnitWeight:      item.UnitWeight,
			IndividualCost:  item.IndividualCost,
			ApportionedCost: item.ApportionedCost,
			UnitCost:        item.UnitCost,
			LineCost:        item.LineCost,
		})
	}
	costs := make([]ReceiptSharedCostResponse, 0, len(r.SharedCosts))
	for i := range r.SharedCosts {
		sc := &r.SharedCosts[i]
		costs = append(costs, ReceiptSharedCostResponse{
			ID:          sc.ID,
			Name:        sc.Name,
			TotalAmount: sc.TotalAmount,
			Method:      sc.Method.String(),
		})
	}
	return ReceiptResponse{
		ID:          r.ID,
		Number:      r.Number,
		Supplier:    r.Supplier,
		Status:      r.Status.String(),
		Currency:    string(r.Currency),
		Items:       items,
		SharedCosts: costs,
		TotalCost:   r.TotalCost(),
		ReceivedAt:  r.ReceivedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Version:     r.Version,
	}
}

// ToReceiptResponses converts a receipt slice to responses
func ToReceiptResponses(receipts []costing.Receipt) []ReceiptResponse {
	responses := make([]ReceiptResponse, 0, len(receipts))
	for i := range receipts {
		responses = append(responses, ToReceiptResponse(&receipts[i]))
	}
	return responses
}

// AllocateRequest represents a request to allocate stock to a consumer
type AllocateRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ConsumerRef string          `json:"consumer_ref" binding:"required,min=1,max=128"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// WriteOffRequest represents a request to write off stock
type WriteOffRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reason    string          `json:"reason" binding:"required,min=1,max=255"`
}

// AllocationResponse represents one allocation record in API responses
type AllocationResponse struct {
	ID          uuid.UUID       `json:"id"`
	LotID       uuid.UUID       `json:"lot_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ConsumerRef string          `json:"consumer_ref"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	AllocatedAt time.Time       `json:"allocated_at"`
	Reversed    bool            `json:"reversed"`
	ReversedAt  *time.Time      `json:"reversed_at,omitempty"`
}

// ToAllocationResponses converts allocation records to responses
func ToAllocationResponses(allocations []*costing.Allocation) []AllocationResponse {
	responses := make([]AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		responses = append(responses, AllocationResponse{
			ID:          a.ID,
			LotID:       a.LotID,
			ProductID:   a.ProductID,
			ConsumerRef: a.ConsumerRef,
			Quantity:    a.Quantity,
			CostPerUnit: a.CostPerUnit,
			TotalCost:   a.TotalCost,
			AllocatedAt: a.AllocatedAt,
			Reversed:    a.Reversed,
			ReversedAt:  a.ReversedAt,
		})
	}
	return responses
}

// AllocationResultResponse represents the outcome of an allocation
type AllocationResultResponse struct {
	ProductID           uuid.UUID            `json:"product_id"`
	ConsumerRef         string               `json:"consumer_ref"`
	Allocations         []AllocationResponse `json:"allocations"`
	TotalQuantity       decimal.Decimal      `json:"total_quantity"`
	TotalCost           decimal.Decimal      `json:"total_cost"`
	WeightedAverageCost decimal.Decimal      `json:"weighted_average_cost"`
	Shortfall           decimal.Decimal      `json:"shortfall"`
	FullyFulfilled      bool                 `json:"fully_fulfilled"`
}

// ReverseResultResponse represents the outcome of an allocation reversal
type ReverseResultResponse struct {
	ConsumerRef      string          `json:"consumer_ref"`
	RestoredQuantity decimal.Decimal `json:"restored_quantity"`
	ReversedCount    int             `json:"reversed_count"`
}

// WriteOffResultResponse represents the outcome of a stock write-off
type WriteOffResultResponse struct {
	WriteOffID uuid.UUID       `json:"write_off_id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Reason     string          `json:"reason"`
}

// StockSummaryResponse represents a product's current stock position
type StockSummaryResponse struct {
	ProductID           uuid.UUID       `json:"product_id"`
	AvailableQuantity   decimal.Decimal `json:"available_quantity"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	LotCount            int             `json:"lot_count"`
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ReceiptItemID uuid.UUID       `json:"receipt_item_id"`
	InitialQty    decimal.Decimal `json:"initial_qty"`
	RemainingQty  decimal.Decimal `json:"remaining_qty"`
	WrittenOffQty decimal.Decimal `json:"written_off_qty"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	Currency      string          `json:"currency"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// ToLotResponses converts lots to responses
func ToLotResponses(lots []*costing.Lot) []LotResponse {
	responses := make([]LotResponse, 0, len(lots))
	for _, lot := range lots {
		responses = append(responses, LotResponse{
			ID:            lot.ID,
			ProductID:     lot.ProductID,
			ReceiptItemID: lot.ReceiptItemID,
			InitialQty:    lot.InitialQty,
			RemainingQty:  lot.RemainingQty,
			WrittenOffQty: lot.WrittenOffQty,
			CostPerUnit:   lot.CostPerUnit,
			Currency:      string(lot.Currency),
			ReceivedAt:    lot.ReceivedAt,
		})
	}
	return responses
}

// DiscrepancyResponse represents one reconciliation finding
type DiscrepancyResponse struct {
	LotID     uuid.UUID       `json:"lot_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Code      string          `json:"code"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
	Detail    string          `json:"detail"`
}

// ReconciliationResponse represents the outcome of a reconciliation sweep
type ReconciliationResponse struct {
	CheckedProducts int                   `json:"checked_products"`
	CheckedLots     int                   `json:"checked_lots"`
	Discrepancies   []DiscrepancyResponse `json:"discrepancies"`
	Clean           bool                  `json:"clean"`
}
