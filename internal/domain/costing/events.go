package costing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// Event types
const (
	EventTypeReceiptReceived    = "costing.receipt.received"
	EventTypeReceiptUnreceived  = "costing.receipt.unreceived"
	EventTypeReceiptCancelled   = "costing.receipt.cancelled"
	EventTypeStockAllocated     = "costing.stock.allocated"
	EventTypeAllocationReversed = "costing.allocation.reversed"
	EventTypeStockWrittenOff    = "costing.stock.written_off"
)

// ReceiptReceivedEvent is raised when a draft receipt is received and its
// lots are created. The total cost feeds the purchase expense fact.
type ReceiptReceivedEvent struct {
	shared.BaseDomainEvent
	ReceiptID  uuid.UUID            `json:"receipt_id"`
	Number     string               `json:"number"`
	TotalCost  decimal.Decimal      `json:"total_cost"`
	Currency   valueobject.Currency `json:"currency"`
	LotCount   int                  `json:"lot_count"`
	ReceivedAt time.Time            `json:"received_at"`
}

// NewReceiptReceivedEvent creates a new ReceiptReceivedEvent
func NewReceiptReceivedEvent(receiptID uuid.UUID, number string, totalCost decimal.Decimal, currency valueobject.Currency, lotCount int, receivedAt time.Time) *ReceiptReceivedEvent {
	return &ReceiptReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptReceived, "Receipt", receiptID),
		ReceiptID:       receiptID,
		Number:          number,
		TotalCost:       totalCost,
		Currency:        currency,
		LotCount:        lotCount,
		ReceivedAt:      receivedAt,
	}
}

// ReceiptUnreceivedEvent is raised when a received receipt is rolled back
// to draft and its lots are removed
type ReceiptUnreceivedEvent struct {
	shared.BaseDomainEvent
	ReceiptID uuid.UUID `json:"receipt_id"`
	Number    string    `json:"number"`
}

// NewReceiptUnreceivedEvent creates a new ReceiptUnreceivedEvent
func NewReceiptUnreceivedEvent(receiptID uuid.UUID, number string) *ReceiptUnreceivedEvent {
	return &ReceiptUnreceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptUnreceived, "Receipt", receiptID),
		ReceiptID:       receiptID,
		Number:          number,
	}
}

// ReceiptCancelledEvent is raised when a draft receipt is cancelled
type ReceiptCancelledEvent struct {
	shared.BaseDomainEvent
	ReceiptID uuid.UUID `json:"receipt_id"`
	Number    string    `json:"number"`
}

// NewReceiptCancelledEvent creates a new ReceiptCancelledEvent
func NewReceiptCancelledEvent(receiptID uuid.UUID, number string) *ReceiptCancelledEvent {
	return &ReceiptCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptCancelled, "Receipt", receiptID),
		ReceiptID:       receiptID,
		Number:          number,
	}
}

// StockAllocatedEvent is raised after a successful FIFO allocation
type StockAllocatedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	ConsumerRef string          `json:"consumer_ref"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// NewStockAllocatedEvent creates a new StockAllocatedEvent
func NewStockAllocatedEvent(productID uuid.UUID, consumerRef string, quantity, totalCost, shortfall decimal.Decimal) *StockAllocatedEvent {
	return &StockAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAllocated, "Allocation", productID),
		ProductID:       productID,
		ConsumerRef:     consumerRef,
		Quantity:        quantity,
		TotalCost:       totalCost,
		Shortfall:       shortfall,
	}
}

// AllocationReversedEvent is raised when a consumer's allocations are
// compensated and their quantity returned to the lots
type AllocationReversedEvent struct {
	shared.BaseDomainEvent
	ProductID        uuid.UUID       `json:"product_id"`
	ConsumerRef      string          `json:"consumer_ref"`
	RestoredQuantity decimal.Decimal `json:"restored_quantity"`
}

// NewAllocationReversedEvent creates a new AllocationReversedEvent
func NewAllocationReversedEvent(productID uuid.UUID, consumerRef string, restoredQuantity decimal.Decimal) *AllocationReversedEvent {
	return &AllocationReversedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAllocationReversed, "Allocation", productID),
		ProductID:        productID,
		ConsumerRef:      consumerRef,
		RestoredQuantity: restoredQuantity,
	}
}

// StockWrittenOffEvent is raised when stock is consumed without an
// allocation record. The consumed cost feeds the write-off expense fact.
type StockWrittenOffEvent struct {
	shared.BaseDomainEvent
	WriteOffID uuid.UUID            `json:"write_off_id"`
	ProductID  uuid.UUID            `json:"product_id"`
	Reason     string               `json:"reason"`
	Quantity   decimal.Decimal      `json:"quantity"`
	TotalCost  decimal.Decimal      `json:"total_cost"`
	Currency   valueobject.Currency `json:"currency"`
}

// NewStockWrittenOffEvent creates a new StockWrittenOffEvent
func NewStockWrittenOffEvent(writeOffID, productID uuid.UUID, reason string, quantity, totalCost decimal.Decimal, currency valueobject.Currency) *StockWrittenOffEvent {
	return &StockWrittenOffEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockWrittenOff, "Lot", productID),
		WriteOffID:      writeOffID,
		ProductID:       productID,
		Reason:          reason,
		Quantity:        quantity,
		TotalCost:       totalCost,
		Currency:        currency,
	}
}
