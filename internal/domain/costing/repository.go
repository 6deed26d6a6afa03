package costing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
)

// LotRepository persists lots.
//
// Lots are row-level entities rather than children of the receipt
// aggregate: the allocation hot path loads and updates a product's lots
// without touching receipts.
type LotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	// FindByProduct returns all lots of a product in FIFO order
	// (received_at ascending, ties by lot ID)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error)
	// FindAvailableByProduct returns the product's lots with remaining
	// quantity, in FIFO order
	FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]*Lot, error)
	// FindByReceiptItemIDs returns the lots created from the given
	// receipt items
	FindByReceiptItemIDs(ctx context.Context, receiptItemIDs []uuid.UUID) ([]*Lot, error)
	// ListProductIDs returns the distinct product IDs that have lots
	ListProductIDs(ctx context.Context) ([]uuid.UUID, error)
	// Save creates or updates a lot
	Save(ctx context.Context, lot *Lot) error
	// SaveAll creates or updates multiple lots
	SaveAll(ctx context.Context, lots []*Lot) error
	// Delete removes a lot
	Delete(ctx context.Context, id uuid.UUID) error
}

// AllocationRepository persists allocations
type AllocationRepository interface {
	// FindByID finds an allocation by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Allocation, error)
	// FindByConsumerRef returns all allocations (active and reversed)
	// for a consumer reference
	FindByConsumerRef(ctx context.Context, consumerRef string) ([]*Allocation, error)
	// FindActiveByLotIDs returns active allocations referencing any of
	// the given lots
	FindActiveByLotIDs(ctx context.Context, lotIDs []uuid.UUID) ([]*Allocation, error)
	// FindByProduct returns all allocations of a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]*Allocation, error)
	// FindActiveInPeriod returns active allocations with allocated_at in
	// [from, to)
	FindActiveInPeriod(ctx context.Context, from, to time.Time) ([]*Allocation, error)
	// Save creates or updates an allocation
	Save(ctx context.Context, allocation *Allocation) error
	// SaveAll creates or updates multiple allocations
	SaveAll(ctx context.Context, allocations []*Allocation) error
}

// ReceiptRepository persists the receipt aggregate with its items and
// shared costs
type ReceiptRepository interface {
	// FindByID loads a receipt with items and shared costs
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	// FindByNumber loads a receipt by its business number
	FindByNumber(ctx context.Context, number string) (*Receipt, error)
	// FindAll returns receipts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Receipt, error)
	// Count counts receipts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save creates or updates a receipt with its children
	Save(ctx context.Context, receipt *Receipt) error
	// Delete removes a receipt
	Delete(ctx context.Context, id uuid.UUID) error
}
