package costing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// Allocation records the consumption of quantity from a single lot on
// behalf of a consumer (typically a sales order line). One consumer
// reference may span several allocations when the FIFO walk crosses lot
// boundaries. The cost per unit is copied from the lot at allocation time.
type Allocation struct {
	shared.BaseEntity
	LotID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ConsumerRef string          `gorm:"type:varchar(128);not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AllocatedAt time.Time       `gorm:"not null;index"`
	Reversed    bool            `gorm:"not null;default:false;index"`
	ReversedAt  *time.Time
}

// NewAllocation creates an allocation against a lot. The total cost is the
// quantity times the lot's cost per unit, quantized to monetary precision.
func NewAllocation(
	lotID, productID uuid.UUID,
	consumerRef string,
	quantity, costPerUnit decimal.Decimal,
	allocatedAt time.Time,
) (*Allocation, error) {
	if consumerRef == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Consumer reference cannot be empty")
	}
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation quantity invalid: "+err.Error())
	}
	if costPerUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation cost per unit cannot be negative")
	}
	return &Allocation{
		BaseEntity:  shared.NewBaseEntity(),
		LotID:       lotID,
		ProductID:   productID,
		ConsumerRef: consumerRef,
		Quantity:    quantity,
		CostPerUnit: costPerUnit,
		TotalCost:   valueobject.QuantizeAmount(quantity.Mul(costPerUnit)),
		AllocatedAt: allocatedAt,
	}, nil
}

// IsActive returns true if the allocation still holds its quantity
func (a *Allocation) IsActive() bool {
	return !a.Reversed
}

// MarkReversed flags the allocation as compensated. Reversing twice is a
// no-op so compensation stays idempotent.
func (a *Allocation) MarkReversed(at time.Time) {
	if a.Reversed {
		return
	}
	a.Reversed = true
	a.ReversedAt = &at
	a.UpdatedAt = time.Now()
}
