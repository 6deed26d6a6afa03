package costing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// Lot is the cost record created when goods are received. Its identity and
// cost never change after creation; only the remaining and written-off
// quantities move as stock is consumed.
type Lot struct {
	shared.BaseEntity
	ProductID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	ReceiptItemID uuid.UUID            `gorm:"type:uuid;not null;index"`
	InitialQty    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	RemainingQty  decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	WrittenOffQty decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	CostPerUnit   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	ReceivedAt    time.Time            `gorm:"not null;index"`
}

// NewLot creates a lot for a received receipt item
func NewLot(
	productID, receiptItemID uuid.UUID,
	quantity decimal.Decimal,
	costPerUnit decimal.Decimal,
	currency valueobject.Currency,
	receivedAt time.Time,
) (*Lot, error) {
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Lot quantity invalid: "+err.Error())
	}
	if costPerUnit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Lot cost per unit cannot be negative")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Lot{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		ReceiptItemID: receiptItemID,
		InitialQty:    quantity,
		RemainingQty:  quantity,
		WrittenOffQty: decimal.Zero,
		CostPerUnit:   costPerUnit,
		Currency:      currency,
		ReceivedAt:    receivedAt,
	}, nil
}

// HasStock returns true if the lot has remaining quantity
func (l *Lot) HasStock() bool {
	return l.RemainingQty.GreaterThan(decimal.Zero)
}

// AllocatedQty returns the quantity currently held by active allocations
func (l *Lot) AllocatedQty() decimal.Decimal {
	return l.InitialQty.Sub(l.RemainingQty).Sub(l.WrittenOffQty)
}

// RemainingValue returns the cost value of the remaining quantity
func (l *Lot) RemainingValue() decimal.Decimal {
	return l.RemainingQty.Mul(l.CostPerUnit)
}

// IsUntouched returns true if nothing has ever been consumed from the lot
func (l *Lot) IsUntouched() bool {
	return l.RemainingQty.Equal(l.InitialQty)
}

// Consume reduces the remaining quantity for an allocation.
// The remaining quantity never goes below zero.
func (l *Lot) Consume(quantity decimal.Decimal) error {
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Consume quantity invalid: "+err.Error())
	}
	if quantity.GreaterThan(l.RemainingQty) {
		return ErrInsufficientInventory
	}
	l.RemainingQty = l.RemainingQty.Sub(quantity)
	l.UpdatedAt = time.Now()
	return nil
}

// Restore returns previously allocated quantity to the lot (allocation
// reversal). The remaining quantity never exceeds the initial quantity.
func (l *Lot) Restore(quantity decimal.Decimal) error {
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Restore quantity invalid: "+err.Error())
	}
	restored := l.RemainingQty.Add(quantity)
	if restored.Add(l.WrittenOffQty).GreaterThan(l.InitialQty) {
		return shared.NewDomainError("INVALID_INPUT", "Restore would exceed lot initial quantity")
	}
	l.RemainingQty = restored
	l.UpdatedAt = time.Now()
	return nil
}

// WriteOff consumes quantity without an allocation record (damage, loss,
// marketplace disposal). Tracked separately so the lot ledger stays
// reconcilable against allocations.
func (l *Lot) WriteOff(quantity decimal.Decimal) error {
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Write-off quantity invalid: "+err.Error())
	}
	if quantity.GreaterThan(l.RemainingQty) {
		return ErrInsufficientInventory
	}
	l.RemainingQty = l.RemainingQty.Sub(quantity)
	l.WrittenOffQty = l.WrittenOffQty.Add(quantity)
	l.UpdatedAt = time.Now()
	return nil
}
