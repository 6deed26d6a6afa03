package costing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// ReceiptStatus represents the lifecycle state of a receipt
type ReceiptStatus string

const (
	// ReceiptStatusDraft means the receipt is editable and has no lots
	ReceiptStatusDraft ReceiptStatus = "DRAFT"
	// ReceiptStatusReceived means unit costs are fixed and lots exist
	ReceiptStatusReceived ReceiptStatus = "RECEIVED"
	// ReceiptStatusCancelled means the receipt was abandoned in draft
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

// IsValid checks if the status is valid
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusReceived, ReceiptStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s ReceiptStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition to the target status is allowed
func (s ReceiptStatus) CanTransitionTo(target ReceiptStatus) bool {
	switch s {
	case ReceiptStatusDraft:
		return target == ReceiptStatusReceived || target == ReceiptStatusCancelled
	case ReceiptStatusReceived:
		return target == ReceiptStatusDraft
	default:
		return false
	}
}

// ReceiptItemStatus is the per-line delivery state. It is derived from the
// receipt status and the line's quantities, not stored.
type ReceiptItemStatus string

const (
	// ReceiptItemStatusPending means the line has not been received yet
	ReceiptItemStatusPending ReceiptItemStatus = "PENDING"
	// ReceiptItemStatusPartial means less than the ordered quantity arrived
	ReceiptItemStatusPartial ReceiptItemStatus = "PARTIAL"
	// ReceiptItemStatusReceived means the full ordered quantity arrived
	ReceiptItemStatusReceived ReceiptItemStatus = "RECEIVED"
	// ReceiptItemStatusCancelled means the line will never arrive
	ReceiptItemStatusCancelled ReceiptItemStatus = "CANCELLED"
)

// ReceiptItem is one product line on a receipt. Declared price, volume and
// weight are the apportionment weights; the cost fields are computed when
// the receipt is received.
type ReceiptItem struct {
	shared.BaseEntity
	ReceiptID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderedQty     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQty    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DeclaredPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitVolume     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitWeight     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IndividualCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	ApportionedCost decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// Status derives the line's delivery state. A zero-quantity line on a
// received receipt counts as cancelled: the receipt is closed and the goods
// never arrived.
func (i *ReceiptItem) Status(receiptStatus ReceiptStatus) ReceiptItemStatus {
	switch receiptStatus {
	case ReceiptStatusCancelled:
		return ReceiptItemStatusCancelled
	case ReceiptStatusReceived:
		switch {
		case !i.ReceivedQty.IsPositive():
			return ReceiptItemStatusCancelled
		case i.ReceivedQty.LessThan(i.OrderedQty):
			return ReceiptItemStatusPartial
		default:
			return ReceiptItemStatusReceived
		}
	default:
		return ReceiptItemStatusPending
	}
}

// ReceiptSharedCost is a receipt-level cost persisted alongside the items
type ReceiptSharedCost struct {
	shared.BaseEntity
	ReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(128);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method      ApportionMethod `gorm:"type:varchar(16);not null"`
}

// AsSharedCost converts the persisted row back to the apportioner input
func (c *ReceiptSharedCost) AsSharedCost() SharedCost {
	return SharedCost{Name: c.Name, TotalAmount: c.TotalAmount, Method: c.Method}
}

// Receipt is the aggregate root for goods receiving. Receiving fixes the
// unit cost of every item and spawns one lot per received line; rolling
// back to draft removes the lots again.
type Receipt struct {
	shared.BaseAggregateRoot
	Number      string               `gorm:"type:varchar(64);not null;uniqueIndex"`
	Supplier    string               `gorm:"type:varchar(255)"`
	Status      ReceiptStatus        `gorm:"type:varchar(16);not null;index"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	Items       []ReceiptItem        `gorm:"foreignKey:ReceiptID"`
	SharedCosts []ReceiptSharedCost  `gorm:"foreignKey:ReceiptID"`
	ReceivedAt  *time.Time
}

// NewReceipt creates a new draft receipt
func NewReceipt(number, supplier string, currency valueobject.Currency) (*Receipt, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receipt number cannot be empty")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &Receipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Supplier:          supplier,
		Status:            ReceiptStatusDraft,
		Currency:          currency,
		Items:             make([]ReceiptItem, 0),
		SharedCosts:       make([]ReceiptSharedCost, 0),
	}, nil
}

// AddItem adds a product line to a draft receipt
func (r *Receipt) AddItem(
	productID uuid.UUID,
	orderedQty, purchasePrice decimal.Decimal,
	declaredPrice, unitVolume, unitWeight, individualCost decimal.Decimal,
) error {
	if r.Status != ReceiptStatusDraft {
		return ErrInvalidReceiptState
	}
	if err := valueobject.ValidateQuantity(orderedQty); err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Ordered quantity invalid: "+err.Error())
	}
	if purchasePrice.IsNegative() || individualCost.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Item costs cannot be negative")
	}
	if declaredPrice.IsNegative() || unitVolume.IsNegative() || unitWeight.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Item weights cannot be negative")
	}
	r.Items = append(r.Items, ReceiptItem{
		BaseEntity:     shared.NewBaseEntity(),
		ReceiptID:      r.ID,
		ProductID:      productID,
		OrderedQty:     orderedQty,
		PurchasePrice:  purchasePrice,
		DeclaredPrice:  declaredPrice,
		UnitVolume:     unitVolume,
		UnitWeight:     unitWeight,
		IndividualCost: individualCost,
	})
	r.UpdatedAt = time.Now()
	return nil
}

// AddSharedCost attaches a receipt-level cost to a draft receipt
func (r *Receipt) AddSharedCost(name string, totalAmount decimal.Decimal, method ApportionMethod) error {
	if r.Status != ReceiptStatusDraft {
		return ErrInvalidReceiptState
	}
	cost, err := NewSharedCost(name, totalAmount, method)
	if err != nil {
		return err
	}
	r.SharedCosts = append(r.SharedCosts, ReceiptSharedCost{
		BaseEntity:  shared.NewBaseEntity(),
		ReceiptID:   r.ID,
		Name:        cost.Name,
		TotalAmount: cost.TotalAmount,
		Method:      cost.Method,
	})
	r.UpdatedAt = time.Now()
	return nil
}

// CanReceive returns true if the receipt can be received
func (r *Receipt) CanReceive() bool {
	return r.Status == ReceiptStatusDraft && len(r.Items) > 0
}

// Receive fixes the receipt's costs: every shared cost is apportioned over
// the received lines, each item's unit cost is computed, and the receipt
// moves to RECEIVED. receivedQtys overrides per item ID; items without an
// override receive their ordered quantity.
func (r *Receipt) Receive(receivedQtys map[uuid.UUID]decimal.Decimal, receivedAt time.Time) error {
	if !r.CanReceive() {
		return ErrInvalidReceiptState
	}

	for i := range r.Items {
		item := &r.Items[i]
		qty, ok := receivedQtys[item.ID]
		if !ok {
			qty = item.OrderedQty
		}
		if err := valueobject.ValidateNonNegativeQuantity(qty); err != nil {
			return shared.NewDomainError("INVALID_INPUT", "Received quantity invalid: "+err.Error())
		}
		item.ReceivedQty = qty
		item.ApportionedCost = decimal.Zero
	}

	// Shared costs spread only across lines that actually arrived
	receivedIdx := make([]int, 0, len(r.Items))
	apportionItems := make([]ApportionItem, 0, len(r.Items))
	for i := range r.Items {
		item := &r.Items[i]
		if !item.ReceivedQty.IsPositive() {
			continue
		}
		receivedIdx = append(receivedIdx, i)
		apportionItems = append(apportionItems, ApportionItem{
			Ref:           item.ID,
			Quantity:      item.ReceivedQty,
			DeclaredPrice: item.DeclaredPrice,
			UnitVolume:    item.UnitVolume,
			UnitWeight:    item.UnitWeight,
		})
	}
	if len(receivedIdx) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Receipt has no received quantity")
	}

	for _, sc := range r.SharedCosts {
		shares, err := Apportion(sc.AsSharedCost(), apportionItems)
		if err != nil {
			return err
		}
		for j, idx := range receivedIdx {
			r.Items[idx].ApportionedCost = r.Items[idx].ApportionedCost.Add(shares[j])
		}
	}

	for i := range r.Items {
		item := &r.Items[i]
		if !item.ReceivedQty.IsPositive() {
			item.UnitCost = decimal.Zero
			item.LineCost = decimal.Zero
			continue
		}
		raw := item.PurchasePrice.Mul(item.ReceivedQty).
			Add(item.IndividualCost).
			Add(item.ApportionedCost)
		item.LineCost = valueobject.QuantizeAmount(raw)
		item.UnitCost = valueobject.QuantizeAmount(raw.Div(item.ReceivedQty))
	}

	r.Status = ReceiptStatusReceived
	r.ReceivedAt = &receivedAt
	r.UpdatedAt = time.Now()
	r.AddDomainEvent(NewReceiptReceivedEvent(r.ID, r.Number, r.TotalCost(), r.Currency, len(receivedIdx), receivedAt))
	return nil
}

// ResetToDraft rolls a received receipt back to draft. The caller must
// have verified that none of the receipt's lots have been consumed and
// must delete the lots in the same transaction.
func (r *Receipt) ResetToDraft() error {
	if r.Status != ReceiptStatusReceived {
		return ErrInvalidReceiptState
	}
	for i := range r.Items {
		item := &r.Items[i]
		item.ReceivedQty = decimal.Zero
		item.ApportionedCost = decimal.Zero
		item.UnitCost = decimal.Zero
		item.LineCost = decimal.Zero
	}
	r.Status = ReceiptStatusDraft
	r.ReceivedAt = nil
	r.UpdatedAt = time.Now()
	r.AddDomainEvent(NewReceiptUnreceivedEvent(r.ID, r.Number))
	return nil
}

// Cancel abandons a draft receipt
func (r *Receipt) Cancel() error {
	if r.Status != ReceiptStatusDraft {
		return ErrInvalidReceiptState
	}
	r.Status = ReceiptStatusCancelled
	r.UpdatedAt = time.Now()
	r.AddDomainEvent(NewReceiptCancelledEvent(r.ID, r.Number))
	return nil
}

// TotalCost returns the sum of the received line costs
func (r *Receipt) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for i := range r.Items {
		total = total.Add(r.Items[i].LineCost)
	}
	return total
}

// ReceivedItems returns the items with received quantity, in receipt order
func (r *Receipt) ReceivedItems() []*ReceiptItem {
	items := make([]*ReceiptItem, 0, len(r.Items))
	for i := range r.Items {
		if r.Items[i].ReceivedQty.IsPositive() {
			items = append(items, &r.Items[i])
		}
	}
	return items
}
