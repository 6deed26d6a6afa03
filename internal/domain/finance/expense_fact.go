package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// ExpenseCategory classifies an expense fact
type ExpenseCategory string

const (
	// ExpenseCategoryPurchase is the cost of received goods
	ExpenseCategoryPurchase ExpenseCategory = "PURCHASE"
	// ExpenseCategoryWriteOff is the cost of stock consumed without a sale
	ExpenseCategoryWriteOff ExpenseCategory = "WRITE_OFF"
)

// IsValid checks if the category is valid
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryPurchase, ExpenseCategoryWriteOff:
		return true
	}
	return false
}

// String returns the string representation
func (c ExpenseCategory) String() string {
	return string(c)
}

// Source types for expense facts
const (
	SourceTypeReceipt  = "receipt"
	SourceTypeWriteOff = "write_off"
)

// ExpenseFact is an accounting fact derived from a costing operation.
// Exactly one fact exists per source; compensation marks the fact
// reversed instead of deleting it so the trail stays auditable.
type ExpenseFact struct {
	shared.BaseAggregateRoot
	Category   ExpenseCategory      `gorm:"type:varchar(16);not null;index"`
	SourceType string               `gorm:"type:varchar(32);not null;uniqueIndex:idx_expense_source,priority:1"`
	SourceID   uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_expense_source,priority:2"`
	Amount     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency   valueobject.Currency `gorm:"type:varchar(3);not null"`
	Note       string               `gorm:"type:varchar(255)"`
	IncurredAt time.Time            `gorm:"not null;index"`
	Reversed   bool                 `gorm:"not null;default:false;index"`
	ReversedAt *time.Time
}

// NewExpenseFact creates a new expense fact
func NewExpenseFact(
	category ExpenseCategory,
	sourceType string,
	sourceID uuid.UUID,
	amount decimal.Decimal,
	currency valueobject.Currency,
	note string,
	incurredAt time.Time,
) (*ExpenseFact, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown expense category: "+string(category))
	}
	if sourceType == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expense source type cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expense amount cannot be negative")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return &ExpenseFact{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Category:          category,
		SourceType:        sourceType,
		SourceID:          sourceID,
		Amount:            amount,
		Currency:          currency,
		Note:              note,
		IncurredAt:        incurredAt,
	}, nil
}

// IsActive returns true if the fact still contributes to expenses
func (f *ExpenseFact) IsActive() bool {
	return !f.Reversed
}

// Reverse compensates the fact. Reversing twice is rejected.
func (f *ExpenseFact) Reverse(at time.Time) error {
	if f.Reversed {
		return shared.ErrInvalidState
	}
	f.Reversed = true
	f.ReversedAt = &at
	f.UpdatedAt = time.Now()
	return nil
}

// Reinstate reactivates a reversed fact with a fresh amount. Used when the
// source operation is redone after a compensation; the unique source index
// allows only one fact per source, so the row is reused.
func (f *ExpenseFact) Reinstate(amount decimal.Decimal, incurredAt time.Time) error {
	if !f.Reversed {
		return shared.ErrInvalidState
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Expense amount cannot be negative")
	}
	f.Amount = amount
	f.IncurredAt = incurredAt
	f.Reversed = false
	f.ReversedAt = nil
	f.UpdatedAt = time.Now()
	return nil
}

// ExpenseFactRepository persists expense facts
type ExpenseFactRepository interface {
	// FindByID finds an expense fact by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ExpenseFact, error)
	// FindBySource finds the fact created for a source, if any
	FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (*ExpenseFact, error)
	// FindActiveInPeriod returns active facts with incurred_at in [from, to)
	FindActiveInPeriod(ctx context.Context, from, to time.Time) ([]*ExpenseFact, error)
	// Save creates or updates an expense fact
	Save(ctx context.Context, fact *ExpenseFact) error
}
