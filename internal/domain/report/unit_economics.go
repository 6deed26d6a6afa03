package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// FeeType classifies a marketplace fee attached to a sale
type FeeType string

const (
	FeeTypeCommission  FeeType = "commission"
	FeeTypeFulfillment FeeType = "fulfillment"
	FeeTypeDelivery    FeeType = "delivery"
	FeeTypeAcquiring   FeeType = "acquiring"
	FeeTypeOther       FeeType = "other"
)

// SaleFact is a recognized sale delivered by the sales pipeline. Facts are
// written by external collaborators; this module only reads them. A sale
// cancelled after recognition keeps its row but is flagged, and flagged
// sales contribute nothing to the report.
type SaleFact struct {
	shared.BaseEntity
	ProductID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ConsumerRef string               `gorm:"type:varchar(128);not null;index"`
	Quantity    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Revenue     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency    valueobject.Currency `gorm:"type:varchar(3);not null"`
	SoldAt      time.Time            `gorm:"not null;index"`
	Cancelled   bool                 `gorm:"not null;default:false"`
	Fees        []SaleFee            `gorm:"foreignKey:SaleFactID"`
}

// TotalFees returns the sum of the sale's fees
func (s *SaleFact) TotalFees() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Fees {
		total = total.Add(s.Fees[i].Amount)
	}
	return total
}

// SaleFee is one fee line attached to a sale fact
type SaleFee struct {
	shared.BaseEntity
	SaleFactID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type       FeeType         `gorm:"type:varchar(32);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// SalesFactProvider is the read port into the sales pipeline's fact store.
// Cancelled sales are filtered out at the source.
type SalesFactProvider interface {
	// FindInPeriod returns non-cancelled sale facts with sold_at in [from, to)
	FindInPeriod(ctx context.Context, from, to time.Time) ([]*SaleFact, error)
	// FindByConsumerRefs returns sale facts for the given consumer refs
	FindByConsumerRefs(ctx context.Context, consumerRefs []string) ([]*SaleFact, error)
}

// ProductEconomics is one product row of the unit economics report
type ProductEconomics struct {
	ProductID    uuid.UUID                   `json:"product_id"`
	UnitsSold    decimal.Decimal             `json:"units_sold"`
	Revenue      decimal.Decimal             `json:"revenue"`
	COGS         decimal.Decimal             `json:"cogs"`
	Fees         map[FeeType]decimal.Decimal `json:"fees"`
	TotalFees    decimal.Decimal             `json:"total_fees"`
	GrossProfit  decimal.Decimal             `json:"gross_profit"`
	MarginPct    decimal.Decimal             `json:"margin_pct"`
	ProfitPerSKU decimal.Decimal             `json:"profit_per_unit"`
}

// ProfitLossSummary is the period totals of the unit economics report
type ProfitLossSummary struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Revenue         decimal.Decimal `json:"revenue"`
	COGS            decimal.Decimal `json:"cogs"`
	Fees            decimal.Decimal `json:"fees"`
	WriteOffs       decimal.Decimal `json:"write_offs"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	OperatingProfit decimal.Decimal `json:"operating_profit"`
}

// UnitEconomicsReport joins per-product rows with the period summary
type UnitEconomicsReport struct {
	Products []ProductEconomics `json:"products"`
	Summary  ProfitLossSummary  `json:"summary"`
}
