package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// Discrepancy describes one way a lot's ledger failed to reconcile with
// its allocations
type Discrepancy struct {
	LotID     uuid.UUID       `json:"lot_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Code      string          `json:"code"`
	Expected  decimal.Decimal `json:"expected"`
	Actual    decimal.Decimal `json:"actual"`
	Detail    string          `json:"detail"`
}

// CheckLot verifies a lot against its allocations:
//   - remaining quantity is within [0, initial]
//   - initial - remaining - written_off equals the active allocation total
//   - every allocation's stored total cost matches its quantity times cost
//
// Only allocations belonging to the lot are considered.
func CheckLot(lot *Lot, allocations []*Allocation) []Discrepancy {
	discrepancies := make([]Discrepancy, 0)

	if lot.RemainingQty.IsNegative() {
		discrepancies = append(discrepancies, Discrepancy{
			LotID:     lot.ID,
			ProductID: lot.ProductID,
			Code:      ErrRoundingDrift.Code,
			Expected:  decimal.Zero,
			Actual:    lot.RemainingQty,
			Detail:    "remaining quantity below zero",
		})
	}
	if lot.RemainingQty.GreaterThan(lot.InitialQty) {
		discrepancies = append(discrepancies, Discrepancy{
			LotID:     lot.ID,
			ProductID: lot.ProductID,
			Code:      ErrRoundingDrift.Code,
			Expected:  lot.InitialQty,
			Actual:    lot.RemainingQty,
			Detail:    "remaining quantity above initial",
		})
	}

	activeQty := decimal.Zero
	for _, alloc := range allocations {
		if alloc.LotID != lot.ID {
			continue
		}
		if alloc.IsActive() {
			activeQty = activeQty.Add(alloc.Quantity)
		}
		expectedCost := valueobject.QuantizeAmount(alloc.Quantity.Mul(alloc.CostPerUnit))
		if !alloc.TotalCost.Equal(expectedCost) {
			discrepancies = append(discrepancies, Discrepancy{
				LotID:     lot.ID,
				ProductID: lot.ProductID,
				Code:      ErrRoundingDrift.Code,
				Expected:  expectedCost,
				Actual:    alloc.TotalCost,
				Detail:    "allocation " + alloc.ID.String() + " total cost drifted",
			})
		}
	}

	consumed := lot.InitialQty.Sub(lot.RemainingQty).Sub(lot.WrittenOffQty)
	if !consumed.Equal(activeQty) {
		discrepancies = append(discrepancies, Discrepancy{
			LotID:     lot.ID,
			ProductID: lot.ProductID,
			Code:      ErrRoundingDrift.Code,
			Expected:  consumed,
			Actual:    activeQty,
			Detail:    "active allocations do not account for consumed quantity",
		})
	}

	return discrepancies
}

// CheckProduct verifies all lots of a product against the product's
// allocations
func CheckProduct(lots []*Lot, allocations []*Allocation) []Discrepancy {
	discrepancies := make([]Discrepancy, 0)
	for _, lot := range lots {
		discrepancies = append(discrepancies, CheckLot(lot, allocations)...)
	}
	return discrepancies
}
