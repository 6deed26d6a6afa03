package costing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// LotDraw is a planned consumption from a single lot
type LotDraw struct {
	LotID       uuid.UUID       // lot the quantity is drawn from
	Quantity    decimal.Decimal // quantity drawn
	CostPerUnit decimal.Decimal // lot's cost per unit
	TotalCost   decimal.Decimal // quantized quantity * cost per unit
	Exhausted   bool            // true if the draw empties the lot
}

// AllocationPlan is the computed result of a FIFO walk before it is
// applied to the lots
type AllocationPlan struct {
	Draws               []LotDraw
	TotalQuantity       decimal.Decimal
	TotalCost           decimal.Decimal
	WeightedAverageCost decimal.Decimal
	Shortfall           decimal.Decimal // requested quantity that could not be planned
	FullyFulfilled      bool
}

// SortLotsFIFO orders lots oldest first by received time, ties broken by
// lot ID so the walk is deterministic
func SortLotsFIFO(lots []*Lot) {
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].ReceivedAt.Equal(lots[j].ReceivedAt) {
			return lots[i].ReceivedAt.Before(lots[j].ReceivedAt)
		}
		return lots[i].ID.String() < lots[j].ID.String()
	})
}

// AvailableQuantity returns the total remaining quantity across lots
func AvailableQuantity(lots []*Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.RemainingQty)
	}
	return total
}

// WeightedAverageCost returns the remaining-quantity-weighted average cost
// per unit across lots. Zero stock yields zero.
func WeightedAverageCost(lots []*Lot) decimal.Decimal {
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, lot := range lots {
		if !lot.HasStock() {
			continue
		}
		totalQty = totalQty.Add(lot.RemainingQty)
		totalValue = totalValue.Add(lot.RemainingValue())
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalValue.Div(totalQty).Round(4)
}

// AllocationEngine plans and applies FIFO consumption over a product's
// lots. It is a pure domain service: the caller loads the lots, holds the
// product lock and persists the outcome.
type AllocationEngine struct{}

// NewAllocationEngine creates a new allocation engine
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// Plan walks the lots in FIFO order and computes the draws for the
// requested quantity. In strict mode an insufficient total is rejected
// before anything is drawn; otherwise the plan covers what is available
// and reports the shortfall.
func (e *AllocationEngine) Plan(lots []*Lot, quantity decimal.Decimal, strict bool) (*AllocationPlan, error) {
	if err := valueobject.ValidateQuantity(quantity); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Requested quantity invalid: "+err.Error())
	}

	sorted := make([]*Lot, len(lots))
	copy(sorted, lots)
	SortLotsFIFO(sorted)

	if strict && AvailableQuantity(sorted).LessThan(quantity) {
		return nil, ErrInsufficientInventory
	}

	plan := &AllocationPlan{Draws: make([]LotDraw, 0, len(sorted))}
	remaining := quantity
	for _, lot := range sorted {
		if remaining.IsZero() {
			break
		}
		if !lot.HasStock() {
			continue
		}

		draw := decimal.Min(remaining, lot.RemainingQty)
		cost := valueobject.QuantizeAmount(draw.Mul(lot.CostPerUnit))
		plan.Draws = append(plan.Draws, LotDraw{
			LotID:       lot.ID,
			Quantity:    draw,
			CostPerUnit: lot.CostPerUnit,
			TotalCost:   cost,
			Exhausted:   draw.Equal(lot.RemainingQty),
		})
		plan.TotalQuantity = plan.TotalQuantity.Add(draw)
		plan.TotalCost = plan.TotalCost.Add(cost)
		remaining = remaining.Sub(draw)
	}

	plan.Shortfall = remaining
	plan.FullyFulfilled = remaining.IsZero()
	if plan.TotalQuantity.GreaterThan(decimal.Zero) {
		plan.WeightedAverageCost = plan.TotalCost.Div(plan.TotalQuantity).Round(4)
	}
	return plan, nil
}

// Apply executes a plan against the lots: each draw decrements its lot and
// produces one allocation record. Lots and allocations must be persisted
// together by the caller.
func (e *AllocationEngine) Apply(
	lots []*Lot,
	plan *AllocationPlan,
	productID uuid.UUID,
	consumerRef string,
	allocatedAt time.Time,
) ([]*Allocation, error) {
	if plan == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation plan cannot be nil")
	}

	lotMap := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		lotMap[lot.ID] = lot
	}

	allocations := make([]*Allocation, 0, len(plan.Draws))
	for _, draw := range plan.Draws {
		lot, ok := lotMap[draw.LotID]
		if !ok {
			return nil, shared.NewDomainError("NOT_FOUND", "Planned lot not loaded: "+draw.LotID.String())
		}
		if err := lot.Consume(draw.Quantity); err != nil {
			return nil, err
		}
		alloc, err := NewAllocation(lot.ID, productID, consumerRef, draw.Quantity, draw.CostPerUnit, allocatedAt)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, nil
}

// ApplyWriteOff executes a plan as a write-off: lots are decremented with
// their written-off counters updated and no allocation records are created.
func (e *AllocationEngine) ApplyWriteOff(lots []*Lot, plan *AllocationPlan) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_INPUT", "Allocation plan cannot be nil")
	}

	lotMap := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		lotMap[lot.ID] = lot
	}

	for _, draw := range plan.Draws {
		lot, ok := lotMap[draw.LotID]
		if !ok {
			return shared.NewDomainError("NOT_FOUND", "Planned lot not loaded: "+draw.LotID.String())
		}
		if err := lot.WriteOff(draw.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Reverse compensates a set of allocations: every active allocation's
// quantity is restored to its lot and the allocation is marked reversed.
// Already-reversed allocations are skipped, so reversing twice is a no-op.
// Returns the total restored quantity.
func (e *AllocationEngine) Reverse(lots []*Lot, allocations []*Allocation, at time.Time) (decimal.Decimal, error) {
	lotMap := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		lotMap[lot.ID] = lot
	}

	restored := decimal.Zero
	for _, alloc := range allocations {
		if !alloc.IsActive() {
			continue
		}
		lot, ok := lotMap[alloc.LotID]
		if !ok {
			return decimal.Zero, shared.NewDomainError("NOT_FOUND", "Allocation lot not loaded: "+alloc.LotID.String())
		}
		if err := lot.Restore(alloc.Quantity); err != nil {
			return decimal.Zero, err
		}
		alloc.MarkReversed(at)
		restored = restored.Add(alloc.Quantity)
	}
	return restored, nil
}
