package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

// ApportionMethod defines how a shared receipt cost is split across items
type ApportionMethod string

const (
	// ApportionEqual splits the cost evenly across item lines
	ApportionEqual ApportionMethod = "equal"
	// ApportionByPrice weights lines by declared price times quantity
	ApportionByPrice ApportionMethod = "by_price"
	// ApportionByVolume weights lines by unit volume times quantity
	ApportionByVolume ApportionMethod = "by_volume"
	// ApportionByWeight weights lines by unit weight times quantity
	ApportionByWeight ApportionMethod = "by_weight"
)

// IsValid checks if the apportion method is valid
func (m ApportionMethod) IsValid() bool {
	switch m {
	case ApportionEqual, ApportionByPrice, ApportionByVolume, ApportionByWeight:
		return true
	}
	return false
}

// String returns the string representation
func (m ApportionMethod) String() string {
	return string(m)
}

// AllApportionMethods returns all valid apportion methods
func AllApportionMethods() []ApportionMethod {
	return []ApportionMethod{ApportionEqual, ApportionByPrice, ApportionByVolume, ApportionByWeight}
}

// SharedCost is a receipt-level cost (freight, customs, insurance) that
// must be distributed across the receipt's items before unit costs can be
// computed
type SharedCost struct {
	Name        string
	TotalAmount decimal.Decimal
	Method      ApportionMethod
}

// NewSharedCost creates a shared cost, rejecting unknown methods and
// negative amounts
func NewSharedCost(name string, totalAmount decimal.Decimal, method ApportionMethod) (SharedCost, error) {
	if name == "" {
		return SharedCost{}, shared.NewDomainError("INVALID_INPUT", "Shared cost name cannot be empty")
	}
	if totalAmount.IsNegative() {
		return SharedCost{}, shared.NewDomainError("INVALID_INPUT", "Shared cost amount cannot be negative")
	}
	if !method.IsValid() {
		return SharedCost{}, shared.NewDomainError("INVALID_INPUT", "Unknown apportion method: "+string(method))
	}
	return SharedCost{Name: name, TotalAmount: totalAmount, Method: method}, nil
}

// ApportionItem is one receipt line as seen by the apportioner
type ApportionItem struct {
	Ref           uuid.UUID       // receipt item ID the share is attributed to
	Quantity      decimal.Decimal // received quantity
	DeclaredPrice decimal.Decimal // declared price per unit
	UnitVolume    decimal.Decimal // volume per unit
	UnitWeight    decimal.Decimal // weight per unit
}

// weight returns the item's apportionment weight for the given method
func (i ApportionItem) weight(method ApportionMethod) decimal.Decimal {
	switch method {
	case ApportionByPrice:
		return i.DeclaredPrice.Mul(i.Quantity)
	case ApportionByVolume:
		return i.UnitVolume.Mul(i.Quantity)
	case ApportionByWeight:
		return i.UnitWeight.Mul(i.Quantity)
	default:
		return decimal.NewFromInt(1)
	}
}

// Apportion distributes a shared cost across items proportionally to their
// weights. Each share is quantized to monetary precision; the last item
// absorbs the rounding residual so the shares always sum exactly to the
// total. If every weight is zero the cost falls back to an equal split.
func Apportion(cost SharedCost, items []ApportionItem) ([]decimal.Decimal, error) {
	if !cost.Method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown apportion method: "+string(cost.Method))
	}
	if cost.TotalAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shared cost amount cannot be negative")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot apportion cost over zero items")
	}

	total := valueobject.QuantizeAmount(cost.TotalAmount)
	shares := make([]decimal.Decimal, len(items))
	if total.IsZero() {
		for i := range shares {
			shares[i] = decimal.Zero
		}
		return shares, nil
	}

	weights := make([]decimal.Decimal, len(items))
	sumWeights := decimal.Zero
	for i, item := range items {
		w := item.weight(cost.Method)
		if w.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Apportionment weight cannot be negative")
		}
		weights[i] = w
		sumWeights = sumWeights.Add(w)
	}

	// Degenerate weights (all zero) fall back to an equal split
	if sumWeights.IsZero() {
		one := decimal.NewFromInt(1)
		for i := range weights {
			weights[i] = one
		}
		sumWeights = decimal.NewFromInt(int64(len(items)))
	}

	allocated := decimal.Zero
	for i := range items {
		if i == len(items)-1 {
			shares[i] = total.Sub(allocated)
			break
		}
		share := valueobject.QuantizeAmount(total.Mul(weights[i]).Div(sumWeights))
		shares[i] = share
		allocated = allocated.Add(share)
	}

	return shares, nil
}
