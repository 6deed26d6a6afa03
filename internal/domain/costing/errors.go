package costing

import "github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"

// Costing domain errors
var (
	// ErrInsufficientInventory is returned when a strict allocation or
	// write-off requests more than the product's total remaining quantity
	ErrInsufficientInventory = shared.NewDomainError("INSUFFICIENT_INVENTORY", "Insufficient inventory available")
	// ErrLotsInUse is returned when un-receiving a receipt whose lots
	// already have consumption recorded against them
	ErrLotsInUse = shared.NewDomainError("LOTS_IN_USE", "Receipt lots already have consumption recorded")
	// ErrInvalidReceiptState is returned for receipt operations that are
	// not allowed in the receipt's current state
	ErrInvalidReceiptState = shared.NewDomainError("INVALID_RECEIPT_STATE", "Operation not allowed in current receipt state")
	// ErrRoundingDrift is reported when the lot ledger no longer
	// reconciles with its allocations
	ErrRoundingDrift = shared.NewDomainError("ROUNDING_DRIFT", "Lot ledger does not reconcile with allocations")
)
