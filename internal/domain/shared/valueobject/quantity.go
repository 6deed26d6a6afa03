package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// QuantityPrecision is the number of decimal places stock quantities are
// quantized to at calculation boundaries
const QuantityPrecision int32 = 3

// QuantizeQuantity rounds a raw decimal quantity to the quantity precision
// (half away from zero)
func QuantizeQuantity(qty decimal.Decimal) decimal.Decimal {
	return qty.Round(QuantityPrecision)
}

// ValidateQuantity checks that a quantity is positive and within precision
func ValidateQuantity(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return errors.New("quantity must be positive")
	}
	if !qty.Equal(QuantizeQuantity(qty)) {
		return errors.New("quantity exceeds supported precision")
	}
	return nil
}

// ValidateNonNegativeQuantity checks that a quantity is zero or positive
// and within precision
func ValidateNonNegativeQuantity(qty decimal.Decimal) error {
	if qty.IsNegative() {
		return errors.New("quantity cannot be negative")
	}
	if !qty.Equal(QuantizeQuantity(qty)) {
		return errors.New("quantity exceeds supported precision")
	}
	return nil
}
