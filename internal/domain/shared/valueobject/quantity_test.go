package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuantizeQuantity(t *testing.T) {
	assert.True(t, QuantizeQuantity(decimal.NewFromFloat(1.2345)).Equal(decimal.NewFromFloat(1.235)))
	assert.True(t, QuantizeQuantity(decimal.NewFromFloat(1.2344)).Equal(decimal.NewFromFloat(1.234)))
	assert.True(t, QuantizeQuantity(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
}

func TestValidateQuantity(t *testing.T) {
	t.Run("positive within precision", func(t *testing.T) {
		assert.NoError(t, ValidateQuantity(decimal.NewFromFloat(0.001)))
		assert.NoError(t, ValidateQuantity(decimal.NewFromInt(120)))
	})

	t.Run("zero rejected", func(t *testing.T) {
		assert.Error(t, ValidateQuantity(decimal.Zero))
	})

	t.Run("negative rejected", func(t *testing.T) {
		assert.Error(t, ValidateQuantity(decimal.NewFromInt(-1)))
	})

	t.Run("excess precision rejected", func(t *testing.T) {
		assert.Error(t, ValidateQuantity(decimal.NewFromFloat(0.0005)))
	})
}

func TestValidateNonNegativeQuantity(t *testing.T) {
	assert.NoError(t, ValidateNonNegativeQuantity(decimal.Zero))
	assert.NoError(t, ValidateNonNegativeQuantity(decimal.NewFromFloat(2.5)))
	assert.Error(t, ValidateNonNegativeQuantity(decimal.NewFromFloat(-0.001)))
}
