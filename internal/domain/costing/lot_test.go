package costing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
)

func newTestLot(t *testing.T, qty, cost float64) *Lot {
	t.Helper()
	lot, err := NewLot(
		uuid.New(), uuid.New(),
		decimal.NewFromFloat(qty),
		decimal.NewFromFloat(cost),
		valueobject.RUB,
		time.Now(),
	)
	require.NoError(t, err)
	return lot
}

func TestNewLot(t *testing.T) {
	t.Run("valid lot", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		assert.True(t, lot.RemainingQty.Equal(lot.InitialQty))
		assert.True(t, lot.WrittenOffQty.IsZero())
		assert.True(t, lot.IsUntouched())
		assert.True(t, lot.HasStock())
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		_, err := NewLot(uuid.New(), uuid.New(), decimal.Zero, decimal.NewFromInt(10), valueobject.RUB, time.Now())
		assert.Error(t, err)
	})

	t.Run("negative cost rejected", func(t *testing.T) {
		_, err := NewLot(uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-1), valueobject.RUB, time.Now())
		assert.Error(t, err)
	})

	t.Run("empty currency defaults", func(t *testing.T) {
		lot, err := NewLot(uuid.New(), uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), "", time.Now())
		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultCurrency, lot.Currency)
	})
}

func TestLotConsume(t *testing.T) {
	t.Run("partial consume", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(30)))
		assert.Equal(t, "70", lot.RemainingQty.String())
		assert.Equal(t, "30", lot.AllocatedQty().String())
	})

	t.Run("consume to zero", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(100)))
		assert.True(t, lot.RemainingQty.IsZero())
		assert.False(t, lot.HasStock())
	})

	t.Run("over-consume rejected without state change", func(t *testing.T) {
		lot := newTestLot(t, 50, 10)
		err := lot.Consume(decimal.NewFromInt(51))
		assert.ErrorIs(t, err, ErrInsufficientInventory)
		assert.Equal(t, "50", lot.RemainingQty.String())
	})
}

func TestLotRestore(t *testing.T) {
	t.Run("restore after consume", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(40)))
		require.NoError(t, lot.Restore(decimal.NewFromInt(40)))
		assert.True(t, lot.IsUntouched())
	})

	t.Run("restore beyond initial rejected", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		assert.Error(t, lot.Restore(decimal.NewFromInt(1)))
	})
}

func TestLotWriteOff(t *testing.T) {
	t.Run("write-off tracked separately from allocations", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(20)))
		require.NoError(t, lot.WriteOff(decimal.NewFromInt(30)))

		assert.Equal(t, "50", lot.RemainingQty.String())
		assert.Equal(t, "30", lot.WrittenOffQty.String())
		assert.Equal(t, "20", lot.AllocatedQty().String())
	})

	t.Run("write-off beyond remaining rejected", func(t *testing.T) {
		lot := newTestLot(t, 10, 10)
		err := lot.WriteOff(decimal.NewFromInt(11))
		assert.ErrorIs(t, err, ErrInsufficientInventory)
		assert.Equal(t, "10", lot.RemainingQty.String())
	})
}

func TestLotRemainingValue(t *testing.T) {
	lot := newTestLot(t, 50, 12)
	assert.Equal(t, "600", lot.RemainingValue().String())

	require.NoError(t, lot.Consume(decimal.NewFromInt(20)))
	assert.Equal(t, "360", lot.RemainingValue().String())
}
