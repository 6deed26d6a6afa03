package costing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLot(t *testing.T) {
	t.Run("consistent lot reconciles cleanly", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(30)))

		alloc, err := NewAllocation(lot.ID, lot.ProductID, "so-1", decimal.NewFromInt(30), lot.CostPerUnit, time.Now())
		require.NoError(t, err)

		assert.Empty(t, CheckLot(lot, []*Allocation{alloc}))
	})

	t.Run("write-off consumption needs no allocations", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.WriteOff(decimal.NewFromInt(40)))

		assert.Empty(t, CheckLot(lot, nil))
	})

	t.Run("missing allocation detected", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(30)))

		discrepancies := CheckLot(lot, nil)
		require.Len(t, discrepancies, 1)
		assert.Equal(t, ErrRoundingDrift.Code, discrepancies[0].Code)
		assert.Equal(t, "30", discrepancies[0].Expected.String())
		assert.True(t, discrepancies[0].Actual.IsZero())
	})

	t.Run("reversed allocations do not count", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		alloc, err := NewAllocation(lot.ID, lot.ProductID, "so-1", decimal.NewFromInt(30), lot.CostPerUnit, time.Now())
		require.NoError(t, err)
		alloc.MarkReversed(time.Now())

		// untouched lot + reversed allocation is consistent
		assert.Empty(t, CheckLot(lot, []*Allocation{alloc}))
	})

	t.Run("drifted allocation cost detected", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		require.NoError(t, lot.Consume(decimal.NewFromInt(30)))
		alloc, err := NewAllocation(lot.ID, lot.ProductID, "so-1", decimal.NewFromInt(30), lot.CostPerUnit, time.Now())
		require.NoError(t, err)
		alloc.TotalCost = alloc.TotalCost.Add(decimal.NewFromFloat(0.01))

		discrepancies := CheckLot(lot, []*Allocation{alloc})
		require.Len(t, discrepancies, 1)
		assert.Contains(t, discrepancies[0].Detail, "total cost drifted")
	})

	t.Run("foreign allocations ignored", func(t *testing.T) {
		lot := newTestLot(t, 100, 10)
		other := newTestLot(t, 100, 10)
		foreign, err := NewAllocation(other.ID, other.ProductID, "so-9", decimal.NewFromInt(5), other.CostPerUnit, time.Now())
		require.NoError(t, err)

		assert.Empty(t, CheckLot(lot, []*Allocation{foreign}))
	})
}

func TestCheckProduct(t *testing.T) {
	lotA := newTestLot(t, 100, 10)
	lotB := newTestLot(t, 50, 12)
	require.NoError(t, lotA.Consume(decimal.NewFromInt(10)))

	allocA, err := NewAllocation(lotA.ID, lotA.ProductID, "so-1", decimal.NewFromInt(10), lotA.CostPerUnit, time.Now())
	require.NoError(t, err)

	assert.Empty(t, CheckProduct([]*Lot{lotA, lotB}, []*Allocation{allocA}))

	// corrupt lotB
	lotB.RemainingQty = lotB.RemainingQty.Add(decimal.NewFromInt(1))
	discrepancies := CheckProduct([]*Lot{lotA, lotB}, []*Allocation{allocA})
	assert.NotEmpty(t, discrepancies)
}
