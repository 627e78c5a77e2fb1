package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecalculateDerivedFields(t *testing.T) {
	s := &InventorySnapshot{
		QuantityOnHand:   12,
		QuantityReserved: 4,
		ReorderPoint:     10,
		UnitCost:         decimal.NewFromFloat(2.50),
	}
	s.Recalculate()

	assert.Equal(t, int64(8), s.QuantityAvailable)
	assert.True(t, s.TotalValue.Equal(decimal.NewFromFloat(30.0)))
	assert.True(t, s.LowStockAlert)
	assert.False(t, s.OutOfStock)
	assert.False(t, s.Overstocked)
}

func TestRecalculateLowStockBoundary(t *testing.T) {
	s := &InventorySnapshot{QuantityOnHand: 10, ReorderPoint: 10}
	s.Recalculate()
	assert.True(t, s.LowStockAlert)

	s.QuantityOnHand = 11
	s.Recalculate()
	assert.False(t, s.LowStockAlert)
}

func TestRecalculateOutOfStockAllowsNegative(t *testing.T) {
	s := &InventorySnapshot{QuantityOnHand: -6}
	s.Recalculate()
	assert.Equal(t, int64(-6), s.QuantityAvailable)
	assert.True(t, s.OutOfStock)
}

func TestRecalculateOverstocked(t *testing.T) {
	s := &InventorySnapshot{QuantityOnHand: 31, ReorderPoint: 10}
	s.Recalculate()
	assert.True(t, s.Overstocked)

	s.QuantityOnHand = 30
	s.Recalculate()
	assert.False(t, s.Overstocked)

	// Snapshots with no reorder point configured are never overstocked.
	s = &InventorySnapshot{QuantityOnHand: 1000, ReorderPoint: 0}
	s.Recalculate()
	assert.False(t, s.Overstocked)
}
