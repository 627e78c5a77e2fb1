package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates every quantity-changing event kind.
type TransactionType string

const (
	TxReceived     TransactionType = "received"
	TxSold         TransactionType = "sold"
	TxUsed         TransactionType = "used"
	TxAdjustment   TransactionType = "adjustment"
	TxReserved     TransactionType = "reserved"
	TxManufactured TransactionType = "manufactured"
)

// TransactionNumberPrefix is the prefix for human-readable transaction numbers.
const TransactionNumberPrefix = "IT-"

// InventorySnapshot is the current authoritative quantity state for one
// product. It is mutated only through the engine; derived fields are always
// recomputed together with the raw counters via Recalculate.
type InventorySnapshot struct {
	ID                   string          `db:"id" json:"id"`
	ProductID            string          `db:"product_id" json:"productId"`
	QuantityOnHand       int64           `db:"quantity_on_hand" json:"quantityOnHand"`
	QuantityReserved     int64           `db:"quantity_reserved" json:"quantityReserved"`
	QuantityAvailable    int64           `db:"quantity_available" json:"quantityAvailable"`
	QuantityInProduction int64           `db:"quantity_in_production" json:"quantityInProduction"`
	ReorderPoint         int64           `db:"reorder_point" json:"reorderPoint"`
	ReorderQuantity      int64           `db:"reorder_quantity" json:"reorderQuantity"`
	UnitCost             decimal.Decimal `db:"unit_cost" json:"unitCost"`
	TotalValue           decimal.Decimal `db:"total_value" json:"totalValue"`
	LowStockAlert        bool            `db:"low_stock_alert" json:"lowStockAlert"`
	OutOfStock           bool            `db:"out_of_stock" json:"outOfStock"`
	Overstocked          bool            `db:"overstocked" json:"overstocked"`
	LastRestocked        *time.Time      `db:"last_restocked" json:"lastRestocked,omitempty"`
	LastSold             *time.Time      `db:"last_sold" json:"lastSold,omitempty"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updatedAt"`
}

// Recalculate derives available quantity, total value and the alert flags
// from the raw counters. Pure; call it after every counter change and never
// patch a derived field on its own.
func (s *InventorySnapshot) Recalculate() {
	s.QuantityAvailable = s.QuantityOnHand - s.QuantityReserved
	s.TotalValue = s.UnitCost.Mul(decimal.NewFromInt(s.QuantityOnHand))
	s.LowStockAlert = s.QuantityAvailable <= s.ReorderPoint
	s.OutOfStock = s.QuantityAvailable <= 0
	s.Overstocked = s.ReorderPoint > 0 && s.QuantityOnHand > s.ReorderPoint*3
}

// InventoryTransaction is one immutable entry in the quantity audit log.
// Rows are inserted once and never updated or deleted.
type InventoryTransaction struct {
	ID                string              `db:"id" json:"id"`
	TransactionNumber string              `db:"transaction_number" json:"transactionNumber"`
	ProductID         string              `db:"product_id" json:"productId"`
	Type              TransactionType     `db:"type" json:"type"`
	Quantity          int64               `db:"quantity" json:"quantity"`
	QuantityBefore    int64               `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter     int64               `db:"quantity_after" json:"quantityAfter"`
	UnitCost          decimal.NullDecimal `db:"unit_cost" json:"unitCost,omitempty"`
	TotalValue        decimal.NullDecimal `db:"total_value" json:"totalValue,omitempty"`
	ReferenceDocID    *string             `db:"reference_doc_id" json:"referenceDocId,omitempty"`
	Reference         *string             `db:"reference" json:"reference,omitempty"`
	Notes             string              `db:"notes" json:"notes,omitempty"`
	CreatedBy         *string             `db:"created_by" json:"createdBy,omitempty"`
	TransactionDate   time.Time           `db:"transaction_date" json:"transactionDate"`
	CreatedAt         time.Time           `db:"created_at" json:"createdAt"`
}
