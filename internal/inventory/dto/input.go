package dto

import (
	"github.com/shopspring/decimal"

	"github.com/oakline/inventory-service/internal/model"
)

// RequestedItem is one line of a reservation/consumption request. Quantity is
// normalized by the engine: anything non-positive counts as 1.
type RequestedItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
	Name      string `json:"name"`
}

type ReserveInput struct {
	Items          []RequestedItem `json:"items" binding:"required"`
	ReferenceDocID string          `json:"referenceDocId"`
	ReferenceLabel string          `json:"referenceLabel"`
}

type ConsumeInput struct {
	Items          []RequestedItem       `json:"items" binding:"required"`
	Type           model.TransactionType `json:"type" binding:"required"`
	ReferenceDocID string                `json:"referenceDocId"`
	ReferenceLabel string                `json:"referenceLabel"`
	// MarkSold controls the lastSold timestamp; nil means true.
	MarkSold *bool `json:"markSold"`
}

type ManufactureInput struct {
	ProductID      string `json:"productId" binding:"required"`
	Quantity       int64  `json:"quantity"`
	ReferenceDocID string `json:"referenceDocId"`
	ReferenceLabel string `json:"referenceLabel"`
}

type ReceiveInput struct {
	ProductID      string           `json:"productId" binding:"required"`
	Quantity       int64            `json:"quantity" binding:"required"`
	UnitCost       *decimal.Decimal `json:"unitCost"`
	ReferenceDocID string           `json:"referenceDocId"`
	ReferenceLabel string           `json:"referenceLabel"`
	Notes          string           `json:"notes"`
}

type AdjustInput struct {
	ProductID      string `json:"productId" binding:"required"`
	QuantityChange int64  `json:"quantityChange" binding:"required"`
	Reason         string `json:"reason"`
	ReferenceDocID string `json:"referenceDocId"`
	ReferenceLabel string `json:"referenceLabel"`
}

// ApplyChangeInput is the Mutation Applier contract: deltas against one
// snapshot, resolved by SnapshotID when set, otherwise by ProductID.
type ApplyChangeInput struct {
	SnapshotID       string
	ProductID        string
	OnHandDelta      int64
	ReservedDelta    int64
	ProductionDelta  int64
	UnitCostOverride *decimal.Decimal
	MarkRestocked    bool
	MarkSold         bool
}

type RecordTransactionInput struct {
	ProductID      string
	Type           model.TransactionType
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	UnitCost       *decimal.Decimal
	ReferenceDocID string
	Reference      string
	Notes          string
	CreatedBy      string
}
