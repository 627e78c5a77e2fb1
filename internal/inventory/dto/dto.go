package dto

import "github.com/oakline/inventory-service/internal/model"

type SnapshotFilters struct {
	ProductID  string
	LowStock   bool
	OutOfStock bool
	Page       int
	PageSize   int
}

type TransactionFilters struct {
	ProductID      string
	Type           model.TransactionType
	ReferenceDocID string
	Page           int
	PageSize       int
}

type ReservedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

type InsufficientItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
}

type MissingItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

type ReserveResult struct {
	Reserved     []ReservedItem     `json:"reserved"`
	Insufficient []InsufficientItem `json:"insufficient"`
	Missing      []MissingItem      `json:"missing"`
}

type ConsumedItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// ShortageItem reports consumption that drove (or would drive) on-hand
// negative. Shortages never block the consumption itself.
type ShortageItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Required  int64  `json:"required"`
	OnHand    int64  `json:"onHand"`
}

type ConsumeResult struct {
	Consumed  []ConsumedItem `json:"consumed"`
	Shortages []ShortageItem `json:"shortages"`
	Missing   []MissingItem  `json:"missing"`
}

type ProducedItem struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type ManufactureResult struct {
	Produced []ProducedItem `json:"produced"`
	Missing  []MissingItem  `json:"missing"`
}
