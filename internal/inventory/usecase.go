package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
)

// ErrNotFound is returned when a mutation targets a product that has no
// inventory snapshot. Snapshots are provisioned out-of-band; the engine never
// creates them implicitly.
var ErrNotFound = errors.New("inventory snapshot not found")

// Locker provides per-product mutual exclusion around the engine's
// read-modify-write sequences.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type UseCase interface {
	// Queries
	GetProductInventory(ctx context.Context, productID string) (*model.InventorySnapshot, error)
	ListLowStock(ctx context.Context, page, pageSize int) ([]model.InventorySnapshot, int, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)

	// Low-level building blocks
	ApplyChange(ctx context.Context, input *dto.ApplyChangeInput) (*model.InventorySnapshot, error)
	RecordTransaction(ctx context.Context, input *dto.RecordTransactionInput) (*model.InventoryTransaction, error)

	// Single-product operations
	Receive(ctx context.Context, input *dto.ReceiveInput) (*model.InventorySnapshot, error)
	Adjust(ctx context.Context, input *dto.AdjustInput) (*model.InventorySnapshot, error)
	BeginProduction(ctx context.Context, productID string, quantity int64) (*model.InventorySnapshot, error)
	RecordManufactured(ctx context.Context, input *dto.ManufactureInput) (*dto.ManufactureResult, error)

	// Batch planners (idempotent per reference document)
	Reserve(ctx context.Context, input *dto.ReserveInput) (*dto.ReserveResult, error)
	Consume(ctx context.Context, input *dto.ConsumeInput) (*dto.ConsumeResult, error)
}
