package inventory

import (
	"context"

	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
)

type Repository interface {
	// Snapshots
	GetSnapshotByProduct(ctx context.Context, productID string) (*model.InventorySnapshot, error)
	GetSnapshotByID(ctx context.Context, id string) (*model.InventorySnapshot, error)
	UpdateSnapshot(ctx context.Context, snap *model.InventorySnapshot) error
	FindSnapshots(ctx context.Context, filters *dto.SnapshotFilters) ([]model.InventorySnapshot, int, error)

	// Transactions / audit log (append-only)
	CreateTransaction(ctx context.Context, trx *model.InventoryTransaction) error
	LatestTransactionNumber(ctx context.Context) (string, error)
	SumTransactionQuantity(ctx context.Context, productID string, txType model.TransactionType, referenceDocID *string) (int64, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.InventoryTransaction, int, error)

	// Transaction support: snapshot update + log append in one commit
	ApplySnapshotWithTransaction(ctx context.Context, snap *model.InventorySnapshot, trx *model.InventoryTransaction) error
}
