package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/oakline/inventory-service/internal/inventory"
	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetSnapshotByProduct(ctx context.Context, productID string) (*model.InventorySnapshot, error) {
	var snap model.InventorySnapshot
	query := `SELECT * FROM inventory_snapshots WHERE product_id = $1`
	err := r.DB.GetContext(ctx, &snap, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // caller decides how to handle a missing snapshot
		}
		return nil, err
	}
	return &snap, nil
}

func (r *PGRepository) GetSnapshotByID(ctx context.Context, id string) (*model.InventorySnapshot, error) {
	var snap model.InventorySnapshot
	query := `SELECT * FROM inventory_snapshots WHERE id = $1`
	err := r.DB.GetContext(ctx, &snap, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

const updateSnapshotQuery = `
    UPDATE inventory_snapshots SET
        quantity_on_hand       = :quantity_on_hand,
        quantity_reserved      = :quantity_reserved,
        quantity_available     = :quantity_available,
        quantity_in_production = :quantity_in_production,
        reorder_point          = :reorder_point,
        reorder_quantity       = :reorder_quantity,
        unit_cost              = :unit_cost,
        total_value            = :total_value,
        low_stock_alert        = :low_stock_alert,
        out_of_stock           = :out_of_stock,
        overstocked            = :overstocked,
        last_restocked         = :last_restocked,
        last_sold              = :last_sold,
        updated_at             = :updated_at
    WHERE id = :id
`

func (r *PGRepository) UpdateSnapshot(ctx context.Context, snap *model.InventorySnapshot) error {
	res, err := r.DB.NamedExecContext(ctx, updateSnapshotQuery, snap)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

func (r *PGRepository) FindSnapshots(ctx context.Context, f *dto.SnapshotFilters) ([]model.InventorySnapshot, int, error) {
	var items []model.InventorySnapshot
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LowStock {
		conditions = append(conditions, "low_stock_alert = TRUE")
	}
	if f.OutOfStock {
		conditions = append(conditions, "out_of_stock = TRUE")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_snapshots" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT * FROM inventory_snapshots" + whereClause + " ORDER BY updated_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

const insertTransactionQuery = `
    INSERT INTO inventory_transactions (
        id, transaction_number, product_id, type, quantity,
        quantity_before, quantity_after, unit_cost, total_value,
        reference_doc_id, reference, notes, created_by,
        transaction_date, created_at
    )
    VALUES (
        :id, :transaction_number, :product_id, :type, :quantity,
        :quantity_before, :quantity_after, :unit_cost, :total_value,
        :reference_doc_id, :reference, :notes, :created_by,
        :transaction_date, :created_at
    )
`

func (r *PGRepository) CreateTransaction(ctx context.Context, trx *model.InventoryTransaction) error {
	_, err := r.DB.NamedExecContext(ctx, insertTransactionQuery, trx)
	return err
}

func (r *PGRepository) LatestTransactionNumber(ctx context.Context) (string, error) {
	var number string
	query := `
        SELECT transaction_number FROM inventory_transactions
        ORDER BY created_at DESC, transaction_number DESC
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &number, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return number, nil
}

// SumTransactionQuantity totals the quantities already recorded for the given
// idempotency scope. A nil referenceDocID scopes to transactions recorded
// without a reference document.
func (r *PGRepository) SumTransactionQuantity(ctx context.Context, productID string, txType model.TransactionType, referenceDocID *string) (int64, error) {
	var sum int64
	query := `
        SELECT COALESCE(SUM(quantity), 0) FROM inventory_transactions
        WHERE product_id = $1 AND type = $2
    `
	args := []interface{}{productID, string(txType)}

	if referenceDocID != nil {
		query += ` AND reference_doc_id = $3`
		args = append(args, *referenceDocID)
	} else {
		query += ` AND reference_doc_id IS NULL`
	}

	err := r.DB.GetContext(ctx, &sum, query, args...)
	return sum, err
}

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	var items []model.InventoryTransaction
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = string(f.Type)
	}
	if f.ReferenceDocID != "" {
		conditions = append(conditions, "reference_doc_id = :reference_doc_id")
		args["reference_doc_id"] = f.ReferenceDocID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_transactions" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT * FROM inventory_transactions" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

// ApplySnapshotWithTransaction commits the snapshot update and the audit log
// append atomically, so derived state and the ledger can never diverge.
func (r *PGRepository) ApplySnapshotWithTransaction(ctx context.Context, snap *model.InventorySnapshot, trx *model.InventoryTransaction) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, updateSnapshotQuery, snap)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inventory.ErrNotFound
	}

	if _, err := tx.NamedExecContext(ctx, insertTransactionQuery, trx); err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return tx.Commit()
}
