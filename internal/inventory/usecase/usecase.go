package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakline/inventory-service/internal/auth"
	"github.com/oakline/inventory-service/internal/inventory"
	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
	"github.com/oakline/inventory-service/pkg/logger"
	"github.com/oakline/inventory-service/pkg/search"
	"github.com/oakline/inventory-service/pkg/sequence"
)

const transactionIndex = "inventory-transactions"

const transactionIndexMapping = `{
  "mappings": {
    "properties": {
      "transactionNumber": {"type": "keyword"},
      "productId":         {"type": "keyword"},
      "type":              {"type": "keyword"},
      "referenceDocId":    {"type": "keyword"},
      "quantity":          {"type": "long"},
      "notes":             {"type": "text"},
      "transactionDate":   {"type": "date"}
    }
  }
}`

type inventoryUseCase struct {
	repo   inventory.Repository
	locker inventory.Locker
	es     *search.Client
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, locker inventory.Locker, es *search.Client, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		locker: locker,
		es:     es,
		logger: log,
	}
}

func (uc *inventoryUseCase) GetProductInventory(ctx context.Context, productID string) (*model.InventorySnapshot, error) {
	snap, err := uc.repo.GetSnapshotByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		// Zero-value snapshot for uninitialized products; mutations still
		// require a provisioned snapshot.
		return &model.InventorySnapshot{ProductID: productID}, nil
	}
	return snap, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, page, pageSize int) ([]model.InventorySnapshot, int, error) {
	return uc.repo.FindSnapshots(ctx, &dto.SnapshotFilters{
		LowStock: true,
		Page:     page,
		PageSize: pageSize,
	})
}

func (uc *inventoryUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	return uc.repo.ListTransactions(ctx, filters)
}

// ApplyChange is the mutation applier: it shifts the raw counters of one
// snapshot, recomputes the derived state and persists the result as a single
// write. It deliberately writes no audit transaction; callers pair it with
// RecordTransaction, or skip the pairing for internal bookkeeping only.
func (uc *inventoryUseCase) ApplyChange(ctx context.Context, input *dto.ApplyChangeInput) (*model.InventorySnapshot, error) {
	// Locks key on the product, so when only a snapshot id is given the
	// product must be looked up first; the state itself is re-read fresh
	// under the lock.
	productID := input.ProductID
	if productID == "" {
		snap, err := uc.repo.GetSnapshotByID(ctx, input.SnapshotID)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, inventory.ErrNotFound
		}
		productID = snap.ProductID
	}

	release, err := uc.lockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := uc.resolveSnapshot(ctx, input.SnapshotID, productID)
	if err != nil {
		return nil, err
	}

	applyDeltas(snap, input, time.Now())
	if err := uc.repo.UpdateSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (uc *inventoryUseCase) RecordTransaction(ctx context.Context, input *dto.RecordTransactionInput) (*model.InventoryTransaction, error) {
	trx, err := uc.newTransaction(ctx, input, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.repo.CreateTransaction(ctx, trx); err != nil {
		return nil, err
	}
	uc.indexTransaction(trx)
	return trx, nil
}

func (uc *inventoryUseCase) Receive(ctx context.Context, input *dto.ReceiveInput) (*model.InventorySnapshot, error) {
	qty := normalizeQuantity(input.Quantity)

	release, err := uc.lockProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := uc.resolveSnapshot(ctx, "", input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := snap.QuantityOnHand
	applyDeltas(snap, &dto.ApplyChangeInput{
		OnHandDelta:      qty,
		UnitCostOverride: input.UnitCost,
		MarkRestocked:    true,
	}, now)

	unitCost := snap.UnitCost
	trx, err := uc.newTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:      input.ProductID,
		Type:           model.TxReceived,
		Quantity:       qty,
		QuantityBefore: before,
		QuantityAfter:  snap.QuantityOnHand,
		UnitCost:       &unitCost,
		ReferenceDocID: input.ReferenceDocID,
		Reference:      input.ReferenceLabel,
		Notes:          input.Notes,
		CreatedBy:      auth.GetUserID(ctx),
	}, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ApplySnapshotWithTransaction(ctx, snap, trx); err != nil {
		return nil, err
	}
	uc.indexTransaction(trx)
	return snap, nil
}

func (uc *inventoryUseCase) Adjust(ctx context.Context, input *dto.AdjustInput) (*model.InventorySnapshot, error) {
	release, err := uc.lockProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := uc.resolveSnapshot(ctx, "", input.ProductID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := snap.QuantityOnHand
	applyDeltas(snap, &dto.ApplyChangeInput{OnHandDelta: input.QuantityChange}, now)

	trx, err := uc.newTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:      input.ProductID,
		Type:           model.TxAdjustment,
		Quantity:       input.QuantityChange,
		QuantityBefore: before,
		QuantityAfter:  snap.QuantityOnHand,
		ReferenceDocID: input.ReferenceDocID,
		Reference:      input.ReferenceLabel,
		Notes:          input.Reason,
		CreatedBy:      auth.GetUserID(ctx),
	}, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ApplySnapshotWithTransaction(ctx, snap, trx); err != nil {
		return nil, err
	}
	uc.indexTransaction(trx)
	return snap, nil
}

// BeginProduction earmarks units for a manufacturing run. This is internal
// bookkeeping: quantityInProduction is not part of the audit math, so no
// transaction is recorded until the run completes.
func (uc *inventoryUseCase) BeginProduction(ctx context.Context, productID string, quantity int64) (*model.InventorySnapshot, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("production quantity must be positive, got %d", quantity)
	}

	release, err := uc.lockProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := uc.resolveSnapshot(ctx, "", productID)
	if err != nil {
		return nil, err
	}

	applyDeltas(snap, &dto.ApplyChangeInput{ProductionDelta: quantity}, time.Now())
	if err := uc.repo.UpdateSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// RecordManufactured moves completed units from in-production to on-hand.
// No idempotency scoping: the business layer calls this once per completed
// run.
func (uc *inventoryUseCase) RecordManufactured(ctx context.Context, input *dto.ManufactureInput) (*dto.ManufactureResult, error) {
	result := &dto.ManufactureResult{
		Produced: []dto.ProducedItem{},
		Missing:  []dto.MissingItem{},
	}

	if input.Quantity <= 0 {
		result.Missing = append(result.Missing, dto.MissingItem{
			ProductID: input.ProductID,
			Reason:    "Quantity must be a positive number",
		})
		return result, nil
	}

	release, err := uc.lockProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := uc.repo.GetSnapshotByProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		result.Missing = append(result.Missing, dto.MissingItem{
			ProductID: input.ProductID,
			Reason:    "Inventory not initialized",
		})
		return result, nil
	}

	now := time.Now()
	before := snap.QuantityOnHand
	applyDeltas(snap, &dto.ApplyChangeInput{
		OnHandDelta:     input.Quantity,
		ProductionDelta: -input.Quantity,
		MarkRestocked:   true,
	}, now)

	trx, err := uc.newTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:      input.ProductID,
		Type:           model.TxManufactured,
		Quantity:       input.Quantity,
		QuantityBefore: before,
		QuantityAfter:  snap.QuantityOnHand,
		ReferenceDocID: input.ReferenceDocID,
		Reference:      input.ReferenceLabel,
		CreatedBy:      auth.GetUserID(ctx),
	}, now)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.ApplySnapshotWithTransaction(ctx, snap, trx); err != nil {
		return nil, err
	}
	uc.indexTransaction(trx)

	result.Produced = append(result.Produced, dto.ProducedItem{
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	return result, nil
}

// Reserve earmarks stock per item, idempotently scoped to the reference
// document: re-running the same request only tops up the difference between
// what the reference already reserved and what it needs now. Items fail
// independently; one missing or insufficient item never aborts the batch.
func (uc *inventoryUseCase) Reserve(ctx context.Context, input *dto.ReserveInput) (*dto.ReserveResult, error) {
	result := &dto.ReserveResult{
		Reserved:     []dto.ReservedItem{},
		Insufficient: []dto.InsufficientItem{},
		Missing:      []dto.MissingItem{},
	}

	refID := optionalString(input.ReferenceDocID)
	snaps := map[string]*model.InventorySnapshot{}
	reservedSums := map[string]int64{}

	for _, item := range input.Items {
		if err := uc.reserveItem(ctx, item, refID, input.ReferenceLabel, snaps, reservedSums, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (uc *inventoryUseCase) reserveItem(
	ctx context.Context,
	item dto.RequestedItem,
	refID *string,
	refLabel string,
	snaps map[string]*model.InventorySnapshot,
	reservedSums map[string]int64,
	result *dto.ReserveResult,
) error {
	qty := normalizeQuantity(item.Quantity)
	name := itemName(item)

	// Lock first: the availability check below must see state no other
	// writer can change before our commit.
	release, err := uc.lockProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	defer release()

	snap, err := uc.cachedSnapshot(ctx, item.ProductID, snaps)
	if err != nil {
		return err
	}
	if snap == nil {
		result.Missing = append(result.Missing, dto.MissingItem{
			ProductID: item.ProductID, Name: name, Reason: "Inventory not initialized",
		})
		return nil
	}

	already, ok := reservedSums[item.ProductID]
	if !ok {
		already, err = uc.repo.SumTransactionQuantity(ctx, item.ProductID, model.TxReserved, refID)
		if err != nil {
			return err
		}
		reservedSums[item.ProductID] = already
	}

	outstanding := qty - already
	if outstanding <= 0 {
		// Already fully reserved for this reference document.
		return nil
	}

	available := snap.QuantityOnHand - snap.QuantityReserved
	if available < outstanding {
		result.Insufficient = append(result.Insufficient, dto.InsufficientItem{
			ProductID: item.ProductID, Name: name, Required: qty, Available: available,
		})
		return nil
	}

	now := time.Now()
	before := snap.QuantityOnHand
	applyDeltas(snap, &dto.ApplyChangeInput{ReservedDelta: outstanding}, now)

	trx, err := uc.newTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:      item.ProductID,
		Type:           model.TxReserved,
		Quantity:       outstanding,
		QuantityBefore: before,
		QuantityAfter:  snap.QuantityOnHand,
		ReferenceDocID: derefString(refID),
		Reference:      refLabel,
		CreatedBy:      auth.GetUserID(ctx),
	}, now)
	if err != nil {
		return err
	}

	if err := uc.repo.ApplySnapshotWithTransaction(ctx, snap, trx); err != nil {
		return err
	}
	uc.indexTransaction(trx)

	reservedSums[item.ProductID] = already + outstanding
	result.Reserved = append(result.Reserved, dto.ReservedItem{
		ProductID: item.ProductID, Name: name, Quantity: outstanding,
	})
	return nil
}

// Consume removes stock for sold/used items with the same per-reference
// idempotency as Reserve, releasing any matching reservation along the way.
// Shortages are reported, not blocking: the physical removal already happened
// outside the system, so on-hand may legitimately go negative.
func (uc *inventoryUseCase) Consume(ctx context.Context, input *dto.ConsumeInput) (*dto.ConsumeResult, error) {
	if input.Type != model.TxSold && input.Type != model.TxUsed {
		return nil, fmt.Errorf("unsupported consumption type %q", input.Type)
	}
	markSold := input.MarkSold == nil || *input.MarkSold

	result := &dto.ConsumeResult{
		Consumed:  []dto.ConsumedItem{},
		Shortages: []dto.ShortageItem{},
		Missing:   []dto.MissingItem{},
	}

	refID := optionalString(input.ReferenceDocID)
	snaps := map[string]*model.InventorySnapshot{}
	consumedSums := map[string]int64{}
	reservedSums := map[string]int64{}

	for _, item := range input.Items {
		if err := uc.consumeItem(ctx, item, input.Type, refID, input.ReferenceLabel, markSold,
			snaps, consumedSums, reservedSums, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (uc *inventoryUseCase) consumeItem(
	ctx context.Context,
	item dto.RequestedItem,
	txType model.TransactionType,
	refID *string,
	refLabel string,
	markSold bool,
	snaps map[string]*model.InventorySnapshot,
	consumedSums map[string]int64,
	reservedSums map[string]int64,
	result *dto.ConsumeResult,
) error {
	qty := normalizeQuantity(item.Quantity)
	name := itemName(item)

	release, err := uc.lockProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	defer release()

	snap, err := uc.cachedSnapshot(ctx, item.ProductID, snaps)
	if err != nil {
		return err
	}
	if snap == nil {
		result.Missing = append(result.Missing, dto.MissingItem{
			ProductID: item.ProductID, Name: name, Reason: "Inventory not initialized",
		})
		return nil
	}

	already, ok := consumedSums[item.ProductID]
	if !ok {
		already, err = uc.repo.SumTransactionQuantity(ctx, item.ProductID, txType, refID)
		if err != nil {
			return err
		}
		consumedSums[item.ProductID] = already
	}

	outstanding := qty - already
	if outstanding <= 0 {
		return nil
	}

	if snap.QuantityOnHand < outstanding {
		result.Shortages = append(result.Shortages, dto.ShortageItem{
			ProductID: item.ProductID, Name: name, Required: qty, OnHand: snap.QuantityOnHand,
		})
	}

	reservedForRef, ok := reservedSums[item.ProductID]
	if !ok {
		reservedForRef, err = uc.repo.SumTransactionQuantity(ctx, item.ProductID, model.TxReserved, refID)
		if err != nil {
			return err
		}
		reservedSums[item.ProductID] = reservedForRef
	}
	// Consuming releases the matching prior reservation, capped at what this
	// reference actually reserved.
	releaseAmount := min64(outstanding, reservedForRef)

	now := time.Now()
	before := snap.QuantityOnHand
	applyDeltas(snap, &dto.ApplyChangeInput{
		OnHandDelta:   -outstanding,
		ReservedDelta: -releaseAmount,
		MarkSold:      markSold,
	}, now)

	trx, err := uc.newTransaction(ctx, &dto.RecordTransactionInput{
		ProductID:      item.ProductID,
		Type:           txType,
		Quantity:       outstanding,
		QuantityBefore: before,
		QuantityAfter:  snap.QuantityOnHand,
		ReferenceDocID: derefString(refID),
		Reference:      refLabel,
		CreatedBy:      auth.GetUserID(ctx),
	}, now)
	if err != nil {
		return err
	}

	if err := uc.repo.ApplySnapshotWithTransaction(ctx, snap, trx); err != nil {
		return err
	}
	uc.indexTransaction(trx)

	consumedSums[item.ProductID] = already + outstanding
	reservedSums[item.ProductID] = reservedForRef - releaseAmount
	result.Consumed = append(result.Consumed, dto.ConsumedItem{
		ProductID: item.ProductID, Name: name, Quantity: outstanding,
	})
	return nil
}

// ---- helpers ----

func (uc *inventoryUseCase) resolveSnapshot(ctx context.Context, snapshotID, productID string) (*model.InventorySnapshot, error) {
	var snap *model.InventorySnapshot
	var err error
	if snapshotID != "" {
		snap, err = uc.repo.GetSnapshotByID(ctx, snapshotID)
	} else {
		snap, err = uc.repo.GetSnapshotByProduct(ctx, productID)
	}
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, inventory.ErrNotFound
	}
	return snap, nil
}

func (uc *inventoryUseCase) cachedSnapshot(ctx context.Context, productID string, snaps map[string]*model.InventorySnapshot) (*model.InventorySnapshot, error) {
	if snap, ok := snaps[productID]; ok {
		return snap, nil
	}
	snap, err := uc.repo.GetSnapshotByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	snaps[productID] = snap
	return snap, nil
}

func (uc *inventoryUseCase) lockProduct(ctx context.Context, productID string) (func(), error) {
	key := "lock:inventory:" + productID
	value := uuid.New().String()

	for i := 0; i < 3; i++ {
		ok, err := uc.locker.AcquireLock(ctx, key, value, 5*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire product lock", zap.String("product_id", productID), zap.Error(err))
		}
		if ok {
			return func() {
				if err := uc.locker.ReleaseLock(ctx, key, value); err != nil {
					uc.logger.Error("failed to release product lock", zap.String("product_id", productID), zap.Error(err))
				}
			}, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, errors.New("inventory busy, please try again later (lock)")
}

func (uc *inventoryUseCase) newTransaction(ctx context.Context, input *dto.RecordTransactionInput, now time.Time) (*model.InventoryTransaction, error) {
	latest, err := uc.repo.LatestTransactionNumber(ctx)
	if err != nil {
		return nil, err
	}

	trx := &model.InventoryTransaction{
		ID:                uuid.New().String(),
		TransactionNumber: sequence.Next(model.TransactionNumberPrefix, latest),
		ProductID:         input.ProductID,
		Type:              input.Type,
		Quantity:          input.Quantity,
		QuantityBefore:    input.QuantityBefore,
		QuantityAfter:     input.QuantityAfter,
		Notes:             input.Notes,
		TransactionDate:   now,
		CreatedAt:         now,
	}

	if input.UnitCost != nil {
		trx.UnitCost = decimal.NewNullDecimal(*input.UnitCost)
		trx.TotalValue = decimal.NewNullDecimal(input.UnitCost.Mul(decimal.NewFromInt(input.Quantity)))
	}
	if input.ReferenceDocID != "" {
		ref := input.ReferenceDocID
		trx.ReferenceDocID = &ref
	}
	if input.Reference != "" {
		label := input.Reference
		trx.Reference = &label
	}
	if input.CreatedBy != "" {
		by := input.CreatedBy
		trx.CreatedBy = &by
	}
	return trx, nil
}

// indexTransaction pushes the committed transaction into the audit search
// index. Best effort: the ledger in Postgres is the source of truth.
func (uc *inventoryUseCase) indexTransaction(trx *model.InventoryTransaction) {
	if uc.es == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = uc.es.EnsureIndex(ctx, transactionIndex, transactionIndexMapping)
		if err := uc.es.Index(ctx, transactionIndex, trx.ID, trx); err != nil {
			uc.logger.Error("failed to index transaction",
				zap.String("transaction_number", trx.TransactionNumber), zap.Error(err))
		}
	}()
}

func applyDeltas(snap *model.InventorySnapshot, input *dto.ApplyChangeInput, now time.Time) {
	snap.QuantityOnHand += input.OnHandDelta
	snap.QuantityReserved = max64(0, snap.QuantityReserved+input.ReservedDelta)
	snap.QuantityInProduction = max64(0, snap.QuantityInProduction+input.ProductionDelta)
	if input.UnitCostOverride != nil {
		snap.UnitCost = *input.UnitCostOverride
	}
	if input.MarkRestocked {
		t := now
		snap.LastRestocked = &t
	}
	if input.MarkSold {
		t := now
		snap.LastSold = &t
	}
	snap.UpdatedAt = now
	snap.Recalculate()
}

func normalizeQuantity(q int64) int64 {
	if q <= 0 {
		return 1
	}
	return q
}

func itemName(item dto.RequestedItem) string {
	if item.Name != "" {
		return item.Name
	}
	return item.ProductID
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
