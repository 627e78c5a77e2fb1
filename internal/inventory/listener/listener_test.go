package listener

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
	"github.com/oakline/inventory-service/pkg/logger"
)

type recordingUseCase struct {
	reserves     []*dto.ReserveInput
	consumes     []*dto.ConsumeInput
	manufactures []*dto.ManufactureInput
}

func (r *recordingUseCase) GetProductInventory(context.Context, string) (*model.InventorySnapshot, error) {
	return nil, nil
}
func (r *recordingUseCase) ListLowStock(context.Context, int, int) ([]model.InventorySnapshot, int, error) {
	return nil, 0, nil
}
func (r *recordingUseCase) ListTransactions(context.Context, *dto.TransactionFilters) ([]model.InventoryTransaction, int, error) {
	return nil, 0, nil
}
func (r *recordingUseCase) ApplyChange(context.Context, *dto.ApplyChangeInput) (*model.InventorySnapshot, error) {
	return nil, nil
}
func (r *recordingUseCase) RecordTransaction(context.Context, *dto.RecordTransactionInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (r *recordingUseCase) Receive(context.Context, *dto.ReceiveInput) (*model.InventorySnapshot, error) {
	return nil, nil
}
func (r *recordingUseCase) Adjust(context.Context, *dto.AdjustInput) (*model.InventorySnapshot, error) {
	return nil, nil
}
func (r *recordingUseCase) BeginProduction(context.Context, string, int64) (*model.InventorySnapshot, error) {
	return nil, nil
}
func (r *recordingUseCase) RecordManufactured(_ context.Context, input *dto.ManufactureInput) (*dto.ManufactureResult, error) {
	r.manufactures = append(r.manufactures, input)
	return &dto.ManufactureResult{}, nil
}
func (r *recordingUseCase) Reserve(_ context.Context, input *dto.ReserveInput) (*dto.ReserveResult, error) {
	r.reserves = append(r.reserves, input)
	return &dto.ReserveResult{}, nil
}
func (r *recordingUseCase) Consume(_ context.Context, input *dto.ConsumeInput) (*dto.ConsumeResult, error) {
	r.consumes = append(r.consumes, input)
	return &dto.ConsumeResult{}, nil
}

func TestProcessMessageOrderPlacedReserves(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewDocumentListener(nil, uc, logger.NewNop())

	l.processMessage(context.Background(), []byte(`{
		"event_type": "OrderPlaced",
		"payload": {"id": "order-1", "label": "SO #1", "items": [
			{"product_id": "prod-1", "quantity": 2, "name": "Widget"}
		]}
	}`))

	require.Len(t, uc.reserves, 1)
	assert.Equal(t, "order-1", uc.reserves[0].ReferenceDocID)
	require.Len(t, uc.reserves[0].Items, 1)
	assert.Equal(t, int64(2), uc.reserves[0].Items[0].Quantity)
}

func TestProcessMessageOrderFulfilledConsumesSold(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewDocumentListener(nil, uc, logger.NewNop())

	l.processMessage(context.Background(), []byte(`{
		"event_type": "OrderFulfilled",
		"payload": {"id": "order-1", "items": [{"product_id": "prod-1", "quantity": 2}]}
	}`))

	require.Len(t, uc.consumes, 1)
	assert.Equal(t, model.TxSold, uc.consumes[0].Type)
}

func TestProcessMessageWorkOrderCompleted(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewDocumentListener(nil, uc, logger.NewNop())

	l.processMessage(context.Background(), []byte(`{
		"event_type": "WorkOrderCompleted",
		"payload": {
			"id": "wo-1",
			"items": [{"product_id": "part-1", "quantity": 4}],
			"outputs": [{"product_id": "finished-1", "quantity": 1}]
		}
	}`))

	require.Len(t, uc.consumes, 1)
	assert.Equal(t, model.TxUsed, uc.consumes[0].Type)
	assert.Equal(t, "wo-1", uc.consumes[0].ReferenceDocID)

	require.Len(t, uc.manufactures, 1)
	assert.Equal(t, "finished-1", uc.manufactures[0].ProductID)
	assert.Equal(t, int64(1), uc.manufactures[0].Quantity)
}

func TestProcessMessageIgnoresUnknownEvents(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewDocumentListener(nil, uc, logger.NewNop())

	l.processMessage(context.Background(), []byte(`{"event_type": "VendorApproved", "payload": {"id": "v-1"}}`))
	l.processMessage(context.Background(), []byte(`not json`))

	assert.Empty(t, uc.reserves)
	assert.Empty(t, uc.consumes)
	assert.Empty(t, uc.manufactures)
}
