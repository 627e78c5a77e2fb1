package listener

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/oakline/inventory-service/internal/auth"
	"github.com/oakline/inventory-service/internal/inventory"
	"github.com/oakline/inventory-service/internal/inventory/dto"
	"github.com/oakline/inventory-service/internal/model"
	"github.com/oakline/inventory-service/pkg/broker"
	"github.com/oakline/inventory-service/pkg/logger"
)

// systemActor is the created_by attribution for event-driven mutations.
const systemActor = "system"

// DocumentListener consumes business-document lifecycle events and drives the
// inventory planners. The reference document id in each event is the
// idempotency key, so redelivered events only top up what is still missing.
type DocumentListener struct {
	consumer *broker.KafkaConsumer
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewDocumentListener(consumer *broker.KafkaConsumer, uc inventory.UseCase, log logger.ZapLogger) *DocumentListener {
	return &DocumentListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *DocumentListener) Start(ctx context.Context) {
	l.logger.Info("Starting document Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping document Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type DocumentEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   DocumentPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type DocumentPayload struct {
	ID    string        `json:"id"`
	Label string        `json:"label"`
	Items []ItemPayload `json:"items"`
	// Outputs are the goods a completed work order produced.
	Outputs []ItemPayload `json:"outputs"`
}

type ItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Name      string `json:"name"`
}

func (l *DocumentListener) processMessage(ctx context.Context, value []byte) {
	var event DocumentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	ctx = auth.WithUserID(ctx, systemActor)

	switch event.EventType {
	case "OrderPlaced":
		l.reserve(ctx, event)
	case "OrderFulfilled":
		l.consume(ctx, event, model.TxSold)
	case "WorkOrderIssued":
		l.reserve(ctx, event)
	case "WorkOrderCompleted":
		l.consume(ctx, event, model.TxUsed)
		l.recordOutputs(ctx, event)
	default:
		// Not an inventory-relevant event.
	}
}

func (l *DocumentListener) reserve(ctx context.Context, event DocumentEvent) {
	result, err := l.uc.Reserve(ctx, &dto.ReserveInput{
		Items:          mapItems(event.Payload.Items),
		ReferenceDocID: event.Payload.ID,
		ReferenceLabel: event.Payload.Label,
	})
	if err != nil {
		l.logger.Error("Failed to reserve for document",
			zap.String("event_type", event.EventType),
			zap.String("document_id", event.Payload.ID),
			zap.Error(err),
		)
		return
	}
	for _, item := range result.Insufficient {
		l.logger.Warn("Insufficient stock for reservation",
			zap.String("document_id", event.Payload.ID),
			zap.String("product_id", item.ProductID),
			zap.Int64("required", item.Required),
			zap.Int64("available", item.Available),
		)
	}
	l.logMissing(event.Payload.ID, result.Missing)
}

func (l *DocumentListener) consume(ctx context.Context, event DocumentEvent, txType model.TransactionType) {
	// Only sale-type consumption moves the lastSold timestamp.
	markSold := txType == model.TxSold
	result, err := l.uc.Consume(ctx, &dto.ConsumeInput{
		Items:          mapItems(event.Payload.Items),
		Type:           txType,
		ReferenceDocID: event.Payload.ID,
		ReferenceLabel: event.Payload.Label,
		MarkSold:       &markSold,
	})
	if err != nil {
		l.logger.Error("Failed to consume for document",
			zap.String("event_type", event.EventType),
			zap.String("document_id", event.Payload.ID),
			zap.Error(err),
		)
		return
	}
	for _, item := range result.Shortages {
		l.logger.Warn("Consumption shortage recorded",
			zap.String("document_id", event.Payload.ID),
			zap.String("product_id", item.ProductID),
			zap.Int64("required", item.Required),
			zap.Int64("on_hand", item.OnHand),
		)
	}
	l.logMissing(event.Payload.ID, result.Missing)
}

func (l *DocumentListener) recordOutputs(ctx context.Context, event DocumentEvent) {
	for _, output := range event.Payload.Outputs {
		result, err := l.uc.RecordManufactured(ctx, &dto.ManufactureInput{
			ProductID:      output.ProductID,
			Quantity:       output.Quantity,
			ReferenceDocID: event.Payload.ID,
			ReferenceLabel: event.Payload.Label,
		})
		if err != nil {
			l.logger.Error("Failed to record manufactured output",
				zap.String("document_id", event.Payload.ID),
				zap.String("product_id", output.ProductID),
				zap.Error(err),
			)
			continue
		}
		l.logMissing(event.Payload.ID, result.Missing)
	}
}

func (l *DocumentListener) logMissing(documentID string, missing []dto.MissingItem) {
	for _, item := range missing {
		l.logger.Warn("Inventory missing for document item",
			zap.String("document_id", documentID),
			zap.String("product_id", item.ProductID),
			zap.String("reason", item.Reason),
		)
	}
}

func mapItems(items []ItemPayload) []dto.RequestedItem {
	mapped := make([]dto.RequestedItem, len(items))
	for i, item := range items {
		mapped[i] = dto.RequestedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Name:      item.Name,
		}
	}
	return mapped
}
