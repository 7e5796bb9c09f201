package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"po-manager/internal/models"
	"po-manager/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events. Events of one aggregate
// share a message key and therefore a partition, which keeps them ordered.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderEvent publishes an order or payment event keyed by its order
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, orderID int64, event interface{}) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("order-%d", orderID), event)
}

// PublishSupplierEvent publishes a supplier event
func (ep *EventPublisher) PublishSupplierEvent(ctx context.Context, supplierID int64, event interface{}) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("supplier-%d", supplierID), event)
}

// PublishUserEvent publishes a user event
func (ep *EventPublisher) PublishUserEvent(ctx context.Context, userID int64, event interface{}) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("user-%d", userID), event)
}

// EventFunc handles one decoded event. payload is the full message value.
type EventFunc func(ctx context.Context, base models.BaseEvent, payload []byte) error

// EventHandler routes incoming events by type
type EventHandler struct {
	handlers map[string]EventFunc
	logger   *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		handlers: make(map[string]EventFunc),
		logger:   util.GetLogger(),
	}
}

// On registers fn for events of eventType
func (eh *EventHandler) On(eventType string, fn EventFunc) {
	eh.handlers[eventType] = fn
}

// HandleMessage routes messages to appropriate handlers. Events without a
// registered handler are skipped.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	fn, ok := eh.handlers[baseEvent.EventType]
	if !ok {
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
		return nil
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))
	return fn(ctx, baseEvent, msg.Value)
}
