package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"po-manager/internal/broker"
	"po-manager/internal/models"
	"po-manager/internal/util"

	"go.uber.org/zap"
)

// AuditRecorder persists audit entries
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// AuditWorker turns domain events into audit log entries
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	recorder     AuditRecorder
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker. consumer may be nil when the
// worker is driven through Handler directly.
func NewAuditWorker(consumer *broker.Consumer, recorder AuditRecorder) *AuditWorker {
	w := &AuditWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		recorder:     recorder,
		logger:       util.GetLogger(),
	}

	w.register(models.EventTypeOrderCreated, func(payload []byte) (*models.AuditLog, error) {
		var e models.OrderCreatedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &models.AuditLog{
			Action:   fmt.Sprintf("order %s created (total %s)", e.OrderNumber, e.TotalAmount.StringFixed(2)),
			Entity:   "purchase_order",
			EntityID: e.OrderID,
		}, nil
	})

	w.register(models.EventTypeOrderStatusChanged, func(payload []byte) (*models.AuditLog, error) {
		var e models.OrderStatusChangedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &models.AuditLog{
			Action:   fmt.Sprintf("order %s status changed from %s to %s", e.OrderNumber, e.From, e.To),
			Entity:   "purchase_order",
			EntityID: e.OrderID,
		}, nil
	})

	w.register(models.EventTypeOrderDeleted, func(payload []byte) (*models.AuditLog, error) {
		var e models.OrderDeletedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &models.AuditLog{
			Action:   fmt.Sprintf("order %s deleted", e.OrderNumber),
			Entity:   "purchase_order",
			EntityID: e.OrderID,
		}, nil
	})

	w.register(models.EventTypePaymentRecorded, func(payload []byte) (*models.AuditLog, error) {
		var e models.PaymentRecordedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &models.AuditLog{
			Action:   fmt.Sprintf("payment #%d of %s by %s recorded for order #%d", e.PaymentID, e.Amount.StringFixed(2), e.Method, e.OrderID),
			Entity:   "payment",
			EntityID: e.PaymentID,
		}, nil
	})

	w.register(models.EventTypePaymentStatusChanged, func(payload []byte) (*models.AuditLog, error) {
		var e models.PaymentStatusChangedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return &models.AuditLog{
			Action:   fmt.Sprintf("payment #%d status changed from %s to %s", e.PaymentID, e.From, e.To),
			Entity:   "payment",
			EntityID: e.PaymentID,
		}, nil
	})

	supplier := func(verb string) func([]byte) (*models.AuditLog, error) {
		return func(payload []byte) (*models.AuditLog, error) {
			var e models.SupplierEvent
			if err := json.Unmarshal(payload, &e); err != nil {
				return nil, err
			}
			return &models.AuditLog{
				Action:   fmt.Sprintf("supplier %s %s", e.Name, verb),
				Entity:   "supplier",
				EntityID: e.SupplierID,
			}, nil
		}
	}
	w.register(models.EventTypeSupplierCreated, supplier("created"))
	w.register(models.EventTypeSupplierDeleted, supplier("deleted"))

	user := func(verb string) func([]byte) (*models.AuditLog, error) {
		return func(payload []byte) (*models.AuditLog, error) {
			var e models.UserEvent
			if err := json.Unmarshal(payload, &e); err != nil {
				return nil, err
			}
			return &models.AuditLog{
				Action:   fmt.Sprintf("user %s %s", e.Username, verb),
				Entity:   "user",
				EntityID: e.UserID,
			}, nil
		}
	}
	w.register(models.EventTypeUserCreated, user("registered"))
	w.register(models.EventTypeUserDeleted, user("deleted"))

	return w
}

// register wires a decoder that builds the entry body; the envelope fields
// come from the base event.
func (w *AuditWorker) register(eventType string, build func(payload []byte) (*models.AuditLog, error)) {
	w.eventHandler.On(eventType, func(ctx context.Context, base models.BaseEvent, payload []byte) error {
		start := time.Now()

		entry, err := build(payload)
		if err != nil {
			util.AuditEventsProcessedTotal.WithLabelValues(eventType, "decode_error").Inc()
			return fmt.Errorf("failed to decode %s event: %w", eventType, err)
		}

		entry.EventID = base.EventID
		entry.ActionTime = base.Timestamp
		if entry.ActionTime.IsZero() {
			entry.ActionTime = time.Now()
		}
		if base.ActorID > 0 {
			actor := base.ActorID
			entry.UserID = &actor
		}

		if err := w.recorder.CreateAuditLog(ctx, entry); err != nil {
			util.AuditEventsProcessedTotal.WithLabelValues(eventType, "store_error").Inc()
			return fmt.Errorf("failed to store audit entry: %w", err)
		}

		util.AuditEventsProcessedTotal.WithLabelValues(eventType, "ok").Inc()
		util.AuditProcessingLatency.Observe(time.Since(start).Seconds())
		return nil
	})
}

// Handler returns the message handler the worker consumes with
func (w *AuditWorker) Handler() broker.MessageHandler {
	return w.eventHandler.HandleMessage
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}
