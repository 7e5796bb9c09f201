package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"po-manager/internal/models"
	"po-manager/internal/util"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestPublisher() (*EventPublisher, *recordingWriter) {
	w := &recordingWriter{}
	return NewEventPublisher(&Producer{writer: w, logger: util.GetLogger()}), w
}

func TestPublishKeys(t *testing.T) {
	ep, w := newTestPublisher()
	ctx := context.Background()

	require.NoError(t, ep.PublishOrderEvent(ctx, 12, &models.OrderDeletedEvent{OrderID: 12}))
	require.NoError(t, ep.PublishSupplierEvent(ctx, 3, &models.SupplierEvent{SupplierID: 3}))
	require.NoError(t, ep.PublishUserEvent(ctx, 9, &models.UserEvent{UserID: 9}))

	require.Len(t, w.messages, 3)
	assert.Equal(t, "order-12", string(w.messages[0].Key))
	assert.Equal(t, "supplier-3", string(w.messages[1].Key))
	assert.Equal(t, "user-9", string(w.messages[2].Key))
}

func TestPublishEncodesEvent(t *testing.T) {
	ep, w := newTestPublisher()

	event := &models.PaymentRecordedEvent{
		BaseEvent: models.BaseEvent{EventID: "e-1", EventType: models.EventTypePaymentRecorded, Timestamp: time.Now()},
		OrderID:   5,
		PaymentID: 8,
		Amount:    decimal.RequireFromString("40.50"),
		Method:    models.PaymentMethodBankTransfer,
	}
	require.NoError(t, ep.PublishOrderEvent(context.Background(), 5, event))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, models.EventTypePaymentRecorded, decoded["event_type"])
	assert.Equal(t, "40.5", decoded["amount"])
	assert.Equal(t, "bank_transfer", decoded["payment_method"])
}

func TestPublishWriteError(t *testing.T) {
	ep, w := newTestPublisher()
	w.err = errors.New("broker down")

	err := ep.PublishOrderEvent(context.Background(), 1, &models.OrderDeletedEvent{})
	assert.ErrorContains(t, err, "broker down")
}

func TestHandleMessageRoutesByType(t *testing.T) {
	eh := NewEventHandler()

	var got models.OrderCreatedEvent
	eh.On(models.EventTypeOrderCreated, func(_ context.Context, base models.BaseEvent, payload []byte) error {
		assert.Equal(t, "e-7", base.EventID)
		return json.Unmarshal(payload, &got)
	})

	value, err := json.Marshal(&models.OrderCreatedEvent{
		BaseEvent:   models.BaseEvent{EventID: "e-7", EventType: models.EventTypeOrderCreated},
		OrderID:     4,
		OrderNumber: "PO-2025-0004",
	})
	require.NoError(t, err)

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
	assert.Equal(t, "PO-2025-0004", got.OrderNumber)
}

func TestHandleMessageSkipsUnknownType(t *testing.T) {
	eh := NewEventHandler()
	msg := kafka.Message{Value: []byte(`{"event_id":"x","event_type":"SOMETHING_ELSE"}`)}
	assert.NoError(t, eh.HandleMessage(context.Background(), msg))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	eh := NewEventHandler()
	assert.Error(t, eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))
}
