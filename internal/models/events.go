package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated         = "ORDER_CREATED"
	EventTypeOrderStatusChanged   = "ORDER_STATUS_CHANGED"
	EventTypeOrderDeleted         = "ORDER_DELETED"
	EventTypePaymentRecorded      = "PAYMENT_RECORDED"
	EventTypePaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	EventTypeSupplierCreated      = "SUPPLIER_CREATED"
	EventTypeSupplierDeleted      = "SUPPLIER_DELETED"
	EventTypeUserCreated          = "USER_CREATED"
	EventTypeUserDeleted          = "USER_DELETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   int64     `json:"actor_id,omitempty"`
}

// OrderCreatedEvent published when an order and its items are stored
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	SupplierID  int64           `json:"supplier_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
}

// OrderStatusChangedEvent published after a lifecycle transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID     int64       `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

// OrderDeletedEvent published after an order is removed
type OrderDeletedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// PaymentRecordedEvent published when a pending payment is created
type PaymentRecordedEvent struct {
	BaseEvent
	OrderID   int64           `json:"order_id"`
	PaymentID int64           `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"payment_method"`
}

// PaymentStatusChangedEvent published when a payment is confirmed or fails
type PaymentStatusChangedEvent struct {
	BaseEvent
	OrderID   int64         `json:"order_id"`
	PaymentID int64         `json:"payment_id"`
	From      PaymentStatus `json:"from"`
	To        PaymentStatus `json:"to"`
}

// SupplierEvent published when a supplier is created or deleted
type SupplierEvent struct {
	BaseEvent
	SupplierID int64  `json:"supplier_id"`
	Name       string `json:"name"`
}

// UserEvent published when a user registers or is deleted
type UserEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
