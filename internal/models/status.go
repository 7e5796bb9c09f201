package models

import "strings"

// OrderStatus is the lifecycle state of a purchase order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus is the confirmation state of a payment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusApproved, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusApproved:  {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {OrderStatusCancelled},
	OrderStatusCancelled: nil,
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseOrderStatus lower-cases s and checks it names a known status
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(normalize(s))
	if _, ok := orderTransitions[status]; !ok {
		return "", NewValidationError("status", "unknown order status "+quote(s))
	}
	return status, nil
}

// CanTransitionTo reports whether the lifecycle allows moving to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParsePaymentStatus lower-cases s and checks it names a known status
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch status := PaymentStatus(normalize(s)); status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return status, nil
	}
	return "", NewValidationError("status", "unknown payment status "+quote(s))
}

// ParsePaymentMethod lower-cases s and checks it names a known method
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch method := PaymentMethod(normalize(s)); method {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCreditCard:
		return method, nil
	}
	return "", NewValidationError("payment_method", "unknown payment method "+quote(s))
}

func quote(s string) string {
	return `"` + s + `"`
}
