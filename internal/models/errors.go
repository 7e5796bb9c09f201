package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidState       = errors.New("invalid state")
	ErrBalanceExceeded    = errors.New("payment exceeds remaining balance")
	ErrHasPayments        = errors.New("order has payments")
	ErrHasOrders          = errors.New("referenced by purchase orders")
	ErrSequenceExhausted  = errors.New("order number sequence exhausted")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicate is returned by the store when a unique constraint rejects a row.
	ErrDuplicate = errors.New("duplicate value")
)

// ValidationError describes malformed or out-of-range input
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransitionError is returned when the lifecycle forbids a status change
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StateError is returned when an operation is not allowed in the current state
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return e.Message
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// BalanceExceededError carries the balance still open on the order
type BalanceExceededError struct {
	Remaining decimal.Decimal
}

func (e *BalanceExceededError) Error() string {
	return fmt.Sprintf("payment exceeds remaining balance of %s", e.Remaining.StringFixed(2))
}

func (e *BalanceExceededError) Is(target error) bool {
	return target == ErrBalanceExceeded
}

// NotFoundError names the missing entity
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateError names the field whose unique constraint rejected a write
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
