package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"po-manager/internal/models"
	"po-manager/internal/store"
	"po-manager/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const idempotencyScopePayment = "payment"

// PaymentService reconciles payments against order balances
type PaymentService struct {
	repo        Repository
	events      EventPublisher
	idempotency IdempotencyStore
	logger      *zap.Logger
	idemTTL     time.Duration
}

// NewPaymentService creates a new payment service. idempotency may be nil.
func NewPaymentService(repo Repository, events EventPublisher, idempotency IdempotencyStore, opts Options) *PaymentService {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &PaymentService{
		repo:        repo,
		events:      events,
		idempotency: idempotency,
		logger:      util.GetLogger(),
		idemTTL:     opts.IdempotencyTTL,
	}
}

// RecordPaymentRequest represents a payment submitted against an order
type RecordPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method" binding:"required"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// RecordPayment stores a pending payment if it fits in the order's remaining balance
func (ps *PaymentService) RecordPayment(ctx context.Context, orderID int64, req *RecordPaymentRequest) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.RecordPayment")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()

	if req.IdempotencyKey != "" && ps.idempotency != nil {
		paymentID, ok, err := ps.idempotency.GetIdempotentResult(ctx, idempotencyScopePayment, req.IdempotencyKey)
		if err != nil {
			ps.logger.Warn("Idempotency lookup failed", zap.String("idempotency_key", req.IdempotencyKey), zap.Error(err))
		} else if ok {
			if payment, err := ps.repo.GetPayment(ctx, paymentID); err == nil && payment.OrderID == orderID {
				ps.logger.Info("Duplicate payment request detected",
					zap.String("idempotency_key", req.IdempotencyKey),
					zap.Int64("payment_id", paymentID))
				return payment, nil
			}
		}
	}

	if !req.Amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be greater than 0")
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, models.NewValidationError("amount", "must not have fractions of a cent")
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID: orderID,
		Amount:  req.Amount,
		Method:  method,
		Status:  models.PaymentStatusPending,
	}

	err = ps.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		order, err := q.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}

		remaining, err := remainingBalance(ctx, q, order, 0)
		if err != nil {
			return err
		}
		if req.Amount.GreaterThan(remaining) {
			return &models.BalanceExceededError{Remaining: remaining}
		}

		if err := q.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		if isBalanceExceeded(err) {
			util.PaymentRejectedTotal.WithLabelValues("balance_exceeded").Inc()
		}
		return nil, err
	}

	util.PaymentsRecordedTotal.WithLabelValues(string(method)).Inc()
	ps.logger.Info("Payment recorded",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", payment.ID),
		zap.String("amount", payment.Amount.StringFixed(2)))

	if req.IdempotencyKey != "" && ps.idempotency != nil {
		if err := ps.idempotency.SetIdempotentResult(ctx, idempotencyScopePayment, req.IdempotencyKey, payment.ID, ps.idemTTL); err != nil {
			ps.logger.Error("Failed to store idempotency key", zap.Error(err))
		}
	}

	event := &models.PaymentRecordedEvent{
		BaseEvent: newBaseEvent(ctx, models.EventTypePaymentRecorded),
		OrderID:   orderID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Method:    payment.Method,
	}
	if err := ps.events.PublishOrderEvent(ctx, orderID, event); err != nil {
		ps.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}

	return payment, nil
}

// UpdatePaymentStatus confirms or fails a payment. Marking a payment paid
// re-checks the order balance so paid payments never exceed the order total.
func (ps *PaymentService) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.UpdatePaymentStatus")
	defer span.End()

	target, err := models.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	var payment *models.Payment
	var from models.PaymentStatus
	err = ps.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		current, err := q.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		// Lock the parent order first so concurrent confirmations serialize.
		order, err := q.LockOrder(ctx, current.OrderID)
		if err != nil {
			return err
		}
		payment, err = q.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		from = payment.Status
		if from == target {
			return nil
		}

		if target == models.PaymentStatusPaid {
			remaining, err := remainingBalance(ctx, q, order, payment.ID)
			if err != nil {
				return err
			}
			if payment.Amount.GreaterThan(remaining) {
				return &models.BalanceExceededError{Remaining: remaining}
			}
		}

		if err := q.UpdatePaymentStatus(ctx, paymentID, target); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		payment.Status = target
		return nil
	})
	if err != nil {
		if isBalanceExceeded(err) {
			util.PaymentRejectedTotal.WithLabelValues("confirm_exceeds_balance").Inc()
		}
		return nil, err
	}
	if from == target {
		return payment, nil
	}

	switch target {
	case models.PaymentStatusPaid:
		util.PaymentSuccessTotal.Inc()
	case models.PaymentStatusFailed:
		util.PaymentFailedTotal.Inc()
	}
	ps.logger.Info("Payment status changed",
		zap.Int64("payment_id", paymentID),
		zap.String("from", string(from)),
		zap.String("to", string(target)))

	event := &models.PaymentStatusChangedEvent{
		BaseEvent: newBaseEvent(ctx, models.EventTypePaymentStatusChanged),
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		From:      from,
		To:        target,
	}
	if err := ps.events.PublishOrderEvent(ctx, payment.OrderID, event); err != nil {
		ps.logger.Error("Failed to publish PaymentStatusChanged event", zap.Error(err))
	}

	return payment, nil
}

// GetRemainingBalance returns the order total minus its paid payments
func (ps *PaymentService) GetRemainingBalance(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.GetRemainingBalance")
	defer span.End()

	order, err := ps.repo.GetOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return remainingBalance(ctx, ps.repo, order, 0)
}

// GetPayment retrieves a payment by ID
func (ps *PaymentService) GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	return ps.repo.GetPayment(ctx, paymentID)
}

// ListPayments retrieves payments of one order, or of all orders when orderID is 0
func (ps *PaymentService) ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error) {
	if orderID != 0 {
		if _, err := ps.repo.GetOrder(ctx, orderID); err != nil {
			return nil, err
		}
	}
	return ps.repo.ListPayments(ctx, orderID)
}

// remainingBalance computes order total minus paid payments, ignoring excludePaymentID
func remainingBalance(ctx context.Context, q store.Querier, order *models.PurchaseOrder, excludePaymentID int64) (decimal.Decimal, error) {
	paid, err := q.SumPaidPayments(ctx, order.ID, excludePaymentID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum paid payments: %w", err)
	}
	return order.TotalAmount.Sub(paid), nil
}

func isBalanceExceeded(err error) bool {
	return errors.Is(err, models.ErrBalanceExceeded)
}
