package store

import (
	"context"

	"po-manager/internal/models"

	"github.com/shopspring/decimal"
)

// CreatePayment creates a new payment record
func (q *queries) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, amount, payment_method, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, payment_date, updated_at`

	return sqlxGet(ctx, q, payment, query,
		payment.OrderID, payment.Amount, payment.Method, payment.Status)
}

// GetPayment retrieves a payment by ID
func (q *queries) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := sqlxGet(ctx, q, &payment, "SELECT * FROM payments WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "payment", id)
	}
	return &payment, nil
}

// ListPayments retrieves payments for an order, or all payments when orderID is 0
func (q *queries) ListPayments(ctx context.Context, orderID int64) ([]models.Payment, error) {
	payments := []models.Payment{}
	if orderID == 0 {
		err := sqlxSelect(ctx, q, &payments, "SELECT * FROM payments ORDER BY payment_date DESC, id DESC")
		return payments, err
	}
	err := sqlxSelect(ctx, q, &payments,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY payment_date, id", orderID)
	return payments, err
}

// CountPayments counts payments of any status recorded against an order
func (q *queries) CountPayments(ctx context.Context, orderID int64) (int, error) {
	var n int
	err := sqlxGet(ctx, q, &n, "SELECT COUNT(*) FROM payments WHERE order_id = $1", orderID)
	return n, err
}

// SumPaidPayments sums paid payments of an order, skipping excludePaymentID
func (q *queries) SumPaidPayments(ctx context.Context, orderID, excludePaymentID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := sqlxGet(ctx, q, &sum,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1 AND status = $2 AND id <> $3",
		orderID, models.PaymentStatusPaid, excludePaymentID)
	return sum, err
}

// UpdatePaymentStatus updates payment status
func (q *queries) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id)
	if err != nil {
		return err
	}
	return requireRow(res, "payment", id)
}
