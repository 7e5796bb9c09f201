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

const idempotencyScopeOrder = "order"

// Options tunes the order and payment services
type Options struct {
	OrderNumberRetries int
	IdempotencyTTL     time.Duration
}

// OrderService handles purchase order business logic
type OrderService struct {
	repo        Repository
	events      EventPublisher
	idempotency IdempotencyStore
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
	idemTTL     time.Duration
}

// NewOrderService creates a new order service. idempotency may be nil.
func NewOrderService(
	repo Repository,
	events EventPublisher,
	idempotency IdempotencyStore,
	opts Options,
) *OrderService {
	if opts.OrderNumberRetries < 1 {
		opts.OrderNumberRetries = 3
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &OrderService{
		repo:        repo,
		events:      events,
		idempotency: idempotency,
		logger:      util.GetLogger(),
		now:         time.Now,
		maxAttempts: opts.OrderNumberRetries,
		idemTTL:     opts.IdempotencyTTL,
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	SupplierID     int64           `json:"supplier_id" binding:"required"`
	Items          []LineItemInput `json:"items" binding:"required"`
	CreatedBy      int64           `json:"-"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CreateOrder numbers and stores an order with its line items in one transaction
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if existing := s.replay(ctx, req.IdempotencyKey); existing != nil {
		return existing, nil
	}

	if req.SupplierID <= 0 {
		return nil, models.NewValidationError("supplier_id", "is required")
	}
	if req.CreatedBy <= 0 {
		return nil, models.NewValidationError("created_by", "acting user is required")
	}

	items, total, err := CalculateTotals(req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	var detail *models.OrderDetail
	for attempt := 1; ; attempt++ {
		detail, err = s.insertOrder(ctx, req, items, total)

		var dup *models.DuplicateError
		if errors.As(err, &dup) && dup.Field == "order_number" && attempt < s.maxAttempts {
			util.OrderNumberRetriesTotal.Inc()
			s.logger.Warn("Order number taken, retrying",
				zap.Int("attempt", attempt),
				zap.Int64("supplier_id", req.SupplierID))
			continue
		}
		break
	}
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", detail.Order.ID),
		zap.String("order_number", detail.Order.OrderNumber),
		zap.String("total_amount", detail.Order.TotalAmount.StringFixed(2)))

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.SetIdempotentResult(ctx, idempotencyScopeOrder, req.IdempotencyKey, detail.Order.ID, s.idemTTL); err != nil {
			s.logger.Error("Failed to store idempotency key", zap.Error(err))
		}
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:   newBaseEvent(WithActor(ctx, req.CreatedBy), models.EventTypeOrderCreated),
		OrderID:     detail.Order.ID,
		OrderNumber: detail.Order.OrderNumber,
		SupplierID:  detail.Order.SupplierID,
		TotalAmount: detail.Order.TotalAmount,
		ItemCount:   len(detail.Items),
	}
	if err := s.events.PublishOrderEvent(ctx, detail.Order.ID, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return detail, nil
}

// replay returns the order an earlier request with the same key produced
func (s *OrderService) replay(ctx context.Context, key string) *models.OrderDetail {
	if key == "" || s.idempotency == nil {
		return nil
	}

	orderID, ok, err := s.idempotency.GetIdempotentResult(ctx, idempotencyScopeOrder, key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("idempotency_key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	detail, err := s.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("Idempotent order no longer readable",
			zap.String("idempotency_key", key),
			zap.Int64("order_id", orderID),
			zap.Error(err))
		return nil
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", orderID))
	return detail
}

func (s *OrderService) insertOrder(
	ctx context.Context,
	req *CreateOrderRequest,
	items []models.LineItem,
	total decimal.Decimal,
) (*models.OrderDetail, error) {
	year := s.now().Year()
	prefix := OrderNumberPrefix(year)

	order := &models.PurchaseOrder{
		SupplierID:  req.SupplierID,
		CreatedBy:   req.CreatedBy,
		Status:      models.OrderStatusPending,
		TotalAmount: total,
	}
	created := make([]models.LineItem, len(items))

	err := s.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		supplier, err := q.GetSupplier(ctx, req.SupplierID)
		if err != nil {
			return err
		}
		if _, err := q.GetUser(ctx, req.CreatedBy); err != nil {
			return err
		}

		if err := q.LockOrderSequence(ctx, prefix); err != nil {
			return fmt.Errorf("failed to lock order sequence: %w", err)
		}
		last, err := q.LastOrderNumber(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to read last order number: %w", err)
		}
		order.OrderNumber, err = NextOrderNumber(last, year)
		if err != nil {
			return err
		}

		if err := q.CreateOrder(ctx, order); err != nil {
			return err
		}
		order.SupplierName = supplier.Name

		for i, item := range items {
			item.OrderID = order.ID
			if err := q.CreateLineItem(ctx, &item); err != nil {
				return fmt.Errorf("failed to create line item: %w", err)
			}
			created[i] = item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.OrderDetail{Order: *order, Items: created, Payments: []models.Payment{}}, nil
}

// UpdateOrderStatus moves an order along its lifecycle
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.PurchaseOrder, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	target, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	var order *models.PurchaseOrder
	var from models.OrderStatus
	err = s.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		order, err = q.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if !from.CanTransitionTo(target) {
			return &models.TransitionError{From: from, To: target}
		}
		if err := q.UpdateOrderStatus(ctx, orderID, target); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = target
		order.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OrderTransitionsTotal.WithLabelValues(string(target)).Inc()
	s.logger.Info("Order status changed",
		zap.Int64("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(target)))

	event := &models.OrderStatusChangedEvent{
		BaseEvent:   newBaseEvent(ctx, models.EventTypeOrderStatusChanged),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		From:        from,
		To:          target,
	}
	if err := s.events.PublishOrderEvent(ctx, order.ID, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return order, nil
}

// DeleteOrder removes a pending, unpaid order and its line items
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	var order *models.PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		var err error
		order, err = q.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return &models.StateError{Message: "only pending orders deletable"}
		}

		n, err := q.CountPayments(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: order %s has %d payment(s)", models.ErrHasPayments, order.OrderNumber, n)
		}

		return q.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	util.OrdersDeletedTotal.Inc()
	s.logger.Info("Order deleted",
		zap.Int64("order_id", orderID),
		zap.String("order_number", order.OrderNumber))

	event := &models.OrderDeletedEvent{
		BaseEvent:   newBaseEvent(ctx, models.EventTypeOrderDeleted),
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
	}
	if err := s.events.PublishOrderEvent(ctx, orderID, event); err != nil {
		s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
	}

	return nil
}

// GetOrder retrieves an order with its items and payments
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.OrderDetail, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetLineItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.ListPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &models.OrderDetail{Order: *order, Items: items, Payments: payments}, nil
}

// ListOrders retrieves all orders, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	return s.repo.ListOrders(ctx)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrSequenceExhausted):
		return "sequence_exhausted"
	case errors.Is(err, models.ErrDuplicate):
		return "duplicate_number"
	default:
		return "db_error"
	}
}
