package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"po-manager/internal/models"
	"po-manager/internal/store"
	"po-manager/internal/util"

	"go.uber.org/zap"
)

// SupplierService manages suppliers
type SupplierService struct {
	repo   Repository
	events EventPublisher
	logger *zap.Logger
}

// NewSupplierService creates a new supplier service
func NewSupplierService(repo Repository, events EventPublisher) *SupplierService {
	return &SupplierService{
		repo:   repo,
		events: events,
		logger: util.GetLogger(),
	}
}

// SupplierRequest carries the editable supplier fields
type SupplierRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=20"`
	Address string `json:"address"`
}

func (r *SupplierRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
}

// CreateSupplier validates and stores a supplier
func (s *SupplierService) CreateSupplier(ctx context.Context, req *SupplierRequest) (*models.Supplier, error) {
	ctx, span := util.StartSpan(ctx, "SupplierService.CreateSupplier")
	defer span.End()

	req.normalize()
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	supplier := &models.Supplier{Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, duplicateAsValidation(err, "supplier")
	}

	s.logger.Info("Supplier created", zap.Int64("supplier_id", supplier.ID))
	s.publish(ctx, models.EventTypeSupplierCreated, supplier)
	return supplier, nil
}

// UpdateSupplier overwrites a supplier's fields
func (s *SupplierService) UpdateSupplier(ctx context.Context, id int64, req *SupplierRequest) (*models.Supplier, error) {
	ctx, span := util.StartSpan(ctx, "SupplierService.UpdateSupplier")
	defer span.End()

	req.normalize()
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	supplier, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	supplier.Name, supplier.Email, supplier.Phone, supplier.Address = req.Name, req.Email, req.Phone, req.Address

	if err := s.repo.UpdateSupplier(ctx, supplier); err != nil {
		return nil, duplicateAsValidation(err, "supplier")
	}
	return supplier, nil
}

// DeleteSupplier removes a supplier that no purchase order references. The
// supplier row stays locked between the count and the delete, so an order
// created concurrently either commits first and is counted or waits and fails.
func (s *SupplierService) DeleteSupplier(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "SupplierService.DeleteSupplier")
	defer span.End()

	var supplier *models.Supplier
	err := s.repo.WithTx(ctx, func(ctx context.Context, q store.Querier) error {
		var err error
		supplier, err = q.LockSupplier(ctx, id)
		if err != nil {
			return err
		}

		n, err := q.CountOrdersBySupplier(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count supplier orders: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s is referenced by %d order(s)", models.ErrHasOrders, supplier.Name, n)
		}

		return q.DeleteSupplier(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Supplier deleted", zap.Int64("supplier_id", id))
	s.publish(ctx, models.EventTypeSupplierDeleted, supplier)
	return nil
}

// GetSupplier retrieves a supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

// ListSuppliers retrieves all suppliers
func (s *SupplierService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *SupplierService) publish(ctx context.Context, eventType string, supplier *models.Supplier) {
	event := &models.SupplierEvent{
		BaseEvent:  newBaseEvent(ctx, eventType),
		SupplierID: supplier.ID,
		Name:       supplier.Name,
	}
	if err := s.events.PublishSupplierEvent(ctx, supplier.ID, event); err != nil {
		s.logger.Error("Failed to publish supplier event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// duplicateAsValidation reports a unique-constraint conflict as a validation failure
func duplicateAsValidation(err error, entity string) error {
	var dup *models.DuplicateError
	if errors.As(err, &dup) {
		return models.NewValidationError(dup.Field, fmt.Sprintf("another %s already uses this %s", entity, dup.Field))
	}
	return err
}
