package store

import (
	"context"
	"fmt"

	"po-manager/internal/models"
)

// CreateSupplier creates a new supplier
func (q *queries) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `
		INSERT INTO suppliers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := sqlxGet(ctx, q, supplier, query,
		supplier.Name, supplier.Email, supplier.Phone, supplier.Address)
	return classify(err)
}

// GetSupplier retrieves a supplier by ID
func (q *queries) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	err := sqlxGet(ctx, q, &supplier, "SELECT * FROM suppliers WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "supplier", id)
	}
	return &supplier, nil
}

// LockSupplier retrieves a supplier and locks its row until the transaction
// ends. Concurrent inserts referencing the supplier wait on the lock.
func (q *queries) LockSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	err := sqlxGet(ctx, q, &supplier, "SELECT * FROM suppliers WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, notFound(err, "supplier", id)
	}
	return &supplier, nil
}

// ListSuppliers retrieves all suppliers
func (q *queries) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers := []models.Supplier{}
	err := sqlxSelect(ctx, q, &suppliers, "SELECT * FROM suppliers ORDER BY name, id")
	return suppliers, err
}

// UpdateSupplier overwrites the editable supplier fields
func (q *queries) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE suppliers SET name = $1, email = $2, phone = $3, address = $4 WHERE id = $5",
		supplier.Name, supplier.Email, supplier.Phone, supplier.Address, supplier.ID)
	if err != nil {
		return classify(err)
	}
	return requireRow(res, "supplier", supplier.ID)
}

// DeleteSupplier removes a supplier
func (q *queries) DeleteSupplier(ctx context.Context, id int64) error {
	res, err := q.ext.ExecContext(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: supplier %d", models.ErrHasOrders, id)
	}
	if err != nil {
		return err
	}
	return requireRow(res, "supplier", id)
}

// CountOrdersBySupplier counts purchase orders referencing a supplier
func (q *queries) CountOrdersBySupplier(ctx context.Context, supplierID int64) (int, error) {
	var n int
	err := sqlxGet(ctx, q, &n, "SELECT COUNT(*) FROM purchase_orders WHERE supplier_id = $1", supplierID)
	return n, err
}
