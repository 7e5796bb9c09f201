package store

import (
	"context"
	"database/sql"
	"errors"

	"po-manager/internal/models"
)

const orderColumns = `
	po.id, po.order_number, po.supplier_id, s.name AS supplier_name, po.created_by,
	po.order_date, po.status, po.total_amount, po.version, po.updated_at`

// LockOrderSequence serializes order numbering for one prefix until the transaction ends
func (q *queries) LockOrderSequence(ctx context.Context, prefix string) error {
	_, err := q.ext.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", prefix)
	return err
}

// LastOrderNumber returns the greatest order number with the prefix, or "" if none
func (q *queries) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := sqlxGet(ctx, q, &number,
		"SELECT order_number FROM purchase_orders WHERE order_number LIKE $1 || '%' ORDER BY order_number DESC LIMIT 1",
		prefix)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return number, err
}

// CreateOrder creates a new purchase order
func (q *queries) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (order_number, supplier_id, created_by, status, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_date, version, updated_at`

	err := sqlxGet(ctx, q, order, query,
		order.OrderNumber, order.SupplierID, order.CreatedBy, order.Status, order.TotalAmount)
	return classify(err)
}

// CreateLineItem creates a new line item
func (q *queries) CreateLineItem(ctx context.Context, item *models.LineItem) error {
	query := `
		INSERT INTO line_items (order_id, item_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return sqlxGet(ctx, q, &item.ID, query,
		item.OrderID, item.ItemName, item.Quantity, item.UnitPrice, item.TotalPrice)
}

// GetOrder retrieves an order by ID
func (q *queries) GetOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := sqlxGet(ctx, q, &order,
		"SELECT"+orderColumns+" FROM purchase_orders po JOIN suppliers s ON s.id = po.supplier_id WHERE po.id = $1", id)
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}
	return &order, nil
}

// LockOrder retrieves an order and holds its row lock until the transaction ends
func (q *queries) LockOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := sqlxGet(ctx, q, &order,
		"SELECT"+orderColumns+" FROM purchase_orders po JOIN suppliers s ON s.id = po.supplier_id WHERE po.id = $1 FOR UPDATE OF po", id)
	if err != nil {
		return nil, notFound(err, "purchase order", id)
	}
	return &order, nil
}

// ListOrders retrieves all orders, newest first
func (q *queries) ListOrders(ctx context.Context) ([]models.PurchaseOrder, error) {
	orders := []models.PurchaseOrder{}
	err := sqlxSelect(ctx, q, &orders,
		"SELECT"+orderColumns+" FROM purchase_orders po JOIN suppliers s ON s.id = po.supplier_id ORDER BY po.order_date DESC, po.id DESC")
	return orders, err
}

// GetLineItems retrieves all items for an order
func (q *queries) GetLineItems(ctx context.Context, orderID int64) ([]models.LineItem, error) {
	items := []models.LineItem{}
	err := sqlxSelect(ctx, q, &items,
		"SELECT * FROM line_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus updates order status and bumps its version
func (q *queries) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE purchase_orders SET status = $1, version = version + 1, updated_at = NOW() WHERE id = $2",
		status, id)
	if err != nil {
		return err
	}
	return requireRow(res, "purchase order", id)
}

// DeleteOrder removes an order together with its line items
func (q *queries) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM line_items WHERE order_id = $1", id); err != nil {
		return err
	}
	res, err := q.ext.ExecContext(ctx, "DELETE FROM purchase_orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	return requireRow(res, "purchase order", id)
}

func requireRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
