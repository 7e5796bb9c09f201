package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier represents a vendor purchase orders are placed with
type Supplier struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User represents an account that creates orders
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PurchaseOrder represents an order placed with a supplier
type PurchaseOrder struct {
	ID           int64           `db:"id" json:"id"`
	OrderNumber  string          `db:"order_number" json:"order_number"`
	SupplierID   int64           `db:"supplier_id" json:"supplier_id"`
	SupplierName string          `db:"supplier_name" json:"supplier_name,omitempty"`
	CreatedBy    int64           `db:"created_by" json:"created_by"`
	OrderDate    time.Time       `db:"order_date" json:"order_date"`
	Status       OrderStatus     `db:"status" json:"status"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	Version      int64           `db:"version" json:"version"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// LineItem represents one line of a purchase order
type LineItem struct {
	ID         int64           `db:"id" json:"id"`
	OrderID    int64           `db:"order_id" json:"order_id"`
	ItemName   string          `db:"item_name" json:"item_name"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
}

// Payment represents money paid against a purchase order
type Payment struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"order_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Method      PaymentMethod   `db:"payment_method" json:"payment_method"`
	Status      PaymentStatus   `db:"status" json:"status"`
	PaymentDate time.Time       `db:"payment_date" json:"payment_date"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// AuditLog is one entry of the activity trail
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Entity     string    `db:"entity" json:"entity"`
	EntityID   int64     `db:"entity_id" json:"entity_id"`
	EventID    string    `db:"event_id" json:"event_id"`
	ActionTime time.Time `db:"action_time" json:"action_time"`
}

// OrderDetail is an order together with its items and payments
type OrderDetail struct {
	Order    PurchaseOrder `json:"order"`
	Items    []LineItem    `json:"items"`
	Payments []Payment     `json:"payments"`
}

// DashboardStats summarises purchasing activity
type DashboardStats struct {
	TotalSuppliers        int               `json:"total_suppliers"`
	TotalPurchaseOrders   int               `json:"total_purchase_orders"`
	PendingPurchaseOrders int               `json:"pending_purchase_orders"`
	TotalSpent            decimal.Decimal   `json:"total_spent"`
	PendingPayments       decimal.Decimal   `json:"pending_payments"`
	MonthlySpending       []MonthlySpending `json:"monthly_spending"`
	TopSuppliers          []TopSupplier     `json:"top_suppliers"`
}

type MonthlySpending struct {
	Month  string          `db:"month" json:"month"`
	Amount decimal.Decimal `db:"amount" json:"amount"`
}

type TopSupplier struct {
	Name        string          `db:"name" json:"name"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	OrderCount  int             `db:"order_count" json:"order_count"`
}
